package cellgrid

import "testing"

func TestAssignDefinitionAndIsAssigned(t *testing.T) {
	g := New(16)
	if g.IsAssigned(4) {
		t.Fatalf("expected unassigned before AssignDefinition")
	}
	if cusses := g.AssignDefinition(4, Definition{Source: "T.agc", Line: 1}); len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if !g.IsAssigned(4) {
		t.Fatalf("expected assigned after AssignDefinition")
	}
}

func TestAssignDefinitionConflict(t *testing.T) {
	g := New(16)
	g.AssignDefinition(4, Definition{Source: "T.agc", Line: 1})
	cusses := g.AssignDefinition(4, Definition{Source: "T.agc", Line: 2})
	if len(cusses) != 1 {
		t.Fatalf("expected one conflict cuss, got %v", cusses)
	}
}

func TestSetValueAndAt(t *testing.T) {
	g := New(4)
	if err := g.SetValue(2, 0o17777); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	c, ok := g.At(2)
	if !ok || c.Value != 0o17777 {
		t.Fatalf("got %+v, %v", c, ok)
	}
}

func TestSetValueOutOfBounds(t *testing.T) {
	g := New(4)
	if err := g.SetValue(10, 1); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestRunsSegmentsAssignedAndUnassigned(t *testing.T) {
	g := New(8)
	g.SetValue(0, 1)
	g.SetValue(1, 1)
	g.SetValue(5, 1)
	runs := g.Runs()

	want := []Run{
		{Low: 0, High: 2, Assigned: true},
		{Low: 2, High: 5, Assigned: false},
		{Low: 5, High: 6, Assigned: true},
		{Low: 6, High: 8, Assigned: false},
	}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d: %+v", len(runs), len(want), runs)
	}
	for i, r := range runs {
		if r != want[i] {
			t.Errorf("run %d: got %+v, want %+v", i, r, want[i])
		}
	}
}

func TestRunsEmptyGrid(t *testing.T) {
	g := New(0)
	if runs := g.Runs(); len(runs) != 0 {
		t.Fatalf("expected no runs, got %v", runs)
	}
}
