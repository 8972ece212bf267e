package symtab

import (
	"testing"

	"yayul/card"
)

func def(line int) Definition { return Definition{Source: "TEST.agc", Line: line} }

func TestAssignAddressAndResolve(t *testing.T) {
	tb := New()
	if cusses := tb.AssignAddress("FOO", 0o100, true, def(1)); len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	v, cusses := tb.Resolve("FOO", def(2))
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if v != 0o100 {
		t.Fatalf("got %o", v)
	}
}

func TestAssignAddressBadlyDefined(t *testing.T) {
	tb := New()
	tb.AssignAddress("FOO", 0, false, def(1))
	frozen, _ := tb.ResolveAll()
	if frozen.Health("FOO") != BadlyDefined {
		t.Fatalf("expected BadlyDefined, got %v", frozen.Health("FOO"))
	}
}

func TestRedefinitionMarksMultiplyDefined(t *testing.T) {
	tb := New()
	tb.AssignAddress("FOO", 1, true, def(1))
	cusses := tb.AssignAddress("FOO", 2, true, def(2))
	if len(cusses) != 1 {
		t.Fatalf("expected one redefinition cuss, got %v", cusses)
	}
	frozen, _ := tb.ResolveAll()
	if v, _ := frozen.Resolve("FOO", def(3)); v != 2 {
		t.Fatalf("expected the new definition to win, got %d", v)
	}
	if frozen.Health("FOO") != MultiplyDefined {
		t.Fatalf("expected MultiplyDefined, got %v", frozen.Health("FOO"))
	}
}

func TestResolveUndefinedSymbol(t *testing.T) {
	tb := New()
	_, cusses := tb.Resolve("MISSING", def(1))
	if len(cusses) != 1 {
		t.Fatalf("expected one cuss, got %v", cusses)
	}
}

func TestResolveAllDeferredChain(t *testing.T) {
	tb := New()
	tb.AssignAddress("BASE", 0o1000, true, def(1))
	tb.AssignField("MID", card.AddressField{Kind: card.ValueSymbol, Symbol: "BASE"}, 2, def(2))
	tb.AssignField("TOP", card.AddressField{Kind: card.ValueSymbol, Symbol: "MID"}, 3, def(3))

	frozen, cusses := tb.ResolveAll()
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	v, _ := frozen.Resolve("TOP", def(4))
	if v != 0o1000+2+3 {
		t.Fatalf("got %o", v)
	}
}

func TestResolveAllSelfReferenceCycle(t *testing.T) {
	tb := New()
	tb.AssignField("LOOP", card.AddressField{Kind: card.ValueSymbol, Symbol: "LOOP"}, 0, def(1))
	frozen, cusses := tb.ResolveAll()
	if len(cusses) != 1 {
		t.Fatalf("expected one cycle cuss, got %v", cusses)
	}
	if frozen.Health("LOOP") != BadlyDefined {
		t.Fatalf("expected BadlyDefined, got %v", frozen.Health("LOOP"))
	}
}

func TestFindByPrefixResolvesUnambiguousAbbreviation(t *testing.T) {
	tb := New()
	tb.AssignAddress("TABLE1", 0o100, true, def(1))
	frozen, _ := tb.ResolveAll()

	name, value, err := frozen.FindByPrefix("tab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "TABLE1" || value != 0o100 {
		t.Fatalf("got %q, %o", name, value)
	}
}

func TestFindByPrefixRejectsAmbiguousAbbreviation(t *testing.T) {
	tb := New()
	tb.AssignAddress("FOOBAR", 1, true, def(1))
	tb.AssignAddress("FOOBAZ", 2, true, def(2))
	frozen, _ := tb.ResolveAll()

	if _, _, err := frozen.FindByPrefix("foo"); err == nil {
		t.Fatalf("expected an ambiguous-prefix error")
	}
}

func TestFrozenResolveUndefined(t *testing.T) {
	tb := New()
	frozen, _ := tb.ResolveAll()
	_, cusses := frozen.Resolve("MISSING", def(1))
	if len(cusses) != 1 {
		t.Fatalf("expected one cuss, got %v", cusses)
	}
}
