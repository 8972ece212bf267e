package memmodel

import "testing"

func TestClassOfKnownRanges(t *testing.T) {
	m := New()
	cases := []struct {
		addr int
		want RangeType
	}{
		{0, Hardware},
		{0o60, SpecialErasable},
		{0o100, UnswitchedBankedErasable},
		{0o400, SwitchedErasable},
		{0o4000, FixedFixed},
		{0o6000, VariableFixed},
	}
	for _, c := range cases {
		got, ok := m.ClassOf(c.addr)
		if !ok || got != c.want {
			t.Errorf("ClassOf(%o) = %v, %v; want %v", c.addr, got, ok, c.want)
		}
	}
}

func TestClassOfOutOfRange(t *testing.T) {
	m := New()
	if _, ok := m.ClassOf(-1); ok {
		t.Fatalf("expected out-of-range to fail")
	}
}

func TestMemoryOffsetRoundTrip(t *testing.T) {
	m := New()
	for _, addr := range []int{0, 0o77, 0o400, 0o5000} {
		off, err := m.MemoryOffset(addr)
		if err != nil {
			t.Fatalf("MemoryOffset(%o): %v", addr, err)
		}
		back, err := m.MemoryAddress(off)
		if err != nil {
			t.Fatalf("MemoryAddress(%d): %v", off, err)
		}
		if back != addr {
			t.Errorf("round trip %o -> %d -> %o, want %o", addr, off, back, addr)
		}
	}
}

func TestFixedBankNumber(t *testing.T) {
	m := New()
	bank, ok := m.FixedBankNumber(0o4000)
	if !ok {
		t.Fatalf("expected fixed bank")
	}
	if bank != 0o4000/FixedWordsPerBank {
		t.Errorf("got bank %d", bank)
	}
}

func TestFixedBankNumberRejectsErasable(t *testing.T) {
	m := New()
	if _, ok := m.FixedBankNumber(0o100); ok {
		t.Fatalf("erasable address should not resolve to a fixed bank")
	}
}

func TestIsErasableAndIsFixed(t *testing.T) {
	m := New()
	if !m.IsErasable(0o100) || m.IsFixed(0o100) {
		t.Errorf("0o100 should be erasable only")
	}
	if !m.IsFixed(0o4000) || m.IsErasable(0o4000) {
		t.Errorf("0o4000 should be fixed only")
	}
}

func TestIsBankedErasable(t *testing.T) {
	m := New()
	if !m.IsBankedErasable(0o100) {
		t.Errorf("0o100 should be banked erasable")
	}
	if m.IsBankedErasable(0o60) {
		t.Errorf("special erasable is not banked erasable")
	}
}
