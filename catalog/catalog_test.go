package catalog

import "testing"

func TestLookupKnownMnemonic(t *testing.T) {
	c := New()
	op, ok := c.Lookup("ca")
	if !ok {
		t.Fatalf("expected CA to be found case-insensitively")
	}
	if op.Symbol != "CA" || op.Type != Basic {
		t.Fatalf("got %+v", op)
	}
}

func TestLookupUnknownMnemonic(t *testing.T) {
	c := New()
	if _, ok := c.Lookup("NOSUCHOP"); ok {
		t.Fatalf("expected unknown mnemonic to fail lookup")
	}
}

func TestCheckExtendedIndexSwapsVariant(t *testing.T) {
	c := New()
	idx, _ := c.Lookup("INDEX")

	same := c.CheckExtendedIndex(idx, false)
	if same.Symbol != "INDEX" {
		t.Fatalf("expected unchanged INDEX without latch, got %q", same.Symbol)
	}

	swapped := c.CheckExtendedIndex(idx, true)
	if swapped.Symbol != "INDEX*E" {
		t.Fatalf("expected INDEX*E with latch set, got %q", swapped.Symbol)
	}
}

func TestClearsExtend(t *testing.T) {
	c := New()
	extend, _ := c.Lookup("EXTEND")
	if extend.ClearsExtend() {
		t.Fatalf("EXTEND itself should not clear the latch")
	}

	extIdx := c.CheckExtendedIndex(mustLookup(t, c, "INDEX"), true)
	if extIdx.ClearsExtend() {
		t.Fatalf("the extended-INDEX variant should not clear the latch")
	}

	ca, _ := c.Lookup("CA")
	if !ca.ClearsExtend() {
		t.Fatalf("an ordinary instruction should clear the latch")
	}
}

func TestCheckIndexedStoreSwapsVariant(t *testing.T) {
	c := New()
	store, _ := c.Lookup("STORE")

	plain := c.CheckIndexedStore(store, false)
	if plain.ExtendedVariant != "" {
		t.Fatalf("expected no variant when not indexed, got %q", plain.ExtendedVariant)
	}

	indexed := c.CheckIndexedStore(store, true)
	if indexed.ExtendedVariant != "STORE*" {
		t.Fatalf("expected STORE* variant, got %q", indexed.ExtendedVariant)
	}
}

func TestRequiresIndexStar(t *testing.T) {
	c := New()
	store, _ := c.Lookup("STORE")
	if store.RequiresIndexStar() {
		t.Fatalf("STORE family indexes via ,1/,2, not '*'")
	}
	sload, _ := c.Lookup("SLOAD")
	if !sload.RequiresIndexStar() {
		t.Fatalf("SLOAD should require '*' to index")
	}
}

func TestLookupResolvesUnambiguousAbbreviation(t *testing.T) {
	c := New()
	op, ok := c.Lookup("cc")
	if !ok || op.Symbol != "CCS" {
		t.Fatalf("expected \"cc\" to resolve to CCS, got %+v, %v", op, ok)
	}
}

func TestLookupRejectsAmbiguousAbbreviation(t *testing.T) {
	c := New()
	if _, ok := c.Lookup("dc"); ok {
		t.Fatalf("expected \"dc\" to be ambiguous between DCA and DCS")
	}
}

func mustLookup(t *testing.T, c *Catalog, symbol string) Operation {
	t.Helper()
	op, ok := c.Lookup(symbol)
	if !ok {
		t.Fatalf("expected %q in catalog", symbol)
	}
	return op
}
