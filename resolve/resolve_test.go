package resolve

import (
	"testing"

	"yayul/card"
	"yayul/cuss"
)

func intPtr(n int) *int { return &n }

func TestTwoPassOmittedUsesLocationCounter(t *testing.T) {
	ta, cusses := TwoPass(nil, 0o1000, true, nil, "T.agc", 1)
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if ta.Address != 0o1000 {
		t.Errorf("got %o", ta.Address)
	}
}

func TestTwoPassOmittedNoLocationCounter(t *testing.T) {
	_, cusses := TwoPass(nil, 0, false, nil, "T.agc", 1)
	if len(cusses) != 1 {
		t.Fatalf("expected one cuss, got %v", cusses)
	}
}

func TestTwoPassUnsignedKeepsOffsetSeparate(t *testing.T) {
	f := &card.AddressField{Kind: card.ValueUnsigned, Number: 0o77, Offset: intPtr(3), HasOffset: true}
	ta, cusses := TwoPass(f, 0, true, nil, "T.agc", 1)
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if ta.Address != 0o77 || ta.Offset != 3 {
		t.Errorf("got %+v", ta)
	}
}

func TestTwoPassSymbolFoldsOffsetIntoAddress(t *testing.T) {
	f := &card.AddressField{Kind: card.ValueSymbol, Symbol: "FOO", Offset: intPtr(2), HasOffset: true}
	resolver := func(symbol, src string, line int) (int, []cuss.Cuss) {
		if symbol == "FOO" {
			return 0o100, nil
		}
		return 0, []cuss.Cuss{cuss.New(cuss.SerUnresolvedPass2, "undefined")}
	}
	ta, cusses := TwoPass(f, 0, true, resolver, "T.agc", 1)
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if ta.Address != 0o102 || ta.Offset != 0 {
		t.Errorf("got %+v", ta)
	}
}

func TestTwoPassSignedUsesLocationCounter(t *testing.T) {
	f := &card.AddressField{Kind: card.ValueSigned, Number: -2}
	ta, cusses := TwoPass(f, 0o10, true, nil, "T.agc", 1)
	if len(cusses) != 0 {
		t.Fatalf("unexpected cusses: %v", cusses)
	}
	if ta.Address != 0o6 {
		t.Errorf("got %o", ta.Address)
	}
}

func TestPassOneCollapsesSymbolAndOffset(t *testing.T) {
	f := card.AddressField{Kind: card.ValueSymbol, Symbol: "BASE", Offset: intPtr(5), HasOffset: true}
	n, ok := PassOne(f, func(s string) (int, bool) {
		if s == "BASE" {
			return 0o1000, true
		}
		return 0, false
	})
	if !ok || n != 0o1000+5 {
		t.Fatalf("got %d, %v", n, ok)
	}
}

func TestPassOneOmittedFails(t *testing.T) {
	_, ok := PassOne(card.AddressField{Kind: card.ValueOmitted}, func(string) (int, bool) { return 0, false })
	if ok {
		t.Fatalf("expected omitted field to fail pass-one resolution")
	}
}
