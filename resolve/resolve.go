// Package resolve implements the two address-field resolvers named in
// §4.6: the Pass-2 "two-pass resolve" used while encoding machine
// words, and the Pass-1 "pass-1 resolve" used only inside symtab's
// fixed-point symbol resolution.
package resolve

import (
	"yayul/card"
	"yayul/cuss"
)

// TrueAddress is the resolved result of a two-pass resolve (§4.6).
// Offset is kept separate from Address: for a literal operand it
// still needs to modify the *instruction word*, not the address,
// whereas a symbolic operand folds its offset into Address and
// reports Offset zero.
type TrueAddress struct {
	Address int
	Offset  int
}

// SymbolResolver looks up a frozen Pass-2 symbol (symtab.Frozen.Resolve).
type SymbolResolver func(symbol string, requesterSource string, requesterLine int) (int, []cuss.Cuss)

// TwoPass resolves field against locationCounter (hasLocation=false
// when no counter is currently in force) using resolver for symbolic
// operands (§4.6 rules 1-4).
func TwoPass(field *card.AddressField, locationCounter int, hasLocation bool, resolver SymbolResolver, requesterSource string, requesterLine int) (TrueAddress, []cuss.Cuss) {
	if field == nil || field.IsOmitted() {
		if !hasLocation {
			return TrueAddress{}, []cuss.Cuss{cuss.New(cuss.SerNoLocationCounter,
				"no location counter in force at %s:%d", requesterSource, requesterLine)}
		}
		return TrueAddress{Address: locationCounter}, nil
	}

	switch field.Kind {
	case card.ValueUnsigned:
		off := 0
		if field.HasOffset && field.Offset != nil {
			off = *field.Offset
		}
		return TrueAddress{Address: field.Number, Offset: off}, nil

	case card.ValueSymbol:
		addr, cusses := resolver(field.Symbol, requesterSource, requesterLine)
		if len(cusses) > 0 {
			return TrueAddress{}, cusses
		}
		if field.HasOffset && field.Offset != nil {
			addr += *field.Offset
		}
		return TrueAddress{Address: addr}, nil

	case card.ValueSigned:
		if !hasLocation {
			return TrueAddress{}, []cuss.Cuss{cuss.New(cuss.SerNoLocationCounter,
				"no location counter in force at %s:%d", requesterSource, requesterLine)}
		}
		off := 0
		if field.HasOffset && field.Offset != nil {
			off = *field.Offset
		}
		return TrueAddress{Address: locationCounter + field.Number, Offset: off}, nil
	}

	return TrueAddress{}, []cuss.Cuss{cuss.New(cuss.SerBadAddressField, "address field has no recognized kind")}
}

// NumberLookup resolves a symbol to a plain number, supplied by the
// caller during symbol-table fixed-point resolution (symtab.Table.ResolveAll).
type NumberLookup func(symbol string) (int, bool)

// PassOne collapses field into a single number, folding any symbol
// lookup and the field's own offset together (§4.6 "Pass-1 resolve":
// "collapses offset and address into a single number").
func PassOne(field card.AddressField, lookup NumberLookup) (int, bool) {
	var base int
	switch field.Kind {
	case card.ValueUnsigned, card.ValueSigned:
		base = field.Number
	case card.ValueSymbol:
		v, ok := lookup(field.Symbol)
		if !ok {
			return 0, false
		}
		base = v
	case card.ValueOmitted:
		return 0, false
	default:
		return 0, false
	}
	if field.HasOffset && field.Offset != nil {
		base += *field.Offset
	}
	return base, true
}
