// Package card defines the parsed-card data model (§3): the tagged
// union the parser produces for every Instruction line, plus the
// OperationField and AddressField value types shared across the
// parser and the address-field sub-parser.
//
// The teacher represents a 6502 instruction/operand pair as a pair of
// small value structs (asm/asm.go's instruction/operand); this package
// generalizes that into a proper sealed variant (§9 "Discriminated
// card union") because a Card here has five shapes instead of one.
package card

import "yayul/lexer"

// AddressValueKind classifies what AddressField.Value holds (§3).
type AddressValueKind int

const (
	// ValueOmitted means the address field was absent ("the current
	// location counter").
	ValueOmitted AddressValueKind = iota
	ValueUnsigned
	ValueSigned
	ValueSymbol
)

// AddressField is a parsed address operand (§3).
type AddressField struct {
	Kind   AddressValueKind
	Number int    // valid when Kind is ValueUnsigned or ValueSigned
	Symbol string // valid when Kind is ValueSymbol

	// Offset is an additional signed addend, syntactically separated
	// by whitespace ("SYMBOL +N").
	Offset    *int
	HasOffset bool

	// IndexRegister is 1 or 2 when an interpretive-indexed operand
	// carries a ",1"/",2" suffix, else 0.
	IndexRegister int
}

// IsOmitted reports whether no address operand was supplied at all.
func (a AddressField) IsOmitted() bool { return a.Kind == ValueOmitted }

// OperationField is the parsed OPERATOR field (§3).
type OperationField struct {
	Operation    string
	Complemented bool // leading '-'
	Indexed      bool // trailing '*'
}

// Kind discriminates the Card union (§3).
type Kind int

const (
	KindInsertion Kind = iota
	KindRemark
	KindBasicInstruction
	KindInterpretiveInstruction
	KindNumericConstant
	KindAddressConstant
	KindClerical
)

func (k Kind) String() string {
	switch k {
	case KindInsertion:
		return "Insertion"
	case KindRemark:
		return "Remark"
	case KindBasicInstruction:
		return "BasicInstruction"
	case KindInterpretiveInstruction:
		return "InterpretiveInstruction"
	case KindNumericConstant:
		return "NumericConstant"
	case KindAddressConstant:
		return "AddressConstant"
	case KindClerical:
		return "Clerical"
	default:
		return "Unknown"
	}
}

// Card is the parsed-line tagged union (§3). Which of the fields
// below are meaningful depends on Kind, as grouped below.
type Card struct {
	Kind Kind

	// KindInsertion
	File string

	// KindRemark
	FullLine bool

	// KindBasicInstruction, KindNumericConstant, KindAddressConstant,
	// KindClerical
	Location  string
	HasLocation bool
	Operation OperationField
	Address   *AddressField

	// AddressRangeHigh is set alongside Address only for a clerical
	// directive parsed in range mode ("N - M", §4.3); Address.Number
	// holds N (the low bound) and AddressRangeHigh holds M.
	AddressRangeHigh *int

	// KindInterpretiveInstruction
	LHS *OperationField
	RHS *InterpretiveRHS

	// KindNumericConstant
	HighWord      *int
	LowWord       int
	Interpretive  *int // back-reference index into the operand stack's owning card (§9)
	HasInterp     bool

	// KindClerical / KindNumericConstant / KindAddressConstant with
	// an interpretive back-reference (§4.4 "AddressConstantCard").
}

// InterpretiveRHS is either an interpretive operation or a plain
// address field (§3 InterpretiveInstructionCard.rhs).
type InterpretiveRHS struct {
	Operation *OperationField
	Address   *AddressField
}

// Located pairs a Card with the SourceLine it came from (§3 invariant:
// every card has a SourceLine).
type Located struct {
	Source lexer.SourceLine
	Card   Card
}
