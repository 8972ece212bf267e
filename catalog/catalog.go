// Package catalog is the frozen set of operation definitions keyed by
// mnemonic (§4.2). It is the AGC analogue of the teacher's
// instructions.go: a static table, keyed by a symbolic constant, that
// every other stage consults instead of hard-coding opcode behavior.
package catalog

import (
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// Type classifies an operation the way spec.md §3 classifies a Card.
type Type int

const (
	Basic Type = iota
	Interpretive
	Numeric
	Address
	Clerical
)

func (t Type) String() string {
	switch t {
	case Basic:
		return "Basic"
	case Interpretive:
		return "Interpretive"
	case Numeric:
		return "Numeric"
	case Address:
		return "Address"
	case Clerical:
		return "Clerical"
	default:
		return "Unknown"
	}
}

// Necessity describes whether a field or prefix is required, optional,
// or forbidden for a given operation (§3 Operation, operand necessity
// triple).
type Necessity int

const (
	Forbidden Necessity = iota
	Optional
	Required
)

// SubType selects store-word parsing for interpretive operations
// (§4.2).
type SubType int

const (
	SubTypeNone SubType = iota
	SubTypeStore
	SubTypeOther
)

// OperandSpec describes one interpretive operand slot (§3).
type OperandSpec struct {
	PushDown  bool
	Indexable bool
}

// Operation is an immutable catalog entry (§3, §4.2).
type Operation struct {
	Symbol string
	Type   Type
	Words  int

	Location   Necessity
	Address    Necessity
	Complement Necessity
	Index      Necessity

	// Extended marks a Basic instruction that requires the EXTEND
	// latch to be set (§4.2, §4.4).
	Extended bool
	// ExtendedVariant names the indexed variant (e.g. "STORE*") of a
	// STORE-family operation; only CheckIndexedStore sets it, and it
	// is empty otherwise (§4.2).
	ExtendedVariant string
	// IsExtend marks the EXTEND operation itself.
	IsExtend bool
	// IsIndex marks the INDEX operation (subject to checkExtendedIndex).
	IsIndex bool

	// Branch marks a Basic instruction whose address operand is a
	// transfer-of-control target: Pass-2 requires it to land in fixed
	// memory, in the same bank as the instruction itself (§4.8 step 2).
	Branch bool
	// Erasable marks an operation whose address operand names a data
	// cell rather than a branch target: Pass-2 requires it to land in
	// erasable memory (§4.8 step 2).
	Erasable bool

	// Operand1, Operand2 describe interpretive operand slots. Operand2
	// is nil for single-operand interpretive operators.
	Operand1 *OperandSpec
	Operand2 *OperandSpec
	SubType  SubType

	// indexedForm, when non-empty, names the variant substituted by
	// checkIndexedStore for the STORE family (§4.4 "Store sub-case").
	indexedForm string
}

// Catalog is a frozen, dialect-independent operation table. There is
// no per-dialect table: New builds the same mnemonic set whatever the
// config.Target, so Block I and Block II targets share it.
type Catalog struct {
	ops    map[string]Operation
	abbrev *prefixtree.Tree[string]
}

// builtin is the Block II / GAP mnemonic set this assembler knows.
// It is representative rather than exhaustive: real yaYUL's catalog
// has on the order of 150 entries; this subset is large enough to
// exercise every code path named in §4.2-§4.4.
var builtin = []Operation{
	// Clerical directives (§4.7).
	{Symbol: "SETLOC", Type: Clerical, Words: 0, Address: Required},
	{Symbol: "BANK", Type: Clerical, Words: 0, Address: Optional},
	{Symbol: "BLOCK", Type: Clerical, Words: 0, Address: Required},
	{Symbol: "ERASE", Type: Clerical, Words: 0, Address: Optional},
	{Symbol: "EQUALS", Type: Clerical, Words: 0, Location: Required, Address: Optional},
	{Symbol: "=MINUS", Type: Clerical, Words: 0, Location: Required, Address: Required},
	{Symbol: "=PLUS", Type: Clerical, Words: 0, Location: Required, Address: Required},
	{Symbol: "SUBRO", Type: Clerical, Words: 0, Location: Optional},
	{Symbol: "BNKSUM", Type: Clerical, Words: 0},
	{Symbol: "MEMORY", Type: Clerical, Words: 0, Address: Required},
	{Symbol: "EBANK=", Type: Clerical, Words: 0, Address: Required},
	{Symbol: "SBANK=", Type: Clerical, Words: 0, Address: Required},

	// Numeric/address constants (§3 NumericConstantCard/AddressConstantCard).
	{Symbol: "DEC", Type: Numeric, Words: 1, Location: Optional, Address: Required},
	{Symbol: "2DEC", Type: Numeric, Words: 2, Location: Optional, Address: Required},
	{Symbol: "OCT", Type: Numeric, Words: 1, Location: Optional, Address: Required},
	{Symbol: "2OCT", Type: Numeric, Words: 2, Location: Optional, Address: Required},
	{Symbol: "ADRES", Type: Address, Words: 1, Location: Optional, Address: Required},
	{Symbol: "GENADR", Type: Address, Words: 1, Location: Optional, Address: Required},
	{Symbol: "P", Type: Address, Words: 1, Location: Optional, Address: Optional, Index: Optional},
	{Symbol: "BBCON", Type: Address, Words: 1, Location: Optional, Address: Optional},

	// Basic instructions, a representative mix of extended and
	// non-extended forms (§4.2, §4.4).
	{Symbol: "TC", Type: Basic, Words: 1, Location: Optional, Address: Required, Branch: true},
	{Symbol: "CCS", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "TCF", Type: Basic, Words: 1, Location: Optional, Address: Required, Branch: true},
	{Symbol: "CA", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "CS", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "AD", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "ADS", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "MASK", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "TS", Type: Basic, Words: 1, Location: Optional, Address: Required, Erasable: true},
	{Symbol: "XCH", Type: Basic, Words: 1, Location: Optional, Address: Required, Extended: true, Erasable: true},
	{Symbol: "DCA", Type: Basic, Words: 2, Location: Optional, Address: Required, Extended: true, Erasable: true},
	{Symbol: "DCS", Type: Basic, Words: 2, Location: Optional, Address: Required, Extended: true, Erasable: true},
	{Symbol: "DXCH", Type: Basic, Words: 2, Location: Optional, Address: Required, Extended: true, Erasable: true},
	{Symbol: "INDEX", Type: Basic, Words: 1, Location: Optional, Address: Required, IsIndex: true},
	{Symbol: "NDX", Type: Basic, Words: 1, Location: Optional, Address: Required, Extended: true, Erasable: true},
	{Symbol: "EXTEND", Type: Basic, Words: 1, Location: Optional, Address: Forbidden, IsExtend: true},
	{Symbol: "NOOP", Type: Basic, Words: 1, Location: Optional, Address: Forbidden},
	{Symbol: "RELINT", Type: Basic, Words: 1, Location: Optional, Address: Forbidden, Extended: true},
	{Symbol: "INHINT", Type: Basic, Words: 1, Location: Optional, Address: Forbidden, Extended: true},

	// Interpretive operators (§4.4).
	{Symbol: "STADR", Type: Interpretive, Words: 1, Location: Optional},
	{Symbol: "STORE", Type: Interpretive, Words: 1, Location: Optional, Address: Required, Index: Optional,
		SubType: SubTypeStore, Operand1: &OperandSpec{PushDown: true, Indexable: true}, indexedForm: "STORE*", Erasable: true},
	{Symbol: "STODL", Type: Interpretive, Words: 1, Location: Optional, Address: Required, Index: Optional,
		SubType: SubTypeStore, Operand1: &OperandSpec{PushDown: true, Indexable: true}, indexedForm: "STODL*", Erasable: true},
	{Symbol: "STOVL", Type: Interpretive, Words: 1, Location: Optional, Address: Required, Index: Optional,
		SubType: SubTypeStore, Operand1: &OperandSpec{PushDown: true, Indexable: true}, indexedForm: "STOVL*", Erasable: true},
	{Symbol: "DLOAD", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther,
		Operand1: &OperandSpec{PushDown: true, Indexable: true},
		Operand2: &OperandSpec{PushDown: true, Indexable: true}},
	{Symbol: "SLOAD", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther, Operand1: &OperandSpec{PushDown: true, Indexable: true}},
	{Symbol: "PDVL", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther,
		Operand1: &OperandSpec{PushDown: true, Indexable: true},
		Operand2: &OperandSpec{PushDown: true, Indexable: false}},
	{Symbol: "PDDL", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther,
		Operand1: &OperandSpec{PushDown: true, Indexable: true},
		Operand2: &OperandSpec{PushDown: true, Indexable: false}},
	{Symbol: "VXSC", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther, Operand1: &OperandSpec{PushDown: true, Indexable: true}},
	{Symbol: "VN", Type: Interpretive, Words: 1, Location: Optional,
		SubType: SubTypeOther, Operand1: &OperandSpec{PushDown: false, Indexable: false}},
	{Symbol: "BBCON*", Type: Address, Words: 1, Location: Optional, Address: Forbidden},
}

// New builds the default Catalog.
func New() *Catalog {
	c := &Catalog{ops: make(map[string]Operation, len(builtin)), abbrev: prefixtree.New[string]()}
	for _, op := range builtin {
		c.ops[op.Symbol] = op
		c.abbrev.Add(strings.ToLower(op.Symbol), op.Symbol)
	}
	// The "extended INDEX" variant referenced by CheckExtendedIndex: a
	// copy of INDEX that, when it follows EXTEND, does not consume the
	// EXTEND latch (§4.4, §4.2 "variant links").
	idx := c.ops["INDEX"]
	extIdx := idx
	extIdx.Symbol = "INDEX*E"
	extIdx.IsIndex = true
	c.ops["INDEX*E"] = extIdx
	return c
}

// Lookup returns the catalog entry for symbol, or ok=false if the
// mnemonic is unknown (Cuss 0x41 at the call site). An exact match
// wins outright; otherwise symbol is tried as an unambiguous prefix
// of exactly one mnemonic, the abbreviation convention real YUL
// source accepts.
func (c *Catalog) Lookup(symbol string) (Operation, bool) {
	up := strings.ToUpper(symbol)
	if op, ok := c.ops[up]; ok {
		return op, true
	}
	full, err := c.abbrev.FindValue(strings.ToLower(symbol))
	if err != nil {
		return Operation{}, false
	}
	op, ok := c.ops[full]
	return op, ok
}

// CheckExtendedIndex swaps an INDEX operation to its extended-INDEX
// variant when the EXTEND latch is set, so that "EXTEND, INDEX" does
// not clear EXTEND before the instruction INDEX modifies (§4.2, §4.4).
func (c *Catalog) CheckExtendedIndex(op Operation, extendLatch bool) Operation {
	if op.IsIndex && extendLatch {
		if v, ok := c.ops["INDEX*E"]; ok {
			return v
		}
	}
	return op
}

// ClearsExtend reports whether processing this operation consumes the
// EXTEND latch. Every operation clears it except EXTEND itself and the
// extended-INDEX variant produced by CheckExtendedIndex.
func (op Operation) ClearsExtend() bool {
	return !op.IsExtend && op.Symbol != "INDEX*E"
}

// CheckIndexedStore marks a STORE-family operation with its indexed
// variant's name in ExtendedVariant when starredOrIndexed is set (the
// parser sets it for a "*" suffix or a ",1"/",2" on the operand). The
// rest of the returned Operation is the unindexed entry (§4.4 "Store
// sub-case").
func (c *Catalog) CheckIndexedStore(op Operation, starredOrIndexed bool) Operation {
	if op.SubType == SubTypeStore && starredOrIndexed && op.indexedForm != "" {
		op.ExtendedVariant = op.indexedForm
	}
	return op
}

// RequiresIndexStar reports whether this interpretive operation needs
// an explicit "*" to index (every interpretive op except the STORE
// family, which accepts ",1"/",2" on the operand instead; §4.4).
func (op Operation) RequiresIndexStar() bool {
	return op.Type == Interpretive && op.SubType != SubTypeStore
}
