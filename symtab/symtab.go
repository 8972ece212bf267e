// Package symtab implements the two symbol tables described in §4.5:
// a growing Pass-1 table that may hold deferred (unresolved)
// definitions, and the frozen, read-only Pass-2 table fixed-point
// resolution produces from it.
//
// The teacher keeps no analogous table (a 6502 program has no forward
// symbolic references to resolve), so this package is grounded on the
// catalog package's frozen-map-keyed-by-name shape, generalized to
// carry mutable health state and deferred resolution.
package symtab

import (
	"strings"

	"github.com/beevik/prefixtree/v2"

	"yayul/card"
	"yayul/cuss"
	"yayul/resolve"
)

// ErrorWord is substituted for any symbol that cannot be resolved
// (§4.5 "value = ERROR_WORD").
const ErrorWord = -1

// Health records a definitional problem with a symbol (§3 SymbolEntry).
type Health int

const (
	OK Health = iota
	MultiplyDefined
	BadlyDefined
	Conflict
	MiscTrouble
)

func (h Health) String() string {
	switch h {
	case OK:
		return "OK"
	case MultiplyDefined:
		return "MultiplyDefined"
	case BadlyDefined:
		return "BadlyDefined"
	case Conflict:
		return "Conflict"
	case MiscTrouble:
		return "MiscTrouble"
	default:
		return "Unknown"
	}
}

// Definition identifies the card (by source position) that defined a
// symbol, for cross-reference listings (§3 SymbolEntry.definition).
type Definition struct {
	Source string
	Line   int
}

// entry is the Pass-1 record for one symbol. Exactly one of the two
// resolution modes applies: either Resolved is true and Value already
// holds the numeric value, or a deferred AddressField/offset pair
// awaits resolveAll.
type entry struct {
	def        Definition
	refs       []Definition
	health     Health
	resolved   bool
	value      int
	deferred   *card.AddressField
	offset     int
	hasOffset  bool
}

// Table is the Pass-1 symbol table (§4.5). The zero value is not
// usable; use New.
type Table struct {
	entries map[string]*entry
}

// New creates an empty Pass-1 table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// AssignAddress records symbol as already resolved to refAddress
// (§4.5 assignAddress). hasAddress=false marks the definition as
// BadlyDefined with value ERROR_WORD (the defining card had no
// refAddress of its own, e.g. a bank-exhausted SETLOC target).
func (t *Table) AssignAddress(symbol string, refAddress int, hasAddress bool, def Definition) []cuss.Cuss {
	var cusses []cuss.Cuss
	if existing, ok := t.entries[symbol]; ok {
		existing.health = MultiplyDefined
		cusses = append(cusses, cuss.New(cuss.SerMultiplyDefined,
			"symbol %q redefined at %s:%d", symbol, def.Source, def.Line))
	}

	e := &entry{def: def, resolved: true, value: refAddress}
	if !hasAddress {
		e.value = ErrorWord
		e.health = BadlyDefined
	}
	if _, redefined := t.entries[symbol]; redefined {
		e.health = MultiplyDefined
	}
	t.entries[symbol] = e
	return cusses
}

// AssignField records symbol as a deferred definition resolved later
// by ResolveAll (§4.5 assignField): value = addressField (possibly
// symbolic) plus a separately-tracked signed offset.
func (t *Table) AssignField(symbol string, field card.AddressField, offset int, def Definition) []cuss.Cuss {
	var cusses []cuss.Cuss
	if existing, ok := t.entries[symbol]; ok {
		existing.health = MultiplyDefined
		cusses = append(cusses, cuss.New(cuss.SerMultiplyDefined,
			"symbol %q redefined at %s:%d", symbol, def.Source, def.Line))
	}

	fieldCopy := field
	e := &entry{def: def, deferred: &fieldCopy, offset: offset, hasOffset: true}
	if _, redefined := t.entries[symbol]; redefined {
		e.health = MultiplyDefined
	}
	t.entries[symbol] = e
	return cusses
}

// Resolve attempts to resolve symbol against entries already fully
// resolved, without running fixed-point resolution (§4.5 resolve,
// used by SETLOC and back-reference-only ERASE forms). requester
// names the card doing the lookup, for the reference list.
func (t *Table) Resolve(symbol string, requester Definition) (int, []cuss.Cuss) {
	e, ok := t.entries[symbol]
	if !ok {
		return ErrorWord, []cuss.Cuss{cuss.New(cuss.SerUnresolvedPass1,
			"undefined symbol %q referenced at %s:%d", symbol, requester.Source, requester.Line)}
	}
	e.refs = append(e.refs, requester)
	if e.resolved {
		return e.value, nil
	}
	return ErrorWord, []cuss.Cuss{cuss.New(cuss.SerUnresolvedPass1,
		"symbol %q not yet resolvable at %s:%d", symbol, requester.Source, requester.Line)}
}

// ResolveAll runs fixed-point resolution over every deferred entry,
// producing the frozen Pass-2 table (§4.5 resolveAll). Cycle detection
// uses a visited-symbol set per traversal; a symbol that participates
// in its own resolution chain raises Cuss 0x35 and resolves to
// ERROR_WORD/BadlyDefined.
func (t *Table) ResolveAll() (*Frozen, []cuss.Cuss) {
	var cusses []cuss.Cuss

	var resolveOne func(name string, visiting map[string]bool) (int, bool)
	resolveOne = func(name string, visiting map[string]bool) (int, bool) {
		e, ok := t.entries[name]
		if !ok {
			return ErrorWord, false
		}
		if e.resolved {
			return e.value, true
		}
		if visiting[name] {
			cusses = append(cusses, cuss.New(cuss.SerNoLocationCounter,
				"symbol %q is defined in terms of itself", name))
			e.resolved = true
			e.value = ErrorWord
			e.health = BadlyDefined
			return ErrorWord, false
		}
		visiting[name] = true
		defer delete(visiting, name)

		base, ok := resolve.PassOne(*e.deferred, func(s string) (int, bool) {
			return resolveOne(s, visiting)
		})
		if !ok {
			if e.resolved {
				// Already reported above as defined in terms of itself.
				return ErrorWord, false
			}
			e.resolved = true
			e.value = ErrorWord
			e.health = BadlyDefined
			cusses = append(cusses, cuss.New(cuss.SerUnresolvedPass1,
				"symbol %q could not be resolved", name))
			return ErrorWord, false
		}
		e.resolved = true
		e.value = base + e.offset
		return e.value, true
	}

	for name, e := range t.entries {
		if e.resolved {
			continue
		}
		resolveOne(name, map[string]bool{})
	}

	frozen := &Frozen{
		entries: make(map[string]int, len(t.entries)),
		health:  make(map[string]Health, len(t.entries)),
		abbrev:  prefixtree.New[string](),
	}
	for name, e := range t.entries {
		frozen.entries[name] = e.value
		frozen.health[name] = e.health
		frozen.abbrev.Add(strings.ToLower(name), name)
	}
	return frozen, cusses
}

// Frozen is the read-only Pass-2 symbol table produced by ResolveAll
// (§4.5 "Pass-2 table is read-only").
type Frozen struct {
	entries map[string]int
	health  map[string]Health
	abbrev  *prefixtree.Tree[string]
}

// Resolve returns the numeric value of symbol, or emits Cuss 0x2C if
// it was never defined (§4.5).
func (f *Frozen) Resolve(symbol string, requester Definition) (int, []cuss.Cuss) {
	v, ok := f.entries[symbol]
	if !ok {
		return ErrorWord, []cuss.Cuss{cuss.New(cuss.SerUnresolvedPass2,
			"undefined symbol %q referenced at %s:%d", symbol, requester.Source, requester.Line)}
	}
	return v, nil
}

// Health reports the recorded health of symbol, or OK if it is
// healthy or unknown.
func (f *Frozen) Health(symbol string) Health {
	return f.health[symbol]
}

// FindByPrefix resolves prefix against the set of defined symbol names,
// the way an incremental search box completes a partial name as the
// operator types. It succeeds only when prefix names exactly one
// symbol; beevik/prefixtree's own ErrPrefixNotFound/ErrPrefixAmbiguous
// surface unchanged to the caller.
func (f *Frozen) FindByPrefix(prefix string) (name string, value int, err error) {
	name, err = f.abbrev.FindValue(strings.ToLower(prefix))
	if err != nil {
		return "", ErrorWord, err
	}
	return name, f.entries[name], nil
}
