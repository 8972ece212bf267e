// Package cellgrid is the dense, flat-offset-indexed vector of memory
// cells described in §4.9: the owning side of the Cell/AssembledCard
// relationship, plus the diagnostic run iterator the memory summary
// listing walks.
//
// Grounded on the teacher's FlatMemory (memory.go): a single backing
// slice addressed by a flat index, with bounds-checked load/store.
// Unlike FlatMemory, a Cell here starts "unassigned" rather than
// zero-valued, since distinguishing the two is an explicit invariant
// (§3 "Cell ... unfilled positions are unassigned, distinguished from
// zero").
package cellgrid

import (
	"errors"

	"yayul/cuss"
)

// ErrOutOfBounds reports an offset outside the grid's configured size.
var ErrOutOfBounds = errors.New("cellgrid: offset out of bounds")

// Definition identifies the AssembledCard that owns a cell, by source
// position (mirroring symtab.Definition; duplicated here rather than
// imported, since the assembler package is the only consumer of both
// and the coupling would otherwise run grid -> assembler -> grid).
type Definition struct {
	Source string
	Line   int
}

// Cell is one memory word (§3 Cell).
type Cell struct {
	Value      int
	Definition Definition
	assigned   bool
}

// Grid is the dense cell vector, sized to a memmodel.Model's flat
// offset space.
type Grid struct {
	cells []Cell
}

// New creates a Grid with size flat offsets, all unassigned.
func New(size int) *Grid {
	return &Grid{cells: make([]Cell, size)}
}

// AssignDefinition claims offset for def (§4.9 assignDefinition). If
// the offset is already assigned, whatever its owner, it raises
// Cuss 0x4F (cell conflict) and leaves the existing owner in place.
func (g *Grid) AssignDefinition(offset int, def Definition) []cuss.Cuss {
	if offset < 0 || offset >= len(g.cells) {
		return []cuss.Cuss{cuss.New(cuss.SerOverflow, "offset %d out of bounds", offset)}
	}
	c := &g.cells[offset]
	if c.assigned {
		return []cuss.Cuss{cuss.New(cuss.SerCellConflict,
			"cell at offset %d already assigned (%s:%d), conflicts with %s:%d",
			offset, c.Definition.Source, c.Definition.Line, def.Source, def.Line)}
	}
	c.assigned = true
	c.Definition = def
	return nil
}

// SetValue stores word at offset (§4.9 setValue).
func (g *Grid) SetValue(offset int, word int) error {
	if offset < 0 || offset >= len(g.cells) {
		return ErrOutOfBounds
	}
	g.cells[offset].Value = word
	g.cells[offset].assigned = true
	return nil
}

// IsAssigned reports whether offset currently holds a value (§4.9
// isAssigned).
func (g *Grid) IsAssigned(offset int) bool {
	if offset < 0 || offset >= len(g.cells) {
		return false
	}
	return g.cells[offset].assigned
}

// At returns the Cell at offset and whether it is assigned.
func (g *Grid) At(offset int) (Cell, bool) {
	if offset < 0 || offset >= len(g.cells) {
		return Cell{}, false
	}
	c := g.cells[offset]
	return c, c.assigned
}

// Len returns the total number of flat offsets in the grid.
func (g *Grid) Len() int { return len(g.cells) }

// Run is one contiguous span of offsets sharing the same assignment
// state, produced by Runs (§4.9 "diagnostic iterator over contiguous
// assigned/unassigned runs").
type Run struct {
	Low, High int // [Low, High), offsets
	Assigned  bool
}

// Runs walks the grid and returns the maximal contiguous
// assigned/unassigned spans, in offset order. This is the supplemented
// iterator the memory-summary listing consumes; the teacher has no
// equivalent (FlatMemory has no notion of "unassigned" cells to
// segment by).
func (g *Grid) Runs() []Run {
	var runs []Run
	if len(g.cells) == 0 {
		return runs
	}
	start := 0
	state := g.cells[0].assigned
	for i := 1; i < len(g.cells); i++ {
		if g.cells[i].assigned != state {
			runs = append(runs, Run{Low: start, High: i, Assigned: state})
			start = i
			state = g.cells[i].assigned
		}
	}
	runs = append(runs, Run{Low: start, High: len(g.cells), Assigned: state})
	return runs
}
