// Package inspect is an interactive terminal browser over the result
// of an assembly run (§4.9, §13): the assembled card list, the frozen
// symbol table, the cell grid, and the accumulated cuss list.
//
// The teacher has no terminal-UI analogue of its own (term/term.go is
// a thin raw-mode wrapper the REPL reads keystrokes through, not a
// widget toolkit), so this package is grounded directly on
// gdamore/tcell and rivo/tview's own conventional application/pages
// idiom rather than on a teacher file: a tview.Application holding a
// tview.Pages that flips between a listing table, a symbol browser,
// and a cuss log, driven by tcell key events.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"yayul/assembler"
	"yayul/cellgrid"
	"yayul/cuss"
	"yayul/memmodel"
	"yayul/symtab"
)

// Browser owns every view over one assembly run's output.
type Browser struct {
	app    *tview.Application
	cards  []assembler.AssembledCard
	frozen *symtab.Frozen
	grid   *cellgrid.Grid
	mem    *memmodel.Model
	cusses []cuss.Cuss
}

// New builds a Browser over the result of Assembler.AssembleMain.
func New(cards []assembler.AssembledCard, frozen *symtab.Frozen, grid *cellgrid.Grid, mem *memmodel.Model, cusses []cuss.Cuss) *Browser {
	return &Browser{cards: cards, frozen: frozen, grid: grid, mem: mem, cusses: cusses}
}

// Run starts the full-screen interactive session and blocks until the
// operator quits (Ctrl-C or 'q').
func (b *Browser) Run() error {
	b.app = tview.NewApplication()

	pages := tview.NewPages()
	pages.AddPage("listing", b.buildListingPage(), true, true)
	pages.AddPage("symbols", b.buildSymbolsPage(), true, false)
	pages.AddPage("cusses", b.buildCussPage(), true, false)

	status := tview.NewTextView().
		SetText(" F1 listing  F2 symbols  F3 cusses  q quit ").
		SetTextColor(tcell.ColorYellow)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(pages, 0, 1, true).
		AddItem(status, 1, 0, false)

	b.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyF1:
			pages.SwitchToPage("listing")
			return nil
		case ev.Key() == tcell.KeyF2:
			pages.SwitchToPage("symbols")
			return nil
		case ev.Key() == tcell.KeyF3:
			pages.SwitchToPage("cusses")
			return nil
		case ev.Rune() == 'q':
			b.app.Stop()
			return nil
		}
		return ev
	})

	return b.app.SetRoot(root, true).Run()
}

// buildListingPage renders one row per assembled card, the way a
// printed assembly listing lays out address/word/source (§4.9).
func (b *Browser) buildListingPage() tview.Primitive {
	table := tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)

	header := []string{"ADDR", "WORD", "EBANK", "SBANK", "SOURCE"}
	for col, h := range header {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}

	for row, ac := range b.cards {
		addrText := "-"
		if ac.HasRefAddress {
			addrText = fmt.Sprintf("%05o", ac.RefAddress)
		}
		wordText := "-"
		if ac.HasRefAddress {
			wordText = fmt.Sprintf("%05o", ac.Word)
		}
		table.SetCell(row+1, 0, tview.NewTableCell(addrText))
		table.SetCell(row+1, 1, tview.NewTableCell(wordText))
		table.SetCell(row+1, 2, tview.NewTableCell(fmt.Sprintf("%d", ac.EBank)))
		table.SetCell(row+1, 3, tview.NewTableCell(fmt.Sprintf("%d", ac.SBank)))
		table.SetCell(row+1, 4, tview.NewTableCell(fmt.Sprintf("%s:%d", ac.Source.Source, ac.Source.Line)))
	}

	return table
}

// buildSymbolsPage is an incremental search box over the frozen symbol
// table, backed by Frozen.FindByPrefix (beevik/prefixtree/v2): typing
// an unambiguous abbreviation jumps straight to the matching symbol.
func (b *Browser) buildSymbolsPage() tview.Primitive {
	result := tview.NewTextView().SetDynamicColors(true)
	result.SetText("[gray]type a symbol name or unambiguous prefix[-]")

	input := tview.NewInputField().
		SetLabel("symbol: ").
		SetChangedFunc(func(text string) {
			if text == "" {
				result.SetText("[gray]type a symbol name or unambiguous prefix[-]")
				return
			}
			name, value, err := b.frozen.FindByPrefix(text)
			if err != nil {
				result.SetText(fmt.Sprintf("[red]%v[-]", err))
				return
			}
			result.SetText(fmt.Sprintf("%s = %05o  (health: %s)", name, value, b.frozen.Health(name)))
		})

	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(result, 0, 1, false)
}

// buildCussPage lists every diagnostic raised during the run (§5).
func (b *Browser) buildCussPage() tview.Primitive {
	var lines []string
	for _, c := range b.cusses {
		lines = append(lines, c.String())
	}
	view := tview.NewTextView().SetText(strings.Join(lines, "\n"))
	if len(b.cusses) == 0 {
		view.SetText("no cusses raised")
	}
	return view
}
