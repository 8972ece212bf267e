package assembler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yayul/config"
	"yayul/cuss"
	"yayul/symtab"
)

// card lays out one Instruction line onto the fixed LOCATION(1-14)/
// OPERATOR(16-24)/OPERAND(26+) columns §4.1 requires, the same way a
// real yaYUL source file is hand-formatted.
func card(loc, op, operand string) string {
	return fmt.Sprintf("%-14s %-9s %s", loc, op, operand)
}

func writeSource(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	contents := ""
	for _, l := range lines {
		contents += l + "\n"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func hasSerial(cusses []cuss.Cuss, s cuss.Serial) bool {
	for _, c := range cusses {
		if c.Serial == s {
			return true
		}
	}
	return false
}

func TestAssembleSimpleProgram(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("BANKSTART", "SETLOC", "04000"),
		card("", "EXTEND", ""),
		card("", "DCA", "FOO"),
		card("FOO", "ERASE", "100"),
	)

	asm := New(config.Default())
	cards, _, cusses := asm.AssembleMain(main)

	if cuss.IsFatal(cusses) {
		t.Fatalf("unexpected fatal cusses: %v", cusses)
	}
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d: %+v", len(cards), cards)
	}
	if !cards[1].HasRefAddress || cards[1].RefAddress != 0o4000 {
		t.Fatalf("EXTEND card missing ref address: %+v", cards[1])
	}
}

func TestSetlocMovesLocationCounter(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04010"),
		card("", "TC", "NEXT"),
		card("NEXT", "TC", "NEXT"),
	)

	asm := New(config.Default())
	cards, _, cusses := asm.AssembleMain(main)
	if cuss.IsFatal(cusses) {
		t.Fatalf("unexpected fatal cusses: %v", cusses)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	if !cards[1].HasRefAddress || cards[1].RefAddress != 0o4010 {
		t.Fatalf("expected first TC at 04010, got %+v", cards[1])
	}
}

func TestUndefinedSymbolRaisesPass2Cuss(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("", "CA", "NOWHERE"),
	)

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerUnresolvedPass2) {
		t.Fatalf("expected an unresolved-pass-2 cuss, got %v", cusses)
	}
}

func TestExtendedInstructionWithoutExtendRaisesCuss(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("", "XCH", "FOO"),
		card("FOO", "ERASE", "100"),
	)

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerMissingExtend) {
		t.Fatalf("expected a missing-EXTEND cuss, got %v", cusses)
	}
}

func TestNumericConstantEncodesLiteralWords(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("FOO", "DEC", "5"),
	)

	asm := New(config.Default())
	cards, _, cusses := asm.AssembleMain(main)
	if cuss.IsFatal(cusses) {
		t.Fatalf("unexpected fatal cusses: %v", cusses)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	dec := cards[1]
	if dec.Word&0xfff != 5 {
		t.Fatalf("expected low 12 bits to hold literal 5, got %04o", dec.Word)
	}
}

func TestEraseReservesRequestedCells(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("TABLE", "ERASE", "100"),
	)

	asm := New(config.Default())
	_, frozen, cusses := asm.AssembleMain(main)
	if cuss.IsFatal(cusses) {
		t.Fatalf("unexpected fatal cusses: %v", cusses)
	}
	addr, rc := frozen.Resolve("TABLE", symtab.Definition{})
	if len(rc) > 0 {
		t.Fatalf("expected TABLE to resolve, got %v", rc)
	}
	if _, ok := asm.mem.ClassOf(addr); !ok {
		t.Fatalf("expected TABLE to resolve to a valid address, got %d", addr)
	}
	if !asm.mem.IsBankedErasable(addr) {
		t.Fatalf("expected TABLE to resolve into banked-erasable memory, got %d", addr)
	}
}

func TestBranchTargetOutsideFixedMemoryRaisesCuss(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("", "TC", "FOO"),
		card("FOO", "ERASE", "100"),
	)

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerOverflow) {
		t.Fatalf("expected an overflow cuss for a branch into erasable memory, got %v", cusses)
	}
}

func TestBranchTargetOutsideInstructionBankRaisesCuss(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("", "TC", "FAR"),
		card("", "SETLOC", "06000"),
		card("FAR", "TC", "FAR"),
	)

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerOverflow) {
		t.Fatalf("expected an overflow cuss for a cross-bank branch, got %v", cusses)
	}
}

func TestErasableOperandInFixedMemoryRaisesCuss(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("", "SETLOC", "04000"),
		card("", "CA", "FAR"),
		card("", "SETLOC", "06000"),
		card("FAR", "TC", "FAR"),
	)

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerOverflow) {
		t.Fatalf("expected an overflow cuss for an erasable reference into fixed memory, got %v", cusses)
	}
}

func TestSetTraceEmitsPipelineStages(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "PROGRAM.agc",
		card("FOO", "ERASE", "100"),
	)

	var buf bytes.Buffer
	asm := New(config.Default())
	asm.SetTrace(&buf)
	asm.AssembleMain(main)

	out := buf.String()
	if !strings.Contains(out, "pass 1") || !strings.Contains(out, "pass 2") {
		t.Fatalf("expected trace to mention both passes, got %q", out)
	}
}

func TestInsertionCycleIsDetected(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A.agc", "$B.agc")
	writeSource(t, dir, "B.agc", "$A.agc")
	main := filepath.Join(dir, "A.agc")

	asm := New(config.Default())
	_, _, cusses := asm.AssembleMain(main)
	if !hasSerial(cusses, cuss.SerStructural) {
		t.Fatalf("expected a structural cuss reporting the cycle, got %v", cusses)
	}
}
