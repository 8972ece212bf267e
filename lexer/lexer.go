// Package lexer splits yaYUL-style card files into classified lines
// (§4.1). It is deliberately the thinnest stage in the pipeline: it
// never evaluates an operand or looks up a mnemonic, it only figures
// out which of the three fixed-width columns (if any) hold text.
//
// The column-cursor bookkeeping here (tab expansion, run-until-class,
// truncate-and-consume) is the same technique the teacher's
// asm/fstring.go uses to track row/column through a line of 6502
// assembly; this package generalizes it to the three-field,
// remark-aware format described in §4.1.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Variant classifies a lexed line (§3 LexedLine).
type Variant int

const (
	Instruction Variant = iota
	Insertion
	Pagination
	Remark
)

func (v Variant) String() string {
	switch v {
	case Instruction:
		return "Instruction"
	case Insertion:
		return "Insertion"
	case Pagination:
		return "Pagination"
	case Remark:
		return "Remark"
	default:
		return "Unknown"
	}
}

// SourceLine identifies the origin of one input line (§3).
type SourceLine struct {
	Source string // source name, usually a file path
	Line   int    // 1-based line number within that source
	Page   int    // page number in force when the line was read
	Raw    string // raw line text, as read
}

func (s SourceLine) String() string {
	return fmt.Sprintf("%s:%d", s.Source, s.Line)
}

// LexedLine is a classified input line (§3).
type LexedLine struct {
	Variant Variant
	Source  SourceLine

	// Field1, Field2, Field3 hold LOCATION, OPERATOR, and OPERAND text
	// for Instruction lines. A nil field means the field was absent; a
	// non-nil empty string is a sentinel used only on Remark lines (see
	// below).
	Field1, Field2, Field3 *string

	// Remark holds preserved remark text, or nil if none was preserved.
	Remark *string
}

var pageDirective = regexp.MustCompile(`^## Page (\d+)\s*$`)

// MainFileChecker decides whether remarks on a source are always
// dropped (§4.1 rule 2). It is satisfied by config.Target.IsMainFile.
type MainFileChecker func(source string) bool

// Lexer reads one source stream and emits LexedLines lazily.
type Lexer struct {
	scanner    *bufio.Scanner
	source     string
	isMainFile MainFileChecker
	line       int
	page       int
}

// New creates a Lexer over r, attributing lines to the named source.
// isMainFile decides whether this source's remarks are unconditionally
// dropped; pass nil to never drop them on this basis.
func New(r io.Reader, source string, isMainFile MainFileChecker) *Lexer {
	if isMainFile == nil {
		isMainFile = func(string) bool { return false }
	}
	return &Lexer{
		scanner:    bufio.NewScanner(r),
		source:     source,
		isMainFile: isMainFile,
		page:       1,
	}
}

// Page returns the current page number.
func (l *Lexer) Page() int { return l.page }

// Next reads and classifies the next line. It returns ok=false when the
// stream is exhausted (after which err holds any final read error).
func (l *Lexer) Next() (line LexedLine, ok bool, err error) {
	for l.scanner.Scan() {
		l.line++
		raw := l.scanner.Text()
		src := SourceLine{Source: l.source, Line: l.line, Page: l.page, Raw: raw}

		if m := pageDirective.FindStringSubmatch(raw); m != nil {
			fmt.Sscanf(m[1], "%d", &l.page)
			src.Page = l.page
			return LexedLine{Variant: Pagination, Source: src}, true, nil
		}

		lexed, emit := l.classify(raw, src)
		if emit {
			return lexed, true, nil
		}
		// Nothing emitted (bare empty line); keep scanning.
	}
	if serr := l.scanner.Err(); serr != nil {
		return LexedLine{}, false, serr
	}
	return LexedLine{}, false, nil
}

// classify implements §4.1 steps 2-5 for one non-pagination line.
func (l *Lexer) classify(raw string, src SourceLine) (LexedLine, bool) {
	code, remarkText, hasRemark := stripRemark(raw)

	// Rule 2: drop the remark for the main aggregator file, or when it
	// is an internal "##" comment.
	preserve := hasRemark
	if hasRemark {
		if l.isMainFile(l.source) || strings.HasPrefix(remarkText, "##") {
			preserve = false
		}
	}

	if strings.TrimSpace(code) == "" {
		if preserve {
			s := ""
			r := formatRemark(remarkText)
			return LexedLine{Variant: Remark, Source: src, Field1: &s, Remark: &r}, true
		}
		return LexedLine{}, false
	}

	if strings.HasPrefix(code, "$") {
		file := strings.TrimSpace(code[1:])
		return LexedLine{Variant: Insertion, Source: src, Field1: &file}, true
	}

	f1, f2, f3 := splitFields(code)
	ll := LexedLine{Variant: Instruction, Source: src, Field1: f1, Field2: f2, Field3: f3}
	if preserve {
		r := formatRemark(remarkText)
		ll.Remark = &r
	}
	return ll, true
}

// stripRemark finds the trailing "#..." remark, if any, and returns the
// code preceding it and the remark text (including the leading "#").
func stripRemark(raw string) (code string, remark string, has bool) {
	idx := strings.IndexByte(raw, '#')
	if idx < 0 {
		return raw, "", false
	}
	return raw[:idx], raw[idx:], true
}

// formatRemark expands tabs within the remark to the next multiple of
// 8 columns, reproducing the original visual alignment (§4.1 "Remark
// formatting").
func formatRemark(remark string) string {
	return expandTabs(remark, 0)
}
