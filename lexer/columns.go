package lexer

import "strings"

// expandTabs expands tab characters in s to the next multiple of 8
// columns, starting the column count at `start`. This is the same
// 8-wide tab model the teacher's fstring.advanceColumn uses for a
// single line; here it's also reused verbatim for remark text (§4.1).
func expandTabs(s string, start int) string {
	var b strings.Builder
	col := start
	for _, c := range s {
		if c == '\t' {
			spaces := 8 - (col % 8)
			for i := 0; i < spaces; i++ {
				b.WriteByte(' ')
			}
			col += spaces
		} else {
			b.WriteRune(c)
			col++
		}
	}
	return b.String()
}

func isFieldWhitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

// splitFields implements the column-sensitive field split of §4.1:
//
//	columns 1-14  (index  0..13) -> field1 (LOCATION)
//	columns 16-24 (index 15..23) -> field2 (OPERATOR)
//	columns 26-…  (index 25..)   -> field3 (OPERAND)
//
// A whitespace character encountered after column 16 but before column
// 25 also terminates field2 early; everything from there to the end of
// the line becomes field3, regardless of the column-26 threshold.
//
// code must already have any trailing remark stripped. Tabs are
// expanded to 8-column stops before columns are measured.
func splitFields(code string) (field1, field2, field3 *string) {
	expanded := expandTabs(code, 0)
	n := len(expanded)

	col := func(i int) string {
		if i >= n {
			return ""
		}
		return expanded[i:]
	}

	// field1: columns 1-14 (indices 0..13)
	end1 := min(14, n)
	f1 := strings.TrimRight(expanded[:end1], " \t")
	if f1 != "" {
		field1 = &f1
	}

	if n <= 15 {
		return field1, nil, nil
	}

	// field2: scan from index 15 looking for whitespace before index 24.
	start2 := 15
	if start2 > n {
		return field1, nil, nil
	}
	i := start2
	limit2 := min(24, n)
	for i < limit2 && !isFieldWhitespace(expanded[i]) {
		i++
	}
	f2raw := expanded[start2:i]

	var field3Start int
	if i < limit2 {
		// Whitespace found before column 25: field2 ends here, and
		// field3 begins wherever its first non-whitespace run starts.
		field3Start = i
	} else {
		// field2 runs the full 16-24 window; field3 starts at column 26.
		field3Start = min(25, n)
	}

	f2 := strings.TrimRight(f2raw, " \t")
	if f2 != "" {
		field2 = &f2
	}

	rest := col(field3Start)
	// Trim leading whitespace (the column-25 separator, or whatever
	// whitespace terminated field2 early) and trailing whitespace.
	rest = strings.TrimRight(strings.TrimLeft(rest, " \t"), " \t")
	if rest != "" {
		field3 = &rest
	}

	return field1, field2, field3
}
