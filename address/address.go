// Package address implements the address-field sub-parser (§4.3),
// shared by the card parser and the Pass-2 assembler. It recognizes
// the small operand grammar common to every card variant: a bare
// token, a token with a signed offset, a token with an index-register
// suffix, or (in range mode) a closed numeric range.
package address

import (
	"strconv"
	"strings"

	"yayul/card"
	"yayul/cuss"
)

// IndexNecessity gates whether the ",1"/",2" suffix is accepted (§4.3).
type IndexNecessity int

const (
	IndexNever IndexNecessity = iota
	IndexOptional
	IndexRequired
)

// Options configures one parse of an operand string (§4.3).
type Options struct {
	Index      IndexNecessity
	RangeAllowed bool // enables "N - M" (ERASE/MEMORY)
	MaxAbsolute  int  // 0 means "no limit enforced"
	Raytheon     bool // leniency for decimal-without-D (§4.3, §9 dialect dispatch)
}

// Range is the result of range-mode parsing ("N - M").
type Range struct {
	Low, High int
}

// Parse parses operand (already trimmed of any trailing remark) per
// the §4.3 grammar. It returns either a single AddressField or, in
// range mode, a Range; exactly one of the two is set on success.
func Parse(operand string, opts Options) (field *card.AddressField, rng *Range, cusses []cuss.Cuss) {
	fields := strings.Fields(operand)
	if len(fields) == 0 {
		f := card.AddressField{Kind: card.ValueOmitted}
		return &f, nil, nil
	}

	if opts.RangeAllowed {
		if r, rangeCusses, ok := tryRange(fields, opts); ok {
			cusses = append(cusses, rangeCusses...)
			if r.High < r.Low {
				return nil, nil, append(cusses, cuss.New(cuss.SerInvertedRange,
					"inverted range %d - %d", r.Low, r.High))
			}
			return nil, &r, cusses
		}
	}

	tok := fields[0]
	attachedIndex := 0
	if n := len(tok); n >= 2 && tok[n-2] == ',' && (tok[n-1] == '1' || tok[n-1] == '2') {
		attachedIndex = int(tok[n-1] - '0')
		tok = tok[:n-2]
	}

	f, tokCusses := parseToken(tok, opts)
	cusses = append(cusses, tokCusses...)
	if f == nil {
		return nil, nil, cusses
	}
	f.IndexRegister = attachedIndex

	rest := fields[1:]
	for len(rest) > 0 {
		next := rest[0]
		switch {
		case next == ",1" || next == ",2":
			reg, _ := strconv.Atoi(next[1:])
			f.IndexRegister = reg
			rest = rest[1:]
		case isSignedToken(next):
			n, ok := parseSignedOrUnsigned(next, opts)
			if !ok {
				cusses = append(cusses, cuss.New(cuss.SerBadAddressField,
					"bad offset %q", next))
				return nil, nil, cusses
			}
			off := n
			f.Offset = &off
			f.HasOffset = true
			rest = rest[1:]
		default:
			cusses = append(cusses, cuss.New(cuss.SerBadAddressField,
				"unexpected operand token %q", next))
			return nil, nil, cusses
		}
	}

	if f.IndexRegister != 0 && opts.Index == IndexNever {
		cusses = append(cusses, cuss.New(cuss.SerIndexSuffix,
			"index suffix ,%d not permitted here", f.IndexRegister))
	}
	if f.IndexRegister == 0 && opts.Index == IndexRequired {
		cusses = append(cusses, cuss.New(cuss.SerIndexSuffix,
			"missing required index suffix"))
	}

	if opts.MaxAbsolute > 0 && f.Kind == card.ValueUnsigned && f.Number > opts.MaxAbsolute {
		cusses = append(cusses, cuss.New(cuss.SerOverflow,
			"value %d exceeds maximum %d", f.Number, opts.MaxAbsolute))
	}

	return f, nil, cusses
}

// tryRange recognizes "N - M" (exactly three whitespace-separated
// tokens: two numbers and a literal "-"). Both bounds go through the
// same classifyToken/parseUnsigned path as every other numeric token
// in this grammar (§4.3): octal by default, decimal only with a
// trailing D, so "10 - 17" means octal 10-17, not decimal.
func tryRange(fields []string, opts Options) (Range, []cuss.Cuss, bool) {
	if len(fields) != 3 || fields[1] != "-" {
		return Range{}, nil, false
	}
	if classifyToken(fields[0]) != tokenUnsigned || classifyToken(fields[2]) != tokenUnsigned {
		return Range{}, nil, false
	}

	var cusses []cuss.Cuss
	lo, errLo := parseUnsigned(fields[0], opts)
	if errLo != nil && errLo != errDecimalWithoutD {
		return Range{}, nil, false
	}
	if errLo == errDecimalWithoutD {
		cusses = append(cusses, cuss.New(cuss.SerDecimalWithoutD,
			"decimal literal %q missing trailing D", fields[0]))
	}

	hi, errHi := parseUnsigned(fields[2], opts)
	if errHi != nil && errHi != errDecimalWithoutD {
		return Range{}, nil, false
	}
	if errHi == errDecimalWithoutD {
		cusses = append(cusses, cuss.New(cuss.SerDecimalWithoutD,
			"decimal literal %q missing trailing D", fields[2]))
	}

	return Range{Low: lo, High: hi}, cusses, true
}

func isSignedToken(s string) bool {
	return len(s) > 1 && (s[0] == '+' || s[0] == '-') && isDecimalRun(s[1:])
}

func isDecimalRun(s string) bool {
	s = strings.TrimSuffix(s, "D")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseToken classifies and parses a single TOKEN per §4.3.
func parseToken(tok string, opts Options) (*card.AddressField, []cuss.Cuss) {
	switch classifyToken(tok) {
	case tokenUnsigned:
		n, err := parseUnsigned(tok, opts)
		if err != nil && err != errDecimalWithoutD {
			return nil, []cuss.Cuss{cuss.New(cuss.SerBadAddressField, "%v", err)}
		}
		var cusses []cuss.Cuss
		if err == errDecimalWithoutD {
			cusses = append(cusses, cuss.New(cuss.SerDecimalWithoutD,
				"decimal literal %q missing trailing D", tok))
		}
		return &card.AddressField{Kind: card.ValueUnsigned, Number: n}, cusses

	case tokenSigned:
		n, ok := parseSignedOrUnsigned(tok, opts)
		if !ok {
			return nil, []cuss.Cuss{cuss.New(cuss.SerBadAddressField, "bad signed literal %q", tok)}
		}
		return &card.AddressField{Kind: card.ValueSigned, Number: n}, nil

	default:
		return &card.AddressField{Kind: card.ValueSymbol, Symbol: tok}, nil
	}
}

type tokenClass int

const (
	tokenSymbol tokenClass = iota
	tokenUnsigned
	tokenSigned
)

func classifyToken(tok string) tokenClass {
	if tok == "" {
		return tokenSymbol
	}
	if (tok[0] == '+' || tok[0] == '-') && len(tok) > 1 && isDecimalRun(tok[1:]) {
		return tokenSigned
	}
	if isDecimalRun(tok) {
		return tokenUnsigned
	}
	return tokenSymbol
}

// parseUnsigned parses an unsigned literal per §4.3: trailing D means
// decimal; all-octal digits (<=7) with no D means octal; decimal
// digits without D is leniently accepted only on Raytheon-origin
// source, otherwise it raises Cuss 0x21 but still returns a value.
func parseUnsigned(tok string, opts Options) (int, error) {
	if strings.HasSuffix(tok, "D") {
		return strconv.Atoi(strings.TrimSuffix(tok, "D"))
	}
	if allOctalDigits(tok) {
		n, err := strconv.ParseInt(tok, 8, 64)
		return int(n), err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	if !opts.Raytheon {
		// parseToken turns this sentinel into Cuss 0x21 while still
		// keeping n as the parsed value (§4.3 leniency).
		return n, errDecimalWithoutD
	}
	return n, nil
}

func allOctalDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

// parseSignedOrUnsigned parses either "+N"/"-N" (signed) reusing the
// same D-suffix/octal rules as parseUnsigned for the magnitude.
func parseSignedOrUnsigned(tok string, opts Options) (int, bool) {
	neg := false
	body := tok
	switch {
	case strings.HasPrefix(tok, "+"):
		body = tok[1:]
	case strings.HasPrefix(tok, "-"):
		body = tok[1:]
		neg = true
	}
	n, err := parseUnsigned(body, opts)
	if err != nil && err != errDecimalWithoutD {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

var errDecimalWithoutD = decimalWithoutDError{}

type decimalWithoutDError struct{}

func (decimalWithoutDError) Error() string { return "decimal literal without trailing D" }
