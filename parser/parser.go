// Package parser implements the §4.4 state machine: it consumes the
// lexer's LexedLine stream and emits one ParsedCard per Instruction
// line, carrying the EXTEND/STADR latches, page-gap tracking, and the
// interpretive operand stack across calls.
//
// Grounded on the teacher's asm/asm.go, which drives a similar
// single-pass state machine (current address, pending label fixups)
// over a token stream; this package generalizes "pending label" into
// "pending interpretive operand slot" and adds the EXTEND/STADR
// one-instruction latches the 6502 has no analogue for.
package parser

import (
	"strconv"
	"strings"

	"yayul/address"
	"yayul/card"
	"yayul/catalog"
	"yayul/config"
	"yayul/cuss"
	"yayul/lexer"
)

// ParsedCard is one parser result (§4.4). Card is nil when parsing
// failed outright; Cusses may be non-empty even when Card is set.
type ParsedCard struct {
	Source lexer.SourceLine
	Card   *card.Card
	Cusses []cuss.Cuss
}

// OperandSlot is one pending interpretive operand awaiting its address
// word (§4.4 "interpretive operand stack").
type OperandSlot struct {
	PushDown  bool
	Indexable bool
	Operation string
	Source    lexer.SourceLine
}

// Parser holds the process-wide state threaded across a stream of
// LexedLines (§4.4 "State machine (process-wide across the stream)").
type Parser struct {
	cat    *catalog.Catalog
	target config.Target

	extendLatch bool
	stadrLatch  bool

	expectedPage int
	sawPage      bool

	stack []OperandSlot
}

// New creates a Parser bound to cat and target.
func New(cat *catalog.Catalog, target config.Target) *Parser {
	return &Parser{cat: cat, target: target}
}

// Next processes one LexedLine. ok is false for lines that do not
// themselves produce a Card (Pagination lines only update page
// tracking).
func (p *Parser) Next(line lexer.LexedLine) (ParsedCard, bool) {
	switch line.Variant {
	case lexer.Pagination:
		p.checkPage(line.Source)
		return ParsedCard{}, false

	case lexer.Insertion:
		file := ""
		if line.Field1 != nil {
			file = *line.Field1
		}
		return ParsedCard{Source: line.Source, Card: &card.Card{Kind: card.KindInsertion, File: file}}, true

	case lexer.Remark:
		return ParsedCard{Source: line.Source, Card: &card.Card{Kind: card.KindRemark, FullLine: true}}, true

	case lexer.Instruction:
		return p.parseInstruction(line)
	}
	return ParsedCard{}, false
}

// checkPage enforces page monotonicity (§4.4 "Page tracking").
func (p *Parser) checkPage(src lexer.SourceLine) []cuss.Cuss {
	if !p.sawPage {
		p.sawPage = true
		p.expectedPage = src.Page
		return nil
	}
	if src.Page < p.expectedPage {
		c := cuss.New(cuss.SerPageOutOfOrder,
			"page %d out of order, expected at least %d", src.Page, p.expectedPage)
		return []cuss.Cuss{c}
	}
	if p.target.EmulateYUL66PaginationBug {
		// The historical YUL66 cross-reference pass tracked "pages seen"
		// rather than the page field itself, so expectedPage always
		// advances by exactly one per page-change line instead of
		// adopting the new page number; a source that skips a page
		// number is accepted, but the expected page then runs one
		// behind the true page for the rest of the file.
		p.expectedPage++
	} else {
		p.expectedPage = src.Page
	}
	return nil
}

func (p *Parser) parseInstruction(line lexer.LexedLine) (ParsedCard, bool) {
	var cusses []cuss.Cuss
	cusses = append(cusses, p.checkPage(line.Source)...)

	loc, locCusses := validateLocation(line.Field1)
	cusses = append(cusses, locCusses...)

	if line.Field2 == nil {
		cusses = append(cusses, cuss.New(cuss.SerMissingOperand, "no operator field"))
		return ParsedCard{Source: line.Source, Cusses: cusses}, true
	}

	opField, base, ok := p.lookupOperator(*line.Field2)
	if !ok {
		cusses = append(cusses, cuss.New(cuss.SerUnknownMnemonic, "unknown mnemonic %q", *line.Field2))
		return ParsedCard{Source: line.Source, Cusses: cusses}, true
	}
	base = p.cat.CheckExtendedIndex(base, p.extendLatch)
	opField.Operation = base.Symbol

	operand := ""
	if line.Field3 != nil {
		operand = *line.Field3
	}

	var result card.Card
	switch base.Type {
	case catalog.Clerical:
		result, cusses = p.parseClerical(line, loc, opField, base, operand, cusses)
	case catalog.Basic:
		result, cusses = p.parseBasic(line, loc, opField, base, operand, cusses)
	case catalog.Interpretive:
		result, cusses = p.parseInterpretive(line, loc, opField, base, operand, cusses)
	case catalog.Numeric:
		result, cusses = p.parseNumeric(line, loc, opField, base, operand, cusses)
	case catalog.Address:
		result, cusses = p.parseAddressConstant(line, loc, opField, base, operand, cusses)
	}

	if base.ClearsExtend() && !isExtendTolerated(base.Symbol) {
		p.extendLatch = false
	}
	if base.IsExtend || (base.IsIndex && p.extendLatch) {
		p.extendLatch = true
	}

	return ParsedCard{Source: line.Source, Card: &result, Cusses: cusses}, true
}

// lookupOperator parses the leading '-' and trailing '*' decorations
// off an OPERATOR field token and looks up the base mnemonic.
func (p *Parser) lookupOperator(raw string) (card.OperationField, catalog.Operation, bool) {
	f := card.OperationField{}
	sym := raw
	if strings.HasPrefix(sym, "-") {
		f.Complemented = true
		sym = sym[1:]
	}
	if strings.HasSuffix(sym, "*") {
		f.Indexed = true
		sym = strings.TrimSuffix(sym, "*")
	}
	op, ok := p.cat.Lookup(sym)
	return f, op, ok
}

// validateLocation enforces §4.4's LOCATION field rules.
func validateLocation(field1 *string) (string, []cuss.Cuss) {
	if field1 == nil {
		return "", nil
	}
	loc := *field1
	if strings.TrimSpace(loc) == "" {
		if loc == "" {
			return "", nil
		}
		return loc, []cuss.Cuss{cuss.New(cuss.SerLocationBlank, "location field is blank")}
	}
	if len(loc) > 8 {
		return loc, []cuss.Cuss{cuss.New(cuss.SerLocationTooLong, "location %q longer than 8 characters", loc)}
	}
	if _, err := strconv.Atoi(loc); err == nil {
		return loc, []cuss.Cuss{cuss.New(cuss.SerLocationNumeric, "location %q parses as a number", loc)}
	}
	return loc, nil
}

// addressOptions builds address.Options from an operation's *index*
// necessity (op.Index), independent of whether the address field
// itself is required/optional/forbidden (that's op.Address, checked
// separately by the caller).
func (p *Parser) addressOptions(indexNecessity catalog.Necessity, rangeAllowed bool) address.Options {
	idx := address.IndexNever
	switch indexNecessity {
	case catalog.Optional:
		idx = address.IndexOptional
	case catalog.Required:
		idx = address.IndexRequired
	}
	return address.Options{Index: idx, RangeAllowed: rangeAllowed, Raytheon: p.target.IsRaytheon()}
}

// discardPendingOperands pops every slot still on the interpretive
// operand stack when a Clerical or Basic instruction interrupts a run
// of interpretive code (§4.4 "interpretive operand stack" is only
// valid across consecutive Interpretive cards). Each discarded slot
// raises SerIndexSuffix if it still awaited an indexed address, or
// SerInterpStackPushDown otherwise.
func (p *Parser) discardPendingOperands(cusses []cuss.Cuss) []cuss.Cuss {
	for i := len(p.stack) - 1; i >= 0; i-- {
		slot := p.stack[i]
		if slot.Indexable {
			cusses = append(cusses, cuss.New(cuss.SerIndexSuffix,
				"%q operand pushed down without its index", slot.Operation))
		} else {
			cusses = append(cusses, cuss.New(cuss.SerInterpStackPushDown,
				"%q operand pushed off the interpretive stack unresolved", slot.Operation))
		}
	}
	p.stack = nil
	return cusses
}

func (p *Parser) parseClerical(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	cusses = p.discardPendingOperands(cusses)
	if p.stadrLatch {
		cusses = append(cusses, cuss.New(cuss.SerMissingStadrFollower, "STADR not followed by a store"))
		p.stadrLatch = false
	}
	if p.extendLatch && !isExtendTolerated(op.Symbol) {
		cusses = append(cusses, cuss.New(cuss.SerSpuriousExtend, "EXTEND latch set but not consumed by %q", op.Symbol))
	} else if p.extendLatch && isExtendTolerated(op.Symbol) {
		cusses = append(cusses, cuss.New(cuss.SerExtendTolerated, "%q tolerated between EXTEND and its target", op.Symbol))
	}

	c := card.Card{Kind: card.KindClerical, Location: loc, HasLocation: loc != "", Operation: opField}
	if op.Address != catalog.Forbidden {
		rangeAllowed := op.Symbol == "ERASE" || op.Symbol == "MEMORY"
		f, rng, addrCusses := address.Parse(operand, p.addressOptions(op.Index, rangeAllowed))
		cusses = append(cusses, addrCusses...)
		if rng != nil {
			c.Address = &card.AddressField{Kind: card.ValueUnsigned, Number: rng.Low}
			c.AddressRangeHigh = intPtr(rng.High)
		} else {
			c.Address = f
		}
	} else if strings.TrimSpace(operand) != "" {
		cusses = append(cusses, cuss.New(cuss.SerSpuriousOperand, "operand present where forbidden for %q", op.Symbol))
	}
	return c, cusses
}

func intPtr(n int) *int { return &n }

func isExtendTolerated(symbol string) bool {
	return symbol == "EBANK=" || symbol == "SBANK="
}

func (p *Parser) parseBasic(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	cusses = p.discardPendingOperands(cusses)
	if op.Extended && !p.extendLatch {
		cusses = append(cusses, cuss.New(cuss.SerMissingExtend, "%q requires EXTEND", op.Symbol))
	}
	if !op.Extended && p.extendLatch && !op.IsIndex {
		cusses = append(cusses, cuss.New(cuss.SerSpuriousExtend, "EXTEND latch set but %q is not extended", op.Symbol))
	}
	if opField.Indexed {
		cusses = append(cusses, cuss.New(cuss.SerSpuriousIndex, "'*' suffix not permitted on Basic instruction %q", op.Symbol))
	}

	c := card.Card{Kind: card.KindBasicInstruction, Location: loc, HasLocation: loc != "", Operation: opField}
	if op.Address != catalog.Forbidden {
		f, _, addrCusses := address.Parse(operand, p.addressOptions(op.Index, false))
		cusses = append(cusses, addrCusses...)
		c.Address = f
	} else if strings.TrimSpace(operand) != "" {
		cusses = append(cusses, cuss.New(cuss.SerSpuriousOperand, "operand present where forbidden for %q", op.Symbol))
	}
	return c, cusses
}

func (p *Parser) parseInterpretive(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	if op.Symbol == "STADR" {
		p.stadrLatch = true
		return card.Card{Kind: card.KindInterpretiveInstruction, Location: loc, HasLocation: loc != "",
			LHS: &opField}, cusses
	}

	isStore := op.SubType == catalog.SubTypeStore
	if isStore {
		return p.parseStore(line, loc, opField, op, operand, cusses)
	}

	if p.stadrLatch {
		cusses = append(cusses, cuss.New(cuss.SerMissingStadrFollower, "STADR not followed by a store"))
		p.stadrLatch = false
	}

	if op.Operand2 != nil {
		p.stack = append(p.stack, OperandSlot{PushDown: op.Operand2.PushDown, Indexable: op.Operand2.Indexable, Operation: op.Symbol, Source: line.Source})
	}
	if op.Operand1 != nil {
		p.stack = append(p.stack, OperandSlot{PushDown: op.Operand1.PushDown, Indexable: op.Operand1.Indexable, Operation: op.Symbol, Source: line.Source})
	}

	rhs := &card.InterpretiveRHS{Operation: &opField}
	return card.Card{Kind: card.KindInterpretiveInstruction, Location: loc, HasLocation: loc != "",
		LHS: &opField, RHS: rhs}, cusses
}

func (p *Parser) parseStore(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	if p.stadrLatch {
		opField.Complemented = true
		p.stadrLatch = false
	}

	starredOrIndexed := opField.Indexed || strings.Contains(operand, ",1") || strings.Contains(operand, ",2")
	op = p.cat.CheckIndexedStore(op, starredOrIndexed)

	if strings.TrimSpace(operand) == "" {
		cusses = append(cusses, cuss.New(cuss.SerMissingStoreOperand, "%q missing operand", op.Symbol))
		return card.Card{Kind: card.KindInterpretiveInstruction, Location: loc, HasLocation: loc != "", LHS: &opField}, cusses
	}

	f, _, addrCusses := address.Parse(operand, p.addressOptions(catalog.Optional, false))
	cusses = append(cusses, addrCusses...)

	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}

	rhs := &card.InterpretiveRHS{Operation: &opField, Address: f}
	return card.Card{Kind: card.KindInterpretiveInstruction, Location: loc, HasLocation: loc != "", LHS: &opField, RHS: rhs}, cusses
}

func (p *Parser) parseNumeric(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	c := card.Card{Kind: card.KindNumericConstant, Location: loc, HasLocation: loc != "", Operation: opField}

	fields := strings.Fields(operand)
	if len(fields) == 0 {
		cusses = append(cusses, cuss.New(cuss.SerMissingOperand, "%q missing numeric operand", op.Symbol))
		return c, cusses
	}

	low, lowErr := parseNumericLiteral(fields[len(fields)-1])
	if lowErr != nil {
		cusses = append(cusses, cuss.New(cuss.SerBadAddressField, "bad numeric literal %q: %v", fields[len(fields)-1], lowErr))
	}
	c.LowWord = low

	if op.Words == 2 && len(fields) > 1 {
		high, highErr := parseNumericLiteral(fields[0])
		if highErr != nil {
			cusses = append(cusses, cuss.New(cuss.SerBadAddressField, "bad numeric literal %q: %v", fields[0], highErr))
		}
		c.HighWord = &high
	}

	if len(p.stack) > 0 {
		idx := len(p.stack) - 1
		c.Interpretive = &idx
		c.HasInterp = true
		p.stack = p.stack[:idx]
	}
	return c, cusses
}

// parseNumericLiteral is the §4.4 "dedicated numeric-constant
// sub-lexer": a D-suffixed token is decimal, otherwise octal.
func parseNumericLiteral(tok string) (int, error) {
	if strings.HasSuffix(tok, "D") {
		return strconv.Atoi(strings.TrimSuffix(tok, "D"))
	}
	neg := false
	body := tok
	if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}
	n, err := strconv.ParseInt(body, 8, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return int(n), nil
}

func (p *Parser) parseAddressConstant(line lexer.LexedLine, loc string, opField card.OperationField, op catalog.Operation, operand string, cusses []cuss.Cuss) (card.Card, []cuss.Cuss) {
	c := card.Card{Kind: card.KindAddressConstant, Location: loc, HasLocation: loc != "", Operation: opField}

	if op.Symbol == "BBCON*" {
		if strings.TrimSpace(operand) != "" {
			cusses = append(cusses, cuss.New(cuss.SerSpuriousOperand, "BBCON* takes no address field"))
		}
		return c, cusses
	}

	necessity := op.Index
	if op.Symbol == "P" && len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		if top.Indexable {
			necessity = catalog.Required
		} else {
			necessity = catalog.Forbidden
		}
	}

	f, _, addrCusses := address.Parse(operand, p.addressOptions(necessity, false))
	cusses = append(cusses, addrCusses...)
	c.Address = f

	if len(p.stack) > 0 {
		idx := len(p.stack) - 1
		c.Interpretive = &idx
		c.HasInterp = true
		p.stack = p.stack[:idx]
	} else if op.Symbol != "ADRES" && op.Symbol != "GENADR" && op.Symbol != "BBCON" {
		cusses = append(cusses, cuss.New(cuss.SerInterpOperatorOther, "%q has no pending interpretive operand to consume", op.Symbol))
	}

	return c, cusses
}

// ExtendLatch reports whether the EXTEND latch is currently set.
func (p *Parser) ExtendLatch() bool { return p.extendLatch }

// StackDepth reports the number of pending interpretive operand slots.
func (p *Parser) StackDepth() int { return len(p.stack) }
