package pmac

import (
	"fmt"
	"runtime"
	"strconv"
)

// Context is the coordinate system and motor addressed by on-line commands.
type Context struct {
	CS    int
	Motor int
}

// Parser executes on-line PMAC commands against a State. It is not safe to
// use a Parser, or its State, from more than one goroutine.
type Parser struct {
	state   *State
	resolve *State
	ctx     Context

	toks []Token
	pos  int
	last int
}

// NewParser returns a parser that writes into state. Variable references
// in expressions are resolved against resolve, or against state.Resolve
// when resolve is nil.
func NewParser(state, resolve *State) *Parser {
	return &Parser{
		state:   state,
		resolve: resolve,
		ctx:     Context{CS: 1, Motor: 1},
	}
}

// ParseOnline executes every statement in toks against state.
func ParseOnline(toks []Token, state, resolve *State) error {
	return NewParser(state, resolve).Parse(toks)
}

// ParseLines tokenizes lines and executes them against state.
func ParseLines(lines []string, state, resolve *State) error {
	toks, err := Tokenize(lines)
	if err != nil {
		return err
	}
	return ParseOnline(toks, state, resolve)
}

// Context returns the current coordinate system and motor.
func (p *Parser) Context() Context {
	return p.ctx
}

// Parse executes toks. The coordinate system and motor carry over from
// earlier calls.
func (p *Parser) Parse(toks []Token) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			err = r.(error)
		}
	}()

	p.toks = toks
	p.pos = 0
	p.last = 0
	for p.more() {
		p.parseStatement(&p.ctx)
	}
	return nil
}

// Evaluate parses and evaluates the expression in toks.
func (p *Parser) Evaluate(toks []Token) (val float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			err = r.(error)
		}
	}()

	p.toks = toks
	p.pos = 0
	p.last = 0
	val = p.parseExpr(&p.ctx).evaluate(p)
	if t, ok := p.peek(); ok {
		p.error(t, "unexpected token after expression")
	}
	return val, nil
}

func (p *Parser) resolution() *State {
	if p.resolve != nil {
		return p.resolve
	}
	return p.state.Resolve
}

func (p *Parser) error(t Token, msg string) {
	panic(&ParserError{Message: msg, Token: t})
}

func (p *Parser) endToken() Token {
	if len(p.toks) == 0 {
		return Token{Text: "<end>"}
	}
	t := p.toks[len(p.toks)-1]
	t.Text = "<end>"
	return t
}

// more reports whether any tokens other than newlines remain.
func (p *Parser) more() bool {
	_, ok := p.peek()
	return ok
}

func (p *Parser) nextRawOK() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	p.last = p.pos
	p.pos += 1
	return p.toks[p.last], true
}

func (p *Parser) nextRaw() Token {
	t, ok := p.nextRawOK()
	if !ok {
		p.error(p.endToken(), "unexpected end of input")
	}
	return t
}

// next returns the next token that is not a newline.
func (p *Parser) next() Token {
	for {
		t := p.nextRaw()
		if !t.isNewline() {
			return t
		}
	}
}

// back pushes the last token returned by next or nextRaw back.
func (p *Parser) back() {
	p.pos = p.last
}

func (p *Parser) peekRaw() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) peek() (Token, bool) {
	for i := p.pos; i < len(p.toks); i++ {
		if !p.toks[i].isNewline() {
			return p.toks[i], true
		}
	}
	return Token{}, false
}

// accept consumes the next token, newlines included, if it is s.
func (p *Parser) accept(s string) bool {
	t, ok := p.peekRaw()
	if ok && t.Text == s {
		p.nextRaw()
		return true
	}
	return false
}

func (p *Parser) want(s string) Token {
	t := p.next()
	if t.Text != s {
		p.error(t, fmt.Sprintf("expected %s", s))
	}
	return t
}

func tokenInt(t Token) (int, bool) {
	if len(t.Text) == 0 || !isDigit(t.Text[0]) {
		return 0, false
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *Parser) wantInt() int {
	t := p.next()
	n, ok := tokenInt(t)
	if !ok {
		p.error(t, "expected an integer")
	}
	return n
}

// acceptInt consumes the next token on this line if it is an integer.
func (p *Parser) acceptInt() (int, bool) {
	t, ok := p.peekRaw()
	if !ok {
		return 0, false
	}
	n, ok := tokenInt(t)
	if ok {
		p.nextRaw()
	}
	return n, ok
}

func (p *Parser) wantNumber() float64 {
	t := p.next()
	f, ok := parseNumber(t.Text)
	if !ok || !isNumberToken(t) {
		p.error(t, "expected a number")
	}
	return f
}

func (p *Parser) parseStatement(ctx *Context) {
	t := p.next()
	switch t.Text {
	case "&":
		p.parseCoordSys(ctx)
	case "#":
		p.parseMotor(ctx)
	case "%":
		p.parseFeedrate(ctx)
	case "OPEN":
		p.parseOpen(ctx, t)
	case "I", "P", "Q", "M":
		p.parseAssignment(ctx, t)
	case "MS":
		p.parseMacroStation(ctx, t)
	case "UNDEFINE":
		p.parseUndefine(ctx)
	case "ENABLE", "DISABLE":
		p.parseEnable(t)
	case "DELETE":
		p.parseDelete(t)
	case "W":
		p.parseWrite(t)
	case "CLOSE":
		// No buffer is open.
	default:
		p.error(t, "unexpected statement")
	}
}

// &<n>: select a coordinate system; & alone is a report.
func (p *Parser) parseCoordSys(ctx *Context) {
	if n, ok := p.acceptInt(); ok {
		ctx.CS = n
	}
}

// #<n> selects a motor; #<n>-><definition> defines its axis in the
// current coordinate system.
func (p *Parser) parseMotor(ctx *Context) {
	n, ok := p.acceptInt()
	if !ok {
		return
	}
	ctx.Motor = n
	if !p.accept("->") {
		return
	}

	def := p.state.AxisDef(ctx.CS, ctx.Motor)
	t := p.next()
	switch t.Text {
	case "0", "I":
		def.Tokens = []Token{t}
	default:
		p.back()
		def.Tokens = p.parseAxisDefinition()
	}
}

func isAxisLetter(s string) bool {
	switch s {
	case "X", "Y", "Z", "U", "V", "W", "A", "B", "C":
		return true
	}
	return false
}

// parseAxisDefinition reads terms of the form [+|-][scale]<axis>, joined by
// + or -. Terms after the first may be a constant offset with no axis.
func (p *Parser) parseAxisDefinition() []Token {
	var def []Token
	for first := true; ; first = false {
		if !first {
			t, ok := p.peekRaw()
			if !ok || (t.Text != "+" && t.Text != "-") {
				return def
			}
		}

		term, axis := p.parseAxisTerm()
		if first && !axis {
			p.error(term[len(term)-1], "expected an axis letter")
		}
		def = append(def, term...)
	}
}

func (p *Parser) parseAxisTerm() ([]Token, bool) {
	var term []Token
	t := p.next()
	if t.Text == "+" || t.Text == "-" {
		term = append(term, t)
		t = p.nextRaw()
	}
	if isNumberToken(t) {
		term = append(term, t)
		a, ok := p.peekRaw()
		if !ok || !isAxisLetter(a.Text) {
			return term, false
		}
		t = p.nextRaw()
	}
	if !isAxisLetter(t.Text) {
		p.error(t, "expected an axis definition")
	}
	return append(term, t), true
}

// %<n>: set the feedrate override of the current coordinate system; %
// alone is a report.
func (p *Parser) parseFeedrate(ctx *Context) {
	t, ok := p.peekRaw()
	if !ok || !isNumberToken(t) {
		return
	}
	p.state.Feedrate(ctx.CS).Value = NumberValue(p.wantNumber())
}

// parseRange reads the indexes following a variable letter: <n>, (<expr>),
// <start>..<end>, or <start>,<count>,<increment>.
func (p *Parser) parseRange(ctx *Context) []int {
	t := p.next()
	if t.Text == "(" {
		p.back()
		n := p.parseE3(ctx).evaluate(p)
		return []int{int(n)}
	}
	start, ok := tokenInt(t)
	if !ok {
		p.error(t, "expected a variable number")
	}

	if p.accept("..") {
		et := p.next()
		end, ok := tokenInt(et)
		if !ok {
			p.error(et, "expected an integer")
		}
		if end <= start {
			p.error(et, "range end must be greater than start")
		}
		idx := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			idx = append(idx, n)
		}
		return idx
	}

	if p.accept(",") {
		ct := p.next()
		count, ok := tokenInt(ct)
		if !ok || count < 1 {
			p.error(ct, "expected a variable count")
		}
		p.want(",")
		inc := p.wantInt()
		idx := make([]int, 0, count)
		for i := 0; i < count; i++ {
			idx = append(idx, start+i*inc)
		}
		return idx
	}

	return []int{start}
}

// I, P, Q, or M <range> = <expr>, or M <range> -> <definition>. With
// neither, the statement is a query.
func (p *Parser) parseAssignment(ctx *Context, letter Token) {
	idx := p.parseRange(ctx)

	if p.accept("=") {
		val := NumberValue(p.parseExpr(ctx).evaluate(p))
		for _, n := range idx {
			switch letter.Text {
			case "I":
				p.state.IVariable(n).Value = val
			case "P":
				p.state.PVariable(n).Value = val
			case "Q":
				p.state.QVariable(ctx.CS, n).Value = val
			case "M":
				p.state.MVariable(n).Value = val
			}
		}
		return
	}

	if letter.Text == "M" && p.accept("->") {
		def := p.parseMDefinition()
		for _, n := range idx {
			mv := p.state.MVariable(n)
			mv.Type, mv.Address, mv.Offset, mv.Width, mv.Format =
				def.Type, def.Address, def.Offset, def.Width, def.Format
		}
	}
}

func (p *Parser) parseMDefinition() MVariable {
	def := MVariable{Type: MTypeNone, Format: "U"}
	t := p.next()
	if t.Text == MTypeNone {
		return def
	}
	if !mTypes[t.Text] {
		p.error(t, "expected an m-variable address type")
	}
	def.Type = t.Text
	p.want(":")
	def.Address = int(p.wantNumber())

	if def.Type != MTypeX && def.Type != MTypeY {
		return def
	}

	def.Width = 1
	if !p.accept(",") {
		return def
	}
	offset := p.wantInt()
	if offset == 24 {
		def.Width = 24
	} else {
		def.Offset = offset
		if p.accept(",") {
			def.Width = p.wantInt()
		}
	}
	if p.accept(",") {
		ft := p.next()
		if ft.Text != "U" && ft.Text != "S" {
			p.error(ft, "expected U or S")
		}
		def.Format = ft.Text
	}
	return def
}

// MS<node>,I<n> = <expr>
func (p *Parser) parseMacroStation(ctx *Context, ms Token) {
	node := p.wantInt()
	p.want(",")
	p.want("I")
	n := p.wantInt()
	if p.accept("=") {
		p.state.MsIVariable(node, n).Value = NumberValue(p.parseExpr(ctx).evaluate(p))
	}
}

// UNDEFINE ALL clears every axis definition; UNDEFINE clears those of the
// current coordinate system.
func (p *Parser) parseUndefine(ctx *Context) {
	cs := ctx.CS
	if p.accept("ALL") {
		cs = 0
	}
	for _, def := range p.state.AxisDefs(cs) {
		def.Tokens = makeTokens("0")
	}
}

// ENABLE|DISABLE PLC|PLCC <n>[..<m>][,...]
func (p *Parser) parseEnable(t Token) {
	kind := p.next()
	if kind.Text != "PLC" && kind.Text != "PLCC" {
		p.error(kind, fmt.Sprintf("expected PLC or PLCC after %s", t.Text))
	}
	for {
		p.wantInt()
		if p.accept("..") {
			p.wantInt()
		}
		if !p.accept(",") {
			return
		}
	}
}

// DELETE <buffer> [<n>]
func (p *Parser) parseDelete(t Token) {
	what := p.next()
	if _, ok := keywords[what.Text]; !ok || isSingleLetter(what.Text) {
		p.error(what, "expected a buffer to delete")
	}
	p.acceptInt()
}

// W <area>[:]<address>[,<constant>...]
func (p *Parser) parseWrite(t Token) {
	area := p.next()
	if !mTypes[area.Text] || area.Text == MTypeNone {
		p.error(area, "expected a memory area")
	}
	p.accept(":")
	p.wantNumber()
	for p.accept(",") {
		p.wantNumber()
	}
}

// parseOpen reads OPEN PROGRAM|PLC <n> or OPEN FORWARD|INVERSE [<n>],
// then captures the buffer up to CLOSE.
func (p *Parser) parseOpen(ctx *Context, open Token) {
	var buf *body
	t := p.next()
	switch t.Text {
	case "PROGRAM":
		buf = &p.state.Program(p.wantInt()).body
	case "PLC":
		buf = &p.state.PLC(p.wantInt()).body
	case "FORWARD", "INVERSE":
		cs := ctx.CS
		if n, ok := p.acceptInt(); ok {
			cs = n
		}
		if t.Text == "FORWARD" {
			buf = &p.state.Forward(cs).body
		} else {
			buf = &p.state.Inverse(cs).body
		}
	default:
		p.error(t, "expected PROGRAM, PLC, FORWARD, or INVERSE")
	}

	if p.accept("CLEAR") {
		buf.clear()
	}
	p.capture(open, buf)
}

func (p *Parser) capture(open Token, buf *body) {
	for {
		t, ok := p.nextRawOK()
		if !ok {
			p.error(open, "buffer not closed")
		}

		switch t.Text {
		case "CLOSE":
			finishBuffer(buf, t)
			return
		case "FRAX":
			p.captureFrax(buf, t)
		case "&":
			if n, ok := p.peekRaw(); ok && n.Text == "COMMAND" {
				continue
			}
			buf.add(t)
		default:
			buf.add(t)
		}
	}
}

// finishBuffer ends the buffer with RETURN if it does not already.
func finishBuffer(buf *body, closeTok Token) {
	toks, _ := stripNewlines(buf.Tokens)
	if len(toks) > 0 && toks[len(toks)-1].Text == "RETURN" {
		return
	}
	ret := closeTok
	ret.Text = "RETURN"
	buf.add(ret)
}

// fraxOrder is the order PMAC lists FRAX axes in.
var fraxOrder = [...]string{"A", "B", "C", "U", "V", "W", "X", "Y", "Z"}

// captureFrax rewrites FRAX(<axes>) with the axes in canonical order, or as
// plain FRAX when all nine axes are named.
func (p *Parser) captureFrax(buf *body, frax Token) {
	buf.add(frax)
	if t, ok := p.peekRaw(); !ok || t.Text != "(" {
		return
	}

	var raw []Token
	axes := map[string]bool{}
	raw = append(raw, p.nextRaw())
	for {
		t, ok := p.nextRawOK()
		if !ok || t.isNewline() {
			if ok {
				p.back()
			}
			buf.Tokens = append(buf.Tokens, raw...)
			return
		}
		raw = append(raw, t)
		if t.Text == ")" {
			break
		}
		if t.Text == "," {
			continue
		}
		if !isAxisLetter(t.Text) {
			buf.Tokens = append(buf.Tokens, raw...)
			return
		}
		axes[t.Text] = true
	}

	if len(axes) == len(fraxOrder) {
		return
	}
	paren := raw[0]
	buf.add(paren)
	sep := false
	for _, a := range fraxOrder {
		if !axes[a] {
			continue
		}
		if sep {
			comma := paren
			comma.Text = ","
			buf.add(comma)
		}
		axis := paren
		axis.Text = a
		buf.add(axis)
		sep = true
	}
	closing := raw[len(raw)-1]
	buf.add(closing)
}
