package pmac

import (
	"fmt"
	"math"
)

type expression interface {
	evaluate(p *Parser) float64
}

type op int

const (
	addOp op = iota
	subtractOp
	orOp
	xorOp
	multiplyOp
	divideOp
	modOp
	andOp
	negateOp
	noOp
)

var (
	addOps = map[string]op{
		"+": addOp,
		"-": subtractOp,
		"|": orOp,
		"^": xorOp,
	}

	mulOps = map[string]op{
		"*": multiplyOp,
		"/": divideOp,
		"%": modOp,
		"&": andOp,
	}

	calls = map[string]callFunc{
		"ABS":  func(p *Parser, x float64) float64 { return math.Abs(x) },
		"INT":  func(p *Parser, x float64) float64 { return math.Floor(x) },
		"SQRT": func(p *Parser, x float64) float64 { return math.Sqrt(x) },
		"EXP":  func(p *Parser, x float64) float64 { return math.Exp(x) },
		"LN":   func(p *Parser, x float64) float64 { return math.Log(x) },
		"SIN":  func(p *Parser, x float64) float64 { return math.Sin(p.toRadians(x)) },
		"COS":  func(p *Parser, x float64) float64 { return math.Cos(p.toRadians(x)) },
		"TAN":  func(p *Parser, x float64) float64 { return math.Tan(p.toRadians(x)) },
		"ASIN": func(p *Parser, x float64) float64 { return p.fromRadians(math.Asin(x)) },
		"ACOS": func(p *Parser, x float64) float64 { return p.fromRadians(math.Acos(x)) },
		"ATAN": func(p *Parser, x float64) float64 { return p.fromRadians(math.Atan(x)) },
	}
)

type number float64

// varRef is a reference to the current value of an I, P, Q, or M variable.
type varRef struct {
	tok    Token
	letter string
	num    int
	cs     int
}

type unary struct {
	op   op
	expr expression
}

type binary struct {
	op    op
	left  expression
	right expression
}

type callFunc func(p *Parser, x float64) float64

type call struct {
	fn  callFunc
	arg expression
}

func (n number) evaluate(p *Parser) float64 {
	return float64(n)
}

func (r *varRef) evaluate(p *Parser) float64 {
	res := p.resolution()
	if res == nil {
		p.error(r.tok, "no state to resolve variable reference")
	}

	var addr string
	switch r.letter {
	case "I":
		addr = addrI(r.num)
	case "P":
		addr = addrP(r.num)
	case "Q":
		addr = addrQ(r.cs, r.num)
	case "M":
		addr = addrM(r.num)
	}

	var val Value
	switch e := res.Get(addr).(type) {
	case nil:
		p.error(r.tok, fmt.Sprintf("%s not found in %s", addr, res.Name))
	case *IVariable:
		val = e.Value
	case *PVariable:
		val = e.Value
	case *QVariable:
		val = e.Value
	case *MVariable:
		val = e.Value
	}
	if !val.Numeric {
		p.error(r.tok, fmt.Sprintf("%s is not a number: %q", addr, val.Text))
	}
	return val.Number
}

func (u *unary) evaluate(p *Parser) float64 {
	switch u.op {
	case negateOp:
		return -u.expr.evaluate(p)
	case noOp:
		return u.expr.evaluate(p)
	default:
		panic(fmt.Sprintf("unexpected unary op: %d", u.op))
	}
}

func (b *binary) evaluate(p *Parser) float64 {
	l := b.left.evaluate(p)
	r := b.right.evaluate(p)
	switch b.op {
	case addOp:
		return l + r
	case subtractOp:
		return l - r
	case multiplyOp:
		return l * r
	case divideOp:
		return l / r
	case modOp:
		return math.Mod(l, r)
	case orOp:
		return float64(int64(l) | int64(r))
	case xorOp:
		return float64(int64(l) ^ int64(r))
	case andOp:
		return float64(int64(l) & int64(r))
	default:
		panic(fmt.Sprintf("unexpected binary op: %d", b.op))
	}
}

func (c *call) evaluate(p *Parser) float64 {
	return c.fn(p, c.arg.evaluate(p))
}

// radians reports whether the resolution state has I15 set to work in
// radians; otherwise angles are in degrees.
func (p *Parser) radians() bool {
	res := p.resolution()
	if res == nil {
		return false
	}
	if v, ok := res.Get(addrI(15)).(*IVariable); ok && v.Value.Numeric {
		return v.Value.Number == 1
	}
	return false
}

func (p *Parser) toRadians(x float64) float64 {
	if p.radians() {
		return x
	}
	return x * math.Pi / 180
}

func (p *Parser) fromRadians(x float64) float64 {
	if p.radians() {
		return x
	}
	return x * 180 / math.Pi
}

/*
<expr> = <e1> { ('+' | '-' | '|' | '^') <e1> }
<e1>   = <e2> { ('*' | '/' | '%' | '&') <e2> }
<e2>   = ['+' | '-'] <e3>
<e3>   = '(' <expr> ')' | <number> | ('I' | 'P' | 'Q' | 'M') <int> | <func> '(' <expr> ')'
*/

func (p *Parser) parseExpr(ctx *Context) expression {
	e := p.parseE1(ctx)
	for {
		t, ok := p.peekRaw()
		if !ok {
			return e
		}
		o, ok := addOps[t.Text]
		if !ok {
			return e
		}
		p.nextRaw()
		e = &binary{op: o, left: e, right: p.parseE1(ctx)}
	}
}

func (p *Parser) parseE1(ctx *Context) expression {
	e := p.parseE2(ctx)
	for {
		t, ok := p.peekRaw()
		if !ok {
			return e
		}
		o, ok := mulOps[t.Text]
		if !ok {
			return e
		}
		p.nextRaw()
		e = &binary{op: o, left: e, right: p.parseE2(ctx)}
	}
}

func (p *Parser) parseE2(ctx *Context) expression {
	t := p.next()
	switch t.Text {
	case "-":
		return &unary{op: negateOp, expr: p.parseE3(ctx)}
	case "+":
		return &unary{op: noOp, expr: p.parseE3(ctx)}
	}
	p.back()
	return p.parseE3(ctx)
}

func (p *Parser) parseE3(ctx *Context) expression {
	t := p.next()
	switch t.Text {
	case "(":
		e := p.parseExpr(ctx)
		p.want(")")
		return &unary{op: noOp, expr: e}
	case "I", "P", "Q", "M":
		return &varRef{tok: t, letter: t.Text, num: p.wantInt(), cs: ctx.CS}
	}

	if f, ok := parseNumber(t.Text); ok && isNumberToken(t) {
		return number(f)
	}
	if fn, ok := calls[t.Text]; ok {
		p.want("(")
		arg := p.parseExpr(ctx)
		p.want(")")
		return &call{fn: fn, arg: arg}
	}
	p.error(t, "expected an expression")
	return nil
}

func isNumberToken(t Token) bool {
	return len(t.Text) > 0 && (isDigit(t.Text[0]) || (t.Text[0] == '$' && len(t.Text) > 1))
}
