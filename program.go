package pmac

import (
	"fmt"
	"strconv"
	"strings"
)

// body is the token sequence shared by programs, PLCs, kinematics, and axis
// definitions.
type body struct {
	Tokens []Token
}

func (b *body) clear() {
	b.Tokens = nil
}

func (b *body) add(t Token) {
	b.Tokens = append(b.Tokens, t)
}

// IsEmpty reports whether the body has no tokens other than newlines and a
// lone RETURN.
func (b *body) IsEmpty() bool {
	toks, _ := stripNewlines(b.Tokens)
	return len(toks) == 0 || (len(toks) == 1 && toks[0].Text == "RETURN")
}

func (b *body) IsReadOnly() bool {
	return false
}

// Listing renders the body as source lines.
func (b *body) Listing() []string {
	return listing(b.Tokens)
}

// FailedTokens returns the tokens marked by the last comparison.
func (b *body) FailedTokens() []Token {
	var failed []Token
	for _, t := range b.Tokens {
		if t.CompareFail {
			failed = append(failed, t)
		}
	}
	return failed
}

func (b *body) cloneTokens() []Token {
	if b.Tokens == nil {
		return nil
	}
	return append([]Token(nil), b.Tokens...)
}

func (b *body) compare(o *body) bool {
	for i := range b.Tokens {
		b.Tokens[i].CompareFail = false
	}
	for i := range o.Tokens {
		o.Tokens[i].CompareFail = false
	}
	return compareTokens(b.Tokens, o.Tokens)
}

func isCommand(t Token) bool {
	return strings.HasPrefix(t.Text, "COMMAND")
}

// compareTokens compares a and b positionally, ignoring newlines. Every
// differing token on either side is marked; the comparison does not stop
// at the first difference.
func compareTokens(a, b []Token) bool {
	sa, ia := stripNewlines(a)
	sb, ib := stripNewlines(b)

	equal := true
	i := 0
	for i < len(sa) && i < len(sb) {
		if isCommand(sa[i]) && sa[i].Equal(sb[i]) && i+1 < len(sa) && i+1 < len(sb) &&
			sa[i+1].isString() && sb[i+1].isString() {

			if !compareCommandStrings(sa[i+1], sb[i+1]) {
				a[ia[i+1]].CompareFail = true
				b[ib[i+1]].CompareFail = true
				equal = false
			}
			i += 2
			continue
		}
		if !sa[i].Equal(sb[i]) {
			a[ia[i]].CompareFail = true
			b[ib[i]].CompareFail = true
			equal = false
		}
		i += 1
	}
	for j := i; j < len(sa); j++ {
		a[ia[j]].CompareFail = true
		equal = false
	}
	for j := i; j < len(sb); j++ {
		b[ib[j]].CompareFail = true
		equal = false
	}
	return equal
}

// compareCommandStrings tokenizes the contents of two quoted commands and
// compares them as commands.
func compareCommandStrings(a, b Token) bool {
	sa := strings.Trim(a.Text, `"`)
	sb := strings.Trim(b.Text, `"`)
	ta, erra := Tokenize([]string{sa})
	tb, errb := Tokenize([]string{sb})
	if erra != nil || errb != nil {
		return strings.TrimSpace(sa) == strings.TrimSpace(sb)
	}
	return compareTokens(ta, tb)
}

// Program is a motion program or a forward or inverse kinematic buffer. For
// kinematics, Number is the coordinate system.
type Program struct {
	body
	kind   Kind
	Number int
}

func NewProgram(kind Kind, n int) *Program {
	switch kind {
	case KindProgram, KindForward, KindInverse:
	default:
		panic(fmt.Sprintf("unexpected program kind: %s", kind))
	}
	return &Program{kind: kind, Number: n}
}

func (p *Program) Kind() Kind { return p.kind }

func (p *Program) Addr() string {
	switch p.kind {
	case KindForward:
		return addrForward(p.Number)
	case KindInverse:
		return addrInverse(p.Number)
	}
	return addrProgram(p.Number)
}

func (p *Program) ValStr() []string {
	return p.Listing()
}

func (p *Program) Dump() string {
	var open string
	switch p.kind {
	case KindForward:
		open = fmt.Sprintf("&%d open forward clear\n", p.Number)
	case KindInverse:
		open = fmt.Sprintf("&%d open inverse clear\n", p.Number)
	default:
		open = fmt.Sprintf("open program %d clear\n", p.Number)
	}
	return dumpBuffer(open, p.Listing())
}

func dumpBuffer(open string, lines []string) string {
	var b strings.Builder
	b.WriteString(open)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("close\n")
	return b.String()
}

func (p *Program) Compare(o Entry) bool {
	op, ok := o.(*Program)
	return ok && op.kind == p.kind && p.compare(&op.body)
}

func (p *Program) clone() Entry {
	c := *p
	c.Tokens = p.cloneTokens()
	return &c
}

// PLC is a background PLC program along with its run state on the hardware.
type PLC struct {
	body
	Number int

	isRunning  bool
	runStateOK bool
}

func NewPLC(n int) *PLC {
	return &PLC{Number: n}
}

func (p *PLC) Kind() Kind       { return KindPLC }
func (p *PLC) Addr() string     { return addrPLC(p.Number) }
func (p *PLC) ValStr() []string { return p.Listing() }

func (p *PLC) Dump() string {
	return dumpBuffer(fmt.Sprintf("open plc %d clear\n", p.Number), p.Listing())
}

func (p *PLC) Compare(o Entry) bool {
	op, ok := o.(*PLC)
	return ok && p.compare(&op.body)
}

// SetRunning records the run state read back from the hardware.
func (p *PLC) SetRunning(running bool) {
	p.isRunning = running
	p.runStateOK = true
}

// IsRunning returns the hardware run state and whether it is known.
func (p *PLC) IsRunning() (bool, bool) {
	return p.isRunning, p.runStateOK
}

// ShouldBeRunning guesses whether the PLC is meant to run: a non-empty PLC
// runs unless its code contains DISABLE PLC <n> for its own number. The
// code is not executed, so a PLC that disables itself only on some branch
// is still reported as not running.
func (p *PLC) ShouldBeRunning() bool {
	if p.IsEmpty() {
		return false
	}
	toks, _ := stripNewlines(p.Tokens)
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Text == "DISABLE" && toks[i+1].Text == "PLC" {
			n, err := strconv.Atoi(toks[i+2].Text)
			if err == nil && n == p.Number {
				return false
			}
		}
	}
	return true
}

func (p *PLC) clone() Entry {
	c := *p
	c.Tokens = p.cloneTokens()
	return &c
}

// AxisDef is a motor's axis definition within a coordinate system. The
// tokens are the right hand side of #<motor>-><definition>; "0" means no
// definition.
type AxisDef struct {
	body
	CS    int
	Motor int
}

// NewAxisDef returns an undefined axis definition, #<motor>->0.
func NewAxisDef(cs, motor int) *AxisDef {
	return &AxisDef{body: body{Tokens: makeTokens("0")}, CS: cs, Motor: motor}
}

func (d *AxisDef) Kind() Kind   { return KindAxisDef }
func (d *AxisDef) Addr() string { return addrAxisDef(d.CS, d.Motor) }

func (d *AxisDef) Definition() string {
	toks, _ := stripNewlines(d.Tokens)
	return joinTokens(toks)
}

func (d *AxisDef) ValStr() []string {
	return []string{d.Definition()}
}

// IsEmpty reports whether the motor is not assigned to an axis.
func (d *AxisDef) IsEmpty() bool {
	toks, _ := stripNewlines(d.Tokens)
	return len(toks) == 0 || (len(toks) == 1 && toks[0].Text == "0")
}

func (d *AxisDef) Dump() string {
	def := d.Definition()
	if def == "" {
		def = "0"
	}
	return fmt.Sprintf("&%d#%d->%s\n", d.CS, d.Motor, def)
}

func (d *AxisDef) Compare(o Entry) bool {
	od, ok := o.(*AxisDef)
	return ok && d.compare(&od.body)
}

func (d *AxisDef) clone() Entry {
	c := *d
	c.Tokens = d.cloneTokens()
	return &c
}
