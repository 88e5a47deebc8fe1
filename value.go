package pmac

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tolerance is the absolute difference below which two numeric values
// compare equal.
const Tolerance = 1e-5

// Value is the contents of a variable: a number, or text that could not be
// read as a number. The zero Value is empty.
type Value struct {
	Number  float64
	Text    string
	Numeric bool
}

func NumberValue(f float64) Value {
	return Value{Number: f, Numeric: true}
}

// ParseValue reads s as a decimal or $-prefixed hex number. Anything else is
// kept as text.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if f, ok := parseNumber(s); ok {
		return NumberValue(f)
	}
	return Value{Text: s}
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if s[0] == '$' {
		n, err := strconv.ParseUint(s[1:], 16, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) IsEmpty() bool {
	return !v.Numeric && v.Text == ""
}

// Equal reports whether v and o are the same value, within Tolerance when
// both are numeric.
func (v Value) Equal(o Value) bool {
	if v.IsEmpty() || o.IsEmpty() {
		return false
	}
	if v.Numeric && o.Numeric {
		return v.Number >= o.Number-Tolerance && v.Number <= o.Number+Tolerance
	}
	return v.String() == o.String()
}

func (v Value) integral() (int64, bool) {
	if !v.Numeric || math.IsInf(v.Number, 0) || math.IsNaN(v.Number) {
		return 0, false
	}
	if v.Number != math.Trunc(v.Number) || math.Abs(v.Number) > 1<<53 {
		return 0, false
	}
	return int64(v.Number), true
}

// format renders v; integral values are written in hex when hex is set.
// Infinities and NaN are written as (1/0), (-1/0), and (0/0).
func (v Value) format(hex bool) string {
	if !v.Numeric {
		return v.Text
	}
	if n, ok := v.integral(); ok {
		if hex && n >= 0 {
			return fmt.Sprintf("$%X", n)
		}
		return strconv.FormatInt(n, 10)
	}
	// PMAC has no literals for these; write expressions that evaluate to
	// them so that a dump parses back.
	switch {
	case math.IsInf(v.Number, 1):
		return "(1/0)"
	case math.IsInf(v.Number, -1):
		return "(-1/0)"
	case math.IsNaN(v.Number):
		return "(0/0)"
	}
	s := strings.TrimRight(fmt.Sprintf("%.12f", v.Number), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func (v Value) String() string {
	return v.format(false)
}
