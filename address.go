package pmac

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func addrI(n int) string           { return fmt.Sprintf("i%d", n) }
func addrP(n int) string           { return fmt.Sprintf("p%d", n) }
func addrM(n int) string           { return fmt.Sprintf("m%d", n) }
func addrQ(cs, n int) string       { return fmt.Sprintf("&%dq%d", cs, n) }
func addrMsI(node, n int) string   { return fmt.Sprintf("ms%di%d", node, n) }
func addrProgram(n int) string     { return fmt.Sprintf("prog%d", n) }
func addrPLC(n int) string         { return fmt.Sprintf("plc%d", n) }
func addrForward(cs int) string    { return fmt.Sprintf("fwd%d", cs) }
func addrInverse(cs int) string    { return fmt.Sprintf("inv%d", cs) }
func addrAxisDef(cs, m int) string { return fmt.Sprintf("&%d#%d", cs, m) }
func addrFeedrate(cs int) string   { return fmt.Sprintf("&%d%%", cs) }

// leadingInt reads a decimal integer at the start of s.
func leadingInt(s string) (int, string, bool) {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n += 1
	}
	if n == 0 {
		return 0, s, false
	}
	v, err := strconv.Atoi(s[:n])
	if err != nil {
		return 0, s, false
	}
	return v, s[n:], true
}

func wholeInt(s string) (int, bool) {
	v, rest, ok := leadingInt(s)
	return v, ok && rest == ""
}

// NewEntry creates a default entry for a canonical address such as "i23",
// "&2q5", "ms16i921", "prog12", "plc4", "fwd3", "inv3", "&5#7", or "&5%".
func NewEntry(addr string) (Entry, error) {
	a := strings.ToLower(strings.TrimSpace(addr))
	bad := configErrorf("malformed address: %s", addr)

	switch {
	case strings.HasPrefix(a, "prog"):
		if n, ok := wholeInt(a[4:]); ok {
			return NewProgram(KindProgram, n), nil
		}
	case strings.HasPrefix(a, "plc"):
		if n, ok := wholeInt(a[3:]); ok {
			return NewPLC(n), nil
		}
	case strings.HasPrefix(a, "fwd"):
		if n, ok := wholeInt(a[3:]); ok {
			return NewProgram(KindForward, n), nil
		}
	case strings.HasPrefix(a, "inv"):
		if n, ok := wholeInt(a[3:]); ok {
			return NewProgram(KindInverse, n), nil
		}
	case strings.HasPrefix(a, "ms"):
		node, rest, ok := leadingInt(a[2:])
		if !ok {
			return nil, bad
		}
		rest = strings.TrimPrefix(rest, ",")
		if !strings.HasPrefix(rest, "i") {
			return nil, bad
		}
		if n, ok := wholeInt(rest[1:]); ok {
			return NewMsIVariable(node, n, Value{}), nil
		}
	case strings.HasPrefix(a, "&"):
		cs, rest, ok := leadingInt(a[1:])
		if !ok {
			return nil, bad
		}
		switch {
		case rest == "%":
			return NewFeedrateOverride(cs, NumberValue(100)), nil
		case strings.HasPrefix(rest, "#"):
			if m, ok := wholeInt(rest[1:]); ok {
				return NewAxisDef(cs, m), nil
			}
		case strings.HasPrefix(rest, "q"):
			if n, ok := wholeInt(rest[1:]); ok {
				return NewQVariable(cs, n, NumberValue(0)), nil
			}
		}
	case len(a) > 1:
		n, ok := wholeInt(a[1:])
		if !ok {
			return nil, bad
		}
		switch a[0] {
		case 'i':
			return NewIVariable(n, NumberValue(0)), nil
		case 'p':
			return NewPVariable(n, NumberValue(0)), nil
		case 'm':
			return NewMVariable(n), nil
		}
	}
	return nil, bad
}

// splitAddress splits an address into its alphabetic prefix and trailing
// number; the number is -1 when there is none.
func splitAddress(a string) (string, int) {
	i := len(a)
	for i > 0 && isDigit(a[i-1]) {
		i -= 1
	}
	if i == len(a) {
		return a, -1
	}
	n, err := strconv.Atoi(a[i:])
	if err != nil {
		return a, -1
	}
	return a[:i], n
}

// LessAddress orders addresses by prefix and then by trailing number, so
// that i9 sorts before i10.
func LessAddress(a, b string) bool {
	pa, na := splitAddress(a)
	pb, nb := splitAddress(b)
	if pa != pb {
		return pa < pb
	}
	return na < nb
}

func SortAddresses(addrs []string) {
	sort.Slice(addrs, func(i, j int) bool {
		return LessAddress(addrs[i], addrs[j])
	})
}
