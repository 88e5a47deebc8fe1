package pmac

import (
	"strconv"
	"strings"
)

// MakeEntries makes the entries for variable n of type varType: "i", "p",
// or "m", "ms" for each macro station node, or "&" for each coordinate
// system in nodes.
func MakeEntries(varType string, nodes []int, n int) ([]Entry, error) {
	switch varType {
	case "i":
		return []Entry{NewIVariable(n, NumberValue(0))}, nil
	case "p":
		return []Entry{NewPVariable(n, NumberValue(0))}, nil
	case "m":
		return []Entry{NewMVariable(n)}, nil
	case "ms":
		var entries []Entry
		for _, node := range nodes {
			entries = append(entries, NewMsIVariable(node, n, Value{}))
		}
		return entries, nil
	case "&":
		var entries []Entry
		for _, cs := range nodes {
			entries = append(entries, NewQVariable(cs, n, NumberValue(0)))
		}
		return entries, nil
	}
	return nil, configErrorf("cannot decode variable type %q", varType)
}

// ParseVarSpec expands a variable specification into entries. A spec is a
// type followed by <start>, <start>..<end>, or <start>,<count>,<increment>.
// The type is i, p, m, ms<node>,i, ms[<node>,<node>...],i, or &<cs>q.
func ParseVarSpec(spec string) ([]Entry, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	bad := configErrorf("malformed variable specification: %s", spec)

	var varType string
	var nodes []int
	switch {
	case strings.HasPrefix(s, "ms"):
		s = s[2:]
		var list string
		if strings.HasPrefix(s, "[") {
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, bad
			}
			list, s = s[1:end], s[end+1:]
		} else {
			comma := strings.IndexByte(s, ',')
			if comma < 0 {
				return nil, bad
			}
			list, s = s[:comma], s[comma:]
		}
		for _, f := range strings.Split(list, ",") {
			node, err := strconv.Atoi(f)
			if err != nil {
				return nil, bad
			}
			nodes = append(nodes, node)
		}
		if !strings.HasPrefix(s, ",i") {
			return nil, bad
		}
		varType, s = "ms", s[2:]
	case strings.HasPrefix(s, "&"):
		cs, rest, ok := leadingInt(s[1:])
		if !ok || !strings.HasPrefix(rest, "q") {
			return nil, bad
		}
		varType, nodes, s = "&", []int{cs}, rest[1:]
	case s != "" && !isDigit(s[0]):
		varType, s = s[:1], s[1:]
	default:
		return nil, bad
	}

	numbers, ok := specNumbers(s)
	if !ok {
		return nil, bad
	}
	var entries []Entry
	for _, n := range numbers {
		e, err := MakeEntries(varType, nodes, n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	return entries, nil
}

func specNumbers(s string) ([]int, bool) {
	if i := strings.Index(s, ".."); i >= 0 {
		start, err1 := strconv.Atoi(s[:i])
		end, err2 := strconv.Atoi(s[i+2:])
		if err1 != nil || err2 != nil || end < start {
			return nil, false
		}
		var nums []int
		for n := start; n <= end; n++ {
			nums = append(nums, n)
		}
		return nums, true
	}

	f := strings.Split(s, ",")
	switch len(f) {
	case 1:
		n, err := strconv.Atoi(f[0])
		return []int{n}, err == nil
	case 3:
		start, err1 := strconv.Atoi(f[0])
		count, err2 := strconv.Atoi(f[1])
		inc, err3 := strconv.Atoi(f[2])
		if err1 != nil || err2 != nil || err3 != nil || count < 1 {
			return nil, false
		}
		nums := make([]int, 0, count)
		for i := 0; i < count; i++ {
			nums = append(nums, start+i*inc)
		}
		return nums, true
	}
	return nil, false
}

// AddVarSpecs adds the entries of every spec to s.
func (s *State) AddVarSpecs(specs []string) error {
	for _, spec := range specs {
		entries, err := ParseVarSpec(spec)
		if err != nil {
			return err
		}
		for _, e := range entries {
			_, err = s.GetOrCreate(e.Addr())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveVarSpecs removes the entries of every spec from s.
func (s *State) RemoveVarSpecs(specs []string) error {
	for _, spec := range specs {
		entries, err := ParseVarSpec(spec)
		if err != nil {
			return err
		}
		for _, e := range entries {
			s.Delete(e.Addr())
		}
	}
	return nil
}
