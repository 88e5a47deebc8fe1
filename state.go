package pmac

import (
	"bufio"
	"fmt"
	"io"
)

// State is one PMAC's configuration: every entry keyed by its canonical
// address.
type State struct {
	Name     string
	Geobrick bool

	// Resolve is consulted for I, P, Q, and M references in expressions
	// parsed into this state. It is borrowed, not owned.
	Resolve *State

	vars map[string]Entry
}

func NewState(name string) *State {
	return &State{Name: name, vars: map[string]Entry{}}
}

func (s *State) Len() int {
	return len(s.vars)
}

// Get returns the entry at addr, or nil.
func (s *State) Get(addr string) Entry {
	return s.vars[addr]
}

func (s *State) Has(addr string) bool {
	_, ok := s.vars[addr]
	return ok
}

// Set adds e, replacing any entry at the same address.
func (s *State) Set(e Entry) {
	s.vars[e.Addr()] = e
}

func (s *State) Delete(addr string) {
	delete(s.vars, addr)
}

// Addresses returns every address in sorted order.
func (s *State) Addresses() []string {
	addrs := make([]string, 0, len(s.vars))
	for a := range s.vars {
		addrs = append(addrs, a)
	}
	SortAddresses(addrs)
	return addrs
}

// GetOrCreate returns the entry at addr, creating a default entry if there
// is none. Asking twice for the same address returns the same entry.
func (s *State) GetOrCreate(addr string) (Entry, error) {
	e, err := NewEntry(addr)
	if err != nil {
		return nil, err
	}
	if cur, ok := s.vars[e.Addr()]; ok {
		return cur, nil
	}
	s.vars[e.Addr()] = e
	return e, nil
}

func (s *State) lookup(addr string, mk func() Entry) Entry {
	if e, ok := s.vars[addr]; ok {
		return e
	}
	e := mk()
	s.vars[addr] = e
	return e
}

func (s *State) IVariable(n int) *IVariable {
	return s.lookup(addrI(n), func() Entry { return NewIVariable(n, NumberValue(0)) }).(*IVariable)
}

func (s *State) PVariable(n int) *PVariable {
	return s.lookup(addrP(n), func() Entry { return NewPVariable(n, NumberValue(0)) }).(*PVariable)
}

func (s *State) MVariable(n int) *MVariable {
	return s.lookup(addrM(n), func() Entry { return NewMVariable(n) }).(*MVariable)
}

func (s *State) QVariable(cs, n int) *QVariable {
	return s.lookup(addrQ(cs, n),
		func() Entry { return NewQVariable(cs, n, NumberValue(0)) }).(*QVariable)
}

func (s *State) MsIVariable(node, n int) *MsIVariable {
	return s.lookup(addrMsI(node, n),
		func() Entry { return NewMsIVariable(node, n, Value{}) }).(*MsIVariable)
}

func (s *State) Feedrate(cs int) *FeedrateOverride {
	return s.lookup(addrFeedrate(cs),
		func() Entry { return NewFeedrateOverride(cs, NumberValue(100)) }).(*FeedrateOverride)
}

func (s *State) AxisDef(cs, motor int) *AxisDef {
	return s.lookup(addrAxisDef(cs, motor), func() Entry { return NewAxisDef(cs, motor) }).(*AxisDef)
}

func (s *State) Program(n int) *Program {
	return s.lookup(addrProgram(n), func() Entry { return NewProgram(KindProgram, n) }).(*Program)
}

func (s *State) PLC(n int) *PLC {
	return s.lookup(addrPLC(n), func() Entry { return NewPLC(n) }).(*PLC)
}

func (s *State) Forward(cs int) *Program {
	return s.lookup(addrForward(cs), func() Entry { return NewProgram(KindForward, cs) }).(*Program)
}

func (s *State) Inverse(cs int) *Program {
	return s.lookup(addrInverse(cs), func() Entry { return NewProgram(KindInverse, cs) }).(*Program)
}

// AxisDefs returns the axis definitions of a coordinate system, or of every
// coordinate system when cs is zero.
func (s *State) AxisDefs(cs int) []*AxisDef {
	var defs []*AxisDef
	for _, a := range s.Addresses() {
		if d, ok := s.vars[a].(*AxisDef); ok && (cs == 0 || d.CS == cs) {
			defs = append(defs, d)
		}
	}
	return defs
}

// Clone makes a deep copy of s under a new name. The copy shares Resolve.
func (s *State) Clone(name string) *State {
	c := NewState(name)
	c.Geobrick = s.Geobrick
	c.Resolve = s.Resolve
	for a, e := range s.vars {
		c.vars[a] = e.clone()
	}
	return c
}

// Dump writes every entry in address order as loadable source.
func (s *State) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "; %s\n", s.Name)
	for _, a := range s.Addresses() {
		e := s.vars[a]
		if e.IsEmpty() {
			continue
		}
		_, err := bw.WriteString(e.Dump())
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
