package pmac

import (
	"fmt"
	"sort"
	"strconv"
)

// Reason says why an address is reported as a difference.
type Reason int

const (
	Mismatch Reason = iota
	Missing
	NotRunning
	Running
)

func (r Reason) String() string {
	switch r {
	case Mismatch:
		return "Mismatch"
	case Missing:
		return "Missing"
	case NotRunning:
		return "Not Running"
	case Running:
		return "Is Running"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// MaxPLC is the highest PLC number whose run state is checked.
const MaxPLC = 31

type difference struct {
	hardware  Entry
	reference Entry
	reason    Reason
}

type plcRunDifference struct {
	number    int
	reference bool
	hardware  bool
}

// Differences is the result of comparing a hardware State against a
// reference State.
type Differences struct {
	Hardware  string
	Reference string

	addrs []string
	diffs map[string]difference
	plcs  []plcRunDifference
}

// DifferenceInfo is one difference as displayed by reports.
type DifferenceInfo struct {
	Name           string   `json:"name"`
	Reason         string   `json:"reason"`
	ReferenceValue []string `json:"reference_value"`
	HardwareValue  []string `json:"hardware_value"`
}

func NewDifferences(hardware, reference string) *Differences {
	return &Differences{
		Hardware:  hardware,
		Reference: reference,
		diffs:     map[string]difference{},
	}
}

// Len returns the number of entry and PLC run differences.
func (d *Differences) Len() int {
	return len(d.diffs) + len(d.plcs)
}

// Add records a difference at an address. At least one side must be
// present.
func (d *Differences) Add(addr string, hardware, reference Entry, reason Reason) {
	if hardware == nil && reference == nil {
		panic(fmt.Sprintf("pmac: difference at %s has neither side", addr))
	}
	if _, ok := d.diffs[addr]; !ok {
		d.addrs = append(d.addrs, addr)
	}
	d.diffs[addr] = difference{hardware: hardware, reference: reference, reason: reason}
}

// AddPLC records a PLC whose hardware run state differs from the reference.
func (d *Differences) AddPLC(n int, reference, hardware bool) {
	d.plcs = append(d.plcs, plcRunDifference{number: n, reference: reference, hardware: hardware})
}

// Compare reports every address, in either state and not in exclude, where
// the hardware differs from the reference. Comparing one address never
// stops the comparison of the rest.
func Compare(hardware, reference, exclude *State) *Differences {
	d := NewDifferences(hardware.Name, reference.Name)

	seen := map[string]bool{}
	var addrs []string
	for _, s := range []*State{hardware, reference} {
		for a := range s.vars {
			if seen[a] || (exclude != nil && exclude.Has(a)) {
				continue
			}
			seen[a] = true
			addrs = append(addrs, a)
		}
	}
	SortAddresses(addrs)

	for _, a := range addrs {
		d.compareAddress(a, hardware.Get(a), reference.Get(a))
	}
	d.comparePLCs(hardware, reference)
	return d
}

func (d *Differences) compareAddress(addr string, hw, ref Entry) {
	defer func() {
		if r := recover(); r != nil {
			if hw == nil && ref == nil {
				panic(r)
			}
			d.Add(addr, hw, ref, Mismatch)
		}
	}()

	switch {
	case hw == nil:
		if !ref.IsReadOnly() && !ref.IsEmpty() {
			d.Add(addr, nil, ref, Missing)
		}
	case ref == nil:
		if !hw.IsReadOnly() && !hw.IsEmpty() {
			d.Add(addr, hw, nil, Missing)
		}
	case hw.IsReadOnly() || ref.IsReadOnly():
	case !hw.Compare(ref):
		d.Add(addr, hw, ref, Mismatch)
	}
}

// comparePLCs checks the run state of every reference PLC whose hardware
// run state is known.
func (d *Differences) comparePLCs(hardware, reference *State) {
	for n := 0; n <= MaxPLC; n++ {
		ref, ok := reference.Get(addrPLC(n)).(*PLC)
		if !ok {
			continue
		}
		hw, ok := hardware.Get(addrPLC(n)).(*PLC)
		if !ok {
			continue
		}
		running, known := hw.IsRunning()
		if !known {
			continue
		}
		should := ref.ShouldBeRunning()
		if should != running {
			d.AddPLC(n, should, running)
		}
	}
}

// MakeFixScript returns the statements that make the hardware match the
// reference.
func (d *Differences) MakeFixScript() []string {
	var lines []string
	for _, a := range d.addrs {
		if ref := d.diffs[a].reference; scriptable(ref) {
			lines = append(lines, ref.Dump())
		}
	}
	for _, p := range d.plcs {
		lines = append(lines, plcRunLine(p.number, p.reference))
	}
	return lines
}

// MakeUnfixScript returns the statements that put the hardware back the
// way it was.
func (d *Differences) MakeUnfixScript() []string {
	var lines []string
	for _, a := range d.addrs {
		if hw := d.diffs[a].hardware; scriptable(hw) {
			lines = append(lines, hw.Dump())
		}
	}
	for _, p := range d.plcs {
		lines = append(lines, plcRunLine(p.number, p.hardware))
	}
	return lines
}

// scriptable reports whether e can be written to a script. A variable
// without a value has nothing to assign; an empty buffer or axis
// definition still clears the hardware's.
func scriptable(e Entry) bool {
	if e == nil {
		return false
	}
	switch e.Kind() {
	case KindI, KindP, KindQ, KindMsI, KindFeedrate:
		return !e.IsEmpty()
	}
	return true
}

func plcRunLine(n int, running bool) string {
	if running {
		return fmt.Sprintf("enable plc %d\n", n)
	}
	return fmt.Sprintf("disable plc %d\n", n)
}

// Entries returns every difference in address order, then the PLC run
// differences.
func (d *Differences) Entries() []DifferenceInfo {
	infos := make([]DifferenceInfo, 0, d.Len())
	for _, a := range d.addrs {
		diff := d.diffs[a]
		info := DifferenceInfo{
			Name:           a,
			Reason:         diff.reason.String(),
			ReferenceValue: []string{},
			HardwareValue:  []string{},
		}
		if diff.reference != nil {
			info.ReferenceValue = diff.reference.ValStr()
		}
		if diff.hardware != nil {
			info.HardwareValue = diff.hardware.ValStr()
		}
		infos = append(infos, info)
	}

	plcs := append([]plcRunDifference(nil), d.plcs...)
	sort.Slice(plcs, func(i, j int) bool { return plcs[i].number < plcs[j].number })
	for _, p := range plcs {
		reason := Running
		if p.reference {
			reason = NotRunning
		}
		infos = append(infos, DifferenceInfo{
			Name:           fmt.Sprintf("PLC%d", p.number),
			Reason:         reason.String(),
			ReferenceValue: []string{strconv.FormatBool(p.reference)},
			HardwareValue:  []string{strconv.FormatBool(p.hardware)},
		})
	}
	return infos
}
