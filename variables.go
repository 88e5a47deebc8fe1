package pmac

import (
	"fmt"
)

// Kind identifies which sort of PMAC entity an Entry is.
type Kind int

const (
	KindI Kind = iota + 1
	KindP
	KindM
	KindQ
	KindMsI
	KindProgram
	KindPLC
	KindForward
	KindInverse
	KindAxisDef
	KindFeedrate
)

var kindNames = [...]string{
	KindI:        "i-variable",
	KindP:        "p-variable",
	KindM:        "m-variable",
	KindQ:        "q-variable",
	KindMsI:      "macro station i-variable",
	KindProgram:  "motion program",
	KindPLC:      "plc",
	KindForward:  "forward kinematic",
	KindInverse:  "inverse kinematic",
	KindAxisDef:  "axis definition",
	KindFeedrate: "feedrate override",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Entry is one addressable entity in a State. The set of implementations is
// closed: IVariable, PVariable, MVariable, QVariable, MsIVariable,
// FeedrateOverride, AxisDef, Program, and PLC.
type Entry interface {
	Kind() Kind
	Addr() string

	// Dump returns newline terminated source that recreates the entry when
	// parsed.
	Dump() string

	// ValStr returns the entry's value as display lines.
	ValStr() []string

	// Compare reports whether the entry matches o, which should have the
	// same address.
	Compare(o Entry) bool

	IsReadOnly() bool
	IsEmpty() bool

	clone() Entry
}

type variable struct {
	Number   int
	Value    Value
	ReadOnly bool
}

func (v *variable) IsReadOnly() bool {
	return v.ReadOnly
}

func (v *variable) IsEmpty() bool {
	return v.Value.IsEmpty()
}

func (v *variable) compare(o *variable) bool {
	if v.Value.IsEmpty() || o.Value.IsEmpty() {
		return false
	}
	if v.ReadOnly || o.ReadOnly {
		return true
	}
	return v.Value.Equal(o.Value)
}

func readOnlyPrefix(ro bool) string {
	if ro {
		return ";"
	}
	return ""
}

// IVariable is a controller configuration variable.
type IVariable struct {
	variable
}

var useHexAxis = map[int]bool{
	2: true, 3: true, 4: true, 5: true, 10: true, 24: true, 25: true, 42: true, 43: true,
	44: true, 55: true, 81: true, 82: true, 83: true, 84: true, 91: true, 95: true,
}

const (
	axisVarMin  = 100
	axisVarMax  = 3299
	varsPerAxis = 100
	hexGlobalLo = 8000
	hexGlobalHi = 8191
)

func NewIVariable(n int, val Value) *IVariable {
	return &IVariable{variable{Number: n, Value: val}}
}

// useHex reports whether the variable is conventionally written in hex.
func (v *IVariable) useHex() bool {
	if v.Number >= axisVarMin && v.Number <= axisVarMax {
		return useHexAxis[v.Number%varsPerAxis]
	}
	return v.Number >= hexGlobalLo && v.Number <= hexGlobalHi
}

func (v *IVariable) Kind() Kind   { return KindI }
func (v *IVariable) Addr() string { return addrI(v.Number) }

func (v *IVariable) valStr() string {
	return v.Value.format(v.useHex())
}

func (v *IVariable) ValStr() []string {
	return []string{v.valStr()}
}

func (v *IVariable) Dump() string {
	return fmt.Sprintf("%si%d=%s\n", readOnlyPrefix(v.ReadOnly), v.Number, v.valStr())
}

func (v *IVariable) Compare(o Entry) bool {
	ov, ok := o.(*IVariable)
	return ok && v.compare(&ov.variable)
}

func (v *IVariable) clone() Entry {
	c := *v
	return &c
}

// PVariable is a general purpose variable.
type PVariable struct {
	variable
}

func NewPVariable(n int, val Value) *PVariable {
	return &PVariable{variable{Number: n, Value: val}}
}

func (v *PVariable) Kind() Kind       { return KindP }
func (v *PVariable) Addr() string     { return addrP(v.Number) }
func (v *PVariable) ValStr() []string { return []string{v.Value.String()} }

func (v *PVariable) Dump() string {
	return fmt.Sprintf("%sp%d=%s\n", readOnlyPrefix(v.ReadOnly), v.Number, v.Value)
}

func (v *PVariable) Compare(o Entry) bool {
	ov, ok := o.(*PVariable)
	return ok && v.compare(&ov.variable)
}

func (v *PVariable) clone() Entry {
	c := *v
	return &c
}

// QVariable is a coordinate system variable.
type QVariable struct {
	variable
	CS int
}

func NewQVariable(cs, n int, val Value) *QVariable {
	return &QVariable{variable: variable{Number: n, Value: val}, CS: cs}
}

func (v *QVariable) Kind() Kind       { return KindQ }
func (v *QVariable) Addr() string     { return addrQ(v.CS, v.Number) }
func (v *QVariable) ValStr() []string { return []string{v.Value.String()} }

func (v *QVariable) Dump() string {
	return fmt.Sprintf("%s&%dq%d=%s\n", readOnlyPrefix(v.ReadOnly), v.CS, v.Number, v.Value)
}

func (v *QVariable) Compare(o Entry) bool {
	ov, ok := o.(*QVariable)
	return ok && v.compare(&ov.variable)
}

func (v *QVariable) clone() Entry {
	c := *v
	return &c
}

// MsIVariable is an I-variable on a macro station node. Its value is empty
// until it has been read or assigned.
type MsIVariable struct {
	variable
	Node int
}

func NewMsIVariable(node, n int, val Value) *MsIVariable {
	return &MsIVariable{variable: variable{Number: n, Value: val}, Node: node}
}

func (v *MsIVariable) Kind() Kind       { return KindMsI }
func (v *MsIVariable) Addr() string     { return addrMsI(v.Node, v.Number) }
func (v *MsIVariable) ValStr() []string { return []string{v.Value.String()} }

func (v *MsIVariable) Dump() string {
	return fmt.Sprintf("%sms%d,i%d=%s\n", readOnlyPrefix(v.ReadOnly), v.Node, v.Number, v.Value)
}

func (v *MsIVariable) Compare(o Entry) bool {
	ov, ok := o.(*MsIVariable)
	return ok && v.compare(&ov.variable)
}

func (v *MsIVariable) clone() Entry {
	c := *v
	return &c
}

// FeedrateOverride is a coordinate system's % value.
type FeedrateOverride struct {
	variable
	CS int
}

func NewFeedrateOverride(cs int, val Value) *FeedrateOverride {
	return &FeedrateOverride{variable: variable{Value: val}, CS: cs}
}

func (v *FeedrateOverride) Kind() Kind       { return KindFeedrate }
func (v *FeedrateOverride) Addr() string     { return addrFeedrate(v.CS) }
func (v *FeedrateOverride) ValStr() []string { return []string{v.Value.String()} }

func (v *FeedrateOverride) Dump() string {
	return fmt.Sprintf("%s&%d%%%s\n", readOnlyPrefix(v.ReadOnly), v.CS, v.Value)
}

func (v *FeedrateOverride) Compare(o Entry) bool {
	ov, ok := o.(*FeedrateOverride)
	return ok && v.compare(&ov.variable)
}

func (v *FeedrateOverride) clone() Entry {
	c := *v
	return &c
}

// M-variable address types.
const (
	MTypeNone = "*"
	MTypeX    = "X"
	MTypeY    = "Y"
	MTypeD    = "D"
	MTypeDP   = "DP"
	MTypeF    = "F"
	MTypeL    = "L"
	MTypeTWB  = "TWB"
	MTypeTWD  = "TWD"
	MTypeTWR  = "TWR"
	MTypeTWS  = "TWS"
)

var mTypes = map[string]bool{
	MTypeNone: true, MTypeX: true, MTypeY: true, MTypeD: true, MTypeDP: true, MTypeF: true,
	MTypeL: true, MTypeTWB: true, MTypeTWD: true, MTypeTWR: true, MTypeTWS: true,
}

// MVariable maps a name onto a memory address. Two M-variables match when
// their definitions match; Value holds the live contents and is reported
// separately.
type MVariable struct {
	Number   int
	Type     string
	Address  int
	Offset   int
	Width    int
	Format   string
	Value    Value
	ReadOnly bool
}

func NewMVariable(n int) *MVariable {
	return &MVariable{Number: n, Type: MTypeNone, Format: "U", Value: NumberValue(0)}
}

func (v *MVariable) Kind() Kind       { return KindM }
func (v *MVariable) Addr() string     { return addrM(v.Number) }
func (v *MVariable) IsReadOnly() bool { return v.ReadOnly }
func (v *MVariable) IsEmpty() bool    { return false }

// Definition renders the address definition, e.g. "X:$78B,0,24,S".
func (v *MVariable) Definition() string {
	switch v.Type {
	case MTypeNone:
		return "*"
	case MTypeX, MTypeY:
		s := fmt.Sprintf("%s:$%X", v.Type, v.Address)
		if v.Width == 24 {
			s += ",24"
			if v.Format != "U" {
				s += "," + v.Format
			}
			return s
		}
		s += fmt.Sprintf(",%d", v.Offset)
		if v.Width != 1 || v.Format != "U" {
			s += fmt.Sprintf(",%d", v.Width)
			if v.Format != "U" {
				s += "," + v.Format
			}
		}
		return s
	default:
		return fmt.Sprintf("%s:$%X", v.Type, v.Address)
	}
}

func (v *MVariable) ValStr() []string {
	return []string{v.Definition()}
}

func (v *MVariable) Dump() string {
	return fmt.Sprintf("%sm%d->%s\n", readOnlyPrefix(v.ReadOnly), v.Number, v.Definition())
}

// Contents renders the live value.
func (v *MVariable) Contents() string {
	return v.Value.String()
}

func (v *MVariable) Compare(o Entry) bool {
	ov, ok := o.(*MVariable)
	if !ok {
		return false
	}
	if v.ReadOnly || ov.ReadOnly {
		return true
	}
	return v.Type == ov.Type && v.Address == ov.Address && v.Offset == ov.Offset &&
		v.Width == ov.Width && v.Format == ov.Format
}

func (v *MVariable) clone() Entry {
	c := *v
	return &c
}
