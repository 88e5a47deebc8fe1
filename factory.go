package pmac

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed factory/*.pmc
var factoryFiles embed.FS

const (
	MaxVariable = 8191
	MaxCS       = 16
	MaxMotor    = 32
	MaxQ        = 199
)

// readOnlyIVariables report the hardware configuration found at power on;
// they are never compared.
var readOnlyIVariables = []int{
	4900, 4901, 4902, 4903, 4904, 4905, 4906, 4907, 4908, 4909,
	4910, 4911, 4912, 4913, 4914, 4915, 4916, 4917, 4918, 4919,
	4920, 4921, 4922, 4923, 4924, 4925, 4926,
}

// LoadFactoryDefaults returns a State holding every I, M, and P variable,
// the axis definitions and Q variables of every coordinate system, and the
// factory settings of a VME PMAC or a Geobrick.
func LoadFactoryDefaults(geobrick bool) (*State, error) {
	name, file := "pmacFactorySettings", "factory/pmac.pmc"
	if geobrick {
		name, file = "geobrickFactorySettings", "factory/geobrick.pmc"
	}

	s := NewState(name)
	s.Geobrick = geobrick
	for n := 0; n <= MaxVariable; n++ {
		s.IVariable(n)
		s.MVariable(n)
		s.PVariable(n)
	}
	for cs := 1; cs <= MaxCS; cs++ {
		for m := 1; m <= MaxMotor; m++ {
			s.AxisDef(cs, m)
		}
		for q := 1; q <= MaxQ; q++ {
			s.QVariable(cs, q)
		}
	}

	buf, err := factoryFiles.ReadFile(file)
	if err != nil {
		return nil, err
	}
	lines := append([]string{fmt.Sprintf("%s %s 1", debugMarker, file)},
		strings.Split(string(buf), "\n")...)
	toks, err := Tokenize(lines)
	if err != nil {
		return nil, err
	}
	err = ParseOnline(toks, s, s)
	if err != nil {
		return nil, err
	}

	for _, n := range readOnlyIVariables {
		s.IVariable(n).ReadOnly = true
	}
	return s, nil
}
