// Package config reads the analyse.ini file that lists the PMACs to analyse.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/ini.v1"

	pmac "github.com/leftmike/pmacanalyse"
)

const (
	globalSection = "global"
	pmacPrefix    = "pmac."

	DefaultResultsDir = "pmacAnalysis"
)

// PMAC is the configuration of one controller.
type PMAC struct {
	Name string

	Host           string
	Port           int
	TerminalServer bool

	Geobrick      bool
	Reference     string
	CompareWith   string
	Include       []string
	NoCompare     []string
	Compare       []string
	NoFactoryDefs bool

	// MacroICs is the number of MACRO ICs, or -1 to read it from the
	// hardware.
	MacroICs int
}

type Config struct {
	ResultsDir string
	BackupDir  string
	Comments   bool
	NoCompare  []string
	Include    []string
	Requires   string

	FixFile   string
	UnfixFile string
	Only      []string

	PMACs []*PMAC
}

func configErrorf(format string, args ...interface{}) error {
	return &pmac.ConfigError{Message: fmt.Sprintf(format, args...)}
}

func New() *Config {
	return &Config{ResultsDir: DefaultResultsDir}
}

// Load reads and checks a config file.
func Load(path string) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return fromFile(f)
}

// Parse reads a config file's contents.
func Parse(data []byte) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return fromFile(f)
}

var loadOptions = ini.LoadOptions{
	AllowShadows:     true,
	AllowBooleanKeys: true,
}

func fromFile(f *ini.File) (*Config, error) {
	c := New()

	if f.HasSection(globalSection) {
		g := f.Section(globalSection)
		if k := g.Key("resultsdir"); k.String() != "" {
			c.ResultsDir = k.String()
		}
		c.BackupDir = g.Key("backup").String()
		c.Comments = g.Key("comments").MustBool(false)
		c.NoCompare = shadows(g, "nocompare")
		c.Include = includePaths(g)
		c.Requires = g.Key("requires").String()
	}

	for _, sec := range f.Sections() {
		if !strings.HasPrefix(sec.Name(), pmacPrefix) {
			continue
		}
		p, err := pmacFromSection(strings.TrimPrefix(sec.Name(), pmacPrefix), sec)
		if err != nil {
			return nil, err
		}
		c.AddPMAC(p)
	}
	return c, nil
}

func shadows(sec *ini.Section, name string) []string {
	if !sec.HasKey(name) {
		return nil
	}
	var vals []string
	for _, v := range sec.Key(name).ValueWithShadows() {
		vals = append(vals, strings.Fields(v)...)
	}
	return vals
}

func includePaths(sec *ini.Section) []string {
	var paths []string
	for _, v := range shadows(sec, "include") {
		paths = append(paths, filepath.SplitList(v)...)
	}
	return paths
}

func pmacFromSection(name string, sec *ini.Section) (*PMAC, error) {
	if name == "" {
		return nil, configErrorf("pmac section needs a name")
	}
	p := &PMAC{Name: name, MacroICs: -1}

	var err error
	if ts := sec.Key("ts").String(); ts != "" {
		p.Host, p.Port, err = ParseHostPort(ts)
		p.TerminalServer = true
	} else if tcpip := sec.Key("tcpip").String(); tcpip != "" {
		p.Host, p.Port, err = ParseHostPort(tcpip)
	}
	if err != nil {
		return nil, configErrorf("pmac %s: %s", name, err)
	}

	p.Geobrick = sec.Key("geobrick").MustBool(false) && !sec.Key("vme_pmac").MustBool(false)
	p.Reference = sec.Key("reference").String()
	p.CompareWith = sec.Key("comparewith").String()
	p.Include = includePaths(sec)
	p.NoCompare = shadows(sec, "nocompare")
	p.Compare = shadows(sec, "compare")
	p.NoFactoryDefs = sec.Key("nofactorydefs").MustBool(false)
	if sec.HasKey("macroics") {
		p.MacroICs, err = sec.Key("macroics").Int()
		if err != nil {
			return nil, configErrorf("pmac %s: bad macroics: %s", name, sec.Key("macroics").String())
		}
	}
	return p, nil
}

// ParseHostPort reads "<host>:<port>" or "<host> <port>".
func ParseHostPort(s string) (string, int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("bad host and port: %q", s)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("bad port: %q", parts[1])
	}
	return parts[0], port, nil
}

// AddPMAC adds p, or merges it into the PMAC of the same name: settings
// that p sets replace the earlier ones.
func (c *Config) AddPMAC(p *PMAC) {
	old := c.PMAC(p.Name)
	if old == nil {
		c.PMACs = append(c.PMACs, p)
		return
	}

	if p.Host != "" {
		old.Host, old.Port, old.TerminalServer = p.Host, p.Port, p.TerminalServer
	}
	if p.Geobrick {
		old.Geobrick = true
	}
	if p.Reference != "" {
		old.Reference = p.Reference
	}
	if p.CompareWith != "" {
		old.CompareWith = p.CompareWith
	}
	old.Include = append(old.Include, p.Include...)
	old.NoCompare = append(old.NoCompare, p.NoCompare...)
	old.Compare = append(old.Compare, p.Compare...)
	if p.NoFactoryDefs {
		old.NoFactoryDefs = true
	}
	if p.MacroICs >= 0 {
		old.MacroICs = p.MacroICs
	}
}

// PMAC returns the named PMAC, or nil.
func (c *Config) PMAC(name string) *PMAC {
	for _, p := range c.PMACs {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Selected returns the PMACs to analyse: those named by Only, or all of
// them.
func (c *Config) Selected() []*PMAC {
	if len(c.Only) == 0 {
		return c.PMACs
	}
	var sel []*PMAC
	for _, p := range c.PMACs {
		for _, name := range c.Only {
			if p.Name == name {
				sel = append(sel, p)
				break
			}
		}
	}
	return sel
}

// IncludePaths returns the include path of p: its own paths, then the
// global ones.
func (c *Config) IncludePaths(p *PMAC) []string {
	return append(append([]string(nil), p.Include...), c.Include...)
}

// Validate checks that the config can be analysed by a tool at version.
func (c *Config) Validate(version string) error {
	if c.Requires != "" {
		constraint, err := semver.NewConstraint(c.Requires)
		if err != nil {
			return configErrorf("bad requires %q: %s", c.Requires, err)
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			return configErrorf("bad version %q: %s", version, err)
		}
		if !constraint.Check(v) {
			return configErrorf("config requires version %s; this is version %s", c.Requires, version)
		}
	}

	if len(c.PMACs) == 0 {
		return configErrorf("no pmacs defined")
	}
	for _, name := range c.Only {
		if c.PMAC(name) == nil {
			return configErrorf("unknown pmac: %s", name)
		}
	}
	for _, p := range c.PMACs {
		if p.Reference == "" {
			return configErrorf("no reference for pmac %s", p.Name)
		}
		for _, spec := range append(append([]string(nil), p.NoCompare...), p.Compare...) {
			if _, err := pmac.ParseVarSpec(spec); err != nil {
				return err
			}
		}
	}
	for _, spec := range c.NoCompare {
		if _, err := pmac.ParseVarSpec(spec); err != nil {
			return err
		}
	}
	return nil
}

// Exclude builds the state of addresses not to compare for p: the global
// nocompare specs and its own, less its compare specs.
func (c *Config) Exclude(p *PMAC) (*pmac.State, error) {
	s := pmac.NewState(p.Name + " nocompare")
	err := s.AddVarSpecs(c.NoCompare)
	if err != nil {
		return nil, err
	}
	err = s.AddVarSpecs(p.NoCompare)
	if err != nil {
		return nil, err
	}
	err = s.RemoveVarSpecs(p.Compare)
	if err != nil {
		return nil, err
	}
	return s, nil
}
