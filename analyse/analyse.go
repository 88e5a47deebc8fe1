// Package analyse compares the configuration of each PMAC against its
// reference and writes the fix, unfix, and backup files.
package analyse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	pmac "github.com/leftmike/pmacanalyse"
	"github.com/leftmike/pmacanalyse/config"
)

// HardwareReader reads the current configuration of a PMAC. The State it
// returns must have the run state of every PLC set.
type HardwareReader interface {
	ReadHardware(ctx context.Context, p *config.PMAC) (*pmac.State, error)
}

// ErrNoReader is returned for a PMAC that has to be read from hardware when
// no HardwareReader is configured.
var ErrNoReader = errors.New("no hardware reader")

// Result is the outcome of analysing one PMAC. Err is set when the PMAC
// could not be read or its files could not be loaded.
type Result struct {
	PMAC        *config.PMAC
	Hardware    *pmac.State
	Reference   *pmac.State
	Differences *pmac.Differences
	Files       []string
	Err         error
}

// Matches reports whether the hardware matched the reference.
func (r *Result) Matches() bool {
	return r.Err == nil && r.Differences != nil && r.Differences.Len() == 0
}

type Analyser struct {
	Config *config.Config
	Reader HardwareReader
	Logger *slog.Logger

	// Parallel limits the number of PMACs analysed at once; zero means no
	// limit.
	Parallel int

	mu      sync.Mutex
	factory map[bool]*pmac.State
}

func (a *Analyser) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// factoryDefaults loads the factory settings once for each kind of PMAC.
func (a *Analyser) factoryDefaults(geobrick bool) (*pmac.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.factory[geobrick]; ok {
		return s, nil
	}
	s, err := pmac.LoadFactoryDefaults(geobrick)
	if err != nil {
		return nil, err
	}
	if a.factory == nil {
		a.factory = map[bool]*pmac.State{}
	}
	a.factory[geobrick] = s
	return s, nil
}

func (a *Analyser) newState(name string, geobrick, defaults bool) (*pmac.State, error) {
	if !defaults {
		s := pmac.NewState(name)
		s.Geobrick = geobrick
		return s, nil
	}
	f, err := a.factoryDefaults(geobrick)
	if err != nil {
		return nil, err
	}
	return f.Clone(name), nil
}

// Run analyses every selected PMAC. An error is returned only when the
// results cannot be written; a PMAC that fails is reported in its Result.
func (a *Analyser) Run(ctx context.Context) ([]*Result, error) {
	cfg := a.Config
	err := makeDir(cfg.ResultsDir)
	if err != nil {
		return nil, err
	}
	if cfg.BackupDir != "" {
		err = makeDir(cfg.BackupDir)
		if err != nil {
			return nil, err
		}
	}

	lock, err := lockDir(cfg.ResultsDir)
	if err != nil {
		return nil, err
	}
	defer lock.unlock()

	pmacs := cfg.Selected()
	results := make([]*Result, len(pmacs))

	g, gctx := errgroup.WithContext(ctx)
	if a.Parallel > 0 {
		g.SetLimit(a.Parallel)
	}
	for i, p := range pmacs {
		i, p := i, p
		g.Go(func() error {
			results[i] = a.Analyse(gctx, p)
			return gctx.Err()
		})
	}
	err = g.Wait()
	if err != nil {
		return nil, err
	}

	err = a.writeCombined(results)
	if err != nil {
		return results, err
	}
	return results, nil
}

// Analyse reads, loads, and compares one PMAC, then writes its results.
func (a *Analyser) Analyse(ctx context.Context, p *config.PMAC) *Result {
	log := a.logger().With(slog.String("pmac", p.Name))
	res := &Result{PMAC: p}

	hw, err := a.readHardware(ctx, p, res)
	if err != nil {
		if p.CompareWith != "" {
			log.Error("failed to load", slog.String("file", p.CompareWith), slog.Any("error", err))
		} else {
			log.Error("failed to connect", slog.Any("error", err))
		}
		res.Err = err
		return res
	}
	res.Hardware = hw

	if a.Config.BackupDir != "" {
		path := filepath.Join(a.Config.BackupDir, p.Name+".pmc")
		err = writeState(path, hw)
		if err != nil {
			log.Error("failed to write backup", slog.Any("error", err))
			res.Err = err
			return res
		}
		log.Debug("backup written", slog.String("file", path))
	}

	ref, err := a.newState(p.Name+" reference", hw.Geobrick, !p.NoFactoryDefs)
	if err != nil {
		res.Err = err
		return res
	}
	// Expressions in the reference read the live values of the hardware.
	ref.Resolve = hw
	files, err := LoadFile(p.Reference, a.Config.IncludePaths(p), ref, hw)
	res.Files = append(res.Files, files...)
	if err != nil {
		log.Error("failed to load", slog.String("file", p.Reference), slog.Any("error", err))
		res.Err = err
		return res
	}
	res.Reference = ref

	exclude, err := a.Config.Exclude(p)
	if err != nil {
		res.Err = err
		return res
	}

	res.Differences = pmac.Compare(hw, ref, exclude)
	if res.Differences.Len() > 0 {
		log.Warn("hardware to reference mismatch", slog.Int("differences", res.Differences.Len()))
	} else {
		log.Info("hardware matches reference")
	}

	err = a.writeScripts(p.Name, res.Differences)
	if err != nil {
		log.Error("failed to write fix files", slog.Any("error", err))
		res.Err = err
	}
	return res
}

// readHardware reads the PMAC, or loads its compare-with file in place of
// the hardware. PLC run states are unknown for a compare-with file.
func (a *Analyser) readHardware(ctx context.Context, p *config.PMAC, res *Result) (*pmac.State, error) {
	if p.CompareWith != "" {
		hw, err := a.newState(p.Name+" hardware", p.Geobrick, true)
		if err != nil {
			return nil, err
		}
		hw.Resolve = hw
		files, err := LoadFile(p.CompareWith, a.Config.IncludePaths(p), hw, nil)
		res.Files = append(res.Files, files...)
		if err != nil {
			return nil, err
		}
		return hw, nil
	}

	if a.Reader == nil {
		return nil, ErrNoReader
	}
	hw, err := a.Reader.ReadHardware(ctx, p)
	if err != nil {
		return nil, err
	}
	if hw.Name == "" {
		hw.Name = p.Name + " hardware"
	}
	return hw, nil
}

func FixFileName(name string) string   { return name + "_fix.pmc" }
func UnfixFileName(name string) string { return name + "_unfix.pmc" }

func (a *Analyser) writeScripts(name string, d *pmac.Differences) error {
	dir := a.Config.ResultsDir
	err := writeLines(filepath.Join(dir, FixFileName(name)), d.MakeFixScript())
	if err != nil {
		return err
	}
	return writeLines(filepath.Join(dir, UnfixFileName(name)), d.MakeUnfixScript())
}

// writeCombined writes the fix and unfix scripts of every PMAC compared
// into the files named by the config, if any.
func (a *Analyser) writeCombined(results []*Result) error {
	var fix, unfix []string
	for _, r := range results {
		if r.Differences == nil {
			continue
		}
		fix = append(fix, r.Differences.MakeFixScript()...)
		unfix = append(unfix, r.Differences.MakeUnfixScript()...)
	}
	if a.Config.FixFile != "" {
		err := writeLines(a.Config.FixFile, fix)
		if err != nil {
			return err
		}
	}
	if a.Config.UnfixFile != "" {
		err := writeLines(a.Config.UnfixFile, unfix)
		if err != nil {
			return err
		}
	}
	return nil
}

func makeDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return &pmac.ConfigError{Message: fmt.Sprintf("path exists but is not a directory: %s", dir)}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("analyse: %w", err)
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	return nil
}

func writeLines(path string, lines []string) error {
	err := os.WriteFile(path, []byte(strings.Join(lines, "")), 0o644)
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	return nil
}

func writeState(path string, s *pmac.State) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	err = s.Dump(f)
	cerr := f.Close()
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("analyse: %w", cerr)
	}
	return nil
}
