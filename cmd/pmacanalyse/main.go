package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	pmac "github.com/leftmike/pmacanalyse"
	"github.com/leftmike/pmacanalyse/analyse"
	"github.com/leftmike/pmacanalyse/config"
	"github.com/leftmike/pmacanalyse/preprocess"
	"github.com/leftmike/pmacanalyse/report"
)

const (
	historyFile = ".pmacanalyse_history"
	prompt      = "pmac> "
)

type stringList []string

func (sl *stringList) String() string {
	return strings.Join(*sl, ",")
}

func (sl *stringList) Set(s string) error {
	*sl = append(*sl, s)
	return nil
}

// analyseFlags are the flags shared by analyse and watch. They override the
// config file and may describe one more PMAC.
type analyseFlags struct {
	fs *flag.FlagSet

	resultsDir string
	backupDir  string
	comments   bool
	noCompare  stringList
	only       stringList
	fixFile    string
	unfixFile  string
	jsonFile   string
	logLevel   string
	parallel   int

	name          string
	ts            string
	tcpip         string
	geobrick      bool
	reference     string
	compareWith   string
	include       stringList
	noFactoryDefs bool
	macroICs      int
}

func newAnalyseFlags(name string) *analyseFlags {
	af := &analyseFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := af.fs
	fs.StringVar(&af.resultsDir, "resultsdir", "", "directory for fix, unfix, and report files")
	fs.StringVar(&af.backupDir, "backup", "", "directory to back up each PMAC into")
	fs.BoolVar(&af.comments, "comments", false, "describe differing variables")
	fs.Var(&af.noCompare, "nocompare", "variables not to compare (repeatable)")
	fs.Var(&af.only, "only", "analyse only this PMAC (repeatable)")
	fs.StringVar(&af.fixFile, "fixfile", "", "write every fix script to this file")
	fs.StringVar(&af.unfixFile, "unfixfile", "", "write every unfix script to this file")
	fs.StringVar(&af.jsonFile, "json", "", "write the differences as JSON to this file")
	fs.StringVar(&af.logLevel, "loglevel", "warning", "error, warning, info, or debug")
	fs.IntVar(&af.parallel, "parallel", 4, "PMACs to analyse at once")

	fs.StringVar(&af.name, "pmac", "", "name of a PMAC to analyse")
	fs.StringVar(&af.ts, "ts", "", "terminal server host:port of the PMAC")
	fs.StringVar(&af.tcpip, "tcpip", "", "host:port of the PMAC")
	fs.BoolVar(&af.geobrick, "geobrick", false, "the PMAC is a Geobrick")
	fs.StringVar(&af.reference, "reference", "", "reference file of the PMAC")
	fs.StringVar(&af.compareWith, "comparewith", "", "compare with this file instead of the hardware")
	fs.Var(&af.include, "include", "include path (repeatable)")
	fs.BoolVar(&af.noFactoryDefs, "nofactorydefs", false, "do not seed states with factory defaults")
	fs.IntVar(&af.macroICs, "macroics", -1, "number of MACRO ICs; -1 reads it from the hardware")
	return af
}

func logLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("unknown log level: %s", s)
}

func (af *analyseFlags) logger() (*slog.Logger, error) {
	lvl, err := logLevel(af.logLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// config loads the config file, if any, and applies the flags to it.
func (af *analyseFlags) config() (*config.Config, error) {
	cfg := config.New()
	if af.fs.NArg() > 1 {
		return nil, errors.New("at most one config file may be given")
	} else if af.fs.NArg() == 1 {
		var err error
		cfg, err = config.Load(af.fs.Arg(0))
		if err != nil {
			return nil, err
		}
	}

	if af.resultsDir != "" {
		cfg.ResultsDir = af.resultsDir
	}
	if af.backupDir != "" {
		cfg.BackupDir = af.backupDir
	}
	if af.comments {
		cfg.Comments = true
	}
	cfg.NoCompare = append(cfg.NoCompare, af.noCompare...)
	cfg.Only = append(cfg.Only, af.only...)
	if af.fixFile != "" {
		cfg.FixFile = af.fixFile
	}
	if af.unfixFile != "" {
		cfg.UnfixFile = af.unfixFile
	}

	if af.name != "" {
		p := &config.PMAC{
			Name:          af.name,
			Geobrick:      af.geobrick,
			Reference:     af.reference,
			CompareWith:   af.compareWith,
			Include:       af.include,
			NoFactoryDefs: af.noFactoryDefs,
			MacroICs:      af.macroICs,
		}
		hp, ts := af.tcpip, false
		if af.ts != "" {
			hp, ts = af.ts, true
		}
		if hp != "" {
			host, port, err := config.ParseHostPort(hp)
			if err != nil {
				return nil, err
			}
			p.Host, p.Port, p.TerminalServer = host, port, ts
		}
		cfg.AddPMAC(p)
	} else {
		cfg.Include = append(cfg.Include, af.include...)
	}

	err := cfg.Validate(pmac.Version)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (af *analyseFlags) analyser() (*analyse.Analyser, error) {
	log, err := af.logger()
	if err != nil {
		return nil, err
	}
	cfg, err := af.config()
	if err != nil {
		return nil, err
	}
	return &analyse.Analyser{
		Config:   cfg,
		Logger:   log,
		Parallel: af.parallel,
	}, nil
}

func (af *analyseFlags) writeReports(cfg *config.Config, results []*analyse.Result) error {
	err := report.Text(os.Stdout, results, cfg.Comments)
	if err != nil {
		return err
	}
	err = report.WriteJUnit(cfg.ResultsDir, results)
	if err != nil {
		return err
	}
	if af.jsonFile != "" {
		f, err := os.Create(af.jsonFile)
		if err != nil {
			return err
		}
		defer f.Close()
		return report.JSON(f, results)
	}
	return nil
}

func cmdAnalyse(args []string) int {
	af := newAnalyseFlags("analyse")
	if err := af.fs.Parse(args); err != nil {
		return 2
	}
	a, err := af.analyser()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := a.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	err = af.writeReports(a.Config, results)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, r := range results {
		if !r.Matches() {
			return 1
		}
	}
	return 0
}

func cmdWatch(args []string) int {
	af := newAnalyseFlags("watch")
	if err := af.fs.Parse(args); err != nil {
		return 2
	}
	a, err := af.analyser()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Watch(ctx, func(results []*analyse.Result, err error) {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		err = af.writeReports(a.Config, results)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newState returns an empty state, or one seeded with factory defaults.
func newState(name string, factory, geobrick bool) (*pmac.State, error) {
	if !factory {
		s := pmac.NewState(name)
		s.Geobrick = geobrick
		s.Resolve = s
		return s, nil
	}
	f, err := pmac.LoadFactoryDefaults(geobrick)
	if err != nil {
		return nil, err
	}
	s := f.Clone(name)
	s.Resolve = s
	return s, nil
}

// cmdParse loads each file into its own state and writes the state out.
func cmdParse(args []string) int {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	geobrick := fs.Bool("geobrick", false, "seed with Geobrick factory defaults")
	factory := fs.Bool("factory", false, "seed with factory defaults")
	var include stringList
	fs.Var(&include, "include", "include path (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "parse: no files")
		return 2
	}

	ret := 0
	for _, path := range fs.Args() {
		s, err := newState(path, *factory, *geobrick)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		_, err = analyse.LoadFile(path, include, s, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			ret = 1
			continue
		}
		err = s.Dump(os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println()
	}
	return ret
}

type shell struct {
	state  *pmac.State
	parser *pmac.Parser
	pp     *preprocess.Preprocessor
	out    io.Writer
}

func newShell(s *pmac.State, includePaths []string, out io.Writer) *shell {
	return &shell{
		state:  s,
		parser: pmac.NewParser(s, s),
		pp:     preprocess.New(includePaths),
		out:    out,
	}
}

// exec runs one line: a :command, a query of a single address, or on-line
// commands. It returns false when the shell should exit.
func (sh *shell) exec(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}

	if strings.HasPrefix(line, ":") {
		cmd, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(cmd) {
		case "quit":
			return false, nil
		case "dump":
			return true, sh.state.Dump(sh.out)
		case "load":
			_, err := analyse.LoadFile(arg, sh.pp.IncludePaths, sh.state, nil)
			return true, err
		case "eval":
			toks, err := pmac.TokenizeString(arg)
			if err != nil {
				return true, err
			}
			v, err := sh.parser.Evaluate(toks)
			if err != nil {
				return true, err
			}
			fmt.Fprintln(sh.out, pmac.NumberValue(v))
			return true, nil
		case "context":
			ctx := sh.parser.Context()
			fmt.Fprintf(sh.out, "&%d #%d\n", ctx.CS, ctx.Motor)
			return true, nil
		}
		return true, fmt.Errorf("unknown command: %s; try :quit, :dump, :load, :eval, or :context", cmd)
	}

	addr := strings.ToLower(strings.ReplaceAll(line, " ", ""))
	if e := sh.state.Get(addr); e != nil {
		for _, v := range e.ValStr() {
			fmt.Fprintln(sh.out, v)
		}
		return true, nil
	}

	lines, err := sh.pp.Lines("shell", []string{line})
	if err != nil {
		return true, err
	}
	toks, err := pmac.Tokenize(lines)
	if err != nil {
		return true, err
	}
	return true, sh.parser.Parse(toks)
}

func cmdShell(args []string) int {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	geobrick := fs.Bool("geobrick", false, "seed with Geobrick factory defaults")
	factory := fs.Bool("factory", false, "seed with factory defaults")
	var include stringList
	fs.Var(&include, "include", "include path (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := newState("shell", *factory, *geobrick)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sh := newShell(s, include, os.Stdout)
	for _, path := range fs.Args() {
		_, err = analyse.LoadFile(path, include, s, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		} else if errors.Is(err, liner.ErrPromptAborted) {
			continue
		} else if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		more, err := sh.exec(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if !more {
			break
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: pmacanalyse <command> [flags] [args]

commands:
    analyse [flags] [config.ini]    compare each PMAC against its reference
    watch [flags] [config.ini]      analyse again whenever a reference file changes
    parse [flags] file...           load files and write out the resulting state
    shell [flags] [file...]         execute on-line commands against a state
    version                         print the version`)
}

func main() {
	if len(os.Args) <= 1 {
		usage()
		os.Exit(2)
	}

	var ret int
	switch os.Args[1] {
	case "analyse", "analyze":
		ret = cmdAnalyse(os.Args[2:])
	case "watch":
		ret = cmdWatch(os.Args[2:])
	case "parse":
		ret = cmdParse(os.Args[2:])
	case "shell":
		ret = cmdShell(os.Args[2:])
	case "version":
		fmt.Println(pmac.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "pmacanalyse: unknown command: %s\n", os.Args[1])
		usage()
		ret = 2
	}
	os.Exit(ret)
}
