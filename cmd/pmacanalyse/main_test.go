package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pmac "github.com/leftmike/pmacanalyse"
)

func TestShell(t *testing.T) {
	var out strings.Builder
	s := pmac.NewState("shell")
	s.Resolve = s
	sh := newShell(s, nil, &out)

	lines := []struct {
		line string
		want string
	}{
		{line: "i130=10", want: ""},
		{line: "I130", want: "10\n"},
		{line: "p1=i130*2 p2=p1+1", want: ""},
		{line: "p2", want: "21\n"},
		{line: ":eval (p1+5)/5", want: "5\n"},
		{line: "&2#3", want: ""},
		{line: ":context", want: "&2 #3\n"},
		{line: "#define GAIN 7", want: ""},
		{line: "q4=GAIN", want: ""},
		{line: "&2q4", want: "7\n"},
		{line: "", want: ""},
	}
	for _, l := range lines {
		out.Reset()
		more, err := sh.exec(l.line)
		require.NoError(t, err, l.line)
		require.True(t, more)
		require.Equal(t, l.want, out.String(), l.line)
	}

	_, err := sh.exec("i1=(")
	require.Error(t, err)
	_, err = sh.exec(":bogus")
	require.Error(t, err)

	more, err := sh.exec(":quit")
	require.NoError(t, err)
	require.False(t, more)
}

func TestShellLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.pmc")
	require.NoError(t, os.WriteFile(path, []byte("p5=3\n"), 0o644))

	var out strings.Builder
	s := pmac.NewState("shell")
	s.Resolve = s
	sh := newShell(s, nil, &out)

	_, err := sh.exec(":load " + path)
	require.NoError(t, err)
	_, err = sh.exec(":dump")
	require.NoError(t, err)
	require.Equal(t, "; shell\np5=3\n", out.String())
}

func TestAnalyseFlags(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.pmc")
	require.NoError(t, os.WriteFile(ref, nil, 0o644))

	af := newAnalyseFlags("analyse")
	require.NoError(t, af.fs.Parse([]string{
		"--pmac", "bl01", "--tcpip", "pmac01:1025", "--reference", ref,
		"--resultsdir", filepath.Join(dir, "results"), "--only", "bl01", "--macroics", "2",
	}))
	cfg, err := af.config()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "results"), cfg.ResultsDir)
	require.Equal(t, []string{"bl01"}, cfg.Only)

	p := cfg.PMAC("bl01")
	require.NotNil(t, p)
	require.Equal(t, "pmac01", p.Host)
	require.Equal(t, 1025, p.Port)
	require.False(t, p.TerminalServer)
	require.Equal(t, 2, p.MacroICs)

	af = newAnalyseFlags("analyse")
	require.NoError(t, af.fs.Parse([]string{"--pmac", "bl01", "--ts", "nowhere", "--reference", ref}))
	_, err = af.config()
	require.Error(t, err)

	af = newAnalyseFlags("analyse")
	require.NoError(t, af.fs.Parse([]string{"--loglevel", "loud"}))
	_, err = af.logger()
	require.Error(t, err)
}
