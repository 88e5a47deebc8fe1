package analyse

import (
	"fmt"

	pmac "github.com/leftmike/pmacanalyse"
	"github.com/leftmike/pmacanalyse/preprocess"
)

// LoadFile preprocesses, tokenizes, and parses a PMC file into state. It
// returns every file that was read.
func LoadFile(path string, includePaths []string, state, resolve *pmac.State) ([]string, error) {
	pp := preprocess.New(includePaths)
	lines, err := pp.File(path)
	if err != nil {
		return pp.Files(), err
	}
	toks, err := pmac.Tokenize(lines)
	if err != nil {
		return pp.Files(), fmt.Errorf("analyse: %w", err)
	}
	err = pmac.ParseOnline(toks, state, resolve)
	if err != nil {
		return pp.Files(), fmt.Errorf("analyse: %w", err)
	}
	return pp.Files(), nil
}
