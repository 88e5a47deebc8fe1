// Package report renders analysis results as a text summary, as JSON, or as
// a Hudson JUnit XML report.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pmac "github.com/leftmike/pmacanalyse"
	"github.com/leftmike/pmacanalyse/analyse"
)

// JUnitFile is the name of the JUnit report in the results directory.
const JUnitFile = "report.xml"

// Text writes a summary of every result. With comments, each differing
// I-variable is followed by its description.
func Text(w io.Writer, results []*analyse.Result, comments bool) error {
	for _, r := range results {
		var err error
		switch {
		case r.Err != nil:
			_, err = fmt.Fprintf(w, "%s: %s\n", r.PMAC.Name, r.Err)
		case r.Matches():
			_, err = fmt.Fprintf(w, "%s: Hardware matches reference\n", r.PMAC.Name)
		default:
			_, err = fmt.Fprintf(w, "%s: Hardware to reference mismatch detected\n", r.PMAC.Name)
			if err != nil {
				return err
			}
			err = textEntries(w, r.Differences.Entries(), comments)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func textEntries(w io.Writer, entries []pmac.DifferenceInfo, comments bool) error {
	for _, e := range entries {
		line := fmt.Sprintf("    %s %s: reference=%s hardware=%s", e.Name, e.Reason,
			values(e.ReferenceValue), values(e.HardwareValue))
		if comments {
			if d := pmac.Describe(e.Name); d != "" {
				line += " ; " + d
			}
		}
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return err
		}
	}
	return nil
}

func values(vals []string) string {
	switch len(vals) {
	case 0:
		return "-"
	case 1:
		return vals[0]
	}
	return "[" + strings.Join(vals, " | ") + "]"
}

type jsonResult struct {
	PMAC        string                `json:"pmac"`
	Hardware    string                `json:"hardware,omitempty"`
	Reference   string                `json:"reference,omitempty"`
	Matches     bool                  `json:"matches"`
	Error       string                `json:"error,omitempty"`
	Differences []pmac.DifferenceInfo `json:"differences"`
}

// JSON writes every result with its difference entries.
func JSON(w io.Writer, results []*analyse.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{
			PMAC:        r.PMAC.Name,
			Matches:     r.Matches(),
			Differences: []pmac.DifferenceInfo{},
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		if r.Differences != nil {
			jr.Hardware = r.Differences.Hardware
			jr.Reference = r.Differences.Reference
			jr.Differences = r.Differences.Entries()
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type testSuite struct {
	XMLName   xml.Name   `xml:"testsuite"`
	Tests     int        `xml:"tests,attr"`
	Time      string     `xml:"time,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Cases     []testCase `xml:"testcase"`
}

type testCase struct {
	ClassName string     `xml:"classname,attr"`
	Name      string     `xml:"name,attr"`
	Time      string     `xml:"time,attr"`
	Error     *testError `xml:"error,omitempty"`
}

type testError struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// JUnit writes one testcase per PMAC; a PMAC that does not match its
// reference gets an error element pointing at the results directory.
func JUnit(w io.Writer, results []*analyse.Result, resultsDir string) error {
	suite := testSuite{
		Tests:     len(results),
		Time:      "0",
		Timestamp: "0",
	}
	for _, r := range results {
		tc := testCase{ClassName: "pmac", Name: r.PMAC.Name, Time: "0"}
		if !r.Matches() {
			tc.Error = &testError{
				Message: "Compare mismatch",
				Text:    fmt.Sprintf("See file:///%s/index.htm for details", resultsDir),
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	_, err := io.WriteString(w, xml.Header)
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	err = enc.Encode(suite)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteJUnit writes the JUnit report into resultsDir.
func WriteJUnit(resultsDir string, results []*analyse.Result) error {
	f, err := os.Create(filepath.Join(resultsDir, JUnitFile))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	err = JUnit(f, results, resultsDir)
	cerr := f.Close()
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("report: %w", cerr)
	}
	return nil
}
