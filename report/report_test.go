package report

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pmac "github.com/leftmike/pmacanalyse"
	"github.com/leftmike/pmacanalyse/analyse"
	"github.com/leftmike/pmacanalyse/config"
)

func testResults() []*analyse.Result {
	match := pmac.NewDifferences("one hardware", "one reference")

	mismatch := pmac.NewDifferences("two hardware", "two reference")
	mismatch.Add("i130", pmac.NewIVariable(130, pmac.NumberValue(1500)),
		pmac.NewIVariable(130, pmac.NumberValue(2000)), pmac.Mismatch)
	mismatch.Add("p7", nil, pmac.NewPVariable(7, pmac.NumberValue(1)), pmac.Missing)
	mismatch.AddPLC(3, true, false)

	return []*analyse.Result{
		{PMAC: &config.PMAC{Name: "one"}, Differences: match},
		{PMAC: &config.PMAC{Name: "two"}, Differences: mismatch},
		{PMAC: &config.PMAC{Name: "three"}, Err: errors.New("connection refused")},
	}
}

func TestText(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Text(&b, testResults(), false))
	require.Equal(t, `one: Hardware matches reference
two: Hardware to reference mismatch detected
    i130 Mismatch: reference=2000 hardware=1500
    p7 Missing: reference=1 hardware=-
    PLC3 Not Running: reference=true hardware=false
three: connection refused
`, b.String())

	b.Reset()
	require.NoError(t, Text(&b, testResults(), true))
	require.Contains(t, b.String(),
		"    i130 Mismatch: reference=2000 hardware=1500 ; Motor PID proportional gain (motor 1)\n")
	require.Contains(t, b.String(), "    p7 Missing: reference=1 hardware=-\n")
}

func TestJSON(t *testing.T) {
	var b strings.Builder
	require.NoError(t, JSON(&b, testResults()))

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(b.String()), &out))
	require.Len(t, out, 3)

	require.Equal(t, "one", out[0]["pmac"])
	require.Equal(t, true, out[0]["matches"])
	require.Equal(t, []interface{}{}, out[0]["differences"])

	require.Equal(t, "two hardware", out[1]["hardware"])
	require.Equal(t, false, out[1]["matches"])
	diffs := out[1]["differences"].([]interface{})
	require.Len(t, diffs, 3)
	require.Equal(t, map[string]interface{}{
		"name":            "p7",
		"reason":          "Missing",
		"reference_value": []interface{}{"1"},
		"hardware_value":  []interface{}{},
	}, diffs[1])

	require.Equal(t, "connection refused", out[2]["error"])
	_, ok := out[2]["hardware"]
	require.False(t, ok)
}

func TestJUnit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJUnit(dir, testResults()))

	buf, err := os.ReadFile(filepath.Join(dir, JUnitFile))
	require.NoError(t, err)
	s := string(buf)
	require.True(t, strings.HasPrefix(s, xml.Header))
	require.Contains(t, s, `<testsuite tests="3" time="0" timestamp="0">`)
	require.Contains(t, s, `<testcase classname="pmac" name="one" time="0"></testcase>`)

	var suite testSuite
	require.NoError(t, xml.Unmarshal(buf, &suite))
	require.Len(t, suite.Cases, 3)
	require.Nil(t, suite.Cases[0].Error)
	require.Equal(t, "two", suite.Cases[1].Name)
	require.Equal(t, &testError{
		Message: "Compare mismatch",
		Text:    "See file:///" + dir + "/index.htm for details",
	}, suite.Cases[1].Error)
	require.NotNil(t, suite.Cases[2].Error)
}
