package pmac

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func compareStrings(t *testing.T, hw, ref string) *Differences {
	t.Helper()

	hs := NewState("hardware")
	if err := parseString(t, hw, hs, nil); err != nil {
		t.Fatalf("ParseOnline(%s) failed with %s", hw, err)
	}
	rs := NewState("reference")
	if err := parseString(t, ref, rs, nil); err != nil {
		t.Fatalf("ParseOnline(%s) failed with %s", ref, err)
	}
	return Compare(hs, rs, NewState("exclude"))
}

func TestCompareEqual(t *testing.T) {
	d := compareStrings(t, "i100=5.0\ni101=10\n", "i100=5\ni101=$A\n")
	if d.Len() != 0 {
		t.Errorf("Compare() got %v want no differences", d.Entries())
	}
}

func TestCompareMismatch(t *testing.T) {
	d := compareStrings(t, "p50=7\n", "p50=8\n")
	want := []DifferenceInfo{
		{Name: "p50", Reason: "Mismatch", ReferenceValue: []string{"8"}, HardwareValue: []string{"7"}},
	}
	if got := d.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() got %v want %v", got, want)
	}
	if got := strings.Join(d.MakeFixScript(), ""); got != "p50=8\n" {
		t.Errorf("MakeFixScript() got %q want %q", got, "p50=8\n")
	}
	if got := strings.Join(d.MakeUnfixScript(), ""); got != "p50=7\n" {
		t.Errorf("MakeUnfixScript() got %q want %q", got, "p50=7\n")
	}
}

func TestCompareMissing(t *testing.T) {
	d := compareStrings(t, "p1=1\n", "p1=1\n&3q5=1\n")
	want := []DifferenceInfo{
		{Name: "&3q5", Reason: "Missing", ReferenceValue: []string{"1"}, HardwareValue: []string{}},
	}
	if got := d.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() got %v want %v", got, want)
	}
	if got := strings.Join(d.MakeFixScript(), ""); !strings.Contains(got, "&3q5=1\n") {
		t.Errorf("MakeFixScript() got %q", got)
	}
	if got := d.MakeUnfixScript(); len(got) != 0 {
		t.Errorf("MakeUnfixScript() got %q", got)
	}

	d = compareStrings(t, "p1=1\np2=2\n", "p1=1\n")
	if got := d.Entries(); len(got) != 1 || got[0].Name != "p2" || got[0].Reason != "Missing" {
		t.Errorf("Entries() got %v", got)
	}
	if got := strings.Join(d.MakeUnfixScript(), ""); got != "p2=2\n" {
		t.Errorf("MakeUnfixScript() got %q", got)
	}
}

func TestCompareExclude(t *testing.T) {
	hs := NewState("hardware")
	hs.PVariable(1).Value = NumberValue(1)
	hs.PVariable(2).Value = NumberValue(2)
	rs := NewState("reference")
	rs.PVariable(1).Value = NumberValue(3)
	rs.PVariable(2).Value = NumberValue(4)
	ex := NewState("exclude")
	ex.PVariable(1)

	d := Compare(hs, rs, ex)
	if got := d.Entries(); len(got) != 1 || got[0].Name != "p2" {
		t.Errorf("Entries() got %v want only p2", got)
	}
}

func TestCompareReadOnly(t *testing.T) {
	hs := NewState("hardware")
	hs.IVariable(4900).Value = NumberValue(3)
	hs.IVariable(4900).ReadOnly = true
	hs.IVariable(4901).Value = NumberValue(1)
	hs.IVariable(4901).ReadOnly = true
	rs := NewState("reference")
	rs.IVariable(4900).Value = NumberValue(0)

	d := Compare(hs, rs, nil)
	if d.Len() != 0 {
		t.Errorf("Compare() got %v want no differences", d.Entries())
	}
}

func TestCompareOrder(t *testing.T) {
	d := compareStrings(t, "p10=1\np9=1\ni10=1\ni9=1\n", "p10=2\np9=2\ni10=2\ni9=2\n")
	var names []string
	for _, e := range d.Entries() {
		names = append(names, e.Name)
	}
	want := []string{"i9", "i10", "p9", "p10"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Entries() got %v want %v", names, want)
	}
	want = []string{"i9=2\n", "i10=2\n", "p9=2\n", "p10=2\n"}
	if got := d.MakeFixScript(); !reflect.DeepEqual(got, want) {
		t.Errorf("MakeFixScript() got %q want %q", got, want)
	}
}

func TestComparePrograms(t *testing.T) {
	cases := []struct {
		hw, ref string
		equal   bool
		failed  []string
	}{
		{
			hw:    "open prog 1 clear\nx10\ny20\nclose",
			ref:   "open prog 1 clear\nx10 y20\nclose",
			equal: true,
		},
		{
			hw:     "open prog 1 clear\nx10 y20\nclose",
			ref:    "open prog 1 clear\nx10 y30\nclose",
			failed: []string{"20"},
		},
		{
			hw:     "open prog 1 clear\nx10 y20 z1\nclose",
			ref:    "open prog 1 clear\nx11 y20\nclose",
			failed: []string{"10", "Z", "1", "RETURN"},
		},
		{
			hw:    "open prog 1 clear\ncmd\"#1j+\"\nclose",
			ref:   "open prog 1 clear\ncmd\"#1 j+\"\nclose",
			equal: true,
		},
		{
			hw:     "open prog 1 clear\ncmd\"#1j+\"\nclose",
			ref:    "open prog 1 clear\ncmd\"#1j-\"\nclose",
			failed: []string{`"#1J+"`},
		},
	}

	for _, c := range cases {
		d := compareStrings(t, c.hw, c.ref)
		if c.equal {
			if d.Len() != 0 {
				t.Errorf("Compare(%q, %q) got %v want no differences", c.hw, c.ref, d.Entries())
			}
			continue
		}
		if d.Len() != 1 {
			t.Errorf("Compare(%q, %q) got %v want one difference", c.hw, c.ref, d.Entries())
			continue
		}
		prog := d.diffs["prog1"].hardware.(*Program)
		var failed []string
		for _, tok := range prog.FailedTokens() {
			failed = append(failed, tok.Text)
		}
		if !reflect.DeepEqual(failed, c.failed) {
			t.Errorf("Compare(%q, %q) failed tokens got %v want %v", c.hw, c.ref, failed, c.failed)
		}
	}
}

func TestShouldBeRunning(t *testing.T) {
	cases := []struct {
		n    int
		src  string
		want bool
	}{
		{n: 4, src: "disable plc 4", want: false},
		{n: 5, src: "disable plc 4", want: true},
		{n: 4, src: "displc4", want: false},
		{n: 4, src: "p1=1", want: true},
		// The PLC body is scanned, not executed: a conditional self disable
		// still counts.
		{n: 4, src: "if (p1 = 1)\ndisable plc 4\nendif", want: false},
		{n: 4, src: "", want: false},
	}

	for _, c := range cases {
		s := NewState("test")
		src := "open plc " + strconv.Itoa(c.n) + " clear\n" + c.src + "\nclose"
		if err := parseString(t, src, s, nil); err != nil {
			t.Errorf("ParseOnline(%s) failed with %s", src, err)
			continue
		}
		if got := s.PLC(c.n).ShouldBeRunning(); got != c.want {
			t.Errorf("ShouldBeRunning(plc%d: %s) got %v want %v", c.n, c.src, got, c.want)
		}
	}
}

func TestComparePLCRunning(t *testing.T) {
	ref := NewState("reference")
	err := parseString(t, `
open plc 1 clear
p1=1
close
open plc 2 clear
disable plc 2
close
open plc 3 clear
p3=1
close
`, ref, nil)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}

	hw := ref.Clone("hardware")
	hw.PLC(1).SetRunning(false)
	hw.PLC(2).SetRunning(true)

	d := Compare(hw, ref, nil)
	want := []DifferenceInfo{
		{Name: "PLC1", Reason: "Not Running", ReferenceValue: []string{"true"},
			HardwareValue: []string{"false"}},
		{Name: "PLC2", Reason: "Is Running", ReferenceValue: []string{"false"},
			HardwareValue: []string{"true"}},
	}
	if got := d.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() got %v want %v", got, want)
	}
	wantFix := []string{"enable plc 1\n", "disable plc 2\n"}
	if got := d.MakeFixScript(); !reflect.DeepEqual(got, wantFix) {
		t.Errorf("MakeFixScript() got %q want %q", got, wantFix)
	}
	wantUnfix := []string{"disable plc 1\n", "enable plc 2\n"}
	if got := d.MakeUnfixScript(); !reflect.DeepEqual(got, wantUnfix) {
		t.Errorf("MakeUnfixScript() got %q want %q", got, wantUnfix)
	}
}

type panicEntry struct {
	*PVariable
}

func (e panicEntry) Compare(o Entry) bool {
	panic("bad value")
}

func TestComparePanic(t *testing.T) {
	hs := NewState("hardware")
	hs.Set(panicEntry{NewPVariable(1, NumberValue(1))})
	hs.PVariable(2).Value = NumberValue(1)
	rs := NewState("reference")
	rs.PVariable(1).Value = NumberValue(1)
	rs.PVariable(2).Value = NumberValue(2)

	d := Compare(hs, rs, nil)
	var names []string
	for _, e := range d.Entries() {
		names = append(names, e.Name+" "+e.Reason)
	}
	want := []string{"p1 Mismatch", "p2 Mismatch"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Entries() got %v want %v", names, want)
	}
}

func TestAddNeitherSide(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Add(nil, nil) did not panic")
		}
	}()
	NewDifferences("a", "b").Add("p1", nil, nil, Mismatch)
}

func TestScriptsSkipEmptyValues(t *testing.T) {
	hs := NewState("hardware")
	hs.MsIVariable(0, 910)
	hs.PLC(2)
	rs := NewState("reference")
	rs.MsIVariable(0, 910).Value = NumberValue(4)
	rs.PLC(2).Tokens = makeTokens("P1", "=", "1")

	d := Compare(hs, rs, nil)
	if got := d.Len(); got != 2 {
		t.Fatalf("Compare() got %d differences want 2: %v", got, d.Entries())
	}
	if got, want := strings.Join(d.MakeFixScript(), ""),
		"ms0,i910=4\nopen plc 2 clear\nP1=1\nclose\n"; got != want {
		t.Errorf("MakeFixScript() got %q want %q", got, want)
	}
	if got, want := strings.Join(d.MakeUnfixScript(), ""), "open plc 2 clear\nclose\n"; got != want {
		t.Errorf("MakeUnfixScript() got %q want %q", got, want)
	}
}
