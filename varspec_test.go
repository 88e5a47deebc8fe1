package pmac

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseVarSpec(t *testing.T) {
	cases := []struct {
		spec  string
		fail  bool
		addrs []string
	}{
		{spec: "i100", addrs: []string{"i100"}},
		{spec: "p1..3", addrs: []string{"p1", "p2", "p3"}},
		{spec: "m10,3,100", addrs: []string{"m10", "m110", "m210"}},
		{spec: "ms16,i921", addrs: []string{"ms16i921"}},
		{spec: "ms[0,4],i910..911", addrs: []string{"ms0i910", "ms0i911", "ms4i910", "ms4i911"}},
		{spec: "&2q5", addrs: []string{"&2q5"}},
		{spec: "&2q5,2,1", addrs: []string{"&2q5", "&2q6"}},
		{spec: "I7", addrs: []string{"i7"}},
		{spec: "x5", fail: true},
		{spec: "i", fail: true},
		{spec: "i5..3", fail: true},
		{spec: "i5,2", fail: true},
		{spec: "ms16,p1", fail: true},
		{spec: "ms[1,2,i1", fail: true},
		{spec: "&q5", fail: true},
		{spec: "5", fail: true},
	}

	for _, c := range cases {
		entries, err := ParseVarSpec(c.spec)
		if c.fail {
			var cerr *ConfigError
			if err == nil {
				t.Errorf("ParseVarSpec(%s) did not fail", c.spec)
			} else if !errors.As(err, &cerr) {
				t.Errorf("ParseVarSpec(%s) got %T want ConfigError", c.spec, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVarSpec(%s) failed with %s", c.spec, err)
			continue
		}
		var addrs []string
		for _, e := range entries {
			addrs = append(addrs, e.Addr())
		}
		SortAddresses(addrs)
		if !reflect.DeepEqual(addrs, c.addrs) {
			t.Errorf("ParseVarSpec(%s) got %v want %v", c.spec, addrs, c.addrs)
		}
	}
}

func TestMakeEntries(t *testing.T) {
	entries, err := MakeEntries("&", []int{1, 2}, 7)
	if err != nil {
		t.Fatalf("MakeEntries(&) failed with %s", err)
	}
	if len(entries) != 2 || entries[0].Addr() != "&1q7" || entries[1].Addr() != "&2q7" {
		t.Errorf("MakeEntries(&) got %v", entries)
	}

	if _, err := MakeEntries("z", nil, 1); err == nil {
		t.Error("MakeEntries(z) did not fail")
	}
}

func TestVarSpecsState(t *testing.T) {
	s := NewState("exclude")
	if err := s.AddVarSpecs([]string{"i100..104", "p1"}); err != nil {
		t.Fatalf("AddVarSpecs() failed with %s", err)
	}
	if err := s.RemoveVarSpecs([]string{"i102", "i200"}); err != nil {
		t.Fatalf("RemoveVarSpecs() failed with %s", err)
	}
	want := []string{"i100", "i101", "i103", "i104", "p1"}
	if got := s.Addresses(); !reflect.DeepEqual(got, want) {
		t.Errorf("Addresses() got %v want %v", got, want)
	}
	if err := s.AddVarSpecs([]string{"q"}); err == nil {
		t.Error("AddVarSpecs(q) did not fail")
	}
}
