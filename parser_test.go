package pmac

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func parseString(t *testing.T, s string, state, resolve *State) error {
	t.Helper()

	toks, err := TokenizeString(s)
	if err != nil {
		t.Fatalf("Tokenize(%s) failed with %s", s, err)
	}
	return ParseOnline(toks, state, resolve)
}

func TestParseAssignments(t *testing.T) {
	cases := []struct {
		s    string
		addr string
		want string
	}{
		{s: "i100=5", addr: "i100", want: "5"},
		{s: "i101=$A", addr: "i101", want: "10"},
		{s: "i102=10", addr: "i102", want: "$A"},
		{s: "p1=2+3*4", addr: "p1", want: "14"},
		{s: "p1=(2+3)*4", addr: "p1", want: "20"},
		{s: "p1=-5", addr: "p1", want: "-5"},
		{s: "p1=10-2-3", addr: "p1", want: "5"},
		{s: "p1=$10|1", addr: "p1", want: "17"},
		{s: "p1=7&3", addr: "p1", want: "3"},
		{s: "p1=6^3", addr: "p1", want: "5"},
		{s: "p1=7%3", addr: "p1", want: "1"},
		{s: "p1=1/4", addr: "p1", want: "0.25"},
		{s: "p1=ABS(-3)", addr: "p1", want: "3"},
		{s: "p1=INT(2.7)", addr: "p1", want: "2"},
		{s: "p1=SQRT(16)", addr: "p1", want: "4"},
		{s: "p1=0.015625", addr: "p1", want: "0.015625"},
		{s: "p(1+2)=7", addr: "p3", want: "7"},
		{s: "&3q5=1", addr: "&3q5", want: "1"},
		{s: "&3 q5=1", addr: "&3q5", want: "1"},
		{s: "ms16,i921=2", addr: "ms16i921", want: "2"},
		{s: "ms0,mi910=3", addr: "ms0i910", want: "3"},
		{s: "&2%50", addr: "&2%", want: "50"},
		{s: "m1->x:$78b,0,24,s", addr: "m1", want: "X:$78B,24,S"},
		{s: "m2->y:$c003,8,16", addr: "m2", want: "Y:$C003,8,16"},
		{s: "m3->x:$78b,5", addr: "m3", want: "X:$78B,5"},
		{s: "m4->d:$9a", addr: "m4", want: "D:$9A"},
		{s: "m5->*", addr: "m5", want: "*"},
		{s: "&1#1->1000x", addr: "&1#1", want: "1000 X"},
		{s: "&2 #3->x", addr: "&2#3", want: "X"},
		{s: "&2 #3->i", addr: "&2#3", want: "I"},
	}

	for _, c := range cases {
		s := NewState("test")
		err := parseString(t, c.s, s, s)
		if err != nil {
			t.Errorf("ParseOnline(%s) failed with %s", c.s, err)
			continue
		}
		e := s.Get(c.addr)
		if e == nil {
			t.Errorf("ParseOnline(%s) did not set %s", c.s, c.addr)
		} else if got := e.ValStr(); !reflect.DeepEqual(got, []string{c.want}) {
			t.Errorf("ParseOnline(%s) %s got %v want %s", c.s, c.addr, got, c.want)
		}
	}
}

func TestParseRanges(t *testing.T) {
	cases := []struct {
		s     string
		addrs []string
	}{
		{s: "i100..102=7", addrs: []string{"i100", "i101", "i102"}},
		{s: "i108,3,100=96", addrs: []string{"i108", "i208", "i308"}},
		{s: "p5=7", addrs: []string{"p5"}},
		{s: "&4q1..2=7", addrs: []string{"&4q1", "&4q2"}},
	}

	for _, c := range cases {
		s := NewState("test")
		err := parseString(t, c.s, s, nil)
		if err != nil {
			t.Errorf("ParseOnline(%s) failed with %s", c.s, err)
			continue
		}
		if got := s.Addresses(); !reflect.DeepEqual(got, c.addrs) {
			t.Errorf("ParseOnline(%s) got %v want %v", c.s, got, c.addrs)
		}
	}
}

func TestParseResolve(t *testing.T) {
	s := NewState("test")
	err := parseString(t, "p2=4\np1=p2*2\ni15=1\np3=i15+1", s, s)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}
	if v := s.PVariable(1).Value; v.Number != 8 {
		t.Errorf("p1 got %s want 8", v)
	}
	if v := s.PVariable(3).Value; v.Number != 2 {
		t.Errorf("p3 got %s want 2", v)
	}

	ref := NewState("ref")
	ref.PVariable(10).Value = NumberValue(2.5)
	hw := NewState("hw")
	hw.Resolve = ref
	if err := parseString(t, "p1=p10*2", hw, nil); err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}
	if v := hw.PVariable(1).Value; v.Number != 5 {
		t.Errorf("p1 got %s want 5", v)
	}
}

func TestParseTrig(t *testing.T) {
	cases := []struct {
		s    string
		i15  float64
		want float64
	}{
		{s: "p1=SIN(90)", want: 1},
		{s: "p1=COS(180)", want: -1},
		{s: "p1=ATAN(1)", want: 45},
		{s: "p1=SIN(0.5)", i15: 1, want: math.Sin(0.5)},
		{s: "p1=ACOS(0)", i15: 1, want: math.Pi / 2},
	}

	for _, c := range cases {
		s := NewState("test")
		s.IVariable(15).Value = NumberValue(c.i15)
		err := parseString(t, c.s, s, s)
		if err != nil {
			t.Errorf("ParseOnline(%s) failed with %s", c.s, err)
			continue
		}
		if got := s.PVariable(1).Value.Number; math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ParseOnline(%s) got %v want %v", c.s, got, c.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"p1=",
		"p1=p2",
		"p1=(2",
		"q1..1=0",
		"m1->G:$10",
		"open foo 1",
		"open plc 1 clear\np1=1",
		"#1->5",
		"enable 3",
		"ms1,p2=3",
		"G01",
	}

	for _, c := range cases {
		s := NewState("test")
		err := parseString(t, c, s, nil)
		var perr *ParserError
		if err == nil {
			t.Errorf("ParseOnline(%s) did not fail", c)
		} else if !errors.As(err, &perr) {
			t.Errorf("ParseOnline(%s) got %T want ParserError", c, err)
		}
	}
}

func TestParseNoState(t *testing.T) {
	cases := []string{
		"i100",
		"p1..5",
		"&1",
		"#2",
		"%",
		"close",
		"enable plc 1,3..5",
		"disable plcc 2",
		"delete gather",
		"w x:$10,1,2",
		"undefine all",
	}

	for _, c := range cases {
		s := NewState("test")
		err := parseString(t, c, s, nil)
		if err != nil {
			t.Errorf("ParseOnline(%s) failed with %s", c, err)
		} else if s.Len() != 0 {
			t.Errorf("ParseOnline(%s) added %v", c, s.Addresses())
		}
	}
}

func TestParseContext(t *testing.T) {
	s := NewState("test")
	p := NewParser(s, nil)

	for _, line := range []string{"&3", "q1=4", "#5->x", "q2=6"} {
		toks, err := TokenizeString(line)
		if err != nil {
			t.Fatalf("Tokenize(%s) failed with %s", line, err)
		}
		if err := p.Parse(toks); err != nil {
			t.Fatalf("Parse(%s) failed with %s", line, err)
		}
	}
	if ctx := p.Context(); ctx != (Context{CS: 3, Motor: 5}) {
		t.Errorf("Context() got %+v", ctx)
	}
	want := []string{"&3#5", "&3q1", "&3q2"}
	if got := s.Addresses(); !reflect.DeepEqual(got, want) {
		t.Errorf("Addresses() got %v want %v", got, want)
	}
}

func TestParseUndefine(t *testing.T) {
	s := NewState("test")
	err := parseString(t, "&1#1->x\n&1#2->y\n&2#3->z\n&1 undefine", s, nil)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}
	for addr, want := range map[string]string{"&1#1": "0", "&1#2": "0", "&2#3": "Z"} {
		e := s.Get(addr)
		if e == nil {
			t.Errorf("%s missing", addr)
		} else if got := e.ValStr()[0]; got != want {
			t.Errorf("%s got %s want %s", addr, got, want)
		}
	}
}

func TestParseBuffers(t *testing.T) {
	s := NewState("test")
	err := parseString(t, `
&2
open program 10 clear
linear
x10 y20
cmd"#1j+"
&cmd"#2j+"
close
open plc 4 clear
if (m1 = 1)
disable plc 4
endi
close
open forward clear
q1=p1
return
close
open inverse 3
frax(z,x ,a)
close
open plc 5
frax(x,y,z,u,v,w,a,b,c)
close
`, s, nil)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}

	cases := []struct {
		addr string
		want []string
	}{
		{addr: "prog10", want: []string{"LINEAR", "X10 Y20", `COMMAND "#1J+"`, `COMMAND "#2J+"`,
			"RETURN"}},
		{addr: "plc4", want: []string{"IF (M1=1)", "DISABLE PLC 4", "ENDIF", "RETURN"}},
		{addr: "fwd2", want: []string{"Q1=P1", "RETURN"}},
		{addr: "inv3", want: []string{"FRAX (A,X,Z)", "RETURN"}},
		{addr: "plc5", want: []string{"FRAX", "RETURN"}},
	}
	for _, c := range cases {
		e := s.Get(c.addr)
		if e == nil {
			t.Errorf("%s missing", c.addr)
		} else if got := e.ValStr(); !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s got %q want %q", c.addr, got, c.want)
		}
	}
	if s.PLC(4).ShouldBeRunning() {
		t.Error("plc4 ShouldBeRunning() got true want false")
	}
}

func TestParseAppend(t *testing.T) {
	s := NewState("test")
	err := parseString(t, "open prog 1 clear\nx1\nclose\nopen prog 1\nx2\nclose", s, nil)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}
	want := []string{"X1", "RETURN", "X2", "RETURN"}
	if got := s.Program(1).Listing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Listing() got %q want %q", got, want)
	}

	err = parseString(t, "open prog 1 clear\nx3\nclose", s, nil)
	if err != nil {
		t.Fatalf("ParseOnline() failed with %s", err)
	}
	want = []string{"X3", "RETURN"}
	if got := s.Program(1).Listing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Listing() got %q want %q", got, want)
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		s    string
		fail bool
		want float64
	}{
		{s: "1+2", want: 3},
		{s: "2*(3+4)", want: 14},
		{s: "-2*3", want: -6},
		{s: "$FF&$0F", want: 15},
		{s: "7.9&3", want: 3},
		{s: "5|2", want: 7},
		{s: "6^3", want: 5},
		{s: "10%3", want: 1},
		{s: "2+3*4", want: 14},
		{s: "8-2-1", want: 5},
		{s: "16/4/2", want: 2},
		{s: "1/0", want: math.Inf(1)},
		{s: "-1/0", want: math.Inf(-1)},
		{s: "p1+1", want: 11},
		{s: "p2", fail: true},
		{s: "1 2", fail: true},
	}

	s := NewState("test")
	s.PVariable(1).Value = NumberValue(10)
	for _, c := range cases {
		toks, err := TokenizeString(c.s)
		if err != nil {
			t.Fatalf("Tokenize(%s) failed with %s", c.s, err)
		}
		got, err := NewParser(s, s).Evaluate(toks)
		if c.fail {
			if err == nil {
				t.Errorf("Evaluate(%s) did not fail", c.s)
			}
		} else if err != nil {
			t.Errorf("Evaluate(%s) failed with %s", c.s, err)
		} else if got != c.want {
			t.Errorf("Evaluate(%s) got %v want %v", c.s, got, c.want)
		}
	}
}
