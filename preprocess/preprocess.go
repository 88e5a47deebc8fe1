// Package preprocess expands #include, #define, and conditional directives
// in PMAC source files.
//
// The output is a flat list of lines. Each file's lines are preceded by a
// debug marker, ";#* <file> <line>", so that errors found later can be
// reported against the original file and line.
package preprocess

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	marker = ";#*"

	maxDepth = 32
)

// Error reports a malformed directive or a file that cannot be included.
type Error struct {
	File    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// Preprocessor holds the macros defined so far and the include search path.
type Preprocessor struct {
	IncludePaths []string

	defines map[string]string
	files   []string
	seen    map[string]bool
}

func New(includePaths []string) *Preprocessor {
	return &Preprocessor{
		IncludePaths: includePaths,
		defines:      map[string]string{},
		seen:         map[string]bool{},
	}
}

// Define defines name as value, as #define would.
func (pp *Preprocessor) Define(name, value string) {
	pp.defines[name] = value
}

func (pp *Preprocessor) Defined(name string) bool {
	_, ok := pp.defines[name]
	return ok
}

// Files returns every file read so far, in the order first read.
func (pp *Preprocessor) Files() []string {
	return pp.files
}

// File preprocesses the named file.
func (pp *Preprocessor) File(name string) ([]string, error) {
	var out []string
	err := pp.include(name, 0, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lines preprocesses lines already read from file.
func (pp *Preprocessor) Lines(file string, lines []string) ([]string, error) {
	var out []string
	err := pp.process(file, lines, 0, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (pp *Preprocessor) include(name string, depth int, out *[]string) error {
	if depth > maxDepth {
		return &Error{File: name, Line: 1, Message: "includes nested too deeply"}
	}

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("preprocess: %s: %w", name, err)
	}

	if !pp.seen[name] {
		pp.seen[name] = true
		pp.files = append(pp.files, name)
	}
	return pp.process(name, lines, depth, out)
}

type condition struct {
	active   bool
	parent   bool
	seenElse bool
	line     int
}

func (pp *Preprocessor) process(file string, lines []string, depth int, out *[]string) error {
	*out = append(*out, fmt.Sprintf("%s %s %d", marker, file, 1))

	var conds []condition
	active := func() bool {
		return len(conds) == 0 || conds[len(conds)-1].active
	}

	for i, line := range lines {
		num := i + 1
		directive, arg, ok := splitDirective(line)
		if !ok {
			if active() {
				*out = append(*out, pp.substitute(line))
			} else {
				*out = append(*out, "")
			}
			continue
		}

		bad := func(msg string) error {
			return &Error{File: file, Line: num, Message: msg}
		}

		switch directive {
		case "ifdef", "ifndef":
			name := firstWord(arg)
			if name == "" {
				return bad(fmt.Sprintf("#%s needs a name", directive))
			}
			cond := pp.Defined(name)
			if directive == "ifndef" {
				cond = !cond
			}
			parent := active()
			conds = append(conds, condition{active: parent && cond, parent: parent, line: num})
		case "else":
			if len(conds) == 0 {
				return bad("#else without #ifdef")
			}
			c := &conds[len(conds)-1]
			if c.seenElse {
				return bad("#else after #else")
			}
			c.seenElse = true
			c.active = c.parent && !c.active
		case "endif":
			if len(conds) == 0 {
				return bad("#endif without #ifdef")
			}
			conds = conds[:len(conds)-1]
		case "define":
			if !active() {
				break
			}
			name := firstWord(arg)
			if name == "" {
				return bad("#define needs a name")
			}
			pp.Define(name, pp.substitute(strings.TrimSpace(arg[len(name):])))
		case "undef":
			if active() {
				delete(pp.defines, firstWord(arg))
			}
		case "include":
			if !active() {
				break
			}
			name, ok := includeName(arg)
			if !ok {
				return bad("#include needs a file name")
			}
			path, ok := pp.find(file, name)
			if !ok {
				return bad(fmt.Sprintf("cannot find include file %s", name))
			}
			err := pp.include(path, depth+1, out)
			if err != nil {
				return err
			}
			*out = append(*out, fmt.Sprintf("%s %s %d", marker, file, num+1))
			continue
		default:
			return bad(fmt.Sprintf("unknown directive #%s", directive))
		}
		*out = append(*out, "")
	}

	if len(conds) > 0 {
		return &Error{File: file, Line: conds[len(conds)-1].line, Message: "#ifdef without #endif"}
	}
	return nil
}

func splitDirective(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "#") || len(s) < 2 {
		return "", "", false
	}
	s = s[1:]
	n := 0
	for n < len(s) && s[n] >= 'a' && s[n] <= 'z' {
		n += 1
	}
	if n == 0 {
		// #1->X and friends are motor statements, not directives.
		return "", "", false
	}
	return s[:n], strings.TrimSpace(s[n:]), true
}

func firstWord(s string) string {
	n := 0
	for n < len(s) && isWordByte(s[n]) {
		n += 1
	}
	return s[:n]
}

func includeName(arg string) (string, bool) {
	if len(arg) >= 2 && (arg[0] == '"' || arg[0] == '<') {
		end := byte('"')
		if arg[0] == '<' {
			end = '>'
		}
		i := strings.IndexByte(arg[1:], end)
		if i <= 0 {
			return "", false
		}
		return arg[1 : i+1], true
	}
	f := strings.Fields(arg)
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}

// find looks for name next to the including file, then along the include
// path.
func (pp *Preprocessor) find(from, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, exists(name)
	}
	dirs := append([]string{filepath.Dir(from)}, pp.IncludePaths...)
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if exists(path) {
			return path, true
		}
	}
	return "", false
}

func exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// substitute replaces every defined name that appears as a whole word
// outside of strings and comments.
func (pp *Preprocessor) substitute(line string) string {
	if len(pp.defines) == 0 {
		return line
	}

	var b strings.Builder
	inString := false
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '"':
			inString = !inString
		case c == ';' && !inString:
			b.WriteString(line[i:])
			return b.String()
		case !inString && isWordByte(c) && (i == 0 || !isWordByte(line[i-1])):
			j := i
			for j < len(line) && isWordByte(line[j]) {
				j += 1
			}
			if val, ok := pp.defines[line[i:j]]; ok {
				b.WriteString(val)
			} else {
				b.WriteString(line[i:j])
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i += 1
	}
	return b.String()
}
