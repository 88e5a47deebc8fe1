package pmac

import (
	"strconv"
	"strings"
)

// debugMarker starts a line written by the preprocessor to record where the
// following lines came from: ";#* <file> <line>".
const debugMarker = ";#*"

type lexer struct {
	file string
	line int
	toks []Token
}

// Tokenize converts source lines into tokens. A newline token ends every
// source line. Debug marker lines reset the file and line of the tokens
// that follow and produce no tokens.
func Tokenize(lines []string) ([]Token, error) {
	lx := lexer{line: 1}
	for _, s := range lines {
		if lx.marker(s) {
			continue
		}
		err := lx.lexLine(s)
		if err != nil {
			return nil, err
		}
		lx.line += 1
	}
	return lx.toks, nil
}

// TokenizeString splits s into lines and tokenizes them.
func TokenizeString(s string) ([]Token, error) {
	s = strings.TrimSuffix(s, "\n")
	return Tokenize(strings.Split(s, "\n"))
}

func (lx *lexer) marker(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, debugMarker) {
		return false
	}
	fields := strings.Fields(s[len(debugMarker):])
	if len(fields) < 2 {
		return false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return false
	}
	lx.file = strings.Join(fields[:len(fields)-1], " ")
	lx.line = n
	return true
}

func stripComment(s string) string {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return s[:i]
			}
		}
	}
	return s
}

func (lx *lexer) emit(text string) {
	if n := len(lx.toks); n > 0 {
		if merged, ok := tokenPairs[[2]string{lx.toks[n-1].Text, text}]; ok {
			lx.toks[n-1].Text = merged
			return
		}
	}
	lx.toks = append(lx.toks, Token{Text: text, File: lx.file, Line: lx.line})
}

func (lx *lexer) lexLine(s string) error {
	s = strings.ToUpper(stripComment(s))

	pos := 0
	for pos < len(s) {
		b := s[pos]
		if b == ' ' || b == '\t' || b == '\r' {
			pos += 1
			continue
		}

		if n := hexLiteral(s[pos:]); n > 0 {
			lx.emit(s[pos : pos+n])
			pos += n
		} else if isDigit(b) {
			n, used := numberLiteral(s[pos:])
			lx.emit(s[pos : pos+n])
			pos += used
		} else if b == '"' {
			end := strings.IndexByte(s[pos+1:], '"')
			if end < 0 {
				return &LexError{Text: s[pos:], File: lx.file, Line: lx.line}
			}
			lx.emit(s[pos : pos+end+2])
			pos += end + 2
		} else {
			n, expansion := longestMatch(s[pos:])
			if n == 0 {
				return &LexError{Text: s[pos:], File: lx.file, Line: lx.line}
			}
			for _, text := range expansion {
				lx.emit(text)
			}
			pos += n
		}
	}

	lx.toks = append(lx.toks, Token{Text: newlineText, File: lx.file, Line: lx.line})
	return nil
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'F')
}

// hexLiteral returns the length of a $-prefixed hex literal at the start of
// s, or zero.
func hexLiteral(s string) int {
	if len(s) < 2 || s[0] != '$' || !isHexDigit(s[1]) {
		return 0
	}
	n := 2
	for n < len(s) && isHexDigit(s[n]) {
		n += 1
	}
	return n
}

// numberLiteral returns the length of the decimal literal at the start of
// s, which must begin with a digit, and the number of bytes it used. A
// trailing '.' is used but is not part of the literal; ".." is left alone.
func numberLiteral(s string) (int, int) {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n += 1
	}
	if n == len(s) || s[n] != '.' {
		return n, n
	}
	if n+1 < len(s) && s[n+1] == '.' {
		return n, n
	}
	if n+1 == len(s) || !isDigit(s[n+1]) {
		return n, n + 1
	}
	n += 1
	for n < len(s) && isDigit(s[n]) {
		n += 1
	}
	return n, n
}

// longestMatch finds the longest keyword or short form at the start of s. It
// returns the number of bytes matched and the canonical tokens.
func longestMatch(s string) (int, []string) {
	l := maxKeywordLen
	if l > len(s) {
		l = len(s)
	}
	for ; l > 0; l-- {
		prefix := s[:l]
		if _, ok := keywords[prefix]; ok {
			return l, []string{prefix}
		}
		if expansion, ok := shortForms[prefix]; ok {
			return l, expansion
		}
	}
	return 0, nil
}
