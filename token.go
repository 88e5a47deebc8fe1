package pmac

import (
	"fmt"
	"strings"
)

const newlineText = "\n"

// Token is one lexical unit of PMAC source. Tokens compare equal by Text
// alone; File and Line are for error messages.
type Token struct {
	Text string
	File string
	Line int

	// CompareFail is set while comparing programs to mark tokens that
	// differ. It is not part of the token's identity.
	CompareFail bool
}

func (t Token) String() string {
	return t.Text
}

// Equal reports whether two tokens have the same text.
func (t Token) Equal(o Token) bool {
	return t.Text == o.Text
}

func (t Token) isNewline() bool {
	return t.Text == newlineText
}

func (t Token) isString() bool {
	return len(t.Text) >= 1 && t.Text[0] == '"'
}

func (t Token) where() string {
	if t.File == "" {
		return fmt.Sprintf("%d", t.Line)
	}
	return fmt.Sprintf("%s:%d", t.File, t.Line)
}

// stripNewlines returns the tokens that are not newlines, along with their
// indexes in toks.
func stripNewlines(toks []Token) ([]Token, []int) {
	var out []Token
	var idx []int
	for i, t := range toks {
		if !t.isNewline() {
			out = append(out, t)
			idx = append(idx, i)
		}
	}
	return out, idx
}

func makeToken(text string) Token {
	return Token{Text: text}
}

func makeTokens(texts ...string) []Token {
	toks := make([]Token, len(texts))
	for i, s := range texts {
		toks[i] = makeToken(s)
	}
	return toks
}

func isSingleLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// joinTokens renders a line of tokens back into source text that lexes to
// the same tokens.
func joinTokens(toks []Token) string {
	var b strings.Builder
	var prev string
	for i, t := range toks {
		if i > 0 && needSpace(prev, t.Text) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		prev = t.Text
	}
	return b.String()
}

func needSpace(prev, next string) bool {
	if prev == "(" || next == ")" || next == "," || prev == "," {
		return false
	}
	if isDigit(next[0]) && (isSingleLetter(prev) || prev == "#" || prev == "&" || prev == "MS") {
		return false
	}
	switch {
	case next == "->", prev == "->", next == "=", prev == "=", next == ":", prev == ":":
		return false
	}
	return true
}

// listing splits toks into source lines on newline tokens.
func listing(toks []Token) []string {
	var lines []string
	var cur []Token
	for _, t := range toks {
		if t.isNewline() {
			if len(cur) > 0 {
				lines = append(lines, joinTokens(cur))
			}
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, joinTokens(cur))
	}
	return lines
}
