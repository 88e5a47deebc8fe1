package pmac

import (
	"fmt"
)

// LexError reports source text that is not a literal and not in any keyword table.
type LexError struct {
	Text string
	File string
	Line int
}

func (e *LexError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d: unrecognized token: %s", e.Line, e.Text)
	}
	return fmt.Sprintf("%s:%d: unrecognized token: %s", e.File, e.Line, e.Text)
}

// ParserError reports a grammar violation at Token.
type ParserError struct {
	Message string
	Token   Token
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Token.where(), e.Message, e.Token.Text)
}

// ConfigError reports a malformed variable specification or type code.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
