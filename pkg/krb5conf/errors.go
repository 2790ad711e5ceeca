package krb5conf

import "strings"

// ParseError reports malformed configuration input. Chain lists the file
// the problem came from, preceded by every file that included it, root first.
type ParseError struct {
	Chain []string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	prefix := strings.Join(e.Chain, ": ")
	if prefix == "" {
		return e.Msg
	}
	return prefix + ": " + e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// File returns the file the error originated in.
func (e *ParseError) File() string {
	if len(e.Chain) == 0 {
		return ""
	}
	return e.Chain[len(e.Chain)-1]
}

func newParseError(chain []string, msg string) *ParseError {
	return &ParseError{Chain: chain, Msg: msg}
}
