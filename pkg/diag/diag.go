// Package diag holds the findings produced by an audit run.
//
// A Diagnostic is either a warning (accumulated, never aborts the run) or
// fatal. Fatal conditions travel as Go errors up to the command boundary;
// FatalError exists for rules that need to raise one without an underlying
// cause (e.g. allow_weak_crypto enabled).
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies a finding.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

// String returns the lowercase name used in text reports.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so JSON and YAML reports
// carry the name rather than the number.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single finding.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`

	// Check names the rule that produced the finding (e.g. "permitted_enctypes").
	Check string `json:"check" yaml:"check"`

	// Subject is what the finding is about: a realm, a principal, a setting.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	Message string `json:"message" yaml:"message"`

	// Remediation is advisory text only; nothing is ever applied.
	Remediation []string `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Warning builds a warning diagnostic.
func Warning(check, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Check:    check,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithRemediation returns a copy of d carrying the given advisory lines.
func (d Diagnostic) WithRemediation(lines ...string) Diagnostic {
	d.Remediation = append([]string(nil), lines...)
	return d
}

// String renders the diagnostic as a single report line.
func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Message
}

// FatalError aborts a run. It is the error form of a fatal diagnostic.
type FatalError struct {
	Check   string
	Message string
	Err     error
}

// Fatalf creates a FatalError for the named check.
func Fatalf(check, format string, args ...any) *FatalError {
	return &FatalError{Check: check, Message: fmt.Sprintf(format, args...)}
}

// WrapFatal attaches a check name and context message to an underlying error.
func WrapFatal(check string, err error, format string, args ...any) *FatalError {
	return &FatalError{Check: check, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error into a fatal diagnostic for reporting.
func (e *FatalError) Diagnostic() Diagnostic {
	return Diagnostic{
		Severity: SeverityFatal,
		Check:    e.Check,
		Message:  e.Error(),
	}
}

// FromError converts any fatal error into a diagnostic. Errors that are not
// a *FatalError keep an empty check name.
func FromError(err error) Diagnostic {
	var fe *FatalError
	if errors.As(err, &fe) && fe.Error() == err.Error() {
		return fe.Diagnostic()
	}
	d := Diagnostic{Severity: SeverityFatal, Message: err.Error()}
	if fe != nil {
		d.Check = fe.Check
	}
	return d
}

// Collector accumulates diagnostics for one evaluation run. It is not safe
// for concurrent use; a run owns its collector exclusively.
type Collector struct {
	items []Diagnostic
}

// Add appends diagnostics in order.
func (c *Collector) Add(ds ...Diagnostic) {
	c.items = append(c.items, ds...)
}

// Warn appends a warning.
func (c *Collector) Warn(check, subject, format string, args ...any) {
	c.items = append(c.items, Warning(check, subject, format, args...))
}

// Diagnostics returns the accumulated findings.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.items
}

// Len returns the number of accumulated findings.
func (c *Collector) Len() int {
	return len(c.items)
}

// Messages returns only the message text of each finding, in order.
func Messages(ds []Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

// HasFatal reports whether any finding is fatal.
func HasFatal(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// FormatList renders identifiers the way findings list them: sorted input is
// expected, output is "[a, b]".
func FormatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
