package diag

import (
	"time"

	"github.com/google/uuid"
)

// Mode identifies what a run audited.
type Mode string

const (
	ModeClient Mode = "client"
	ModeKDC    Mode = "kdc"
	ModeKeytab Mode = "keytab"
)

// HostInfo describes the machine an audit ran on.
type HostInfo struct {
	Hostname        string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Platform        string `json:"platform,omitempty" yaml:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty" yaml:"platform_version,omitempty"`
	Krb5Version     string `json:"krb5_version,omitempty" yaml:"krb5_version,omitempty"`
}

// Report is the result of one audit run.
type Report struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	Modes       []Mode       `json:"modes" yaml:"modes"`
	Host        HostInfo     `json:"host" yaml:"host"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// NewReport starts a report with a fresh run id.
func NewReport(host HostInfo) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Host:        host,
		Diagnostics: []Diagnostic{},
	}
}

// Append records the diagnostics produced by one mode.
func (r *Report) Append(mode Mode, ds []Diagnostic) {
	r.Modes = append(r.Modes, mode)
	r.Diagnostics = append(r.Diagnostics, ds...)
}

// Fail records err as the fatal finding that ended the run.
func (r *Report) Fail(err error) {
	r.Diagnostics = append(r.Diagnostics, FromError(err))
}

// Warnings returns the number of warning findings.
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Fatal reports whether the run recorded a fatal finding.
func (r *Report) Fatal() bool {
	return HasFatal(r.Diagnostics)
}

// Headers implements output.TableRenderer.
func (r *Report) Headers() []string {
	return []string{"Severity", "Check", "Subject", "Message"}
}

// Rows implements output.TableRenderer.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		rows = append(rows, []string{d.Severity.String(), d.Check, d.Subject, d.Message})
	}
	return rows
}

// TextLines implements output.TextRenderer: one line per finding, followed
// by its remediation lines indented by four spaces.
func (r *Report) TextLines() []string {
	lines := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		lines = append(lines, d.String())
		for _, rem := range d.Remediation {
			lines = append(lines, "    "+rem)
		}
	}
	return lines
}
