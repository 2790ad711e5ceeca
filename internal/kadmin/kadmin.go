// Package kadmin enumerates principals and their key material by running
// kadmin.local on the KDC host.
package kadmin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/marmos91/krb5audit/internal/logger"
)

// DefaultPath is the kadmin.local binary looked up on $PATH.
const DefaultPath = "kadmin.local"

// DefaultTimeout bounds a single kadmin.local invocation.
const DefaultTimeout = 30 * time.Second

// Enumerator lists principals and the enctype:salt tokens of their keys.
type Enumerator interface {
	ListPrincipals(ctx context.Context) ([]string, error)
	Keysalts(ctx context.Context, principal string) ([]string, error)
}

// ExecError is returned when kadmin.local cannot be run or exits non-zero.
type ExecError struct {
	ExitCode int
	Stderr   string
	Cmdline  []string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("could not execute '%s': process exited with %d: %s",
		strings.Join(e.Cmdline, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Client runs kadmin.local queries.
type Client struct {
	// Path is the kadmin.local binary. Defaults to DefaultPath.
	Path string

	// Timeout bounds each query. Defaults to DefaultTimeout.
	Timeout time.Duration

	// run executes the query and returns stdout. Replaced in tests.
	run func(ctx context.Context, path string, args ...string) ([]byte, error)
}

// NewClient returns a Client for the given binary and timeout; zero values
// select the defaults.
func NewClient(path string, timeout time.Duration) *Client {
	if path == "" {
		path = DefaultPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{Path: path, Timeout: timeout, run: execCommand}
}

var _ Enumerator = (*Client)(nil)

// ListPrincipals returns every principal in the KDC database.
func (c *Client) ListPrincipals(ctx context.Context) ([]string, error) {
	out, err := c.query(ctx, "listprincs")
	if err != nil {
		return nil, err
	}
	principals := ParseListPrincs(out)
	logger.Debug("Listed principals", logger.Count(len(principals)))
	return principals, nil
}

// Keysalts returns the enctype:salt token of every key the principal holds.
func (c *Client) Keysalts(ctx context.Context, principal string) ([]string, error) {
	out, err := c.query(ctx, "getprinc "+principal)
	if err != nil {
		return nil, err
	}
	return ParseGetPrinc(out), nil
}

func (c *Client) query(ctx context.Context, q string) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	run := c.run
	if run == nil {
		run = execCommand
	}

	start := time.Now()
	out, err := run(ctx, path, "-q", q)
	logger.Debug("kadmin query", logger.Command(q), logger.DurationMs(start))
	return out, err
}

func execCommand(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmdline := append([]string{path}, args...)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExecError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String(), Cmdline: cmdline}
		}
		return nil, &ExecError{ExitCode: -1, Stderr: err.Error(), Cmdline: cmdline}
	}
	return stdout.Bytes(), nil
}

const banner = "Authenticating as principal"

var keyLineRe = regexp.MustCompile(`^Key: vno \d+, (.*)$`)

// ParseListPrincs extracts principal names from listprincs output.
func ParseListPrincs(out []byte) []string {
	var principals []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, banner) {
			continue
		}
		principals = append(principals, line)
	}
	return principals
}

// ParseGetPrinc extracts the keysalt of every "Key: vno N, <keysalt>" line
// of getprinc output.
func ParseGetPrinc(out []byte) []string {
	var keysalts []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := keyLineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m != nil {
			keysalts = append(keysalts, m[1])
		}
	}
	return keysalts
}
