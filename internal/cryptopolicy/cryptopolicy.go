// Package cryptopolicy reads the active system-wide crypto policy and its
// modules from update-crypto-policies.
package cryptopolicy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/marmos91/krb5audit/internal/logger"
)

// DefaultCommand is the binary queried for the active policy.
const DefaultCommand = "update-crypto-policies"

// DefaultTimeout bounds the query.
const DefaultTimeout = 10 * time.Second

// Detector queries update-crypto-policies.
type Detector struct {
	Command string
	Timeout time.Duration

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDetector returns a Detector; zero values select the defaults.
func NewDetector(command string, timeout time.Duration) *Detector {
	if command == "" {
		command = DefaultCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detector{Command: command, Timeout: timeout, run: output}
}

// Policies returns the active policy followed by its modules, e.g.
// ["DEFAULT", "AD-SUPPORT"]. A system without update-crypto-policies has no
// policies and is not an error.
func (d *Detector) Policies(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	run := d.run
	if run == nil {
		run = output
	}
	out, err := run(ctx, d.Command, "--show")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			logger.Debug("crypto-policies not available", logger.Command(d.Command))
			return nil, nil
		}
		return nil, fmt.Errorf("query crypto-policies: %w", err)
	}
	return Parse(string(out)), nil
}

// Parse splits "POLICY:MODULE:MODULE" output into its parts.
func Parse(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	return strings.Split(out, ":")
}

func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}
