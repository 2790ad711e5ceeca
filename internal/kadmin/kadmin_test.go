package kadmin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listprincsOutput = `Authenticating as principal root/admin@EXAMPLE.COM with password.
K/M@EXAMPLE.COM
alice@EXAMPLE.COM
host/kdc.example.com@EXAMPLE.COM
krbtgt/EXAMPLE.COM@EXAMPLE.COM
`

const getprincOutput = `Authenticating as principal root/admin@EXAMPLE.COM with password.
Principal: host/kdc.example.com@EXAMPLE.COM
Expiration date: [never]
Last password change: Mon Jan 01 00:00:00 UTC 2024
Maximum ticket life: 1 day 00:00:00
Last modified: Mon Jan 01 00:00:00 UTC 2024 (root/admin@EXAMPLE.COM)
Number of keys: 3
Key: vno 2, aes256-cts-hmac-sha1-96
Key: vno 2, des-cbc-crc:v4
Key: vno 2, arcfour-hmac
MKey: vno 1
Attributes: REQUIRES_PRE_AUTH
Policy: [none]
`

// fakeRun returns canned output per query and records the arguments it saw.
type fakeRun struct {
	outputs map[string]string
	err     error
	calls   [][]string
}

func (f *fakeRun) run(_ context.Context, path string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{path}, args...))
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.outputs[args[len(args)-1]]), nil
}

func newFakeClient(f *fakeRun) *Client {
	c := NewClient("", 0)
	c.run = f.run
	return c
}

// ============================================================================
// Output Parsing Tests
// ============================================================================

func TestParseListPrincs(t *testing.T) {
	t.Run("DropsBanner", func(t *testing.T) {
		got := ParseListPrincs([]byte(listprincsOutput))
		assert.Equal(t, []string{
			"K/M@EXAMPLE.COM",
			"alice@EXAMPLE.COM",
			"host/kdc.example.com@EXAMPLE.COM",
			"krbtgt/EXAMPLE.COM@EXAMPLE.COM",
		}, got)
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		assert.Empty(t, ParseListPrincs(nil))
	})
}

func TestParseGetPrinc(t *testing.T) {
	t.Run("ExtractsKeyLines", func(t *testing.T) {
		got := ParseGetPrinc([]byte(getprincOutput))
		assert.Equal(t, []string{"aes256-cts-hmac-sha1-96", "des-cbc-crc:v4", "arcfour-hmac"}, got)
	})

	t.Run("IgnoresMasterKeyLine", func(t *testing.T) {
		assert.Empty(t, ParseGetPrinc([]byte("MKey: vno 1\n")))
	})

	t.Run("NoKeys", func(t *testing.T) {
		assert.Empty(t, ParseGetPrinc([]byte("Principal: x@Y\nNumber of keys: 0\n")))
	})
}

// ============================================================================
// Client Tests
// ============================================================================

func TestClient(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := NewClient("", 0)
		assert.Equal(t, DefaultPath, c.Path)
		assert.Equal(t, DefaultTimeout, c.Timeout)
	})

	t.Run("ListPrincipals", func(t *testing.T) {
		f := &fakeRun{outputs: map[string]string{"listprincs": listprincsOutput}}
		c := newFakeClient(f)

		got, err := c.ListPrincipals(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 4)
		assert.Equal(t, [][]string{{DefaultPath, "-q", "listprincs"}}, f.calls)
	})

	t.Run("Keysalts", func(t *testing.T) {
		f := &fakeRun{outputs: map[string]string{
			"getprinc host/kdc.example.com@EXAMPLE.COM": getprincOutput,
		}}
		c := newFakeClient(f)

		got, err := c.Keysalts(context.Background(), "host/kdc.example.com@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Equal(t, []string{"aes256-cts-hmac-sha1-96", "des-cbc-crc:v4", "arcfour-hmac"}, got)
	})

	t.Run("PropagatesExecError", func(t *testing.T) {
		execErr := &ExecError{ExitCode: 1, Stderr: "kadmin.local: Permission denied", Cmdline: []string{"kadmin.local"}}
		c := newFakeClient(&fakeRun{err: execErr})

		_, err := c.ListPrincipals(context.Background())
		var got *ExecError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, 1, got.ExitCode)
	})
}

// ============================================================================
// Exec Tests
// ============================================================================

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kadmin.local")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecCommand(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	t.Run("ReturnsStdout", func(t *testing.T) {
		path := writeScript(t, "echo \"Authenticating as principal root/admin@X with password.\"\necho \"a@X\"\n")
		c := NewClient(path, time.Second)

		got, err := c.ListPrincipals(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a@X"}, got)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		path := writeScript(t, "echo 'database not found' >&2\nexit 3\n")
		c := NewClient(path, time.Second)

		_, err := c.ListPrincipals(context.Background())
		var execErr *ExecError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, 3, execErr.ExitCode)
		assert.Contains(t, execErr.Error(), "database not found")
		assert.Contains(t, execErr.Error(), "-q listprincs")
	})

	t.Run("MissingBinary", func(t *testing.T) {
		c := NewClient(filepath.Join(t.TempDir(), "absent"), time.Second)

		_, err := c.ListPrincipals(context.Background())
		var execErr *ExecError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, -1, execErr.ExitCode)
	})
}
