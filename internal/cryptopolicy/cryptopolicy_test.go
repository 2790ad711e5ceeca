package cryptopolicy

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"PolicyOnly", "DEFAULT\n", []string{"DEFAULT"}},
		{"WithModules", "DEFAULT:AD-SUPPORT\n", []string{"DEFAULT", "AD-SUPPORT"}},
		{"Legacy", "LEGACY", []string{"LEGACY"}},
		{"Empty", "\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestPolicies(t *testing.T) {
	t.Run("ReturnsParsedOutput", func(t *testing.T) {
		d := NewDetector("", 0)
		d.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
			assert.Equal(t, DefaultCommand, name)
			assert.Equal(t, []string{"--show"}, args)
			return []byte("FUTURE:AD-SUPPORT\n"), nil
		}

		got, err := d.Policies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"FUTURE", "AD-SUPPORT"}, got)
	})

	t.Run("MissingBinaryIsNotAnError", func(t *testing.T) {
		d := NewDetector("", 0)
		d.run = func(context.Context, string, ...string) ([]byte, error) {
			return nil, &exec.Error{Name: DefaultCommand, Err: exec.ErrNotFound}
		}

		got, err := d.Policies(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("FailureIsAnError", func(t *testing.T) {
		d := NewDetector("", 0)
		d.run = func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("boom")
		}

		_, err := d.Policies(context.Background())
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("RealCommand", func(t *testing.T) {
		if _, err := os.Stat("/bin/sh"); err != nil {
			t.Skip("no /bin/sh")
		}
		path := filepath.Join(t.TempDir(), "update-crypto-policies")
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho DEFAULT:AD-SUPPORT\n"), 0o755))

		got, err := NewDetector(path, time.Second).Policies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"DEFAULT", "AD-SUPPORT"}, got)
	})

	t.Run("AbsentPath", func(t *testing.T) {
		got, err := NewDetector(filepath.Join(t.TempDir(), "absent"), time.Second).Policies(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
