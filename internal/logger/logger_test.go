package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer with colors off.
// The returned cleanup restores the previous output, level and format.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := currentLevel.Load()
	originalFormat := currentFormat.Load()
	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(originalLevel)
		currentFormat.Store(originalFormat)
		reconfigure()
	}
}

// jsonLines decodes one JSON object per non-empty line.
func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

// ============================================================================
// Defaults
// ============================================================================

// Reports are written to stdout, so anything the logger emits must stay
// off it unless configured otherwise.
func TestDefaultsWriteInfoToStderr(t *testing.T) {
	mu.RLock()
	out := output
	mu.RUnlock()
	assert.Equal(t, io.Writer(os.Stderr), out)
	assert.Equal(t, LevelInfo, Level(currentLevel.Load()))
	assert.Equal(t, "text", currentFormat.Load())
}

func TestInitStdoutAndStderr(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	require.NoError(t, Init(Config{Output: "STDOUT"}))
	mu.RLock()
	assert.Equal(t, io.Writer(os.Stdout), output)
	mu.RUnlock()

	require.NoError(t, Init(Config{Output: "stderr"}))
	mu.RLock()
	assert.Equal(t, io.Writer(os.Stderr), output)
	mu.RUnlock()
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
		skip  []string
	}{
		{level: "DEBUG", want: []string{"kadmin query", "Audit started", "Weak value", "Audit stopped"}},
		{level: "info", want: []string{"Audit started", "Weak value", "Audit stopped"}, skip: []string{"kadmin query"}},
		{level: "WARN", want: []string{"Weak value", "Audit stopped"}, skip: []string{"kadmin query", "Audit started"}},
		{level: "ERROR", want: []string{"Audit stopped"}, skip: []string{"kadmin query", "Audit started", "Weak value"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf, cleanup := captureOutput()
			defer cleanup()
			SetLevel(tt.level)

			Debug("kadmin query")
			Info("Audit started")
			Warn("Weak value")
			Error("Audit stopped")

			for _, msg := range tt.want {
				assert.Contains(t, buf.String(), msg)
			}
			for _, msg := range tt.skip {
				assert.NotContains(t, buf.String(), msg)
			}
		})
	}

	t.Run("unknown level is ignored", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()
		SetLevel("WARN")
		SetLevel("TRACE")
		assert.Equal(t, LevelWarn, Level(currentLevel.Load()))
	})

	t.Run("unknown format is ignored", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()
		SetFormat("json")
		SetFormat("logfmt")
		assert.Equal(t, "json", currentFormat.Load())
	})
}

// ============================================================================
// Run-scoped context fields
// ============================================================================

func TestContextFields(t *testing.T) {
	lc := NewLogContext("8f7d2a4e", "kdc").WithTrace("4bf92f3577b34da6", "00f067aa0ba902b7")
	ctx := WithContext(context.Background(), lc)

	t.Run("json carries run id and mode", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetFormat("json")

		InfoCtx(ctx, "Audit finished", Count(3))

		entries := jsonLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "8f7d2a4e", entries[0][KeyRunID])
		assert.Equal(t, "kdc", entries[0][KeyMode])
		assert.Equal(t, "4bf92f3577b34da6", entries[0][KeyTraceID])
		assert.Equal(t, "00f067aa0ba902b7", entries[0][KeySpanID])
		assert.Equal(t, float64(3), entries[0][KeyCount])
	})

	t.Run("text puts context fields before call fields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		WarnCtx(ctx, "Checking realm", Realm("EXAMPLE.COM"))

		line := buf.String()
		assert.Contains(t, line, "[WARN] Checking realm")
		runID := strings.Index(line, "run_id=8f7d2a4e")
		mode := strings.Index(line, "mode=kdc")
		realm := strings.Index(line, "realm=EXAMPLE.COM")
		require.True(t, runID > 0 && mode > 0 && realm > 0, line)
		assert.Less(t, runID, mode)
		assert.Less(t, mode, realm)
	})

	t.Run("each mode logs its own context", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetFormat("json")

		client := NewLogContext("run-1", "client")
		ErrorCtx(WithContext(context.Background(), client), "Audit stopped on fatal condition")
		ErrorCtx(WithContext(context.Background(), client.WithMode("keytab")), "Audit stopped on fatal condition")

		entries := jsonLines(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "client", entries[0][KeyMode])
		assert.Equal(t, "keytab", entries[1][KeyMode])
		assert.Equal(t, entries[0][KeyRunID], entries[1][KeyRunID])
		assert.NotContains(t, entries[0], KeyTraceID)
	})

	t.Run("missing context adds nothing", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetFormat("json")

		require.NotPanics(t, func() {
			//nolint:staticcheck // nil context is tolerated
			InfoCtx(nil, "Watching configuration")
			InfoCtx(context.Background(), "Watching configuration")
		})

		for _, e := range jsonLines(t, buf) {
			assert.NotContains(t, e, KeyRunID)
			assert.NotContains(t, e, KeyMode)
		}
	})
}

func TestLogContext(t *testing.T) {
	t.Run("derived copies leave the parent alone", func(t *testing.T) {
		lc := NewLogContext("run-1", "client")
		traced := lc.WithTrace("t", "s")
		kdc := traced.WithMode("kdc")

		assert.Equal(t, "client", lc.Mode)
		assert.Empty(t, lc.TraceID)
		assert.Equal(t, "t", kdc.TraceID)
		assert.Equal(t, "kdc", kdc.Mode)
		assert.Equal(t, "run-1", kdc.RunID)
	})

	t.Run("nil receivers", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithMode("kdc"))
		assert.Zero(t, lc.DurationMs())
		assert.Nil(t, FromContext(context.Background()))
	})

	t.Run("duration counts from creation", func(t *testing.T) {
		lc := NewLogContext("run-1", "client")
		lc.StartTime = time.Now().Add(-50 * time.Millisecond)
		assert.GreaterOrEqual(t, lc.DurationMs(), 50.0)
		assert.Zero(t, (&LogContext{}).DurationMs())
	})
}

// ============================================================================
// Field helpers
// ============================================================================

func TestFieldHelpers(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetFormat("json")
	SetLevel("DEBUG")

	Debug("Finding",
		Path("/etc/krb5.conf"),
		Section("libdefaults"),
		Realm("EXAMPLE.COM"),
		Principal("host/kdc.example.com@EXAMPLE.COM"),
		Enctype("aes256/sha1"),
		Check("pkinit_dh_min_bits"),
		Count(2),
		Command("kadmin.local -q listprincs"),
		DurationMs(time.Now()),
		Err(errors.New("exit status 1")),
		Err(nil),
	)

	entries := jsonLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "/etc/krb5.conf", e[KeyPath])
	assert.Equal(t, "libdefaults", e[KeySection])
	assert.Equal(t, "EXAMPLE.COM", e[KeyRealm])
	assert.Equal(t, "host/kdc.example.com@EXAMPLE.COM", e[KeyPrincipal])
	assert.Equal(t, "aes256/sha1", e[KeyEnctype])
	assert.Equal(t, "pkinit_dh_min_bits", e[KeyCheck])
	assert.Equal(t, float64(2), e[KeyCount])
	assert.Equal(t, "kadmin.local -q listprincs", e[KeyCommand])
	assert.Contains(t, e, KeyDurationMs)
	assert.Equal(t, "exit status 1", e[KeyError])
}

// ============================================================================
// Text handler
// ============================================================================

func TestColorTextHandler(t *testing.T) {
	t.Run("line layout", func(t *testing.T) {
		buf := new(bytes.Buffer)
		slog.New(NewColorTextHandler(buf, nil, false)).Info("Loaded keytab", Count(4))

		line := strings.TrimSuffix(buf.String(), "\n")
		assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] Loaded keytab count=4$`, line)
	})

	t.Run("values needing quotes are quoted", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, false))

		l.Info("kadmin query",
			Command("getprinc K/M"),
			"setting", "a=b",
			"empty", "",
			Err(errors.New(`parse "x"`)),
			Path("/etc/krb5.conf"))

		output := buf.String()
		assert.Contains(t, output, `command="getprinc K/M"`)
		assert.Contains(t, output, `setting="a=b"`)
		assert.Contains(t, output, `empty=""`)
		assert.Contains(t, output, `error="parse \"x\""`)
		assert.Contains(t, output, "path=/etc/krb5.conf")
	})

	t.Run("groups prefix keys", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, false))

		l.WithGroup("kdc").With("realm", "EXAMPLE.COM").Info("checked", slog.Group("pkinit", "dh_min_bits", 1024))

		output := buf.String()
		assert.Contains(t, output, "kdc.realm=EXAMPLE.COM")
		assert.Contains(t, output, "kdc.pkinit.dh_min_bits=1024")
	})

	t.Run("WithAttrs keeps parent unchanged", func(t *testing.T) {
		buf := new(bytes.Buffer)
		base := slog.New(NewColorTextHandler(buf, nil, false))

		base.With("mode", "kdc").Info("child")
		base.Info("parent")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "mode=kdc")
		assert.NotContains(t, lines[1], "mode=kdc")
	})

	t.Run("colorizes level and keys", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, true))

		l.Warn("weak", Check("allow_weak_crypto"))

		output := buf.String()
		assert.Contains(t, output, colorYellow+"WARN"+colorReset)
		assert.Contains(t, output, colorCyan+"check"+colorReset+"=allow_weak_crypto")
	})

	t.Run("respects handler level", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false))

		l.Info("hidden")
		l.Error("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "[ERROR] shown")
	})
}

// ============================================================================
// Init
// ============================================================================

func TestInit(t *testing.T) {
	t.Run("log file receives output without colors", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()
		path := filepath.Join(t.TempDir(), "krb5audit.log")

		require.NoError(t, Init(Config{Level: "WARN", Format: "text", Output: path}))
		Info("dropped")
		Warn("Configuration unreadable; waiting for it to reappear", Path("/etc/krb5.conf"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dropped")
		assert.Contains(t, string(data), "[WARN] Configuration unreadable")
		assert.NotContains(t, string(data), "\033[")
	})

	t.Run("unwritable log file", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})

	t.Run("InitWithWriter", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()
		buf := new(bytes.Buffer)

		InitWithWriter(buf, "DEBUG", "json", false)
		Debug("Parsed section", Section("realms"))

		entries := jsonLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "realms", entries[0][KeySection])
	})
}
