package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so audit runs can be
// queried by file, realm, principal or check.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for run correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for phase tracking

	// ========================================================================
	// Audit Run
	// ========================================================================
	KeyRunID  = "run_id" // Audit run identifier
	KeyMode   = "mode"   // Audit mode: client, kdc, keytab
	KeyTarget = "target" // Platform compliance is judged against

	// ========================================================================
	// Configuration Files
	// ========================================================================
	KeyPath    = "path"    // Configuration, keytab or directory path
	KeySection = "section" // Configuration section name

	// ========================================================================
	// Kerberos Objects
	// ========================================================================
	KeyRealm     = "realm"     // Kerberos realm
	KeyPrincipal = "principal" // Principal name
	KeyEnctype   = "enctype"   // Enctype or keysalt token
	KeyKVNO      = "kvno"      // Key version number

	// ========================================================================
	// Findings
	// ========================================================================
	KeyCheck    = "check"    // Check that produced a finding
	KeySeverity = "severity" // Finding severity: warning, fatal
	KeySubject  = "subject"  // Setting, realm or principal a finding is about
	KeyCount    = "count"    // Number of items processed or found

	// ========================================================================
	// External Commands
	// ========================================================================
	KeyCommand = "command" // External command line
	KeyVersion = "version" // Detected version string

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// Path returns a slog.Attr for a file or directory path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Section returns a slog.Attr for a configuration section
func Section(name string) slog.Attr {
	return slog.String(KeySection, name)
}

// Realm returns a slog.Attr for a Kerberos realm
func Realm(name string) slog.Attr {
	return slog.String(KeyRealm, name)
}

// Principal returns a slog.Attr for a principal name
func Principal(name string) slog.Attr {
	return slog.String(KeyPrincipal, name)
}

// Enctype returns a slog.Attr for an enctype token
func Enctype(token string) slog.Attr {
	return slog.String(KeyEnctype, token)
}

// Check returns a slog.Attr for a check name
func Check(name string) slog.Attr {
	return slog.String(KeyCheck, name)
}

// Count returns a slog.Attr for an item count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Command returns a slog.Attr for an external command line
func Command(cmdline string) slog.Attr {
	return slog.String(KeyCommand, cmdline)
}

// DurationMs returns a slog.Attr for the time elapsed since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// Err returns a slog.Attr for an error, or an empty attr for nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
