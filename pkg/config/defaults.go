package config

import (
	"strings"
	"time"

	"github.com/marmos91/krb5audit/internal/cryptopolicy"
	"github.com/marmos91/krb5audit/internal/kadmin"
	"github.com/marmos91/krb5audit/pkg/policy"
)

// Default file locations.
const (
	DefaultKrb5Conf = "/etc/krb5.conf"
	DefaultKDCConf  = "/var/kerberos/krb5kdc/kdc.conf"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyAuditDefaults(&cfg.Audit)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// applyAuditDefaults sets the audit inputs and external command defaults.
func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Krb5Conf == "" {
		cfg.Krb5Conf = DefaultKrb5Conf
	}
	if cfg.KDCConf == "" {
		cfg.KDCConf = DefaultKDCConf
	}
	if cfg.Target == "" {
		cfg.Target = policy.DefaultTarget
	}
	if cfg.MinDHBits == 0 {
		cfg.MinDHBits = policy.DefaultMinDHBits
	}
	if cfg.KadminPath == "" {
		cfg.KadminPath = kadmin.DefaultPath
	}
	if cfg.CryptoPoliciesCommand == "" {
		cfg.CryptoPoliciesCommand = cryptopolicy.DefaultCommand
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// PolicyOptions returns the rule evaluation options for this configuration.
func (c *AuditConfig) PolicyOptions() policy.Options {
	return policy.Options{
		Target:    c.Target,
		MinDHBits: c.MinDHBits,
	}
}
