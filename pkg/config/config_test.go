package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"

audit:
  krb5_conf: "` + yamlSafePath(tmpDir) + `/krb5.conf"
  target: "RHEL 9"
  command_timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default output stderr, got %q", cfg.Logging.Output)
	}
	if cfg.Audit.Krb5Conf != yamlSafePath(tmpDir)+"/krb5.conf" {
		t.Errorf("Unexpected krb5_conf %q", cfg.Audit.Krb5Conf)
	}
	if cfg.Audit.Target != "RHEL 9" {
		t.Errorf("Expected target 'RHEL 9', got %q", cfg.Audit.Target)
	}
	if cfg.Audit.CommandTimeout != 5*time.Second {
		t.Errorf("Expected command timeout 5s, got %v", cfg.Audit.CommandTimeout)
	}
	if cfg.Audit.KDCConf != DefaultKDCConf {
		t.Errorf("Expected default kdc_conf, got %q", cfg.Audit.KDCConf)
	}
	if cfg.Audit.MinDHBits != 2048 {
		t.Errorf("Expected default min_dh_bits 2048, got %d", cfg.Audit.MinDHBits)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Expected defaults when config file is missing, got error: %v", err)
	}

	if cfg.Audit.Krb5Conf != DefaultKrb5Conf {
		t.Errorf("Expected default krb5_conf, got %q", cfg.Audit.Krb5Conf)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
logging:
  level: "INFO"
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
logging:
  format: "xml"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected validation error for unknown log format, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[audit]
kadmin_path = "/usr/sbin/kadmin.local"
min_dh_bits = 3072
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Audit.KadminPath != "/usr/sbin/kadmin.local" {
		t.Errorf("Expected kadmin path from file, got %q", cfg.Audit.KadminPath)
	}
	if cfg.Audit.MinDHBits != 3072 {
		t.Errorf("Expected min_dh_bits 3072, got %d", cfg.Audit.MinDHBits)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Audit.Target != "RHEL 8" {
		t.Errorf("Expected default target 'RHEL 8', got %q", cfg.Audit.Target)
	}
	if cfg.Audit.CommandTimeout != 30*time.Second {
		t.Errorf("Expected default command timeout 30s, got %v", cfg.Audit.CommandTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if DefaultConfigExists() {
		t.Error("Expected no default config in an empty config dir")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !DefaultConfigExists() {
		t.Error("Expected default config to exist after InitConfig")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	want := filepath.Join(tmpDir, "krb5audit", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestGetConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	want := filepath.Join(tmpDir, "krb5audit")
	if got := GetConfigDir(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
audit:
  target: "RHEL 8"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("KRB5AUDIT_LOGGING_LEVEL", "ERROR")
	t.Setenv("KRB5AUDIT_AUDIT_TARGET", "RHEL 9")
	t.Setenv("KRB5AUDIT_AUDIT_COMMAND_TIMEOUT", "45s")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected env override level 'ERROR', got %q", cfg.Logging.Level)
	}
	if cfg.Audit.Target != "RHEL 9" {
		t.Errorf("Expected env override target 'RHEL 9', got %q", cfg.Audit.Target)
	}
	if cfg.Audit.CommandTimeout != 45*time.Second {
		t.Errorf("Expected env override timeout 45s, got %v", cfg.Audit.CommandTimeout)
	}
}

func TestLoad_EnvironmentVariablesWithoutFile(t *testing.T) {
	t.Setenv("KRB5AUDIT_AUDIT_KDC_CONF", "/etc/krb5kdc/kdc.conf")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Audit.KDCConf != "/etc/krb5kdc/kdc.conf" {
		t.Errorf("Expected env kdc_conf without a config file, got %q", cfg.Audit.KDCConf)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Audit.Target = "RHEL 9"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Textfile = "/tmp/krb5audit.prom"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Audit.Target != "RHEL 9" || !loaded.Metrics.Enabled || loaded.Metrics.Textfile != "/tmp/krb5audit.prom" {
		t.Errorf("Saved config did not round trip: %+v", loaded)
	}
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys()
	want := map[string]bool{
		"logging.level":            false,
		"telemetry.sample_rate":    false,
		"metrics.textfile":         false,
		"audit.command_timeout":    false,
		"audit.krb5_minor_version": false,
	}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("configKeys() missing %q", k)
		}
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "krb5audit config init --config") {
		t.Errorf("Expected init hint in error, got: %v", err)
	}
}

func TestMustLoad_NoDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := MustLoad(""); err == nil {
		t.Fatal("Expected error when no default config exists")
	}
}
