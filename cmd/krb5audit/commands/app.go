package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marmos91/krb5audit/internal/cli/output"
	"github.com/marmos91/krb5audit/internal/logger"
	"github.com/marmos91/krb5audit/internal/telemetry"
	"github.com/marmos91/krb5audit/pkg/audit"
	"github.com/marmos91/krb5audit/pkg/config"
	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/metrics"
)

// app is the process-wide state set up before any command runs.
var app struct {
	cfg               *config.Config
	metrics           metrics.AuditMetrics
	telemetryShutdown func(context.Context) error
}

// setup loads configuration and initializes logging, tracing and metrics.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(logLevel)
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	app.cfg = cfg
	app.metrics = nil

	if err := InitLogger(cfg); err != nil {
		return err
	}

	telemetryShutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "krb5audit",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetryShutdown = telemetryShutdown

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		app.metrics = metrics.NewAuditMetrics()
		logger.Debug("Metrics enabled", logger.Path(cfg.Metrics.Textfile))
	}

	logger.Debug("Configuration loaded", "source", getConfigSource(cfgFile))
	return nil
}

// shutdown flushes traces and writes the metrics textfile. It runs after
// every command, including failed ones.
func shutdown(ctx context.Context) {
	if app.cfg != nil && app.cfg.Metrics.Enabled && metrics.IsEnabled() {
		if err := metrics.WriteTextfile(app.cfg.Metrics.Textfile); err != nil {
			logger.Error("Failed to write metrics textfile", logger.Path(app.cfg.Metrics.Textfile), logger.Err(err))
		}
	}
	if app.telemetryShutdown != nil {
		if err := app.telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
		app.telemetryShutdown = nil
	}
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// auditConfig returns the loaded audit settings, or the defaults when
// setup did not run (as in tests that call commands directly).
func auditConfig() config.AuditConfig {
	if app.cfg == nil {
		return config.GetDefaultConfig().Audit
	}
	return app.cfg.Audit
}

// newPrinter returns a printer for the --output format on cmd's stdout.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	color := !noColor
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		color = false
	}
	return output.NewPrinter(out, format, color), nil
}

// finishReport prints report and turns its outcome into an exit status.
func finishReport(cmd *cobra.Command, report *diag.Report, failOnWarning bool) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	if err := printer.Print(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	logger.Info(audit.Summary(report), logger.KeyRunID, report.RunID)

	switch {
	case report.Fatal():
		return &ExitError{Code: 1}
	case failOnWarning && report.Warnings() > 0:
		return &ExitError{Code: 2}
	default:
		return nil
	}
}
