package config

import (
	"fmt"
	"os"

	"github.com/marmos91/krb5audit/internal/cli/output"
	"github.com/marmos91/krb5audit/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the krb5audit configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  krb5audit config validate

  # Validate specific config file
  krb5audit config validate --config /etc/krb5audit.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Settings that are valid but will not work on this machine
	var warnings []string
	for _, f := range []struct{ name, path string }{
		{"audit.krb5_conf", cfg.Audit.Krb5Conf},
		{"audit.kdc_conf", cfg.Audit.KDCConf},
	} {
		if _, err := os.Stat(f.path); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s does not exist", f.name, f.path))
		}
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), output.FormatText, false)
	printer.Printf("Configuration file: %s\n", displayPath)
	printer.Success("Validation: OK")

	if len(warnings) > 0 {
		printer.Println("\nWarnings:")
		for _, w := range warnings {
			printer.Warning("  - " + w)
		}
	}

	printer.Println("\nConfiguration summary:")
	return output.SimpleTable(printer.Writer(), [][2]string{
		{"krb5.conf", cfg.Audit.Krb5Conf},
		{"kdc.conf", cfg.Audit.KDCConf},
		{"Target", cfg.Audit.Target},
		{"Log level", cfg.Logging.Level},
	})
}
