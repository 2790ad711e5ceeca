package config

import (
	"fmt"

	"github.com/marmos91/krb5audit/internal/cli/output"
	"github.com/marmos91/krb5audit/pkg/config"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration krb5audit would run with: the config file (if
any) merged with KRB5AUDIT_* environment variables and defaults.

Examples:
  # Show as YAML
  krb5audit config show

  # Show as JSON
  krb5audit config show -o json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	// Text has no natural rendering for a config tree.
	if format == output.FormatText || format == output.FormatTable {
		format = output.FormatYAML
	}

	if err := output.NewPrinter(cmd.OutOrStdout(), format, false).Print(cfg); err != nil {
		return fmt.Errorf("failed to print config: %w", err)
	}
	return nil
}
