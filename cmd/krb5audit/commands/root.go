// Package commands implements the krb5audit command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configcmd "github.com/marmos91/krb5audit/cmd/krb5audit/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
	noColor      bool
	logLevel     string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "krb5audit",
	Short: "Audit Kerberos configuration for weak cryptography",
	Long: `krb5audit inspects an MIT Kerberos installation for weak or unsupported
cryptography: enctype lists in krb5.conf and kdc.conf, PKINIT parameters,
realm flags, system crypto-policies, and the keys of principals and keytabs.

It never changes anything. Findings are printed as warnings or fatal errors
with suggested remediation.

Use "krb5audit [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the command line and returns the process exit code:
// 0 on success, 1 on a fatal condition or error, 2 when warnings were
// found with --fail-on-warning.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown(context.Background())
	return exitCode(rootCmd, err)
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/krb5audit/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|table|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (DEBUG|INFO|WARN|ERROR)")

	// Add subcommands
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(keytabCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(enctypesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// ExitError carries a process exit code. Commands return it after they
// have already reported the reason, so nothing more is printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitCode maps a command error to a process exit code, printing errors
// that were not reported yet.
func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	cmd.PrintErrf("fatal: %v\n", err)
	return 1
}
