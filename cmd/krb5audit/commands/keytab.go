package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/krb5audit/pkg/audit"
)

var keytabFailOnWarning bool

var keytabCmd = &cobra.Command{
	Use:   "keytab <path>...",
	Short: "Audit the keys held in keytab files",
	Long: `Audit the newest key version of every principal in one or more keytabs.

A principal is reported when none of its current keys uses an enctype the
target platform supports, or none uses a secure enctype. Entries with
enctype numbers krb5audit does not know are fatal.

Examples:
  # Audit the host keytab
  sudo krb5audit keytab /etc/krb5.keytab

  # Audit several service keytabs as a table
  krb5audit keytab -o table /etc/httpd.keytab /etc/nfs.keytab`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKeytab,
}

func init() {
	keytabCmd.Flags().BoolVar(&keytabFailOnWarning, "fail-on-warning", false, "Exit with status 2 when warnings are found")
}

func runKeytab(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runner := audit.NewRunner(auditConfig(), app.metrics)
	report := runner.NewReport(ctx)

	for _, path := range args {
		if err := runner.RunKeytab(ctx, report, path); err != nil {
			break
		}
	}

	return finishReport(cmd, report, keytabFailOnWarning)
}
