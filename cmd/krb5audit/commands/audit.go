package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/krb5audit/pkg/audit"
)

var (
	auditKDC           bool
	auditKrb5Conf      string
	auditKDCConf       string
	auditTarget        string
	auditFailOnWarning bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the Kerberos client (and KDC) configuration",
	Long: `Audit the Kerberos configuration of this machine.

The client audit checks krb5.conf: allow_weak_crypto, the permitted and
default enctype lists, PKINIT Diffie-Hellman sizes, Kerberos v4 leftovers
and, on krb5 1.18 or later, the system crypto-policies.

With --kdc, the KDC audit follows: kdc.conf layered over krb5.conf is
checked for realm enctypes, the master key type, +preauth, OTP RADIUS
servers, and then every principal in the local database is checked for
usable keys with kadmin.local. The KDC audit requires root.

Exit status is 1 on a fatal condition, 2 when --fail-on-warning is set and
warnings were found, and 0 otherwise.

Examples:
  # Audit the client configuration
  krb5audit audit

  # Audit client and KDC, as JSON
  sudo krb5audit audit --kdc -o json

  # Audit another file and fail on any warning
  krb5audit audit --krb5-conf ./krb5.conf --fail-on-warning`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditKDC, "kdc", false, "Also audit the KDC configuration and principal keys (requires root)")
	auditCmd.Flags().StringVar(&auditKrb5Conf, "krb5-conf", "", "Client configuration file (default from config: /etc/krb5.conf)")
	auditCmd.Flags().StringVar(&auditKDCConf, "kdc-conf", "", "KDC configuration file (default from config: /var/kerberos/krb5kdc/kdc.conf)")
	auditCmd.Flags().StringVar(&auditTarget, "target", "", "Platform findings refer to (default from config: RHEL 8)")
	auditCmd.Flags().BoolVar(&auditFailOnWarning, "fail-on-warning", false, "Exit with status 2 when warnings are found")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := auditConfig()
	if auditKrb5Conf != "" {
		cfg.Krb5Conf = auditKrb5Conf
	}
	if auditKDCConf != "" {
		cfg.KDCConf = auditKDCConf
	}
	if auditTarget != "" {
		cfg.Target = auditTarget
	}

	ctx := cmd.Context()
	runner := audit.NewRunner(cfg, app.metrics)
	report := runner.NewReport(ctx)

	err := runner.RunClient(ctx, report)
	if err == nil && auditKDC {
		_ = runner.RunKDC(ctx, report)
	}

	return finishReport(cmd, report, auditFailOnWarning)
}
