package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/krb5audit/internal/logger"
	"github.com/marmos91/krb5audit/internal/watch"
	"github.com/marmos91/krb5audit/pkg/audit"
)

var (
	watchKrb5Conf string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the client audit whenever the configuration changes",
	Long: `Run the client audit, then watch krb5.conf and every file it includes
and run it again after each change. Audits never overlap: changes made
while an audit runs trigger one more audit once it finishes.

Press Ctrl+C to stop.

Examples:
  # Watch the default configuration
  krb5audit watch

  # Watch a development copy, waiting two seconds after the last change
  krb5audit watch --krb5-conf ./krb5.conf --debounce 2s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchKrb5Conf, "krb5-conf", "", "Client configuration file (default from config: /etc/krb5.conf)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period after a change before re-auditing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := auditConfig()
	if watchKrb5Conf != "" {
		cfg.Krb5Conf = watchKrb5Conf
	}

	w, err := watch.New(cfg.Krb5Conf, watchDebounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	runner := audit.NewRunner(cfg, app.metrics)
	runOnce := func(ctx context.Context) {
		report := runner.NewReport(ctx)
		_ = runner.RunClient(ctx, report)
		if err := finishReport(cmd, report, false); err != nil {
			logger.Debug("Audit reported a fatal condition", logger.KeyRunID, report.RunID)
		}
	}

	ctx := cmd.Context()
	runOnce(ctx)
	logger.Info("Watching for configuration changes", logger.Path(cfg.Krb5Conf))
	return w.Run(ctx, runOnce)
}
