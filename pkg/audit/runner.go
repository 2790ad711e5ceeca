// Package audit runs the client, KDC and keytab audits: it gathers the
// inputs each rule set needs (configuration files, crypto policies,
// principal keys) and turns rule results into a diag.Report.
package audit

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/krb5audit/internal/cryptopolicy"
	"github.com/marmos91/krb5audit/internal/kadmin"
	"github.com/marmos91/krb5audit/internal/logger"
	"github.com/marmos91/krb5audit/internal/sysinfo"
	"github.com/marmos91/krb5audit/internal/telemetry"
	"github.com/marmos91/krb5audit/pkg/config"
	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/enctype"
	"github.com/marmos91/krb5audit/pkg/krb5conf"
	"github.com/marmos91/krb5audit/pkg/metrics"
	"github.com/marmos91/krb5audit/pkg/policy"
	"github.com/marmos91/krb5audit/pkg/profile"
)

// Version thresholds, as krb5 1.x minor numbers.
const (
	// MinSupportedMinor is the oldest release the rules are written for.
	MinSupportedMinor = 14

	// CryptoPolicyMinor is the first release that reads crypto-policies.
	CryptoPolicyMinor = 18
)

// Check names for findings raised by the runner itself.
const (
	CheckKrb5Version = "krb5_version"
	CheckPrivileges  = "privileges"
	CheckKadmin      = "kadmin"
	CheckKeytabFile  = "keytab_file"
)

// PolicySource reports the active system crypto policy and its modules.
type PolicySource interface {
	Policies(ctx context.Context) ([]string, error)
}

// SystemDetector describes the local krb5 installation and host.
type SystemDetector interface {
	Krb5Version(ctx context.Context) (sysinfo.Version, error)
	Host(ctx context.Context) diag.HostInfo
}

var (
	_ PolicySource   = (*cryptopolicy.Detector)(nil)
	_ SystemDetector = (*sysinfo.Detector)(nil)
)

// Runner runs audits. The only state it keeps between runs is the set of
// weak pkinit_dh_min_bits values already reported for the current report.
// A Runner must not be used for two runs at once.
type Runner struct {
	Config     config.AuditConfig
	Enumerator kadmin.Enumerator
	Policies   PolicySource
	Detector   SystemDetector
	Metrics    metrics.AuditMetrics

	geteuid func() int

	dhRun  string
	dhBits *policy.DHBits
}

// NewRunner returns a Runner backed by the real system commands named in
// cfg. m may be nil.
func NewRunner(cfg config.AuditConfig, m metrics.AuditMetrics) *Runner {
	return &Runner{
		Config:     cfg,
		Enumerator: kadmin.NewClient(cfg.KadminPath, cfg.CommandTimeout),
		Policies:   cryptopolicy.NewDetector(cfg.CryptoPoliciesCommand, cfg.CommandTimeout),
		Detector:   sysinfo.NewDetector(cfg.CommandTimeout),
		Metrics:    m,
		geteuid:    os.Geteuid,
	}
}

// NewReport starts a report for one audit run, describing this host.
func (r *Runner) NewReport(ctx context.Context) *diag.Report {
	return diag.NewReport(r.Detector.Host(ctx))
}

// RunClient audits the client configuration in Config.Krb5Conf.
func (r *Runner) RunClient(ctx context.Context, report *diag.Report) error {
	return r.run(ctx, report, diag.ModeClient, telemetry.SpanAuditClient, r.auditClient,
		telemetry.Path(r.Config.Krb5Conf))
}

// RunKDC audits the KDC configuration (Config.KDCConf layered over
// Config.Krb5Conf) and the key material of every principal in the local
// database. It requires root.
func (r *Runner) RunKDC(ctx context.Context, report *diag.Report) error {
	return r.run(ctx, report, diag.ModeKDC, telemetry.SpanAuditKDC, r.auditKDC,
		telemetry.Path(r.Config.KDCConf))
}

// RunKeytab audits the newest keys held in the keytab at path.
func (r *Runner) RunKeytab(ctx context.Context, report *diag.Report, path string) error {
	return r.run(ctx, report, diag.ModeKeytab, telemetry.SpanAuditKeytab,
		func(ctx context.Context) ([]diag.Diagnostic, error) { return r.auditKeytab(ctx, path) },
		telemetry.Path(path))
}

type auditFunc func(ctx context.Context) ([]diag.Diagnostic, error)

// run wraps one audit mode with its span, log context and metrics, and
// records its outcome in report. A fatal error is recorded in the report
// and also returned.
func (r *Runner) run(ctx context.Context, report *diag.Report, mode diag.Mode, spanName string, fn auditFunc, attrs ...attribute.KeyValue) error {
	start := time.Now()

	if r.dhBits == nil || r.dhRun != report.RunID {
		r.dhRun, r.dhBits = report.RunID, policy.NewDHBits()
	}

	attrs = append([]attribute.KeyValue{telemetry.Mode(string(mode)), telemetry.Target(r.target())}, attrs...)
	ctx, span := telemetry.StartAuditSpan(ctx, spanName, report.RunID, attrs...)
	defer span.End()

	lc := logger.NewLogContext(report.RunID, string(mode)).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	logger.InfoCtx(ctx, "Audit started", logger.KeyTarget, r.target())

	ds, err := fn(ctx)
	report.Append(mode, ds)
	for _, d := range ds {
		logger.DebugCtx(ctx, "Finding", logger.Check(d.Check),
			logger.KeySeverity, d.Severity.String(), logger.KeySubject, d.Subject)
		metrics.RecordFinding(r.Metrics, d.Check, d.Severity.String())
	}

	if err != nil {
		report.Fail(err)
		fatal := diag.FromError(err)
		check := fatal.Check
		if check == "" {
			check = "unclassified"
		}
		metrics.RecordFinding(r.Metrics, check, fatal.Severity.String())
		metrics.RecordRun(r.Metrics, string(mode), time.Since(start), true)

		telemetry.RecordError(ctx, err)
		span.SetAttributes(telemetry.Warnings(len(ds)), telemetry.Fatal(true))

		logger.ErrorCtx(ctx, "Audit stopped on fatal condition",
			logger.Count(len(ds)), logger.Err(err), logger.DurationMs(start))
		return err
	}

	metrics.RecordRun(r.Metrics, string(mode), time.Since(start), false)
	span.SetAttributes(telemetry.Warnings(len(ds)), telemetry.Fatal(false))
	logger.InfoCtx(ctx, "Audit finished", logger.Count(len(ds)), logger.DurationMs(start))
	return nil
}

func (r *Runner) target() string {
	if r.Config.Target == "" {
		return policy.DefaultTarget
	}
	return r.Config.Target
}

func (r *Runner) options() policy.Options {
	opts := r.Config.PolicyOptions()
	opts.DHBits = r.dhBits
	return opts
}

// krb5Minor returns the krb5 1.x minor release, refusing releases the
// rules do not cover.
func (r *Runner) krb5Minor(ctx context.Context) (int, error) {
	if r.Config.Krb5MinorVersion > 0 {
		logger.DebugCtx(ctx, "Using configured krb5 version", logger.KeyVersion, r.Config.Krb5MinorVersion)
		return r.checkMinor(r.Config.Krb5MinorVersion)
	}

	ctx, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanDetectVersion)
	defer span.End()

	v, err := r.Detector.Krb5Version(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, diag.WrapFatal(CheckKrb5Version, err, "detecting krb5 version")
	}
	span.SetAttributes(telemetry.Krb5Version(v.String()))
	return r.checkMinor(v.Minor)
}

func (r *Runner) checkMinor(minor int) (int, error) {
	if minor < MinSupportedMinor {
		return 0, diag.Fatalf(CheckKrb5Version, "krb5 < 1.%d not supported; upgrade and try again", MinSupportedMinor)
	}
	return minor, nil
}

func (r *Runner) auditClient(ctx context.Context) ([]diag.Diagnostic, error) {
	minor, err := r.krb5Minor(ctx)
	if err != nil {
		return nil, err
	}

	var c diag.Collector
	if minor >= CryptoPolicyMinor {
		ds, err := r.cryptoPolicies(ctx)
		if err != nil {
			return c.Diagnostics(), err
		}
		c.Add(ds...)
	}

	prof, err := r.parse(ctx, r.Config.Krb5Conf, krb5conf.DefaultDialect)
	if err != nil {
		return c.Diagnostics(), err
	}

	ds, err := r.evaluate(ctx, func() ([]diag.Diagnostic, error) {
		return policy.CheckClient(prof, r.options())
	})
	c.Add(ds...)
	return c.Diagnostics(), err
}

func (r *Runner) cryptoPolicies(ctx context.Context) ([]diag.Diagnostic, error) {
	ctx, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanDetectPolicies)
	defer span.End()

	policies, err := r.Policies.Policies(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, diag.WrapFatal(policy.CheckCryptoPolicy, err, "reading crypto-policies")
	}
	span.SetAttributes(telemetry.CryptoPolicy(policies))
	logger.DebugCtx(ctx, "Crypto policies", logger.Count(len(policies)))
	return policy.CheckCryptoPolicies(policies), nil
}

func (r *Runner) parse(ctx context.Context, path string, d krb5conf.Dialect) (profile.Profile, error) {
	_, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanParseConfig, telemetry.Path(path))
	defer span.End()

	tree, err := krb5conf.ParseWithDialect(path, d)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return profile.FromTree(tree), nil
}

func (r *Runner) evaluate(ctx context.Context, fn func() ([]diag.Diagnostic, error)) ([]diag.Diagnostic, error) {
	_, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanEvaluate)
	defer span.End()

	ds, err := fn()
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(telemetry.Warnings(len(ds)))
	return ds, err
}

func (r *Runner) auditKDC(ctx context.Context) ([]diag.Diagnostic, error) {
	geteuid := r.geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if geteuid() != 0 {
		return nil, diag.Fatalf(CheckPrivileges, "KDC checks require root privileges")
	}

	if _, err := r.krb5Minor(ctx); err != nil {
		return nil, err
	}

	client, err := r.parse(ctx, r.Config.Krb5Conf, krb5conf.DefaultDialect)
	if err != nil {
		return nil, err
	}
	kdc, err := r.parse(ctx, r.Config.KDCConf, krb5conf.KDCDialect)
	if err != nil {
		return nil, err
	}
	prof := profile.Layered(kdc, client)
	for _, realm := range prof.Section("realms") {
		if realm.Section {
			logger.DebugCtx(ctx, "Checking realm", logger.Realm(realm.Name))
		}
	}

	var c diag.Collector
	ds, err := r.evaluate(ctx, func() ([]diag.Diagnostic, error) {
		return policy.CheckKDC(prof, r.options())
	})
	c.Add(ds...)
	if err != nil {
		return c.Diagnostics(), err
	}

	keys, err := r.principalKeys(ctx)
	if err != nil {
		return c.Diagnostics(), err
	}

	ctx, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanCheckPrincipals, telemetry.Principals(len(keys)))
	defer span.End()
	ds, err = policy.CheckPrincipals(keys, r.options())
	if err != nil {
		span.RecordError(err)
		return c.Diagnostics(), err
	}
	logger.DebugCtx(ctx, "Checked principals", logger.Count(len(keys)))
	c.Add(ds...)
	return c.Diagnostics(), nil
}

// principalKeys enumerates every principal in the local database with
// its key/salt pairs.
func (r *Runner) principalKeys(ctx context.Context) ([]policy.PrincipalKeys, error) {
	ctx, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanListPrincipals)
	defer span.End()

	names, err := r.Enumerator.ListPrincipals(ctx)
	if err != nil {
		return nil, kadminFailure(span, err, "listing principals")
	}
	span.SetAttributes(telemetry.Principals(len(names)))

	keys := make([]policy.PrincipalKeys, 0, len(names))
	for _, name := range names {
		keysalts, err := r.Enumerator.Keysalts(ctx, name)
		if err != nil {
			return nil, kadminFailure(span, err, "reading keys of %s", name)
		}
		logger.DebugCtx(ctx, "Principal keys", logger.Principal(name), logger.Count(len(keysalts)))
		keys = append(keys, policy.PrincipalKeys{Name: name, Keysalts: keysalts})
	}
	return keys, nil
}

func kadminFailure(span trace.Span, err error, format string, args ...any) error {
	span.RecordError(err)
	return diag.WrapFatal(CheckKadmin, err, format, args...)
}

func (r *Runner) auditKeytab(ctx context.Context, path string) ([]diag.Diagnostic, error) {
	kt, err := keytab.Load(path)
	if err != nil {
		return nil, diag.WrapFatal(CheckKeytabFile, err, "reading keytab %s", path)
	}
	logger.DebugCtx(ctx, "Loaded keytab", logger.Path(path), logger.Count(len(kt.Entries)))
	for _, e := range kt.Entries {
		if class, ok := enctype.ByIANA(e.Key.KeyType); ok {
			logger.DebugCtx(ctx, "Keytab entry",
				logger.Principal(strings.Join(e.Principal.Components, "/")+"@"+e.Principal.Realm),
				logger.Enctype(class.ID), logger.KeyKVNO, e.KVNO)
		}
	}

	return r.evaluate(ctx, func() ([]diag.Diagnostic, error) {
		return policy.CheckKeytab(kt, r.options())
	})
}

// Summary is a one-line description of a finished report.
func Summary(report *diag.Report) string {
	if report.Fatal() {
		return fmt.Sprintf("audit failed with %d warning(s) before the fatal condition", report.Warnings())
	}
	return fmt.Sprintf("audit finished with %d warning(s)", report.Warnings())
}
