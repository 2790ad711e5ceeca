package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for audit spans.
const (
	// ========================================================================
	// Run attributes
	// ========================================================================
	AttrRunID  = "audit.run_id"
	AttrMode   = "audit.mode"   // client, kdc, keytab
	AttrTarget = "audit.target" // platform compliance is judged against

	// ========================================================================
	// Input attributes
	// ========================================================================
	AttrPath         = "krb5.path"          // configuration or keytab path
	AttrKrb5Version  = "krb5.version"       // detected krb5 release
	AttrPrincipal    = "krb5.principal"     // principal being checked
	AttrPrincipals   = "krb5.principals"    // principals enumerated
	AttrCryptoPolicy = "krb5.crypto_policy" // active crypto-policies

	// ========================================================================
	// Result attributes
	// ========================================================================
	AttrWarnings = "audit.warnings"
	AttrFatal    = "audit.fatal"
)

// Span names, formatted <component>.<operation>.
const (
	SpanAuditClient = "audit.client"
	SpanAuditKDC    = "audit.kdc"
	SpanAuditKeytab = "audit.keytab"

	SpanDetectVersion   = "detect.krb5_version"
	SpanDetectPolicies  = "detect.crypto_policies"
	SpanParseConfig     = "krb5conf.parse"
	SpanEvaluate        = "policy.evaluate"
	SpanListPrincipals  = "kadmin.list_principals"
	SpanCheckPrincipals = "policy.check_principals"
)

// RunID returns an attribute for the audit run identifier.
func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

// Mode returns an attribute for the audit mode.
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// Target returns an attribute for the compliance target.
func Target(target string) attribute.KeyValue {
	return attribute.String(AttrTarget, target)
}

// Path returns an attribute for an input path.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// Krb5Version returns an attribute for the detected krb5 release.
func Krb5Version(v string) attribute.KeyValue {
	return attribute.String(AttrKrb5Version, v)
}

// Principals returns an attribute for the number of principals enumerated.
func Principals(n int) attribute.KeyValue {
	return attribute.Int(AttrPrincipals, n)
}

// CryptoPolicy returns an attribute for the active crypto-policies.
func CryptoPolicy(policies []string) attribute.KeyValue {
	return attribute.StringSlice(AttrCryptoPolicy, policies)
}

// Warnings returns an attribute for the number of warnings found.
func Warnings(n int) attribute.KeyValue {
	return attribute.Int(AttrWarnings, n)
}

// Fatal returns an attribute recording whether a run stopped on a fatal
// condition.
func Fatal(fatal bool) attribute.KeyValue {
	return attribute.Bool(AttrFatal, fatal)
}

// StartAuditSpan starts the root span of one audit mode.
func StartAuditSpan(ctx context.Context, name, runID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{RunID(runID)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartPhaseSpan starts a span for one phase inside an audit.
func StartPhaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}
