// Package policy evaluates Kerberos configuration and key material against
// the compliance rules: enctype lists, PKINIT parameters, realm flags, OTP
// settings, crypto-policies and per-principal keys.
//
// Every rule returns warnings as diagnostics and fatal conditions as errors.
// Rules never modify configuration or keys.
package policy

// DefaultTarget is the platform compatibility is judged against.
const DefaultTarget = "RHEL 8"

// DefaultEnctypes is libkrb5's built-in permitted_enctypes list, used when
// the configuration does not set one.
const DefaultEnctypes = "aes256-cts-hmac-sha1-96 aes128-cts-hmac-sha1-96 " +
	"aes256-cts-hmac-sha384-192 aes128-cts-hmac-sha256-128 des3-cbc-sha1 " +
	"arcfour-hmac-md5 camellia256-cts-cmac camellia128-cts-cmac"

// DefaultMinDHBits is the smallest pkinit_dh_min_bits not reported as weak.
const DefaultMinDHBits = 2048

// Options tune rule evaluation.
type Options struct {
	// Target names the platform in compatibility findings.
	Target string

	// MinDHBits is the threshold below which pkinit_dh_min_bits is weak.
	MinDHBits int

	// DefaultEnctypes replaces permitted_enctypes when it is unset.
	DefaultEnctypes string

	// DHBits, when set, is shared by every check contributing to one
	// report, so each weak pkinit_dh_min_bits value is reported once even
	// when the client and KDC views both contain it.
	DHBits *DHBits
}

// DefaultOptions returns the options matching libkrb5 defaults.
func DefaultOptions() Options {
	return Options{
		Target:          DefaultTarget,
		MinDHBits:       DefaultMinDHBits,
		DefaultEnctypes: DefaultEnctypes,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Target == "" {
		o.Target = d.Target
	}
	if o.MinDHBits <= 0 {
		o.MinDHBits = d.MinDHBits
	}
	if o.DefaultEnctypes == "" {
		o.DefaultEnctypes = d.DefaultEnctypes
	}
	return o
}

// Check names for the findings produced by this package. Enctype list
// findings carry the names defined by package enctype.
const (
	CheckWeakCrypto    = "allow_weak_crypto"
	CheckDHMinBits     = "pkinit_dh_min_bits"
	CheckV4Config      = "v4_config"
	CheckPreauth       = "preauth"
	CheckOTPRadius     = "otp_radius"
	CheckCryptoPolicy  = "crypto_policy"
	CheckRealms        = "realms"
	CheckPrincipalName = "principal_name"
	CheckKeytabEntry   = "keytab_entry"
)
