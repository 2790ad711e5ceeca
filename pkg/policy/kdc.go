package policy

import (
	"strings"

	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/enctype"
	"github.com/marmos91/krb5audit/pkg/profile"
)

// CheckKDC evaluates the KDC view of the configuration: kdc.conf layered
// over krb5.conf.
func CheckKDC(p profile.Profile, opts Options) ([]diag.Diagnostic, error) {
	opts = opts.withDefaults()
	var c diag.Collector

	permitted, ok := p.String("libdefaults", "permitted_enctypes")
	if !ok {
		permitted = opts.DefaultEnctypes
	}
	ds, err := enctype.CheckList(permitted, "KDC permitted_enctypes", opts.Target)
	if err != nil {
		return c.Diagnostics(), err
	}
	c.Add(ds...)

	for _, otp := range p.Section("otp") {
		if !otp.Section {
			continue
		}
		servers := otp.Values("server")
		if len(servers) > 0 && !strings.HasPrefix(servers[0], "/") {
			c.Warn(CheckOTPRadius, otp.Name, "OTP type %s configures RADIUS", otp.Name)
		}
	}

	dh := newDHValues()
	if err := dh.addInteger(p, "kdcdefaults"); err != nil {
		return c.Diagnostics(), err
	}

	realms := realmStanzas(p)
	if len(realms) == 0 {
		return c.Diagnostics(), diag.Fatalf(CheckRealms, "No realms found checking KDC configuration")
	}

	for _, realm := range realms {
		hasPreauth := false
		for _, rel := range realm.Children {
			if rel.Section {
				continue
			}
			switch rel.Name {
			case "pkinit_dh_min_bits":
				if err := dh.addAll([]string{rel.Value}); err != nil {
					return c.Diagnostics(), err
				}
			case "master_key_type":
				ds, err := enctype.CheckList(rel.Value, "master_key_type", opts.Target)
				if err != nil {
					return c.Diagnostics(), err
				}
				c.Add(ds...)
			case "supported_enctypes":
				ds, err := enctype.CheckKeysaltList(rel.Value, "supported_enctypes", opts.Target)
				if err != nil {
					return c.Diagnostics(), err
				}
				c.Add(ds...)
			case "default_principal_flags":
				hasPreauth = hasFlag(rel.Value, "+preauth")
			}
		}
		if !hasPreauth {
			c.Warn(CheckPreauth, realm.Name, "%s doesn't set +preauth in default_principal_flags", realm.Name)
		}
	}

	c.Add(dh.check(opts.MinDHBits, opts.DHBits)...)
	return c.Diagnostics(), nil
}

func realmStanzas(p profile.Profile) []profile.Entry {
	var out []profile.Entry
	for _, e := range p.Section("realms") {
		if e.Section {
			out = append(out, e)
		}
	}
	return out
}

// hasFlag reports whether a comma or space separated flag list contains flag.
func hasFlag(list, flag string) bool {
	for _, f := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		if f == flag {
			return true
		}
	}
	return false
}

// CheckCryptoPolicies warns about active system crypto-policy modules that
// re-enable weak Kerberos cryptography.
func CheckCryptoPolicies(policies []string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, policy := range policies {
		switch policy {
		case "AD-SUPPORT":
			out = append(out, diag.Warning(CheckCryptoPolicy, policy, "RC4 (weak) permitted by crypto-policies!"))
		case "LEGACY":
			out = append(out, diag.Warning(CheckCryptoPolicy, policy, "Legacy (insecure) algorithms permitted by crypto-policies!"))
		}
	}
	return out
}
