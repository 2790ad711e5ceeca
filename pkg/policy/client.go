package policy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/enctype"
	"github.com/marmos91/krb5audit/pkg/profile"
)

var v4Keys = []string{"v4_realm", "v4_instance_convert"}

// CheckClient evaluates the client-side libdefaults and realm settings.
func CheckClient(p profile.Profile, opts Options) ([]diag.Diagnostic, error) {
	opts = opts.withDefaults()
	var c diag.Collector

	weak, err := p.Bool("libdefaults", "allow_weak_crypto", false)
	if err != nil {
		return c.Diagnostics(), diag.WrapFatal(CheckWeakCrypto, err, "reading allow_weak_crypto")
	}
	if weak {
		return c.Diagnostics(), diag.Fatalf(CheckWeakCrypto, "allow_weak_crypto enabled (turns on very broken cryptography)")
	}

	permitted, ok := p.String("libdefaults", "permitted_enctypes")
	if !ok {
		permitted = opts.DefaultEnctypes
	}
	ds, err := enctype.CheckList(permitted, "permitted_enctypes", opts.Target)
	if err != nil {
		return c.Diagnostics(), err
	}
	c.Add(ds...)

	// These inherit from permitted_enctypes when unset.
	for _, key := range []string{"default_tgs_enctypes", "default_tkt_enctypes"} {
		raw, ok := p.String("libdefaults", key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		ds, err := enctype.CheckList(raw, key, opts.Target)
		if err != nil {
			return c.Diagnostics(), err
		}
		c.Add(ds...)
	}

	dh := newDHValues()
	if err := dh.addInteger(p, "libdefaults"); err != nil {
		return c.Diagnostics(), err
	}

	for _, realm := range p.Section("realms") {
		if !realm.Section {
			continue
		}
		for _, key := range v4Keys {
			if len(realm.Values(key)) > 0 {
				c.Warn(CheckV4Config, realm.Name, "Kerberos v4 configuration found for %s", realm.Name)
				break
			}
		}
		if err := dh.addAll(realm.Values("pkinit_dh_min_bits")); err != nil {
			return c.Diagnostics(), err
		}
	}

	// Realm names are conventionally uppercase and krb5 relations never are,
	// so uppercase subsections of libdefaults are per-realm overrides.
	for _, stanza := range p.Section("libdefaults") {
		if !stanza.Section || !isUpper(stanza.Name) {
			continue
		}
		if err := dh.addAll(stanza.Values("pkinit_dh_min_bits")); err != nil {
			return c.Diagnostics(), err
		}
	}

	c.Add(dh.check(opts.MinDHBits, opts.DHBits)...)
	return c.Diagnostics(), nil
}

// isUpper reports whether s has at least one cased letter and no lowercase
// ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// dhValues collects distinct explicit pkinit_dh_min_bits settings.
type dhValues map[int]struct{}

func newDHValues() dhValues {
	return make(dhValues)
}

func (d dhValues) addInteger(p profile.Profile, section string) error {
	n, ok, err := p.Integer(section, "pkinit_dh_min_bits")
	if err != nil {
		return diag.WrapFatal(CheckDHMinBits, err, "invalid pkinit_dh_min_bits")
	}
	if ok {
		d[n] = struct{}{}
	}
	return nil
}

func (d dhValues) addAll(raw []string) error {
	for _, v := range raw {
		n, err := profile.ParseInt(v)
		if err != nil {
			return diag.WrapFatal(CheckDHMinBits, err, "invalid pkinit_dh_min_bits")
		}
		d[n] = struct{}{}
	}
	return nil
}

// DHBits records the weak pkinit_dh_min_bits values already reported.
type DHBits struct {
	reported map[int]bool
}

// NewDHBits returns an empty DHBits.
func NewDHBits() *DHBits {
	return &DHBits{reported: make(map[int]bool)}
}

// Reported returns the values warned about so far, ascending.
func (b *DHBits) Reported() []int {
	out := make([]int, 0, len(b.reported))
	for v := range b.reported {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// check warns once per distinct value below minBits, in ascending order,
// skipping values already in shared.
func (d dhValues) check(minBits int, shared *DHBits) []diag.Diagnostic {
	values := make([]int, 0, len(d))
	for v := range d {
		values = append(values, v)
	}
	sort.Ints(values)

	var out []diag.Diagnostic
	for _, v := range values {
		if v >= minBits {
			continue
		}
		if shared != nil {
			if shared.reported[v] {
				continue
			}
			shared.reported[v] = true
		}
		out = append(out, diag.Warning(CheckDHMinBits, "pkinit_dh_min_bits",
			"Weak value for pkinit_dh_min_bits: %d", v))
	}
	return out
}
