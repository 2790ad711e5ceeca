package policy

import (
	"fmt"
	"strings"

	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/enctype"
)

// Category classifies a principal by the remediation its keys need.
type Category int

const (
	CategoryUser Category = iota
	CategoryService
	CategoryMasterKey
	CategoryTGS
	CategoryCrossRealm
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryService:
		return "service"
	case CategoryMasterKey:
		return "master_key"
	case CategoryTGS:
		return "tgs"
	case CategoryCrossRealm:
		return "cross_realm"
	default:
		return "unknown"
	}
}

// Principal is a parsed principal name.
type Principal struct {
	Name     string
	Short    string
	Realm    string
	Category Category

	// DestRealm is the realm a krbtgt principal issues tickets for.
	DestRealm string
}

// ParsePrincipal splits name at its last "@" and categorizes it.
func ParsePrincipal(name string) (Principal, error) {
	i := strings.LastIndex(name, "@")
	if i < 0 {
		return Principal{}, diag.Fatalf(CheckPrincipalName, "malformed principal name: %s", name)
	}
	p := Principal{Name: name, Short: name[:i], Realm: name[i+1:]}

	switch {
	case p.Short == "K/M":
		p.Category = CategoryMasterKey
	case strings.HasPrefix(p.Short, "krbtgt/"):
		p.DestRealm = strings.TrimPrefix(p.Short, "krbtgt/")
		if p.DestRealm == p.Realm {
			p.Category = CategoryTGS
		} else {
			p.Category = CategoryCrossRealm
		}
	case strings.Contains(p.Short, "/"):
		p.Category = CategoryService
	default:
		p.Category = CategoryUser
	}
	return p, nil
}

// Subject names the principal in findings.
func (p Principal) Subject() string {
	switch p.Category {
	case CategoryMasterKey:
		return "the K/M principal (database master key)"
	case CategoryTGS:
		return "the krbtgt principal (ticket granting service key)"
	case CategoryCrossRealm:
		return "cross-realm principal for " + p.DestRealm
	default:
		return fmt.Sprintf("the %s principal", p.Short)
	}
}

// Remediation returns advisory steps for rekeying the principal.
func (p Principal) Remediation() []string {
	switch p.Category {
	case CategoryMasterKey:
		return []string{
			"Use kdb5_util to fix. Suggested commands:",
			"kdb5_util add_mkey -e aes256-cts-hmac-sha384-192 -s",
			"kdb5_util list_mkeys # take the highest KVNO",
			"kdb5_util use_mkey <KVNO> # use KVNO from previous command",
			"kdb5_util update_princ_encryption # will prompt",
			"kdb5_util purge_mkeys",
		}
	case CategoryTGS:
		return []string{
			fmt.Sprintf("kadmin.local -q 'cpw -randkey -keepold %s'", p.Name),
			"Purge the old keys with kadmin purgekeys once the maximum ticket lifetime has passed.",
		}
	case CategoryCrossRealm:
		return []string{
			fmt.Sprintf("Rekey %s in both %s and %s with the same password and strong enctypes:", p.Name, p.Realm, p.DestRealm),
			fmt.Sprintf("kadmin -q 'cpw -e aes256-cts-hmac-sha1-96:normal,aes128-cts-hmac-sha1-96:normal %s'", p.Name),
		}
	case CategoryService:
		return []string{
			"The principal needs to be rekeyed, and all keytabs updated.",
			"(Typically it is sufficient to generate new keytabs and move them to the relevant servers.)",
		}
	default:
		return []string{
			"The principal needs to be rekeyed. Usually, this can be fixed with kpasswd or kadmin change_password.",
		}
	}
}

// PrincipalKeys is a principal's key material as reported by kadmin:
// one enctype:salt token per key.
type PrincipalKeys struct {
	Name     string
	Keysalts []string
}

// CheckPrincipal warns when a principal has no acceptable key.
func CheckPrincipal(keys PrincipalKeys, opts Options) ([]diag.Diagnostic, error) {
	opts = opts.withDefaults()

	p, err := ParsePrincipal(keys.Name)
	if err != nil {
		return nil, err
	}
	if len(keys.Keysalts) == 0 {
		return nil, nil
	}

	ds, err := enctype.EnsureHasGood(strings.Join(keys.Keysalts, " "), p.Subject(), opts.Target)
	if err != nil {
		return nil, fmt.Errorf("principal %s: %w", p.Name, err)
	}
	return withRemediation(ds, p.Remediation()), nil
}

// CheckPrincipals runs CheckPrincipal over every principal in order,
// stopping at the first fatal error.
func CheckPrincipals(all []PrincipalKeys, opts Options) ([]diag.Diagnostic, error) {
	var c diag.Collector
	for _, keys := range all {
		ds, err := CheckPrincipal(keys, opts)
		if err != nil {
			return nil, err
		}
		c.Add(ds...)
	}
	return c.Diagnostics(), nil
}

func withRemediation(ds []diag.Diagnostic, lines []string) []diag.Diagnostic {
	for i := range ds {
		ds[i] = ds[i].WithRemediation(lines...)
	}
	return ds
}
