package policy

import (
	"strings"

	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/marmos91/krb5audit/pkg/enctype"
)

// KeytabPrincipal is the newest key set held in a keytab for one principal.
type KeytabPrincipal struct {
	Name    string
	KVNO    uint32
	Classes enctype.Set
}

// KeytabPrincipals groups keytab entries by principal, keeping only the
// highest key version of each, in order of first appearance. Entries with
// enctype numbers outside the registry are fatal.
func KeytabPrincipals(kt *keytab.Keytab) ([]KeytabPrincipal, error) {
	var order []string
	byName := make(map[string]*KeytabPrincipal)

	for _, e := range kt.Entries {
		name := strings.Join(e.Principal.Components, "/") + "@" + e.Principal.Realm

		class, ok := enctype.ByIANA(e.Key.KeyType)
		if !ok {
			return nil, diag.Fatalf(CheckKeytabEntry, "keytab entry for %s uses unknown enctype %d", name, e.Key.KeyType)
		}

		kvno := e.KVNO
		if kvno == 0 {
			kvno = uint32(e.KVNO8)
		}

		kp, seen := byName[name]
		if !seen {
			kp = &KeytabPrincipal{Name: name, KVNO: kvno, Classes: enctype.NewSet()}
			byName[name] = kp
			order = append(order, name)
		}
		switch {
		case kvno > kp.KVNO:
			kp.KVNO = kvno
			kp.Classes = enctype.NewSet(class.ID)
		case kvno == kp.KVNO:
			kp.Classes.Add(class.ID)
		}
	}

	out := make([]KeytabPrincipal, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

// CheckKeytab warns about keytab principals whose current keys are all
// unsupported on the target or all insecure.
func CheckKeytab(kt *keytab.Keytab, opts Options) ([]diag.Diagnostic, error) {
	opts = opts.withDefaults()

	principals, err := KeytabPrincipals(kt)
	if err != nil {
		return nil, err
	}

	var c diag.Collector
	for _, kp := range principals {
		subject := "keytab entry " + kp.Name
		// Keytabs do not record salts, so only enctypes are judged.
		ds := enctype.EnsureHasGoodSets(kp.Classes, enctype.NewSaltSet(), subject, opts.Target)
		c.Add(withRemediation(ds, []string{
			"Rekey the principal, then regenerate the keytab with kadmin ktadd or ktutil.",
		})...)
	}
	return c.Diagnostics(), nil
}
