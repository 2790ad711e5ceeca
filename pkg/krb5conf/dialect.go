package krb5conf

// Kind is the structural shape of a configuration section.
type Kind int

const (
	// KindFlat sections hold "key = value" assignments; keys are unique.
	KindFlat Kind = iota
	// KindStanza sections hold "name = { ... }" blocks whose keys may repeat.
	KindStanza
)

func (k Kind) String() string {
	if k == KindStanza {
		return "stanza"
	}
	return "flat"
}

// SectionSpec declares one section name accepted by a Dialect.
type SectionSpec struct {
	Name string
	Kind Kind
}

// Dialect is the closed set of section names a parse accepts, in the order
// sections are reported and printed.
type Dialect []SectionSpec

// DefaultDialect is the krb5.conf/kdc.conf section set.
var DefaultDialect = Dialect{
	{Name: "libdefaults", Kind: KindFlat},
	{Name: "realms", Kind: KindStanza},
	{Name: "domain_realm", Kind: KindFlat},
	{Name: "capaths", Kind: KindStanza},
	{Name: "appdefaults", Kind: KindStanza},
	{Name: "plugins", Kind: KindStanza},
	{Name: "kdcdefaults", Kind: KindFlat},
	{Name: "dbdefaults", Kind: KindFlat},
	{Name: "dbmodules", Kind: KindStanza},
	{Name: "logging", Kind: KindFlat},
}

// KDCDialect extends DefaultDialect with the kdc.conf [otp] section.
var KDCDialect = append(append(Dialect{}, DefaultDialect...), SectionSpec{Name: "otp", Kind: KindStanza})

// Kind returns the kind of the named section and whether the dialect
// accepts it at all.
func (d Dialect) Kind(name string) (Kind, bool) {
	for _, s := range d {
		if s.Name == name {
			return s.Kind, true
		}
	}
	return KindFlat, false
}

// Names returns the accepted section names in canonical order.
func (d Dialect) Names() []string {
	names := make([]string, len(d))
	for i, s := range d {
		names[i] = s.Name
	}
	return names
}
