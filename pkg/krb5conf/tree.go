package krb5conf

// FlatSection maps each key to exactly one value.
type FlatSection struct {
	keys   []string
	values map[string]string
}

func newFlatSection() *FlatSection {
	return &FlatSection{values: make(map[string]string)}
}

// Get returns the value assigned to key.
func (s *FlatSection) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys returns keys in order of first appearance.
func (s *FlatSection) Keys() []string {
	if s == nil {
		return nil
	}
	return s.keys
}

// Len returns the number of assignments.
func (s *FlatSection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Stanza is one "name = { ... }" block. Keys may carry several values.
type Stanza struct {
	Name   string
	keys   []string
	values map[string][]string
}

func newStanza(name string) *Stanza {
	return &Stanza{Name: name, values: make(map[string][]string)}
}

func (s *Stanza) add(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = append(s.values[key], value)
}

// Values returns every value of key in order of appearance.
func (s *Stanza) Values(key string) []string {
	if s == nil {
		return nil
	}
	return s.values[key]
}

// Get returns the first value of key.
func (s *Stanza) Get(key string) (string, bool) {
	vs := s.Values(key)
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Has reports whether key is assigned at least once.
func (s *Stanza) Has(key string) bool {
	return len(s.Values(key)) > 0
}

// Keys returns keys in order of first appearance.
func (s *Stanza) Keys() []string {
	if s == nil {
		return nil
	}
	return s.keys
}

// StanzaSection maps stanza names to their blocks.
type StanzaSection struct {
	names   []string
	stanzas map[string]*Stanza
}

func newStanzaSection() *StanzaSection {
	return &StanzaSection{stanzas: make(map[string]*Stanza)}
}

// stanza returns the named block, creating it on first use so that blocks
// repeated across merged files accumulate into one.
func (s *StanzaSection) stanza(name string) *Stanza {
	st, ok := s.stanzas[name]
	if !ok {
		st = newStanza(name)
		s.stanzas[name] = st
		s.names = append(s.names, name)
	}
	return st
}

// Names returns stanza names in order of first appearance.
func (s *StanzaSection) Names() []string {
	if s == nil {
		return nil
	}
	return s.names
}

// Stanza returns the named block.
func (s *StanzaSection) Stanza(name string) (*Stanza, bool) {
	if s == nil {
		return nil, false
	}
	st, ok := s.stanzas[name]
	return st, ok
}

// Len returns the number of stanzas.
func (s *StanzaSection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Section is one parsed section. Exactly one of Flat and Stanzas is set,
// according to Kind.
type Section struct {
	Name    string
	Kind    Kind
	Flat    *FlatSection
	Stanzas *StanzaSection
}

// Tree is a parsed configuration. Only non-empty sections are present.
type Tree struct {
	dialect  Dialect
	sections map[string]*Section
}

// Sections returns the names of the present sections in dialect order.
func (t *Tree) Sections() []string {
	var names []string
	for _, spec := range t.dialect {
		if _, ok := t.sections[spec.Name]; ok {
			names = append(names, spec.Name)
		}
	}
	return names
}

// Section returns the named section.
func (t *Tree) Section(name string) (*Section, bool) {
	s, ok := t.sections[name]
	return s, ok
}

// Flat returns the named flat section, or nil when it is absent or is not
// a flat section.
func (t *Tree) Flat(name string) *FlatSection {
	if s, ok := t.sections[name]; ok && s.Kind == KindFlat {
		return s.Flat
	}
	return nil
}

// Stanzas returns the named stanza section, or nil when it is absent or is
// not a stanza section.
func (t *Tree) Stanzas(name string) *StanzaSection {
	if s, ok := t.sections[name]; ok && s.Kind == KindStanza {
		return s.Stanzas
	}
	return nil
}

// Get looks up key in the named flat section.
func (t *Tree) Get(section, key string) (string, bool) {
	return t.Flat(section).Get(key)
}

// Dialect returns the dialect the tree was parsed with.
func (t *Tree) Dialect() Dialect {
	return t.dialect
}
