package profile

import "github.com/marmos91/krb5audit/pkg/krb5conf"

// FromTree exposes a parsed configuration file as a Profile.
func FromTree(t *krb5conf.Tree) Profile {
	return view{entries: func(path ...string) []Entry {
		return treeEntries(t, path)
	}}
}

func treeEntries(t *krb5conf.Tree, path []string) []Entry {
	sec, ok := t.Section(path[0])
	if !ok {
		return nil
	}

	if sec.Kind == krb5conf.KindFlat {
		if len(path) > 1 {
			return nil
		}
		var out []Entry
		for _, key := range sec.Flat.Keys() {
			v, _ := sec.Flat.Get(key)
			out = append(out, Value(key, v))
		}
		return out
	}

	switch len(path) {
	case 1:
		var out []Entry
		for _, name := range sec.Stanzas.Names() {
			st, _ := sec.Stanzas.Stanza(name)
			out = append(out, Sub(name, stanzaEntries(st)...))
		}
		return out
	case 2:
		st, ok := sec.Stanzas.Stanza(path[1])
		if !ok {
			return nil
		}
		return stanzaEntries(st)
	default:
		return nil
	}
}

func stanzaEntries(st *krb5conf.Stanza) []Entry {
	var out []Entry
	for _, key := range st.Keys() {
		for _, v := range st.Values(key) {
			out = append(out, Value(key, v))
		}
	}
	return out
}

// Layered stacks profiles the way libkrb5 stacks profile files: scalar
// lookups return the first layer's value, and section iteration yields
// the relations of every layer in order. Subsections with the same name in
// several layers are combined into one.
func Layered(layers ...Profile) Profile {
	return view{entries: func(path ...string) []Entry {
		var all []Entry
		for _, l := range layers {
			all = append(all, l.Section(path...)...)
		}
		return combine(all)
	}}
}

func combine(entries []Entry) []Entry {
	var out []Entry
	index := make(map[string]int)
	for _, e := range entries {
		if !e.Section {
			out = append(out, e)
			continue
		}
		if i, ok := index[e.Name]; ok {
			merged := out[i]
			merged.Children = append(append([]Entry(nil), merged.Children...), e.Children...)
			out[i] = merged
			continue
		}
		index[e.Name] = len(out)
		out = append(out, e)
	}
	return out
}

// Static is an in-memory Profile keyed by top-level section name.
type Static map[string][]Entry

// Section implements Profile.
func (s Static) Section(path ...string) []Entry {
	return s.view().Section(path...)
}

// String implements Profile.
func (s Static) String(section, key string) (string, bool) {
	return s.view().String(section, key)
}

// Bool implements Profile.
func (s Static) Bool(section, key string, def bool) (bool, error) {
	return s.view().Bool(section, key, def)
}

// Integer implements Profile.
func (s Static) Integer(section, key string) (int, bool, error) {
	return s.view().Integer(section, key)
}

func (s Static) view() view {
	return view{entries: func(path ...string) []Entry {
		entries := s[path[0]]
		for _, name := range path[1:] {
			var next []Entry
			for _, e := range entries {
				if e.Section && e.Name == name {
					next = append(next, e.Children...)
				}
			}
			entries = next
		}
		return entries
	}}
}
