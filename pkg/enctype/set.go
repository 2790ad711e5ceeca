package enctype

import (
	"sort"

	"github.com/marmos91/krb5audit/pkg/diag"
)

// Set is a set of canonical class ids.
type Set map[string]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids.
func (s Set) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Union inserts every member of o.
func (s Set) Union(o Set) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// String renders the set as "[a, b]".
func (s Set) String() string {
	return diag.FormatList(s.Sorted())
}

// Legacy returns the members unsupported on the target platform.
func (s Set) Legacy() Set {
	return s.filter(isLegacy)
}

// Broken returns the insecure members.
func (s Set) Broken() Set {
	return s.filter(isBroken)
}

func (s Set) filter(keep func(string) bool) Set {
	out := make(Set)
	for id := range s {
		if keep(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// allOf reports whether s is non-empty and every member satisfies pred.
func (s Set) allOf(pred func(string) bool) bool {
	if len(s) == 0 {
		return false
	}
	for id := range s {
		if !pred(id) {
			return false
		}
	}
	return true
}

// SaltSet is a set of salts.
type SaltSet map[Salt]struct{}

// NewSaltSet returns a set holding salts.
func NewSaltSet(salts ...Salt) SaltSet {
	s := make(SaltSet, len(salts))
	for _, salt := range salts {
		s[salt] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s SaltSet) Has(salt Salt) bool {
	_, ok := s[salt]
	return ok
}

// Sorted returns the members in lexical order.
func (s SaltSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for salt := range s {
		out = append(out, string(salt))
	}
	sort.Strings(out)
	return out
}

// String renders the set as "[a, b]".
func (s SaltSet) String() string {
	return diag.FormatList(s.Sorted())
}

// Legacy returns the members unsupported on the target platform.
func (s SaltSet) Legacy() SaltSet {
	out := make(SaltSet)
	for salt := range s {
		if salt.Legacy() {
			out[salt] = struct{}{}
		}
	}
	return out
}

// Abnormal returns every member other than the default salt.
func (s SaltSet) Abnormal() SaltSet {
	out := make(SaltSet)
	for salt := range s {
		if salt != SaltNormal {
			out[salt] = struct{}{}
		}
	}
	return out
}

func (s SaltSet) allLegacy() bool {
	if len(s) == 0 {
		return false
	}
	for salt := range s {
		if !salt.Legacy() {
			return false
		}
	}
	return true
}
