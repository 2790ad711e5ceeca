// Package profile provides read access to a merged Kerberos configuration
// the way libkrb5's profile library exposes it: typed lookups of
// relation values and iteration over (possibly nested) sections.
package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one relation in a section: either a leaf value or a named
// subsection with children.
type Entry struct {
	Name     string
	Value    string
	Children []Entry
	Section  bool
}

// Value builds a leaf entry.
func Value(name, value string) Entry {
	return Entry{Name: name, Value: value}
}

// Sub builds a subsection entry.
func Sub(name string, children ...Entry) Entry {
	return Entry{Name: name, Children: children, Section: true}
}

// Values returns the values of every leaf child named key, in order.
func (e Entry) Values(key string) []string {
	var out []string
	for _, c := range e.Children {
		if !c.Section && c.Name == key {
			out = append(out, c.Value)
		}
	}
	return out
}

// Keys returns the distinct names of e's children.
func (e Entry) Keys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range e.Children {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	}
	return out
}

// Profile is a read-only view of Kerberos configuration.
type Profile interface {
	// Bool returns the boolean relation section.key, or def when unset.
	Bool(section, key string, def bool) (bool, error)

	// String returns the first value of section.key.
	String(section, key string) (string, bool)

	// Integer returns the first value of section.key as an integer.
	Integer(section, key string) (int, bool, error)

	// Section lists the relations under path, e.g. Section("realms") or
	// Section("realms", "EXAMPLE.COM").
	Section(path ...string) []Entry
}

// view implements the typed lookups on top of an entry source.
type view struct {
	entries func(path ...string) []Entry
}

func (v view) Section(path ...string) []Entry {
	if len(path) == 0 {
		return nil
	}
	return v.entries(path...)
}

func (v view) String(section, key string) (string, bool) {
	for _, e := range v.Section(section) {
		if !e.Section && e.Name == key {
			return e.Value, true
		}
	}
	return "", false
}

func (v view) Bool(section, key string, def bool) (bool, error) {
	s, ok := v.String(section, key)
	if !ok {
		return def, nil
	}
	b, err := ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("%s.%s: %w", section, key, err)
	}
	return b, nil
}

func (v view) Integer(section, key string) (int, bool, error) {
	s, ok := v.String(section, key)
	if !ok {
		return 0, false, nil
	}
	n, err := ParseInt(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s.%s: %w", section, key, err)
	}
	return n, true, nil
}

// ParseBool accepts the spellings libkrb5's profile library accepts,
// case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "t", "1", "on":
		return true, nil
	case "n", "no", "false", "nil", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}

// ParseInt parses a profile integer. Like strtol with base 0, a 0x prefix
// selects hexadecimal and a leading 0 octal.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "_") {
		return 0, fmt.Errorf("invalid integer value %q", s)
	}
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %q", s)
	}
	return int(n), nil
}
