package krb5conf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// WriteTo renders the tree in normalized profile syntax: sections in
// dialect order, keys sorted, stanza values in order of appearance, four
// spaces of indentation per level and a blank line after each section.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	for _, name := range t.Sections() {
		sec := t.sections[name]
		fmt.Fprintf(&buf, "[%s]\n", name)

		switch sec.Kind {
		case KindFlat:
			for _, key := range sortedKeys(sec.Flat.Keys()) {
				value, _ := sec.Flat.Get(key)
				fmt.Fprintf(&buf, "    %s = %s\n", key, value)
			}
		case KindStanza:
			for _, header := range sec.Stanzas.Names() {
				st, _ := sec.Stanzas.Stanza(header)
				fmt.Fprintf(&buf, "    %s = {\n", header)
				for _, key := range sortedKeys(st.Keys()) {
					for _, value := range st.Values(key) {
						fmt.Fprintf(&buf, "        %s = %s\n", key, value)
					}
				}
				buf.WriteString("    }\n")
			}
		}
		buf.WriteString("\n")
	}

	return buf.WriteTo(w)
}

// String returns the rendering produced by WriteTo.
func (t *Tree) String() string {
	var buf bytes.Buffer
	_, _ = t.WriteTo(&buf)
	return buf.String()
}

func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
