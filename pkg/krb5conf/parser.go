// Package krb5conf parses the MIT Kerberos profile format used by krb5.conf
// and kdc.conf into a structured Tree.
//
// Parsing happens in two passes. The first reads each file into raw,
// trimmed lines grouped by section, resolving include/includedir directives
// at the top of the file and concatenating included section bodies after the
// parent's. The second pass interprets each section body as flat
// assignments or stanza blocks, according to the Dialect.
package krb5conf

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/marmos91/krb5audit/internal/logger"
)

var (
	headerRe     = regexp.MustCompile(`^\[(.*)\]`)
	assignRe     = regexp.MustCompile(`^(.*?)\s*=\s*(.*)$`)
	stanzaOpenRe = regexp.MustCompile(`^(.*?)\s*=\s*\{`)

	// libkrb5 skips includedir entries containing anything else unless they
	// end in .conf.
	ignoredNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// rawLine is one trimmed, non-comment line with the include chain of the
// file it was read from.
type rawLine struct {
	text  string
	chain []string
}

// rawTree maps section names to their unparsed bodies.
type rawTree map[string][]rawLine

// merge appends child's bodies after the parent's, adopting sections the
// parent lacks.
func (t rawTree) merge(child rawTree) {
	for name, body := range child {
		t[name] = append(t[name], body...)
	}
}

// Parse reads path with DefaultDialect.
func Parse(path string) (*Tree, error) {
	return ParseWithDialect(path, DefaultDialect)
}

// ParseWithDialect reads path and every file it includes, accepting the
// sections named by d.
func ParseWithDialect(path string, d Dialect) (*Tree, error) {
	logger.Debug("Parsing Kerberos configuration", logger.Path(path))

	raw, err := readFile(path, nil, d)
	if err != nil {
		return nil, err
	}
	return build(raw, d)
}

// ParseString parses in-memory content as if it had been read from a file
// called name. Include directives in content are still resolved on disk.
func ParseString(name, content string, d Dialect) (*Tree, error) {
	raw, err := readContent(content, []string{name}, d)
	if err != nil {
		return nil, err
	}
	return build(raw, d)
}

func readFile(path string, parent []string, d Dialect) (rawTree, error) {
	for _, p := range parent {
		if filepath.Clean(p) == filepath.Clean(path) {
			return nil, newParseError(parent, "include cycle: "+path)
		}
	}
	chain := append(append([]string(nil), parent...), path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Chain: chain, Msg: err.Error(), Err: err}
	}
	return readContent(string(data), chain, d)
}

func readContent(content string, chain []string, d Dialect) (rawTree, error) {
	lines := cleanLines(content, chain)

	var extra []rawTree
	for len(lines) > 0 && strings.HasPrefix(lines[0].text, "include") {
		children, err := readInclude(lines[0].text, chain, d)
		if err != nil {
			return nil, err
		}
		extra = append(extra, children...)
		lines = lines[1:]
	}

	tree, err := bySection(lines, chain, d)
	if err != nil {
		return nil, err
	}
	for _, child := range extra {
		tree.merge(child)
	}
	return tree, nil
}

func cleanLines(content string, chain []string) []rawLine {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var lines []rawLine
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, rawLine{text: line, chain: chain})
	}
	return lines
}

func readInclude(directive string, chain []string, d Dialect) ([]rawTree, error) {
	fields := strings.Fields(directive)
	verb := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(directive, verb))

	switch verb {
	case "include":
		if arg == "" {
			return nil, newParseError(chain, "include directive without a path")
		}
		logger.Debug("Following include", logger.Path(arg))
		child, err := readFile(arg, chain, d)
		if err != nil {
			return nil, err
		}
		return []rawTree{child}, nil

	case "includedir":
		if arg == "" {
			return nil, newParseError(chain, "includedir directive without a path")
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, &ParseError{Chain: chain, Msg: err.Error(), Err: err}
		}

		// os.ReadDir sorts by name, so merge order does not depend on the
		// filesystem.
		children := make([]rawTree, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasSuffix(name, ".conf") && ignoredNameRe.MatchString(name) {
				return nil, newParseError(chain, "file ignored by libkrb5: "+name)
			}
			path := filepath.Join(arg, name)
			logger.Debug("Following includedir entry", logger.Path(path))
			child, err := readFile(path, chain, d)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil

	default:
		return nil, newParseError(chain, "unrecognized include directive: "+verb)
	}
}

func bySection(lines []rawLine, chain []string, d Dialect) (rawTree, error) {
	tree := make(rawTree)
	seen := make(map[string]bool)

	for len(lines) > 0 {
		m := headerRe.FindStringSubmatch(lines[0].text)
		if m == nil {
			return nil, newParseError(chain, "malformed/missing section header: "+lines[0].text)
		}
		name := m[1]
		if _, ok := d.Kind(name); !ok {
			return nil, newParseError(chain, "unknown section: "+name)
		}
		if seen[name] {
			return nil, newParseError(chain, "duplicate section header: "+name)
		}
		seen[name] = true
		lines = lines[1:]

		var body []rawLine
		for len(lines) > 0 && !strings.HasPrefix(lines[0].text, "[") {
			body = append(body, lines[0])
			lines = lines[1:]
		}
		if len(body) > 0 {
			tree[name] = body
		}
	}
	return tree, nil
}

func build(raw rawTree, d Dialect) (*Tree, error) {
	t := &Tree{dialect: d, sections: make(map[string]*Section, len(raw))}

	for _, name := range d.Names() {
		body, ok := raw[name]
		if !ok {
			continue
		}
		kind, _ := d.Kind(name)
		sec := &Section{Name: name, Kind: kind}

		var err error
		if kind == KindStanza {
			sec.Stanzas, err = parseStanzas(body)
		} else {
			sec.Flat, err = parseFlat(body)
		}
		if err != nil {
			return nil, err
		}
		t.sections[name] = sec
		logger.Debug("Parsed section", logger.Section(name))
	}
	return t, nil
}

func splitAssignment(line rawLine) (string, string, error) {
	m := assignRe.FindStringSubmatch(line.text)
	if m == nil {
		return "", "", newParseError(line.chain, "malformed assignment: "+line.text)
	}
	return m[1], m[2], nil
}

func parseFlat(body []rawLine) (*FlatSection, error) {
	s := newFlatSection()
	for _, line := range body {
		key, value, err := splitAssignment(line)
		if err != nil {
			return nil, err
		}
		if _, dup := s.values[key]; dup {
			return nil, newParseError(line.chain, "duplicate assignment: "+key)
		}
		s.keys = append(s.keys, key)
		s.values[key] = value
	}
	return s, nil
}

func parseStanzas(body []rawLine) (*StanzaSection, error) {
	s := newStanzaSection()
	for len(body) > 0 {
		opener := body[0]
		m := stanzaOpenRe.FindStringSubmatch(opener.text)
		if m == nil {
			return nil, newParseError(opener.chain, "malformed stanza: "+opener.text)
		}
		body = body[1:]

		st := s.stanza(m[1])
		closed := false
		for len(body) > 0 {
			line := body[0]
			body = body[1:]
			if line.text == "}" {
				closed = true
				break
			}
			key, value, err := splitAssignment(line)
			if err != nil {
				return nil, err
			}
			st.add(key, value)
		}
		if !closed {
			return nil, newParseError(opener.chain, "unterminated stanza: "+m[1])
		}
	}
	return s, nil
}
