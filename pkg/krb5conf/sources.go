package krb5conf

import (
	"os"
	"path/filepath"
	"strings"
)

// Sources lists what parsing path reads: every configuration file, root
// first, and every includedir directory. Unreadable files are still
// listed so callers can watch for them to appear; Sources only fails when
// the root itself cannot be read.
func Sources(path string) (files, dirs []string, err error) {
	seen := make(map[string]bool)
	var walk func(p string, root bool) error
	walk = func(p string, root bool) error {
		if seen[p] {
			return nil
		}
		seen[p] = true
		files = append(files, p)

		data, err := os.ReadFile(p)
		if err != nil {
			if root {
				return &ParseError{Chain: []string{p}, Msg: err.Error(), Err: err}
			}
			return nil
		}

		for _, line := range cleanLines(string(data), nil) {
			if !strings.HasPrefix(line.text, "include") {
				break
			}
			fields := strings.Fields(line.text)
			arg := strings.TrimSpace(strings.TrimPrefix(line.text, fields[0]))
			if arg == "" {
				continue
			}
			switch fields[0] {
			case "include":
				if err := walk(arg, false); err != nil {
					return err
				}
			case "includedir":
				dirs = append(dirs, arg)
				entries, err := os.ReadDir(arg)
				if err != nil {
					continue
				}
				for _, e := range entries {
					if e.IsDir() {
						continue
					}
					if err := walk(filepath.Join(arg, e.Name()), false); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if err := walk(path, true); err != nil {
		return nil, nil, err
	}
	return files, dirs, nil
}
