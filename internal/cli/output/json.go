package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data as indented JSON. HTML escaping is off so
// remediation commands such as "a && b" stay readable.
func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}
