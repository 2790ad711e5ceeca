package output

import (
	"fmt"
	"io"
	"strings"
)

// TextRenderer is implemented by types that render as plain text lines.
type TextRenderer interface {
	// TextLines returns the lines to print, without trailing newlines.
	TextLines() []string
}

// PrintText writes each line of data followed by a newline. When color is
// set, lines starting with "fatal:" are red and "warning:" yellow.
func PrintText(w io.Writer, data TextRenderer, color bool) error {
	for _, line := range data.TextLines() {
		if color {
			line = colorize(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "fatal:"):
		return colorRed + line + colorReset
	case strings.HasPrefix(line, "warning:"):
		return colorYellow + line + colorReset
	default:
		return line
	}
}
