package normalizers

import (
	"strings"
)

const Indentation = `  `

// LongDesc trims surrounding whitespace from a long description.
func LongDesc(s string) string {
	return strings.TrimSpace(s)
}

// Examples trims the block and re-indents every line by Indentation so
// help output lines up regardless of how the literal was written.
func Examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			lines[i] = Indentation + line
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
