// Package markdown renders record sheets as terminal markdown.
package markdown

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

var (
	defaultRenderer *glamour.TermRenderer
	defaultMu       sync.RWMutex
)

// Options controls markdown rendering behaviour.
type Options struct {
	NoColor bool
	Width   int
}

// Item is one labelled value of a sheet.
type Item struct {
	Label string
	Value string
}

// Sheet builds the markdown of a titled list of values. Empty values show as
// a dash.
func Sheet(title string, items []Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escape(title))
	sb.WriteString("| Field | Value |\n|---|---|\n")
	for _, item := range items {
		value := strings.TrimSpace(item.Value)
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", escape(item.Label), escape(value))
	}
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// Render renders markdown for the terminal, returning the source unchanged
// when rendering fails.
func Render(markdown string, opts Options) string {
	var (
		r   *glamour.TermRenderer
		err error
	)

	if opts.Width > 0 || opts.NoColor {
		r, err = newRenderer(opts)
	} else {
		r, err = getDefaultRenderer()
	}
	if err != nil {
		return markdown
	}

	str, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return normalizeSpacing(str)
}

func normalizeSpacing(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{}
	if opts.NoColor {
		options = append(options,
			glamour.WithStandardStyle(styles.NoTTYStyle),
			glamour.WithColorProfile(termenv.Ascii),
		)
	} else {
		options = append(options,
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	}
	if opts.Width > 0 {
		options = append(options, glamour.WithWordWrap(opts.Width))
	}
	return glamour.NewTermRenderer(options...)
}

func getDefaultRenderer() (*glamour.TermRenderer, error) {
	defaultMu.RLock()
	if defaultRenderer != nil {
		r := defaultRenderer
		defaultMu.RUnlock()
		return r, nil
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
		if err != nil {
			return nil, err
		}
		defaultRenderer = r
	}
	return defaultRenderer, nil
}
