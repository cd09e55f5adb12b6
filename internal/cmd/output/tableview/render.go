package tableview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/segmentio/cli"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	cmdCommon "github.com/dealerops/dealerctl/internal/cmd/common"
	jqoutput "github.com/dealerops/dealerctl/internal/cmd/output/jq"
	"github.com/dealerops/dealerctl/internal/iostreams"
)

type config struct {
	title       string
	profileName string
	width       int
	height      int
}

type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{width: 120, height: 24}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTitle sets the heading shown above the table.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// WithProfileName records the active configuration profile for display in the status area.
func WithProfileName(name string) Option {
	return func(cfg *config) {
		cfg.profileName = strings.TrimSpace(name)
	}
}

// WithSize sets the initial layout size used until the terminal reports its own.
func WithSize(width, height int) Option {
	return func(cfg *config) {
		if width > 0 {
			cfg.width = width
		}
		if height > 0 {
			cfg.height = height
		}
	}
}

// Render runs the interactive table when both streams are terminals and row
// actions are available. Otherwise it falls back to the static rendering of
// the current page.
func Render(ctx context.Context, streams *iostreams.IOStreams, g Grid, actions RowActions, opts ...Option) error {
	if streams == nil || streams.Out == nil {
		return errors.New("tableview: output stream is not available")
	}

	cfg := newConfig(opts)
	if actions == nil || !streams.IsInteractive() {
		return RenderStatic(streams.Out, g, cfg.title)
	}

	width, height, _ := resolveTerminal(streams.Out)
	opts = append(opts, WithSize(width, height))

	model := NewModel(ctx, g, actions, opts...)
	program := tea.NewProgram(model,
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// RenderForFormat writes a listing in the requested output format. Text
// renders the current page of g; json and yaml print raw through the printer
// after applying any --jq filter.
func RenderForFormat(
	helper cmdpkg.Helper,
	outType cmdCommon.OutputFormat,
	printer cli.PrintFlusher,
	streams *iostreams.IOStreams,
	g Grid,
	raw any,
	title string,
) error {
	if helper != nil {
		cfg, err := helper.GetConfig()
		if err != nil {
			return err
		}

		settings, err := jqoutput.ResolveSettings(helper.GetCmd(), cfg)
		if err != nil {
			return err
		}

		if err := jqoutput.ValidateOutputFormat(outType, settings); err != nil {
			return err
		}

		if jqoutput.HasFilter(settings) {
			filteredRaw, handled, err := jqoutput.ApplyToRaw(raw, outType, settings, streams.Out)
			if err != nil {
				return cmdpkg.PrepareExecutionErrorWithHelper(helper, "jq filter failed", err)
			}
			if handled {
				return nil
			}
			raw = filteredRaw
		}
	}

	switch outType {
	case cmdCommon.TEXT:
		return RenderStatic(streams.Out, g, title)
	case cmdCommon.JSON, cmdCommon.YAML:
		if printer != nil {
			printer.Print(raw)
		}
		return nil
	default:
		return fmt.Errorf("tableview: unsupported output format %s", outType.String())
	}
}
