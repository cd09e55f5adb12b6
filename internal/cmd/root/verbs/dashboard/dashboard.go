package dashboard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/theme"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Dashboard

	cardWidth        = 22
	defaultTermWidth = 100
)

var (
	dashboardUse = Verb.String()

	dashboardShort = i18n.T("root.verbs.dashboard.dashboardShort", "Show the business overview")

	dashboardLong = normalizers.LongDesc(i18n.T("root.verbs.dashboard.dashboardLong",
		`Show vehicle stock, pending approvals, headcount and the cash position
of the active financial year.`))

	dashboardExamples = normalizers.Examples(i18n.T("root.verbs.dashboard.dashboardExamples",
		fmt.Sprintf(`
		# Show the dashboard
		%[1]s dashboard
		# Feed the numbers to another tool
		%[1]s dashboard -o json
		`, meta.CLIName)))
)

func NewDashboardCmd() (*cobra.Command, error) {
	return &cobra.Command{
		Use:              dashboardUse,
		Short:            dashboardShort,
		Long:             dashboardLong,
		Example:          dashboardExamples,
		Aliases:          []string{"dash", "kpi"},
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: resources.PersistVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmdpkg.BuildHelper(c, args))
		},
	}, nil
}

func run(helper cmdpkg.Helper) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	svc, err := helper.GetService()
	if err != nil {
		return err
	}
	if _, err := cmdpkg.RequireSession(helper, svc, false); err != nil {
		return err
	}

	d, err := svc.Dashboard(helper.GetContext())
	if err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper, "failed to compute the dashboard", err)
	}

	streams := helper.GetStreams()
	if outType != common.TEXT {
		printer, err := (&resources.Run{Helper: helper, Output: outType, Streams: streams}).Printer()
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(d)
		return nil
	}

	_, noColor := os.LookupEnv("NO_COLOR")
	plain := noColor || !iostreams.IsTerminal(streams.Out)
	width := streams.TerminalWidth(defaultTermWidth)
	return Write(streams.Out, d, theme.FromContext(helper.GetContext()), width, plain)
}

// Write renders the dashboard as rows of bordered cards that fit width.
func Write(w io.Writer, d dealer.Dashboard, palette theme.Palette, width int, plain bool) error {
	cards := d.Cards()
	perRow := max(1, width/(cardWidth+3))

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = renderCard(c, palette, plain)
	}

	var rows []string
	for start := 0; start < len(rendered); start += perRow {
		end := min(start+perRow, len(rendered))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[start:end]...))
	}
	_, err := fmt.Fprintln(w, strings.Join(rows, "\n"))
	return err
}

func renderCard(c dealer.Card, palette theme.Palette, plain bool) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(cardWidth).
		Padding(0, 1).
		MarginRight(1)
	label := lipgloss.NewStyle()
	value := lipgloss.NewStyle().Bold(true)
	hint := lipgloss.NewStyle()

	if !plain {
		box = box.BorderForeground(palette.Adaptive(theme.ColorBorder))
		label = label.Foreground(palette.Adaptive(theme.ColorTextSecondary))
		value = value.Foreground(palette.Adaptive(theme.ColorPrimary))
		hint = hint.Foreground(palette.Adaptive(theme.ColorTextMuted))
	}

	return box.Render(lipgloss.JoinVertical(lipgloss.Left,
		label.Render(c.Label),
		value.Render(c.Value),
		hint.Render(c.Hint),
	))
}
