package get

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	jqoutput "github.com/dealerops/dealerctl/internal/cmd/output/jq"
	"github.com/dealerops/dealerctl/internal/cmd/output/markdown"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Get
)

var (
	getUse = Verb.String()

	getShort = i18n.T("root.verbs.get.getShort", "Show one record")

	getLong = normalizers.LongDesc(i18n.T("root.verbs.get.getLong",
		`Use get to show every field of a single record.

Records are identified by their ID or by their name, e.g. the chassis
number of a vehicle or the username of a user.`))

	getExamples = normalizers.Examples(i18n.T("root.verbs.get.getExamples",
		fmt.Sprintf(`
		# Show a vehicle by chassis number
		%[1]s get vehicle CH-001
		# Show a supplier by ID as yaml
		%[1]s get supplier 22cd8a0b-72e7-4212-9099-0764f8e9c5ac -o yaml
		`, meta.CLIName)))
)

func NewGetCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              getUse,
		Short:            getShort,
		Long:             getLong,
		Example:          getExamples,
		Aliases:          []string{"g", "G"},
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(nil, newEntityGetCmd)...)
	return cmd, nil
}

func newEntityGetCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, resources.ArgsDescription(e), fmt.Sprintf("Show a %s", e.Name))
	c.Args = cobra.ExactArgs(1)
	jqoutput.AddFlags(c.Flags())
	c.PreRunE = func(c *cobra.Command, args []string) error {
		cfg, err := cmdpkg.BuildHelper(c, args).GetConfig()
		if err != nil {
			return err
		}
		return jqoutput.BindFlags(cfg, c.Flags())
	}
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	r, err := resources.Prepare(helper, e, false)
	if err != nil {
		return err
	}
	row, err := r.Find(helper.GetArgs()[0])
	if err != nil {
		return err
	}

	if r.Output == common.TEXT {
		settings, err := jqoutput.ResolveSettings(helper.GetCmd(), r.Config)
		if err != nil {
			return err
		}
		if err := jqoutput.ValidateOutputFormat(r.Output, settings); err != nil {
			return err
		}
		details := resources.Details(r.Entity, row)
		items := make([]markdown.Item, len(details))
		for i, d := range details {
			items[i] = markdown.Item{Label: d.Label, Value: d.Value}
		}
		title := fmt.Sprintf("%s %s", r.Entity.Label, r.Entity.Title(row))
		_, err = fmt.Fprintln(r.Streams.Out, markdown.Render(markdown.Sheet(title, items), renderOptions(r.Streams)))
		return err
	}

	printer, err := r.Printer()
	if err != nil {
		return err
	}
	defer printer.Flush()

	raw := any(resources.RawRow(row))
	settings, err := jqoutput.ResolveSettings(helper.GetCmd(), r.Config)
	if err != nil {
		return err
	}
	if settings.Active() {
		filtered, handled, err := jqoutput.ApplyToRaw(raw, r.Output, settings, r.Streams.Out)
		if err != nil {
			return cmdpkg.PrepareExecutionErrorWithHelper(helper, "jq filter failed", err)
		}
		if handled {
			return nil
		}
		raw = filtered
	}
	printer.Print(raw)
	return nil
}

func renderOptions(streams *iostreams.IOStreams) markdown.Options {
	_, noColor := os.LookupEnv("NO_COLOR")
	return markdown.Options{
		NoColor: noColor || !iostreams.IsTerminal(streams.Out),
		Width:   streams.TerminalWidth(100),
	}
}
