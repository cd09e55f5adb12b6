package view

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/output/tableview"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/log"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.View

	filterFlagName = "filter"
)

var (
	viewUse = Verb.String()

	viewShort = i18n.T("root.verbs.view.viewShort", "Browse records interactively")

	viewLong = normalizers.LongDesc(i18n.T("root.verbs.view.viewLong",
		`Open an interactive table of a module's records.

Type / to filter, use the arrow keys to move between rows and pages and
press ? for the row actions. Without a terminal the first page is printed
instead.`))

	viewExamples = normalizers.Examples(i18n.T("root.verbs.view.viewExamples",
		fmt.Sprintf(`
		# Browse the vehicle stock
		%[1]s view vehicles
		# Review pending leave requests
		%[1]s view leave-requests --filter pending
		`, meta.CLIName)))
)

// NewViewCmd creates the view command which opens the interactive table.
func NewViewCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              viewUse,
		Short:            viewShort,
		Long:             viewLong,
		Example:          viewExamples,
		Aliases:          []string{"v", "V", "browse"},
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(nil, newEntityViewCmd)...)
	return cmd, nil
}

func newEntityViewCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, "", fmt.Sprintf("Browse %s", strings.ToLower(e.Label)+"s"))
	c.Args = cobra.NoArgs
	c.Flags().String(filterFlagName, "", "Start with this filter applied.")
	c.Flags().Int(common.PageSizeFlagName, common.DefaultPageSize,
		fmt.Sprintf(`Rows per page.
- Config path: [ %s ]`, common.PageSizeConfigPath))
	c.PreRunE = func(c *cobra.Command, args []string) error {
		cfg, err := cmdpkg.BuildHelper(c, args).GetConfig()
		if err != nil {
			return err
		}
		return cfg.BindFlag(common.PageSizeConfigPath, c.Flags().Lookup(common.PageSizeFlagName))
	}
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	filter, err := helper.GetCmd().Flags().GetString(filterFlagName)
	if err != nil {
		return err
	}

	r, err := resources.Prepare(helper, e, false)
	if err != nil {
		return err
	}
	if r.Output != common.TEXT {
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("%s only supports text output, use list for json or yaml", Verb),
		}
	}

	ctx := helper.GetContext()
	rows, err := r.Service.List(ctx, r.Entity)
	if err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("failed to list %s", r.Entity.Plural), err)
	}
	g := resources.NewGrid(r.Entity, rows, resources.GridOptions(r.Config)...).SetFilter(filter)

	// error records would scribble over the full screen table
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	r.Logger.Debug("opening table view", "entity", r.Entity.Name, "records", g.Len())
	return tableview.Render(ctx, r.Streams, g, resources.NewRowActions(r.Service, r.Entity),
		tableview.WithTitle(r.Entity.Label+"s"),
		tableview.WithProfileName(r.Config.GetProfile()),
	)
}
