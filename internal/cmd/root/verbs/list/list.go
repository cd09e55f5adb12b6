package list

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	jqoutput "github.com/dealerops/dealerctl/internal/cmd/output/jq"
	"github.com/dealerops/dealerctl/internal/cmd/output/tableview"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.List

	filterFlagName = "filter"
	pageFlagName   = "page"
	sortFlagName   = "sort"
)

var (
	listUse = Verb.String()

	listShort = i18n.T("root.verbs.list.listShort", "List records")

	listLong = normalizers.LongDesc(i18n.T("root.verbs.list.listLong",
		`Use list to print the records of a module as a table.

Text output prints one page of the table. The filter matches any field,
ignoring case. Use --output json or yaml to print every matching record.`))

	listExamples = normalizers.Examples(i18n.T("root.verbs.list.listExamples",
		fmt.Sprintf(`
		# List the vehicles in stock
		%[1]s list vehicles --filter "in stock"
		# Show the second page of suppliers sorted by name
		%[1]s list suppliers --page 2 --sort name
		# Sort vouchers by amount, largest first
		%[1]s list vouchers --sort -amount
		# Print the chassis numbers of sold vehicles
		%[1]s list vehicles -o json --jq '.[] | select(.status == "Sold") | .chassis_no' -r
		`, meta.CLIName)))
)

func NewListCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              listUse,
		Short:            listShort,
		Long:             listLong,
		Example:          listExamples,
		Aliases:          []string{"ls", "l"},
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(nil, newEntityListCmd)...)
	return cmd, nil
}

func newEntityListCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, "", fmt.Sprintf("List %s", strings.ToLower(e.Label)+"s"))
	c.Args = cobra.NoArgs
	c.Flags().String(filterFlagName, "", "Only show records with a field containing this text.")
	c.Flags().Int(pageFlagName, 1, "Page to print in text output.")
	c.Flags().Int(common.PageSizeFlagName, common.DefaultPageSize,
		fmt.Sprintf(`Rows per page.
- Config path: [ %s ]`, common.PageSizeConfigPath))
	c.Flags().String(sortFlagName, "",
		"Column to sort by. Prefix with '-' for descending order.")
	jqoutput.AddFlags(c.Flags())

	c.PreRunE = func(c *cobra.Command, args []string) error {
		helper := cmdpkg.BuildHelper(c, args)
		cfg, err := helper.GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.BindFlag(common.PageSizeConfigPath, c.Flags().Lookup(common.PageSizeFlagName)); err != nil {
			return err
		}
		return jqoutput.BindFlags(cfg, c.Flags())
	}
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

type options struct {
	filter string
	page   int
	sort   string
	desc   bool
}

func readOptions(c *cobra.Command) (options, error) {
	var o options
	var err error
	if o.filter, err = c.Flags().GetString(filterFlagName); err != nil {
		return o, err
	}
	if o.page, err = c.Flags().GetInt(pageFlagName); err != nil {
		return o, err
	}
	if o.sort, err = c.Flags().GetString(sortFlagName); err != nil {
		return o, err
	}
	o.sort = strings.TrimSpace(o.sort)
	if strings.HasPrefix(o.sort, "-") {
		o.sort, o.desc = strings.TrimPrefix(o.sort, "-"), true
	}
	if o.page < 1 {
		return o, &cmdpkg.ConfigurationError{Err: fmt.Errorf("--%s must be at least 1", pageFlagName)}
	}
	return o, nil
}

func validateSort(e *dealer.Entity, key string) error {
	if key == "" {
		return nil
	}
	for _, f := range e.Columns() {
		if f.Key == key {
			return nil
		}
	}
	keys := make([]string, 0, len(e.Columns()))
	for _, f := range e.Columns() {
		keys = append(keys, f.Key)
	}
	return &cmdpkg.ConfigurationError{
		Err: fmt.Errorf("cannot sort %s by %q, use one of %s", e.Plural, key, strings.Join(keys, ", ")),
	}
}

// buildGrid applies the listing options to a grid of rows.
func buildGrid(r *resources.Run, o options) (tableview.Grid, error) {
	rows, err := r.Service.List(r.Helper.GetContext(), r.Entity)
	if err != nil {
		return tableview.Grid{}, cmdpkg.PrepareExecutionErrorWithHelper(r.Helper,
			fmt.Sprintf("failed to list %s", r.Entity.Plural), err)
	}
	g := resources.NewGrid(r.Entity, rows, resources.GridOptions(r.Config)...)
	if o.sort != "" {
		g = g.ToggleSort(o.sort)
		if o.desc {
			g = g.ToggleSort(o.sort)
		}
	}
	return g.SetFilter(o.filter).GoToPage(o.page), nil
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	o, err := readOptions(helper.GetCmd())
	if err != nil {
		return err
	}
	if err := validateSort(e, o.sort); err != nil {
		return err
	}

	r, err := resources.Prepare(helper, e, false)
	if err != nil {
		return err
	}
	g, err := buildGrid(r, o)
	if err != nil {
		return err
	}

	printer, err := r.Printer()
	if err != nil {
		return err
	}
	defer printer.Flush()

	raw := rawRecords(g)
	return tableview.RenderForFormat(helper, r.Output, printer, r.Streams, g, raw, e.Label+"s")
}

// rawRecords returns every filtered record in display order.
func rawRecords(g tableview.Grid) []map[string]any {
	records := g.FilteredRecords()
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		m := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			m[k] = v
		}
		m["id"] = rec.ID
		out[i] = m
	}
	return out
}
