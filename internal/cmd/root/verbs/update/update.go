package update

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Update
)

var (
	updateUse = Verb.String()

	updateShort = i18n.T("root.verbs.update.updateShort", "Change records")

	updateLong = normalizers.LongDesc(i18n.T("root.verbs.update.updateLong",
		`Use update to change fields of an existing record.

Only the fields given are changed. An empty value clears a field;
an empty password keeps the stored one.`))

	updateExamples = normalizers.Examples(i18n.T("root.verbs.update.updateExamples",
		fmt.Sprintf(`
		# Mark a vehicle as sold
		%[1]s update vehicle CH-001 --set status=Sold
		# Activate a financial year
		%[1]s update financial-year FY2025-26 --set status=Active
		`, meta.CLIName)))
)

func NewUpdateCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              updateUse,
		Short:            updateShort,
		Long:             updateLong,
		Example:          updateExamples,
		Aliases:          []string{"u", "edit", "set"},
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(func(e *dealer.Entity) bool {
		return e.Capabilities.Edit
	}, newEntityUpdateCmd)...)
	return cmd, nil
}

func newEntityUpdateCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, resources.ArgsDescription(e), fmt.Sprintf("Change a %s", e.Name))
	c.Args = cobra.ExactArgs(1)
	resources.AddInputFlags(c.Flags())
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	input, err := resources.ReadInput(helper.GetCmd().Flags(), helper.GetStreams().In)
	if err != nil {
		return &cmdpkg.ConfigurationError{Err: err}
	}
	if len(input) == 0 {
		return &cmdpkg.ConfigurationError{
			Err: errors.New("nothing to update, pass --set key=value or --filename"),
		}
	}

	r, err := resources.Prepare(helper, e, false)
	if err != nil {
		return err
	}
	row, err := r.Find(helper.GetArgs()[0])
	if err != nil {
		return err
	}
	return r.Report(r.Service.Update(helper.GetContext(), r.Entity, row.ID, input))
}
