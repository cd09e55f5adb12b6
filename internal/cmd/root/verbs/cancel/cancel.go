package cancel

import (
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
	Verb = verbs.Cancel
)

var (
	cancelUse = Verb.String()

	cancelShort = i18n.T("root.verbs.cancel.cancelShort", "Cancel pending records")

	cancelLong = normalizers.LongDesc(i18n.T("root.verbs.cancel.cancelLong",
		`Use cancel to move a pending purchase order or leave request to Cancelled.

Only pending records can be cancelled.`))

	cancelExamples = normalizers.Examples(i18n.T("root.verbs.cancel.cancelExamples",
		fmt.Sprintf(`
		# Cancel a leave request
		%[1]s cancel leave-request 0b6c1f9e-55aa-4b7e-9d1c-2f0e8c4a7b31
		`, meta.CLIName)))
)

func NewCancelCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              cancelUse,
		Short:            cancelShort,
		Long:             cancelLong,
		Example:          cancelExamples,
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(func(e *dealer.Entity) bool {
		return e.Capabilities.Cancel
	}, func(e *dealer.Entity) *cobra.Command {
		c := resources.NewEntityCmd(e, resources.ArgsDescription(e), fmt.Sprintf("Cancel a %s", e.Name))
		c.Args = cobra.ExactArgs(1)
		c.RunE = func(c *cobra.Command, args []string) error {
			return run(cmdpkg.BuildHelper(c, args), e)
		}
		return c
	})...)
	return cmd, nil
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
	return r.Report(r.Service.Cancel(helper.GetContext(), r.Entity, row.ID))
}
