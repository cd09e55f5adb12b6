package approve

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
	Verb = verbs.Approve
)

var (
	approveUse = Verb.String()

	approveShort = i18n.T("root.verbs.approve.approveShort", "Approve pending records")

	approveLong = normalizers.LongDesc(i18n.T("root.verbs.approve.approveLong",
		`Use approve to move a pending purchase order or leave request to Approved.

Only pending records can be approved.`))

	approveExamples = normalizers.Examples(i18n.T("root.verbs.approve.approveExamples",
		fmt.Sprintf(`
		# Approve a purchase order
		%[1]s approve purchase-order PO-0042
		`, meta.CLIName)))
)

func NewApproveCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              approveUse,
		Short:            approveShort,
		Long:             approveLong,
		Example:          approveExamples,
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(func(e *dealer.Entity) bool {
		return e.Capabilities.Approve
	}, func(e *dealer.Entity) *cobra.Command {
		c := resources.NewEntityCmd(e, resources.ArgsDescription(e), fmt.Sprintf("Approve a %s", e.Name))
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
	return r.Report(r.Service.Approve(helper.GetContext(), r.Entity, row.ID))
}
