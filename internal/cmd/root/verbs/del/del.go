package del

import (
	"context"
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
	Verb = verbs.Delete
)

var (
	deleteuse = Verb.String()

	deleteShort = i18n.T("root.verbs.delete.deleteShort", "Delete records")

	deleteLong = normalizers.LongDesc(i18n.T("root.verbs.delete.deleteLong",
		`Use delete to remove a record.

You are asked to confirm before anything is removed unless --approve is
given.`))

	deleteExamples = normalizers.Examples(i18n.T("root.verbs.delete.deleteExamples",
		fmt.Sprintf(`
		# Delete a color, asking first
		%[1]s delete color "Pearl White"
		# Delete a supplier by ID without a prompt
		%[1]s delete supplier 12345678-1234-1234-1234-123456789012 --approve
		`, meta.CLIName)))
)

func NewDeleteCmd() (*cobra.Command, error) {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:     deleteuse,
		Short:   deleteShort,
		Long:    deleteLong,
		Example: deleteExamples,
		Aliases: []string{"d", "D", "del", "rm", "DEL", "RM"},
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c.SetContext(context.WithValue(ctx, verbs.Verb, Verb))
			cmdpkg.SetDeleteAutoApprove(c, autoApprove)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&autoApprove, "approve", false,
		"Skip confirmation prompts for delete operations (not configurable)")

	cmd.AddCommand(resources.EntityCommands(func(e *dealer.Entity) bool {
		return e.Capabilities.Delete
	}, newEntityDeleteCmd)...)
	return cmd, nil
}

func newEntityDeleteCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, resources.ArgsDescription(e), fmt.Sprintf("Delete a %s", e.Name))
	c.Args = cobra.ExactArgs(1)
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

	description := fmt.Sprintf("%s %q (%s).", r.Entity.Label, r.Entity.Title(row), row.ID)
	if err := cmdpkg.ConfirmDelete(helper, description, "This cannot be undone."); err != nil {
		return err
	}
	return r.Report(r.Service.Delete(helper.GetContext(), r.Entity, row.ID))
}
