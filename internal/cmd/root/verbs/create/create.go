package create

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
	Verb = verbs.Create
)

var (
	createUse = Verb.String()

	createShort = i18n.T("root.verbs.create.createShort", "Create records")

	createLong = normalizers.LongDesc(i18n.T("root.verbs.create.createLong",
		`Use create to add a record to a module.

Field values come from --set flags and an optional yaml or json file.
Every field is validated before anything is saved; problems are reported
per field.`))

	createExamples = normalizers.Examples(i18n.T("root.verbs.create.createExamples",
		fmt.Sprintf(`
		# Add a vehicle to stock
		%[1]s create vehicle --set chassis_no=CH-001 --set model=Nexon --set price=850000
		# Add a supplier from a file
		%[1]s create supplier -f supplier.yaml
		# Create the first user, prompting for the password
		%[1]s create user --set username=admin --set full_name="Admin" --set role=admin
		`, meta.CLIName)))
)

func NewCreateCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              createUse,
		Short:            createShort,
		Long:             createLong,
		Example:          createExamples,
		Aliases:          []string{"c", "C", "add"},
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(nil, newEntityCreateCmd)...)
	return cmd, nil
}

func newEntityCreateCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, "", fmt.Sprintf("Create a %s", e.Name))
	c.Args = cobra.NoArgs
	resources.AddInputFlags(c.Flags())
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	streams := helper.GetStreams()
	input, err := resources.ReadInput(helper.GetCmd().Flags(), streams.In)
	if err != nil {
		return &cmdpkg.ConfigurationError{Err: err}
	}

	r, err := resources.Prepare(helper, e, e.Name == dealer.UserEntityName)
	if err != nil {
		return err
	}
	if err := promptSecrets(r, input); err != nil {
		return err
	}
	return r.Report(r.Service.Create(helper.GetContext(), r.Entity, input))
}

// promptSecrets asks for required password fields missing from input when a
// person is at the terminal.
func promptSecrets(r *resources.Run, input dealer.Input) error {
	if !r.Streams.IsInteractive() {
		return nil
	}
	for _, f := range r.Entity.Fields {
		if f.Kind != dealer.KindPassword || !f.Required {
			continue
		}
		if _, ok := input[f.Key]; ok {
			continue
		}
		fmt.Fprintf(r.Streams.ErrOut, "%s: ", f.Label)
		value, err := r.Streams.ReadPassword()
		fmt.Fprintln(r.Streams.ErrOut)
		if err != nil {
			return cmdpkg.PrepareExecutionErrorWithHelper(r.Helper, "failed to read "+f.Label, err)
		}
		input[f.Key] = value
	}
	return nil
}
