package export

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Export
)

var (
	exportUse = Verb.String()

	exportShort = i18n.T("root.verbs.export.exportShort",
		"Export records to a file")

	exportLong = normalizers.LongDesc(i18n.T("root.verbs.export.exportLong",
		`Export every record of a module as a yaml document.

The document can be edited and loaded into another database with the
import command. Record IDs and hidden fields such as passwords are not
exported.`))

	exportExamples = normalizers.Examples(i18n.T("root.verbs.export.exportExamples",
		fmt.Sprintf(`
		# Export the suppliers to a file
		%[1]s export suppliers -f suppliers.yaml

		# Print the color master
		%[1]s export colors
		`, meta.CLIName)))
)

func NewExportCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              exportUse,
		Short:            exportShort,
		Long:             exportLong,
		Example:          exportExamples,
		PersistentPreRun: resources.PersistVerb(Verb),
	}

	cmd.AddCommand(resources.EntityCommands(nil, newEntityExportCmd)...)
	return cmd, nil
}

func newEntityExportCmd(e *dealer.Entity) *cobra.Command {
	c := resources.NewEntityCmd(e, "", fmt.Sprintf("Export %s", e.Plural))
	c.Args = cobra.NoArgs
	c.Flags().StringP(resources.FilenameFlagName, resources.FilenameShort, "",
		"File to write. Prints to stdout when empty.")
	c.RunE = func(c *cobra.Command, args []string) error {
		return run(cmdpkg.BuildHelper(c, args), e)
	}
	return c
}

func run(helper cmdpkg.Helper, e *dealer.Entity) error {
	filename, err := helper.GetCmd().Flags().GetString(resources.FilenameFlagName)
	if err != nil {
		return err
	}

	r, err := resources.Prepare(helper, e, false)
	if err != nil {
		return err
	}
	rows, err := r.Service.List(helper.GetContext(), r.Entity)
	if err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("failed to list %s", r.Entity.Plural), err)
	}
	doc := resources.NewDocument(r.Entity, rows)

	if filename == "" {
		return write(r, doc, r.Streams.Out)
	}

	if err := util.InitDir(filename, 0o755); err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper, "failed to create the export directory", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper, "failed to create "+filename, err)
	}
	defer f.Close()
	if err := resources.WriteDocument(f, r.Entity, doc); err != nil {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper, "failed to write "+filename, err)
	}
	r.Logger.Info("exported records", "entity", r.Entity.Name, "count", len(doc.Records), "file", filename)
	fmt.Fprintf(r.Streams.ErrOut, "Exported %d %s to %s\n", len(doc.Records), r.Entity.Plural, filename)
	return nil
}

// write prints the document to stdout, honouring --output json.
func write(r *resources.Run, doc resources.Document, out io.Writer) error {
	if r.Output == common.JSON {
		printer, err := r.Printer()
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(doc)
		return nil
	}
	return resources.WriteDocument(out, r.Entity, doc)
}
