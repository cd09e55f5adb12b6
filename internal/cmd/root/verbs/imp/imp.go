// Package imp implements the import verb.
package imp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/resources"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

const (
	Verb = verbs.Import
)

var (
	importUse = Verb.String()

	importShort = i18n.T("root.verbs.import.importShort", "Import records from a file")

	importLong = normalizers.LongDesc(i18n.T("root.verbs.import.importLong",
		`Create every record of an exported document.

Each record is validated and saved on its own; records that fail are
reported with their field errors and the rest are still imported.`))

	importExamples = normalizers.Examples(i18n.T("root.verbs.import.importExamples",
		fmt.Sprintf(`
		# Load suppliers exported from another branch
		%[1]s import -f suppliers.yaml
		# Load from stdin
		cat colors.yaml | %[1]s import -f -
		`, meta.CLIName)))
)

// Outcome is the result of importing one record.
type Outcome struct {
	Index       int               `json:"index"                  yaml:"index"`
	Success     bool              `json:"success"                yaml:"success"`
	Message     string            `json:"message"                yaml:"message"`
	ID          string            `json:"id,omitempty"           yaml:"id,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty" yaml:"field_errors,omitempty"`
}

func NewImportCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              importUse,
		Short:            importShort,
		Long:             importLong,
		Example:          importExamples,
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: resources.PersistVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmdpkg.BuildHelper(c, args))
		},
	}
	cmd.Flags().StringP(resources.FilenameFlagName, resources.FilenameShort, "",
		"Document to import, or '-' for stdin.")
	return cmd, nil
}

func readDocument(helper cmdpkg.Helper) (resources.Document, error) {
	filename, err := helper.GetCmd().Flags().GetString(resources.FilenameFlagName)
	if err != nil {
		return resources.Document{}, err
	}
	if filename == "" {
		return resources.Document{}, &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s is required", resources.FilenameFlagName),
		}
	}

	var data []byte
	if filename == "-" {
		data, err = io.ReadAll(helper.GetStreams().In)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return resources.Document{}, &cmdpkg.ConfigurationError{Err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	doc, err := resources.ReadDocument(data)
	if err != nil {
		return resources.Document{}, &cmdpkg.ConfigurationError{Err: err}
	}
	return doc, nil
}

func run(helper cmdpkg.Helper) error {
	doc, err := readDocument(helper)
	if err != nil {
		return err
	}
	e, ok := dealer.DefaultRegistry().Lookup(doc.Entity)
	if !ok {
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("unknown entity %q, expected one of %s",
				doc.Entity, strings.Join(dealer.DefaultRegistry().Names(), ", ")),
		}
	}

	r, err := resources.Prepare(helper, e, e.Name == dealer.UserEntityName)
	if err != nil {
		return err
	}

	ctx := helper.GetContext()
	outcomes := make([]Outcome, 0, len(doc.Records))
	failed := 0
	for i, record := range doc.Records {
		if ctx.Err() != nil {
			return cmdpkg.PrepareExecutionErrorWithHelper(helper, "import interrupted", ctx.Err())
		}
		env := r.Service.Create(ctx, r.Entity, dealer.Input(record))
		outcomes = append(outcomes, Outcome{
			Index:       i + 1,
			Success:     env.Success,
			Message:     env.Message,
			ID:          env.ID,
			FieldErrors: env.FieldErrors,
		})
		if !env.Success {
			failed++
		}
	}
	r.Logger.Info("imported records", "entity", r.Entity.Name,
		"imported", len(outcomes)-failed, "failed", failed)

	if err := report(r, outcomes); err != nil {
		return err
	}
	if failed > 0 {
		return cmdpkg.PrepareExecutionErrorWithHelper(helper,
			fmt.Sprintf("%d of %d %s could not be imported", failed, len(outcomes), r.Entity.Plural),
			errors.New("import incomplete"))
	}
	return nil
}

func report(r *resources.Run, outcomes []Outcome) error {
	if r.Output != common.TEXT {
		printer, err := r.Printer()
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(outcomes)
		return nil
	}

	out := r.Streams.Out
	imported := 0
	for _, o := range outcomes {
		if o.Success {
			imported++
			fmt.Fprintf(out, "✓ %d: %s\n", o.Index, o.Message)
			continue
		}
		fmt.Fprintf(out, "✗ %d: %s\n", o.Index, o.Message)
		keys := make([]string, 0, len(o.FieldErrors))
		for k := range o.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "    %s: %s\n", k, o.FieldErrors[k])
		}
	}
	_, err := fmt.Fprintf(out, "Imported %d of %d %s\n", imported, len(outcomes), r.Entity.Plural)
	return err
}
