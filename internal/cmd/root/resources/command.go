package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/store"
)

// EntityCommands builds one subcommand per registered entity that include
// accepts.
func EntityCommands(include func(*dealer.Entity) bool, build func(*dealer.Entity) *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, e := range dealer.DefaultRegistry().Entities() {
		if include != nil && !include(e) {
			continue
		}
		cmds = append(cmds, build(e))
	}
	return cmds
}

// NewEntityCmd is the skeleton of "<verb> <entity>". args documents the
// positional arguments in the usage line.
func NewEntityCmd(e *dealer.Entity, args, short string) *cobra.Command {
	use := e.Name
	if args != "" {
		use += " " + args
	}
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Aliases: append([]string{e.Plural}, e.Aliases...),
	}
}

// Run carries what an entity command needs once validated.
type Run struct {
	Helper  cmdpkg.Helper
	Entity  *dealer.Entity
	Service *dealer.Service
	Config  config.Hook
	Output  common.OutputFormat
	Streams *iostreams.IOStreams
	Logger  *slog.Logger
}

// Prepare opens the service and checks the session. When bootstrap is true
// and no users exist yet the session check is skipped.
func Prepare(helper cmdpkg.Helper, e *dealer.Entity, bootstrap bool) (*Run, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}
	svc, err := helper.GetService()
	if err != nil {
		return nil, err
	}
	if _, err := cmdpkg.RequireSession(helper, svc, bootstrap); err != nil {
		return nil, err
	}
	if registered, ok := svc.Registry().Lookup(e.Name); ok {
		e = registered
	}
	return &Run{
		Helper:  helper,
		Entity:  e,
		Service: svc,
		Config:  cfg,
		Output:  outType,
		Streams: helper.GetStreams(),
		Logger:  logger,
	}, nil
}

// Find resolves a record reference, reporting misses as execution errors.
func (r *Run) Find(ref string) (store.Row, error) {
	row, err := Find(r.Helper.GetContext(), r.Service, r.Entity, ref)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.Row{}, cmdpkg.PrepareExecutionErrorWithHelper(r.Helper,
			fmt.Sprintf("%s %q not found", r.Entity.Label, ref), err)
	case err != nil:
		return store.Row{}, cmdpkg.PrepareExecutionErrorFromErr(r.Helper, err)
	}
	return row, nil
}

// Printer returns the json or yaml printer for the run. Callers flush it.
func (r *Run) Printer() (cli.PrintFlusher, error) {
	return cli.Format(r.Output.String(), r.Streams.Out)
}

type envelopeOutput struct {
	Success     bool              `json:"success"                yaml:"success"`
	Message     string            `json:"message"                yaml:"message"`
	ID          string            `json:"id,omitempty"           yaml:"id,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty" yaml:"field_errors,omitempty"`
	Record      map[string]any    `json:"record,omitempty"       yaml:"record,omitempty"`
}

// Report writes the outcome of a mutation. Failures also come back as an
// execution error carrying the field errors, so the process exits non-zero.
func (r *Run) Report(env dealer.Envelope) error {
	switch r.Output {
	case common.JSON, common.YAML:
		out := envelopeOutput{
			Success:     env.Success,
			Message:     env.Message,
			ID:          env.ID,
			FieldErrors: env.FieldErrors,
		}
		if env.Record != nil {
			out.Record = RawRow(*env.Record)
		}
		printer, err := r.Printer()
		if err != nil {
			return err
		}
		printer.Print(out)
		printer.Flush()
	default:
		if env.Success {
			if _, err := fmt.Fprintln(r.Streams.Out, env.Message); err != nil {
				return err
			}
		}
	}

	if !env.Success {
		r.Logger.Debug("mutation failed", "entity", r.Entity.Name, "message", env.Message)
		return cmdpkg.PrepareEnvelopeError(r.Helper, r.Entity, env)
	}
	return nil
}

// ArgsDescription is the positional argument hint of record commands.
func ArgsDescription(e *dealer.Entity) string {
	if e.TitleField == "" {
		return "<id>"
	}
	return fmt.Sprintf("<id|%s>", strings.ReplaceAll(e.TitleField, "_", "-"))
}

// PersistVerb stores verb on the command context.
func PersistVerb(verb verbs.VerbValue) func(*cobra.Command, []string) {
	return func(c *cobra.Command, _ []string) {
		c.SetContext(context.WithValue(c.Context(), verbs.Verb, verb))
	}
}
