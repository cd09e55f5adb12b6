package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dealerops/dealerctl/internal/build"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/log"
)

type Helper interface {
	GetCmd() *cobra.Command
	GetArgs() []string
	GetVerb() (verbs.VerbValue, error)
	GetStreams() *iostreams.IOStreams
	GetConfig() (config.Hook, error)
	GetOutputFormat() (common.OutputFormat, error)
	GetLogger() (*slog.Logger, error)
	GetBuildInfo() (*build.Info, error)
	GetContext() context.Context
	GetService() (*dealer.Service, error)
}

type CommandHelper struct {
	// Cmd is a pointer to the command that is being executed
	Cmd *cobra.Command
	// Args are the arguments (not flags) passed to the command
	Args []string
}

func (r *CommandHelper) GetCmd() *cobra.Command {
	return r.Cmd
}

func (r *CommandHelper) GetArgs() []string {
	return r.Args
}

func (r *CommandHelper) GetBuildInfo() (*build.Info, error) {
	info, ok := r.GetContext().Value(build.InfoKey).(*build.Info)
	if !ok || info == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no build info configured"),
		}
	}
	return info, nil
}

func (r *CommandHelper) GetLogger() (*slog.Logger, error) {
	logger, ok := r.GetContext().Value(log.LoggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no logger configured"),
		}
	}
	return logger, nil
}

func (r *CommandHelper) GetVerb() (verbs.VerbValue, error) {
	verb, ok := r.GetContext().Value(verbs.Verb).(verbs.VerbValue)
	if !ok {
		return "", PrepareExecutionErrorMsg(r, "no verb found in context")
	}
	return verb, nil
}

func (r *CommandHelper) GetStreams() *iostreams.IOStreams {
	if streams, ok := r.GetContext().Value(iostreams.StreamsKey).(*iostreams.IOStreams); ok && streams != nil {
		return streams
	}
	return iostreams.GetOSIOStreams()
}

func (r *CommandHelper) GetConfig() (config.Hook, error) {
	cfg, ok := r.GetContext().Value(config.ConfigKey).(config.Hook)
	if !ok || cfg == nil {
		return nil, PrepareExecutionErrorMsg(r, "no config found in context")
	}
	return cfg, nil
}

func (r *CommandHelper) GetOutputFormat() (common.OutputFormat, error) {
	c, e := r.GetConfig()
	if e != nil {
		return common.TEXT, e
	}
	rv, e := common.OutputFormatStringToIota(c.GetString(common.OutputConfigPath))
	if e != nil {
		return common.TEXT, &ConfigurationError{Err: e}
	}
	return rv, nil
}

func (r *CommandHelper) GetContext() context.Context {
	if ctx := r.Cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// GetService opens the action layer through the factory stored on the
// command context.
func (r *CommandHelper) GetService() (*dealer.Service, error) {
	factory, ok := r.GetContext().Value(ServiceFactoryKey).(ServiceFactory)
	if !ok || factory == nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("no data store configured")}
	}
	cfg, err := r.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := r.GetLogger()
	if err != nil {
		return nil, err
	}
	svc, err := factory(r.GetContext(), cfg, logger)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, PrepareExecutionError("unable to open the data store", err, r.Cmd)
	}
	return svc, nil
}

func BuildHelper(cmd *cobra.Command, args []string) Helper {
	return &CommandHelper{
		Cmd:  cmd,
		Args: args,
	}
}

// ConfigurationError represents errors that are a result of bad flags, combinations of
// flags, configuration settings, environment values, or other command usage issues.
type ConfigurationError struct {
	Err error
}

// ExecutionError represents errors that occur after a command has been validated and an
// unsuccessful result occurs. Store failures, rejected mutations and invalid sessions are
// examples of ExecutionError types.
type ExecutionError struct {
	// friendly error message to display to the user
	Msg string
	// Err is the error that occurred during execution
	Err error
	// Optional attributes that can be used to provide additional context to the error
	Attrs []any
}

func (e *ConfigurationError) Error() string {
	return e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PrepareExecutionErrorWithHelper mirrors PrepareExecutionError but accepts a Helper.
// It ensures command usage/error output is silenced for runtime failures.
func PrepareExecutionErrorWithHelper(helper Helper, msg string, err error, attrs ...any) *ExecutionError {
	if helper == nil {
		return PrepareExecutionError(msg, err, nil, attrs...)
	}
	return PrepareExecutionError(msg, err, helper.GetCmd(), attrs...)
}

// PrepareExecutionErrorFromErr converts an arbitrary error into an ExecutionError while
// silencing usage/error output on the associated command. The friendly message defaults
// to the underlying error string.
func PrepareExecutionErrorFromErr(helper Helper, err error, attrs ...any) *ExecutionError {
	if err == nil {
		return nil
	}
	return PrepareExecutionErrorWithHelper(helper, err.Error(), err, attrs...)
}

// PrepareExecutionErrorMsg builds an ExecutionError from a message when a backing error
// is not already available.
func PrepareExecutionErrorMsg(helper Helper, msg string, attrs ...any) *ExecutionError {
	if msg == "" {
		return PrepareExecutionErrorWithHelper(helper, msg, errors.New("an unknown error occurred"), attrs...)
	}
	return PrepareExecutionErrorWithHelper(helper, msg, errors.New(msg), attrs...)
}

// PrepareEnvelopeError turns a failed mutation into an ExecutionError whose
// attributes carry the field errors in form order.
func PrepareEnvelopeError(helper Helper, e *dealer.Entity, env dealer.Envelope) *ExecutionError {
	var attrs []any
	if len(env.FieldErrors) > 0 {
		attrs = append(attrs, log.FieldErrors(env.FieldErrors, e.FieldKeys()))
	}
	return PrepareExecutionErrorWithHelper(helper, env.Message, errors.New(env.Message), attrs...)
}

// This will construct an execution error AND turn off error and usage output for the command
func PrepareExecutionError(msg string, err error, cmd *cobra.Command, attrs ...any) *ExecutionError {
	if cmd != nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
	}

	return &ExecutionError{
		Msg:   msg,
		Err:   err,
		Attrs: attrs,
	}
}
