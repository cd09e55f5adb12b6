// Package harness runs verb commands against a throwaway profile and an
// in-memory database.
package harness

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/build"
	"github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/log"
	"github.com/dealerops/dealerctl/internal/store"
)

type Env struct {
	Config   *config.ProfiledConfig
	Streams  *iostreams.IOStreams
	In       *bytes.Buffer
	Out      *bytes.Buffer
	ErrOut   *bytes.Buffer
	Provider *cmd.ServiceProvider
}

// New returns an environment whose profile lives in a temp dir and whose
// database is in memory. The database is shared by every command run in it.
func New(t *testing.T) *Env {
	t.Helper()
	cobra.EnableTraverseRunHooks = true

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.GetConfig(path, common.DefaultProfile, path)
	require.NoError(t, err)
	cfg.SetString(common.DatabasePathConfigPath, store.MemoryPath)
	cfg.Set(common.AuthRequiredConfigPath, false)

	streams, in, out, errOut := iostreams.NewTestIOStreams()
	env := &Env{
		Config:   cfg,
		Streams:  &streams,
		In:       in,
		Out:      out,
		ErrOut:   errOut,
		Provider: &cmd.ServiceProvider{},
	}
	t.Cleanup(func() { _ = env.Provider.Close() })
	return env
}

// Context carries what the root command normally injects.
func (e *Env) Context() context.Context {
	ctx := context.WithValue(context.Background(), config.ConfigKey, config.Hook(e.Config))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, e.Streams)
	ctx = context.WithValue(ctx, build.InfoKey, &build.Info{Version: "test", Commit: "none", Date: "today"})
	ctx = context.WithValue(ctx, log.LoggerKey, slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})))
	ctx = context.WithValue(ctx, cmd.ServiceFactoryKey, cmd.ServiceFactory(e.Provider.Open))
	return ctx
}

// Service opens the environment's service for seeding and assertions.
func (e *Env) Service(t *testing.T) *dealer.Service {
	t.Helper()
	svc, err := e.Provider.Open(context.Background(), e.Config, slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})))
	require.NoError(t, err)
	return svc
}

// Entity resolves name against the environment's registry.
func (e *Env) Entity(t *testing.T, name string) *dealer.Entity {
	t.Helper()
	entity, ok := e.Service(t).Registry().Lookup(name)
	require.True(t, ok, "entity %s", name)
	return entity
}

// Seed creates a record and returns its ID.
func (e *Env) Seed(t *testing.T, entity string, input dealer.Input) string {
	t.Helper()
	env := e.Service(t).Create(context.Background(), e.Entity(t, entity), input)
	require.True(t, env.Success, "seed %s: %s %v", entity, env.Message, env.FieldErrors)
	return env.ID
}

// SetOutput selects the --output format for following runs.
func (e *Env) SetOutput(format common.OutputFormat) {
	e.Config.SetString(common.OutputConfigPath, format.String())
}

// Run executes c with args. Output buffers are reset first.
func (e *Env) Run(c *cobra.Command, args ...string) error {
	e.Out.Reset()
	e.ErrOut.Reset()
	c.SetArgs(args)
	c.SetOut(e.ErrOut)
	c.SetErr(e.ErrOut)
	return c.ExecuteContext(e.Context())
}
