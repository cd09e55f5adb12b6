package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/auth"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/store"
	testcmd "github.com/dealerops/dealerctl/test/cmd"
	testConfig "github.com/dealerops/dealerctl/test/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
}

func newProfile(t *testing.T) *config.ProfiledConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.GetConfig(path, "default", path)
	require.NoError(t, err)
	cfg.SetString(common.DatabasePathConfigPath, store.MemoryPath)
	return cfg
}

func TestServiceProviderRequiresDatabasePath(t *testing.T) {
	cfg := &testConfig.MockConfigHook{
		GetStringMock: func(string) string { return "" },
	}
	p := &ServiceProvider{}

	_, err := p.Open(context.Background(), cfg, discardLogger())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), common.DatabasePathConfigPath)
}

func TestServiceProviderReusesService(t *testing.T) {
	cfg := newProfile(t)
	p := &ServiceProvider{}
	t.Cleanup(func() { _ = p.Close() })

	first, err := p.Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	second, err := p.Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestServiceProviderCreatesDatabaseDirectory(t *testing.T) {
	cfg := newProfile(t)
	path := filepath.Join(t.TempDir(), "data", "dealer.db")
	cfg.SetString(common.DatabasePathConfigPath, path)
	p := &ServiceProvider{}

	_, err := p.Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func helperFor(cfg config.Hook) *testcmd.MockHelper {
	return &testcmd.MockHelper{
		GetConfigMock: func() (config.Hook, error) { return cfg, nil },
	}
}

func openService(t *testing.T, cfg config.Hook) *dealer.Service {
	t.Helper()
	p := &ServiceProvider{}
	t.Cleanup(func() { _ = p.Close() })
	svc, err := p.Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	return svc
}

func TestRequireSessionDisabled(t *testing.T) {
	cfg := newProfile(t)
	cfg.Set(common.AuthRequiredConfigPath, false)
	svc := openService(t, cfg)

	session, err := RequireSession(helperFor(cfg), svc, false)
	require.NoError(t, err)
	assert.Empty(t, session.Username)
}

func TestRequireSession(t *testing.T) {
	cfg := newProfile(t)
	cfg.Set(common.AuthRequiredConfigPath, true)
	svc := openService(t, cfg)
	helper := helperFor(cfg)

	// no users yet: only the bootstrap path is open
	_, err := RequireSession(helper, svc, true)
	require.NoError(t, err)

	_, err = RequireSession(helper, svc, false)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, errors.Is(err, auth.ErrNotLoggedIn))

	users, ok := svc.Registry().Lookup(dealer.UserEntityName)
	require.True(t, ok)
	env := svc.Create(context.Background(), users, dealer.Input{
		"username":  "admin",
		"full_name": "Administrator",
		"role":      "admin",
		"password":  "correct horse",
	})
	require.True(t, env.Success, env.Message)

	// a user exists, so bootstrapping no longer skips the check
	_, err = RequireSession(helper, svc, true)
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)

	authenticator, err := auth.FromConfig(cfg, svc)
	require.NoError(t, err)
	token, _, err := authenticator.Login(context.Background(), "admin", "correct horse")
	require.NoError(t, err)
	require.NoError(t, auth.SaveToken(cfg, token))

	session, err := RequireSession(helper, svc, false)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, "admin", session.Role)
}
