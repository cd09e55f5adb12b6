package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dealerops/dealerctl/internal/auth"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/store"
	"github.com/dealerops/dealerctl/internal/util"
)

type serviceFactoryKey struct{}

// ServiceFactoryKey is the context key of the ServiceFactory commands use to
// reach the data store.
var ServiceFactoryKey = serviceFactoryKey{}

// ServiceFactory opens the action layer for the current profile.
type ServiceFactory func(ctx context.Context, cfg config.Hook, logger *slog.Logger) (*dealer.Service, error)

// ServiceProvider opens the store the first time a command asks for it and
// hands out the same service afterwards.
type ServiceProvider struct {
	mu  sync.Mutex
	db  *store.DB
	svc *dealer.Service
}

// Open satisfies ServiceFactory.
func (p *ServiceProvider) Open(ctx context.Context, cfg config.Hook, logger *slog.Logger) (*dealer.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.svc != nil {
		return p.svc, nil
	}

	path := cfg.GetString(common.DatabasePathConfigPath)
	if path == "" {
		return nil, &ConfigurationError{
			Err: fmt.Errorf("no database configured, set %s or pass --%s",
				common.DatabasePathConfigPath, common.DatabaseFlagName),
		}
	}
	if path != store.MemoryPath {
		if err := util.InitDir(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := store.Open(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	svc, err := dealer.NewService(ctx, db, dealer.DefaultRegistry(),
		dealer.WithPasswordHasher(auth.Hasher{}),
		dealer.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	p.db, p.svc = db, svc
	return svc, nil
}

// Close releases the store if it was opened.
func (p *ServiceProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db, p.svc = nil, nil
	return err
}

// RequireSession enforces sign-in when the profile sets auth.required. The
// first user may be created without a session while no users exist.
func RequireSession(helper Helper, svc *dealer.Service, bootstrapAllowed bool) (auth.Session, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return auth.Session{}, err
	}
	if !cfg.GetBool(common.AuthRequiredConfigPath) {
		return auth.Session{}, nil
	}

	authenticator, err := auth.FromConfig(cfg, svc)
	if err != nil {
		return auth.Session{}, &ConfigurationError{Err: err}
	}
	ctx := helper.GetContext()
	if bootstrapAllowed {
		empty, err := authenticator.Bootstrapping(ctx)
		if err != nil {
			return auth.Session{}, PrepareExecutionErrorWithHelper(helper, "unable to read users", err)
		}
		if empty {
			return auth.Session{}, nil
		}
	}

	session, err := authenticator.Authorize(ctx, auth.StoredToken(cfg))
	if err != nil {
		return auth.Session{}, PrepareExecutionErrorFromErr(helper, err)
	}
	return session, nil
}
