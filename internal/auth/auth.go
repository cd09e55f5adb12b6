package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrNotLoggedIn        = errors.New("not logged in, run '" + meta.CLIName + " login' first")
	ErrSessionExpired     = errors.New("session expired, run '" + meta.CLIName + " login' again")
	ErrInvalidSession     = errors.New("session is not valid, run '" + meta.CLIName + " login' again")
)

// Hasher stores passwords as bcrypt hashes.
type Hasher struct {
	Cost int
}

func (h Hasher) HashPassword(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches a hash made by HashPassword.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UserSource is the user lookup sign-in needs. *dealer.Service satisfies it.
type UserSource interface {
	UserCredentials(ctx context.Context, username string) (dealer.Credentials, error)
	UserCount(ctx context.Context) (int, error)
}

// Claims are carried by session tokens. The subject is the username.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	Username  string
	Role      string
	ExpiresAt time.Time
}

type Authenticator struct {
	users  UserSource
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(users UserSource, secret string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive, got %s", ttl)
	}
	return &Authenticator{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source used to issue and check tokens.
func (a *Authenticator) SetClock(now func() time.Time) {
	a.now = now
}

// Login checks a username and password and returns a signed session token.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, Session, error) {
	creds, err := a.users.UserCredentials(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Session{}, err
	}
	if !CheckPassword(creds.PasswordHash, password) {
		return "", Session{}, ErrInvalidCredentials
	}
	if !creds.Active {
		return "", Session{}, ErrInactiveUser
	}

	now := a.now()
	claims := Claims{
		Role: creds.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    meta.CLIName,
			Subject:   creds.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, sessionFrom(&claims), nil
}

// Verify checks the signature and expiry of a token.
func (a *Authenticator) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotLoggedIn
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(meta.CLIName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Session{}, ErrSessionExpired
	case err != nil:
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return sessionFrom(&claims), nil
}

// Authorize verifies token and that its user still exists and is active.
func (a *Authenticator) Authorize(ctx context.Context, token string) (Session, error) {
	session, err := a.Verify(token)
	if err != nil {
		return Session{}, err
	}
	creds, err := a.users.UserCredentials(ctx, session.Username)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, err
	}
	if !creds.Active {
		return Session{}, ErrInactiveUser
	}
	session.Role = creds.Role
	return session, nil
}

// Bootstrapping reports whether no users exist yet, in which case the first
// user may be created without a session.
func (a *Authenticator) Bootstrapping(ctx context.Context) (bool, error) {
	n, err := a.users.UserCount(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func sessionFrom(c *Claims) Session {
	s := Session{Username: c.Subject, Role: c.Role}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.UTC()
	}
	return s
}

// FromConfig builds an Authenticator from the profile's auth settings,
// generating and saving a signing secret when the profile has none.
func FromConfig(cfg config.Hook, users UserSource) (*Authenticator, error) {
	secret, err := EnsureSecret(cfg)
	if err != nil {
		return nil, err
	}
	ttl := cfg.GetDurationOrElse(common.AuthTTLConfigPath, 0)
	if ttl == 0 {
		ttl, _ = time.ParseDuration(common.DefaultAuthTTL)
	}
	return NewAuthenticator(users, secret, ttl)
}

func EnsureSecret(cfg config.Hook) (string, error) {
	if secret := cfg.GetString(common.AuthSecretConfigPath); secret != "" {
		return secret, nil
	}
	secret := uuid.NewString() + uuid.NewString()
	cfg.SetString(common.AuthSecretConfigPath, secret)
	if err := cfg.Save(); err != nil {
		return "", fmt.Errorf("failed to save auth secret: %w", err)
	}
	return secret, nil
}

func StoredToken(cfg config.Hook) string {
	return cfg.GetString(common.AuthTokenConfigPath)
}

func SaveToken(cfg config.Hook, token string) error {
	cfg.SetString(common.AuthTokenConfigPath, token)
	return cfg.Save()
}

func ClearToken(cfg config.Hook) error {
	return SaveToken(cfg, "")
}
