package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/telemetry"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Authenticator exchanges credentials for tokens
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (api.TokenPair, error)
}

// flight is one in-progress refresh shared by every caller that asks for it
type flight struct {
	done  chan struct{}
	token string
	err   error
}

// Manager owns the stored credentials for one backend. It is the
// api.TokenSource of the client that talks to that backend.
type Manager struct {
	store   Store
	auth    Authenticator
	key     string
	skew    time.Duration
	logger  *zap.Logger
	metrics *telemetry.Metrics
	now     func() time.Time

	mu       sync.Mutex
	inflight *flight
}

// Option configures a Manager
type Option func(*Manager)

// WithRefreshSkew refreshes access tokens this long before they expire
func WithRefreshSkew(d time.Duration) Option {
	return func(m *Manager) { m.skew = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l.Named("session") }
}

// WithMetrics records refresh outcomes
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager storing credentials under key
func NewManager(store Store, auth Authenticator, key string, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		auth:   auth,
		key:    key,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// KeyFor derives a store key from the backend base URL, so sessions for
// different backends do not overwrite each other.
func KeyFor(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host + u.Path
}

// Get returns the stored credentials, or ErrNoSession
func (m *Manager) Get(ctx context.Context) (Credentials, error) {
	return m.store.Load(ctx, m.key)
}

// Set replaces the stored credentials
func (m *Manager) Set(ctx context.Context, creds Credentials) error {
	creds.UpdatedAt = m.now()
	return m.store.Save(ctx, m.key, creds)
}

// Clear removes all stored credentials
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Delete(ctx, m.key)
}

// Login signs in and stores the new credentials
func (m *Manager) Login(ctx context.Context, username, password string) (Credentials, error) {
	pair, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return Credentials{}, err
	}
	creds := m.credentialsFrom(pair, "")
	creds.Username = username
	if err := m.Set(ctx, creds); err != nil {
		return Credentials{}, err
	}
	m.logger.Info("signed in", zap.String("username", username), zap.Time("expires_at", creds.ExpiresAt))
	return creds, nil
}

// AccessToken returns the current access token, refreshing it first when it
// is about to expire. With no stored session it returns an empty token.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	creds, err := m.Get(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if creds.RefreshToken != "" && creds.ExpiresWithin(m.skew, m.now()) {
		return m.Refresh(ctx)
	}
	return creds.AccessToken, nil
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share one backend call. On failure every stored credential is
// cleared and shared.ErrSessionExpired is returned.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if f := m.inflight; f != nil {
		m.mu.Unlock()
		select {
		case <-f.done:
			return f.token, f.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	m.inflight = f
	m.mu.Unlock()

	// One caller giving up must not fail the refresh for the others
	f.token, f.err = m.refresh(context.WithoutCancel(ctx))

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(f.done)

	return f.token, f.err
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	creds, err := m.Get(ctx)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return "", err
	}
	if creds.RefreshToken == "" {
		m.metrics.SessionRefresh(telemetry.OutcomeRejected)
		_ = m.Clear(ctx)
		return "", shared.ErrSessionExpired
	}

	pair, err := m.auth.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		m.metrics.SessionRefresh(telemetry.OutcomeFailed)
		m.logger.Warn("token refresh failed, clearing session", zap.Error(err))
		if clearErr := m.Clear(ctx); clearErr != nil {
			m.logger.Error("failed to clear session", zap.Error(clearErr))
		}
		return "", fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}

	next := m.credentialsFrom(pair, creds.RefreshToken)
	next.Username = creds.Username
	if err := m.Set(ctx, next); err != nil {
		return "", err
	}
	m.metrics.SessionRefresh(telemetry.OutcomeOK)
	m.logger.Debug("access token refreshed", zap.Time("expires_at", next.ExpiresAt))
	return next.AccessToken, nil
}

// credentialsFrom builds credentials from a token pair. The backend may omit
// the refresh token on refresh, in which case the previous one is kept.
func (m *Manager) credentialsFrom(pair api.TokenPair, previousRefresh string) Credentials {
	c := Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    tokenExpiry(pair.AccessToken),
	}
	if c.RefreshToken == "" {
		c.RefreshToken = previousRefresh
	}
	if c.ExpiresAt.IsZero() && pair.ExpiresIn > 0 {
		c.ExpiresAt = m.now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	}
	return c
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client never holds the signing key and only uses exp for scheduling.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

var _ api.TokenSource = (*Manager)(nil)
