// Package session keeps the signed-in user's tokens between runs and
// refreshes them when the backend rejects an expired access token.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by a Store that holds no credentials for a key
var ErrNoSession = errors.New("no stored session")

// Credentials are the persisted tokens of one signed-in user
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Username     string    `json:"username,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsZero reports whether no access token is held
func (c Credentials) IsZero() bool {
	return c.AccessToken == ""
}

// ExpiresWithin reports whether the access token expires less than d after
// now. Tokens without a known expiry never report as expiring.
func (c Credentials) ExpiresWithin(d time.Duration, now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(c.ExpiresAt)
}

// Store persists credentials under a key, one entry per backend
type Store interface {
	Load(ctx context.Context, key string) (Credentials, error)
	Save(ctx context.Context, key string, creds Credentials) error
	Delete(ctx context.Context, key string) error
	Close() error
}
