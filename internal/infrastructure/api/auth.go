package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/erp/books/internal/domain/shared"
)

const resourceAuth = "auth"

// TokenPair is the credential set returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthService calls the unauthenticated token endpoints
type AuthService struct {
	c *Client
}

// Auth returns the auth service
func (c *Client) Auth() *AuthService {
	return &AuthService{c: c}
}

// Login exchanges a username and password for tokens
func (s *AuthService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	switch {
	case strings.TrimSpace(username) == "":
		return TokenPair{}, shared.NewValidationError("username", "is required")
	case password == "":
		return TokenPair{}, shared.NewValidationError("password", "is required")
	}
	return call[TokenPair](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     loginRequest{Username: username, Password: password},
		Resource: resourceAuth,
		NoAuth:   true,
	})
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, shared.ErrSessionExpired
	}
	return call[TokenPair](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     "/auth/refresh",
		Body:     refreshRequest{RefreshToken: refreshToken},
		Resource: resourceAuth,
		NoAuth:   true,
	})
}
