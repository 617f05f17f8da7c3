package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

var (
	errInvalidToken = errors.New("invalid token")
	errRevokedToken = errors.New("token has been revoked")
)

type claims struct {
	jwt.RegisteredClaims
	Username   string    `json:"username"`
	TokenType  tokenKind `json:"token_type"`
	Generation int64     `json:"gen"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenIssuer signs and checks HS256 tokens. Bumping a generation revokes
// every token of that kind issued before.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	accessGen  atomic.Int64
	refreshGen atomic.Int64
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: now}
}

func (t *tokenIssuer) issue(username string) (tokenPair, error) {
	access, err := t.sign(username, kindAccess, t.accessTTL, t.accessGen.Load())
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := t.sign(username, kindRefresh, t.refreshTTL, t.refreshGen.Load())
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(t.accessTTL.Seconds()),
	}, nil
}

func (t *tokenIssuer) sign(username string, kind tokenKind, ttl time.Duration, gen int64) (string, error) {
	now := t.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:   username,
		TokenType:  kind,
		Generation: gen,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *tokenIssuer) validate(token string, kind tokenKind) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, jwt.ErrTokenExpired
		}
		return nil, errInvalidToken
	}
	if !parsed.Valid || c.TokenType != kind {
		return nil, errInvalidToken
	}
	current := t.accessGen.Load()
	if kind == kindRefresh {
		current = t.refreshGen.Load()
	}
	if c.Generation < current {
		return nil, errRevokedToken
	}
	return &c, nil
}

// ExpireAccessTokens makes every access token issued so far fail with 401,
// while refresh tokens keep working.
func (s *Server) ExpireAccessTokens() {
	s.tokens.accessGen.Add(1)
}

// RevokeRefreshTokens makes every refresh token issued so far unusable
func (s *Server) RevokeRefreshTokens() {
	s.tokens.refreshGen.Add(1)
}

// IssueTokens returns a valid token pair without going through login
func (s *Server) IssueTokens(username string) (access, refresh string, err error) {
	pair, err := s.tokens.issue(username)
	return pair.AccessToken, pair.RefreshToken, err
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	if req.Username != s.opts.Username || req.Password != s.opts.Password {
		fail(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid username or password")
		return
	}
	pair, err := s.tokens.issue(req.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	cl, err := s.tokens.validate(req.RefreshToken, kindRefresh)
	if err != nil {
		fail(c, http.StatusUnauthorized, CodeUnauthorized, "Refresh token rejected: "+err.Error())
		return
	}
	pair, err := s.tokens.issue(cl.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	c.JSON(http.StatusOK, pair)
}

// requireAuth checks the bearer access token
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "Missing authorization header")
			return
		}
		cl, err := s.tokens.validate(token, kindAccess)
		if err != nil {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "Token validation failed: "+err.Error())
			return
		}
		c.Set("username", cl.Username)
		c.Next()
	}
}
