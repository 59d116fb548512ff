package tube

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity that end up in token claims
type Identity interface {
	ID() string
	Username() string
	Email() string
	DisplayName() string
}

// Config holds auth options
type Config interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiration() time.Duration
	GetRefreshTokenExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// TokenIssuer creates signed time-bound tokens for an identity.
type TokenIssuer interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(userID string) (string, error)
}

// TokenVerifier validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenVerifier interface {
	ValidateAccessToken(raw string) (*AccessClaims, error)
	ValidateRefreshToken(raw string) (*RefreshClaims, error)
}

// SessionStore owns the single refresh token slot kept per identity. Set
// overwrites the stored value unconditionally, Clear empties it. Only one
// session per identity survives concurrent logins, which is intentional.
type SessionStore interface {
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Set(ctx context.Context, userID uuid.UUID, token string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// IdentityStore ensures we have a store to retrieve auth identities
type IdentityStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Authenticator holds methods to deal with the auth session lifecycle
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Refresh(ctx context.Context, presented string) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

// TokenPair is an access/refresh token couple issued together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is what a successful login hands back to the transport layer.
// User is sanitized: no password digest, no stored refresh token.
type LoginResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] TUBE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] TUBE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] TUBE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] TUBE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
