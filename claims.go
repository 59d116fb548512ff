package tube

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the signed payload of an access token. It carries the
// identity attributes the original API exposes with each authenticated
// request.
type AccessClaims struct {
	jwt.RegisteredClaims
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// UserID returns the identity id, preferring the uid claim over the subject.
func (c *AccessClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// RefreshClaims is the signed payload of a refresh token. It carries only the
// identity id; everything else is looked up when the token is redeemed.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// UserID returns the identity id, preferring the uid claim over the subject.
func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *RefreshClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
