package tube

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound   = "identity_not_found"
	TextCodeIdentityExists     = "identity_exists"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenInvalid       = "token_invalid"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeTokenMissing       = "token_missing"
	TextCodeTokenReused        = "token_reused"
	TextCodeSecretMissing      = "signing_secret_missing"
	TextCodeEmptyPassword      = "empty_password"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrIdentityExists is returned when a username or email is already taken.
var ErrIdentityExists = errors.New("user with the username or email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityExists).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned when a password check fails.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the bcrypt mismatch error.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens past their expiry. Callers can tell
// it apart from ErrTokenMalformed to decide between prompting a refresh and
// rejecting outright; both map to an unauthorized response.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or structure
// checks.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is returned when a token verifies cryptographically but
// can no longer be tied to a live identity. Deliberately an auth error, not
// a not-found: a token holder learns nothing about account existence.
var ErrTokenInvalid = errors.New("invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMissing is returned when no token was presented at all.
var ErrTokenMissing = errors.New("unauthorized request", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenReused is the anti-replay failure: the presented refresh token no
// longer matches the stored slot because it was rotated out or cleared.
var ErrTokenReused = errors.New("refresh token is expired or used", errors.CategoryAuth).
	WithTextCode(TextCodeTokenReused).
	WithCode(errors.CodeUnauthorized)

// ErrMissingSigningSecret is a configuration failure: the signing secret for
// the requested token class is unset.
var ErrMissingSigningSecret = errors.New("signing secret is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeSecretMissing).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
