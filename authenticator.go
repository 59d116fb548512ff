package tube

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther orchestrates the session lifecycle: credential checks, token
// issuance, refresh rotation, and password changes. It never hands back a
// password digest or the stored refresh token inside user payloads.
type Auther struct {
	identities IdentityStore
	sessions   SessionStore
	issuer     TokenIssuer
	verifier   TokenVerifier
	logger     Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns the default Authenticator implementation.
func NewAuthenticator(identities IdentityStore, sessions SessionStore, issuer TokenIssuer, verifier TokenVerifier, logger Logger) *Auther {
	if logger == nil {
		logger = defLogger{}
	}

	return &Auther{
		identities: identities,
		sessions:   sessions,
		issuer:     issuer,
		verifier:   verifier,
		logger:     logger,
	}
}

// Login verifies the credentials and, on success, issues a fresh token pair
// and stores the refresh token in the identity's session slot. A login
// replaces whatever refresh token was stored before it.
func (a *Auther) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, errors.New("identifier and password are required", errors.CategoryValidation).
			WithTextCode("missing_credentials").
			WithCode(errors.CodeBadRequest)
	}

	user, err := a.identities.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up identity")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		a.logger.Debug("login rejected: password mismatch", "identifier", identifier)
		return nil, ErrInvalidCredentials
	}

	pair, err := a.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh redeems a refresh token for a new token pair. The presented token
// must verify against the refresh secret AND match the stored slot exactly;
// a stale or cleared token is treated as reuse and rejected. Redemption
// rotates the slot, so each refresh token redeems at most once.
func (a *Auther) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return nil, ErrTokenMissing
	}

	claims, err := a.verifier.ValidateRefreshToken(presented)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := a.identities.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// the identity behind the token is gone; answer unauthorized so
			// a token holder cannot tell which accounts still exist
			a.logger.Warn("refresh rejected: identity no longer exists", "user_id", userID.String())
			return nil, ErrTokenInvalid
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up identity")
	}

	stored, err := a.sessions.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if stored == "" || stored != presented {
		a.logger.Warn("refresh rejected: token does not match stored slot", "user_id", user.ID.String())
		return nil, ErrTokenReused
	}

	return a.issueSession(ctx, user)
}

// Logout clears the identity's session slot. Any outstanding refresh token
// stops redeeming; access tokens already issued run out on their own expiry.
func (a *Auther) Logout(ctx context.Context, userID uuid.UUID) error {
	return a.sessions.Clear(ctx, userID)
}

// ChangePassword re-checks the current password before storing a new digest.
// The session slot is left alone: the stored refresh token keeps working.
func (a *Auther) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := a.identities.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrIdentityNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to look up identity")
	}

	if err := ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return a.identities.UpdatePasswordHash(ctx, user.ID, hash)
}

// issueSession mints both tokens and persists the refresh token. The store
// write happens before anything is returned: if it fails, the caller sees
// the error and no tokens, leaving the previous session state in place.
func (a *Auther) issueSession(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := a.issuer.IssueAccessToken(NewIdentityFromUser(user))
	if err != nil {
		return nil, err
	}

	refresh, err := a.issuer.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	if err := a.sessions.Set(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
