package tube

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// userSessionStore keeps the refresh token slot on the users table. It is the
// only component that writes that column, and it does so through raw updates
// so no model hook (password preparation included) runs on the way.
type userSessionStore struct {
	users  Users
	logger Logger
}

var _ SessionStore = (*userSessionStore)(nil)

// NewSessionStore returns a SessionStore backed by the users repository.
func NewSessionStore(users Users, logger Logger) SessionStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &userSessionStore{
		users:  users,
		logger: logger,
	}
}

// Get returns the stored refresh token for the identity. An empty string
// means the slot is clear (logged out); a missing identity maps to not found.
func (s *userSessionStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrIdentityNotFound
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read session slot")
	}

	return user.RefreshToken, nil
}

// Set overwrites the slot unconditionally. Last write wins: a concurrent
// login or refresh for the same identity leaves only the newest token valid.
func (s *userSessionStore) Set(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.users.StoreRefreshToken(ctx, userID, token); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		s.logger.Error("session store set failed", "user_id", userID.String(), "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}
	return nil
}

// Clear empties the slot. Used by logout; any refresh token issued earlier
// stops redeeming immediately.
func (s *userSessionStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		s.logger.Error("session store clear failed", "user_id", userID.String(), "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear refresh token")
	}
	return nil
}
