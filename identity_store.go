package tube

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// repoIdentityStore serves identities out of the users repository, mapping
// repository not-found results to the auth error taxonomy.
type repoIdentityStore struct {
	users Users
}

var _ IdentityStore = (*repoIdentityStore)(nil)

// NewIdentityStore returns an IdentityStore backed by the users repository.
func NewIdentityStore(users Users) IdentityStore {
	return &repoIdentityStore{users: users}
}

func (s *repoIdentityStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity lookup failed")
	}
	return user, nil
}

func (s *repoIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.users.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity lookup failed")
	}
	return user, nil
}

func (s *repoIdentityStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if err := s.users.UpdatePasswordHash(ctx, id, passwordHash); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}
	return nil
}
