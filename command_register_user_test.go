package tube_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tube"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

// registeringUsers records RegisterTx calls without a database.
type registeringUsers struct {
	tube.Users
	created   []*tube.User
	createErr error
}

func (r *registeringUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *tube.User) (*tube.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	r.created = append(r.created, user)
	return user, nil
}

// txRepoManager runs the transaction body directly.
type txRepoManager struct {
	tube.RepositoryManager
	users tube.Users
}

func (f *txRepoManager) Users() tube.Users { return f.users }

func (f *txRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user with a hashed password", func(t *testing.T) {
		users := &registeringUsers{}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		err := handler.Execute(ctx, tube.RegisterUserMessage{
			FullName: "Pepe Rone",
			Username: "pepe",
			Email:    "pepe@example.com",
			Password: "super-secret-1",
		})
		assert.NoError(t, err)
		assert.Len(t, users.created, 1)

		created := users.created[0]
		assert.Equal(t, "pepe", created.Username)
		assert.Equal(t, "pepe@example.com", created.Email)
		assert.NotEmpty(t, created.PasswordHash)
		assert.NotEqual(t, "super-secret-1", created.PasswordHash)
		assert.NoError(t, tube.ComparePasswordAndHash("super-secret-1", created.PasswordHash))
	})

	t.Run("derives the username from the email", func(t *testing.T) {
		users := &registeringUsers{}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		err := handler.Execute(ctx, tube.RegisterUserMessage{
			FullName: "Pepe Rone",
			Email:    "pepe.rone@example.com",
			Password: "super-secret-1",
		})
		assert.NoError(t, err)
		assert.Equal(t, "pepe.rone", users.created[0].Username)
	})

	t.Run("hashid derives a stable id from the email", func(t *testing.T) {
		users := &registeringUsers{}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		err := handler.Execute(ctx, tube.RegisterUserMessage{
			FullName:  "Pepe Rone",
			Email:     "pepe@example.com",
			Password:  "super-secret-1",
			UseHashid: true,
		})
		assert.NoError(t, err)

		otherUsers := &registeringUsers{}
		otherHandler := tube.NewRegisterUserHandler(&txRepoManager{users: otherUsers})

		err = otherHandler.Execute(ctx, tube.RegisterUserMessage{
			FullName:  "Pepe Rone",
			Email:     "pepe@example.com",
			Password:  "super-secret-1",
			UseHashid: true,
		})
		assert.NoError(t, err)
		assert.Equal(t, users.created[0].ID, otherUsers.created[0].ID)
	})

	t.Run("empty password is a validation error", func(t *testing.T) {
		users := &registeringUsers{}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		err := handler.Execute(ctx, tube.RegisterUserMessage{
			FullName: "Pepe Rone",
			Email:    "pepe@example.com",
		})
		assert.Error(t, err)
		assert.Empty(t, users.created)

		var richErr *goerrors.Error
		assert.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})

	t.Run("duplicate identity maps to a conflict", func(t *testing.T) {
		users := &registeringUsers{createErr: errors.New("UNIQUE constraint failed: users.email")}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		err := handler.Execute(ctx, tube.RegisterUserMessage{
			FullName: "Pepe Rone",
			Email:    "pepe@example.com",
			Password: "super-secret-1",
		})
		assert.Error(t, err)

		var richErr *goerrors.Error
		assert.ErrorAs(t, err, &richErr)
		assert.Equal(t, tube.ErrIdentityExists.TextCode, richErr.TextCode)
		assert.Equal(t, tube.ErrIdentityExists.Code, richErr.Code)
	})

	t.Run("cancelled context aborts before any work", func(t *testing.T) {
		users := &registeringUsers{}
		handler := tube.NewRegisterUserHandler(&txRepoManager{users: users})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := handler.Execute(cancelled, tube.RegisterUserMessage{
			FullName: "Pepe Rone",
			Email:    "pepe@example.com",
			Password: "super-secret-1",
		})
		assert.Error(t, err)
		assert.Empty(t, users.created)
	})
}
