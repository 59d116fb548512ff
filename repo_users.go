package tube

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Raw statements below intentionally bypass the repository hooks: rewriting
// the refresh token slot or the password column must never re-trigger model
// level preparation of other fields.
var storeRefreshTokenSQL = `UPDATE "users" AS "usr"
SET
	"refresh_token" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var clearRefreshTokenSQL = `UPDATE "users" AS "usr"
SET
	"refresh_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var updatePasswordHashSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)

	StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

// GetByIdentifier resolves a user by username or email. Usernames are stored
// lowercase so the lookup is case-insensitive.
func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"identifier": identifier,
			})
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.rawUpdate(ctx, storeRefreshTokenSQL, id, token, id.String())
}

func (a *users) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return a.rawUpdate(ctx, clearRefreshTokenSQL, id, id.String())
}

func (a *users) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.rawUpdate(ctx, updatePasswordHashSQL, id, passwordHash, id.String())
}

func (a *users) rawUpdate(ctx context.Context, sql string, id uuid.UUID, args ...any) error {
	res, err := a.Repository.RawTx(ctx, a.db, sql, args...)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error) {
	record := &User{
		ID:       id,
		FullName: fullName,
		Email:    strings.ToLower(strings.TrimSpace(email)),
	}

	updated, err := a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
	if err != nil {
		return nil, mapIdentifierWriteError(err)
	}

	return updated, nil
}

// mapIdentifierWriteError keeps the error taxonomy stable when a write
// trips the username or email unique index: the caller sees a conflict,
// not a server fault.
func mapIdentifierWriteError(err error) error {
	if err == nil || repository.IsRecordNotFound(err) {
		return err
	}

	if isUniqueViolation(err) {
		return goerrors.Wrap(err, ErrIdentityExists.Category, ErrIdentityExists.Message).
			WithTextCode(ErrIdentityExists.TextCode).
			WithCode(ErrIdentityExists.Code)
	}

	return err
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error) {
	record := &User{
		ID:     id,
		Avatar: avatarURL,
	}

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *users) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) (*User, error) {
	record := &User{
		ID:         id,
		CoverImage: coverURL,
	}

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.NormalizeIdentifiers()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  strings.ToLower(trimmed),
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  strings.ToLower(trimmed),
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
