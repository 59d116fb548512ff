package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-tube"
	"github.com/uptrace/bun"
)

type mngr struct {
	db            *bun.DB
	users         tube.Users
	videos        tube.Videos
	subscriptions tube.Subscriptions
}

func NewRepositoryManager(db *bun.DB) tube.RepositoryManager {
	return &mngr{
		db:            db,
		users:         tube.NewUsersRepository(db),
		videos:        tube.NewVideosRepository(db),
		subscriptions: tube.NewSubscriptionsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database handle")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.videos == nil {
		return errors.New("repository videos should be initialized")
	}

	if m.subscriptions == nil {
		return errors.New("repository subscriptions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() tube.Users {
	return m.users
}

func (m mngr) Videos() tube.Videos {
	return m.videos
}

func (m mngr) Subscriptions() tube.Subscriptions {
	return m.subscriptions
}
