package tube

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Subscriptions interface {
	repository.Repository[*Subscription]

	Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) (*Subscription, error)
	Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int, error)
	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int, error)
}

type subscriptions struct {
	repository.Repository[*Subscription]
	db *bun.DB
}

var _ Subscriptions = (*subscriptions)(nil)

func NewSubscriptionsRepository(db *bun.DB) Subscriptions {
	repo := repository.NewRepository[*Subscription](db, repository.ModelHandlers[*Subscription]{
		NewRecord: func() *Subscription { return &Subscription{} },
		GetID: func(s *Subscription) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Subscription, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	return &subscriptions{
		Repository: repo,
		db:         db,
	}
}

func (a *subscriptions) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) (*Subscription, error) {
	record := &Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}

	return a.Repository.Create(ctx, record)
}

func (a *subscriptions) Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*Subscription)(nil)).
		Where("?TableAlias.subscriber_id = ?", subscriberID).
		Where("?TableAlias.channel_id = ?", channelID).
		Exec(ctx)

	return err
}

func (a *subscriptions) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	exists, err := a.db.NewSelect().
		Model((*Subscription)(nil)).
		Where("?TableAlias.subscriber_id = ?", subscriberID).
		Where("?TableAlias.channel_id = ?", channelID).
		Exists(ctx)

	if err != nil && err != sql.ErrNoRows {
		return false, err
	}

	return exists, nil
}

func (a *subscriptions) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*Subscription)(nil)).
		Where("?TableAlias.channel_id = ?", channelID).
		Count(ctx)
}

func (a *subscriptions) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*Subscription)(nil)).
		Where("?TableAlias.subscriber_id = ?", subscriberID).
		Count(ctx)
}
