package tube

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Videos interface {
	repository.Repository[*Video]

	GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]*Video, error)
	AddToWatchHistory(ctx context.Context, userID, videoID uuid.UUID) error
}

type videos struct {
	repository.Repository[*Video]
	db *bun.DB
}

var _ Videos = (*videos)(nil)

func NewVideosRepository(db *bun.DB) Videos {
	repo := repository.NewRepository[*Video](db, repository.ModelHandlers[*Video]{
		NewRecord: func() *Video { return &Video{} },
		GetID: func(v *Video) uuid.UUID {
			if v == nil {
				return uuid.Nil
			}
			return v.ID
		},
		SetID: func(v *Video, id uuid.UUID) {
			if v != nil {
				v.ID = id
			}
		},
	})

	return &videos{
		Repository: repo,
		db:         db,
	}
}

// GetWatchHistory returns the published videos a user watched, newest first,
// with the owning channel preloaded.
func (a *videos) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]*Video, error) {
	var records []*Video

	err := a.db.NewSelect().
		Model(&records).
		Relation("Owner").
		Join(`JOIN watch_history AS wh ON wh.video_id = ?TableAlias.id`).
		Where("wh.user_id = ?", userID).
		Where("?TableAlias.is_published = ?", true).
		OrderExpr("wh.watched_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.Owner != nil {
			record.Owner = record.Owner.Sanitized()
		}
	}

	return records, nil
}

// AddToWatchHistory upserts the entry so re-watching bumps the timestamp
// instead of duplicating the row.
func (a *videos) AddToWatchHistory(ctx context.Context, userID, videoID uuid.UUID) error {
	now := time.Now()
	entry := &WatchHistoryEntry{
		UserID:    userID,
		VideoID:   videoID,
		WatchedAt: &now,
	}

	_, err := a.db.NewInsert().
		Model(entry).
		On("CONFLICT (user_id, video_id) DO UPDATE").
		Set("watched_at = EXCLUDED.watched_at").
		Exec(ctx)

	return err
}
