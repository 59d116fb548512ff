package tube

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash and RefreshToken never serialize; the
// refresh token column is written exclusively through the SessionStore.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName      string     `bun:"fullname,notnull" json:"fullname,omitempty"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	CoverImage    string     `bun:"cover_image" json:"cover_image,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	RefreshToken  string     `bun:"refresh_token,nullzero" json:"-"`
	WatchHistory  []*Video   `bun:"m2m:watch_history,join:User=Video" json:"watch_history,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Sanitized returns a copy stripped of the password digest and the stored
// refresh token, safe to hand back to callers.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}

	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	return &clone
}

// NormalizeIdentifiers lowercases username and email the way the persistence
// layer stores them.
func (u *User) NormalizeIdentifiers() *User {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return u
}

// Video is the video model
type Video struct {
	bun.BaseModel `bun:"table:videos,alias:vid"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner         *User      `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	VideoFile     string     `bun:"video_file,notnull" json:"video_file,omitempty"`
	Thumbnail     string     `bun:"thumbnail,notnull" json:"thumbnail,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	Duration      float64    `bun:"duration,notnull" json:"duration,omitempty"`
	Views         int64      `bun:"views,default:0" json:"views"`
	IsPublished   bool       `bun:"is_published,default:true" json:"is_published"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// WatchHistoryEntry joins users to the videos they watched, newest first.
type WatchHistoryEntry struct {
	bun.BaseModel `bun:"table:watch_history,alias:wh"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	VideoID       uuid.UUID  `bun:"video_id,pk,type:uuid" json:"video_id,omitempty"`
	Video         *Video     `bun:"rel:belongs-to,join:video_id=id" json:"video,omitempty"`
	WatchedAt     *time.Time `bun:"watched_at,nullzero,default:current_timestamp" json:"watched_at,omitempty"`
}

// Subscription links a subscriber to the channel (another user) they follow.
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SubscriberID  uuid.UUID  `bun:"subscriber_id,notnull,type:uuid" json:"subscriber_id,omitempty"`
	Subscriber    *User      `bun:"rel:belongs-to,join:subscriber_id=id" json:"subscriber,omitempty"`
	ChannelID     uuid.UUID  `bun:"channel_id,notnull,type:uuid" json:"channel_id,omitempty"`
	Channel       *User      `bun:"rel:belongs-to,join:channel_id=id" json:"channel,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	FullName        string    `json:"fullname"`
	Email           string    `json:"email"`
	Avatar          string    `json:"avatar,omitempty"`
	CoverImage      string    `json:"cover_image,omitempty"`
	SubscriberCount int       `json:"subscriber_count"`
	SubscribedTo    int       `json:"channels_subscribed_to"`
	IsSubscribed    bool      `json:"is_subscribed"`
}
