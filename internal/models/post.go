package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentType is the media kind of a post.
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeImage ContentType = "image"
	ContentTypeText  ContentType = "text"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeVideo, ContentTypeImage, ContentTypeText:
		return true
	}
	return false
}

// Visibility controls the audience of a post.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityPrivate:
		return true
	}
	return false
}

// Post is a durable feed post.
//
// The persisted counters (LikesCount, CommentsCount, SharesCount, SavesCount)
// and EngagementScore are derived state owned by the repository's
// transactional mutation methods; every Like/Save/Comment/Share mutation
// adjusts them inside the same transaction. EngagementScore is recomputed
// from live counts rather than delta-applied, so it self-heals against drift.
type Post struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	CreatorID       uint        `gorm:"not null;index" json:"creator_id"`
	Creator         User        `gorm:"foreignKey:CreatorID" json:"creator"`
	Caption         string      `json:"caption"`
	ContentType     ContentType `gorm:"type:varchar(10);not null" json:"content_type"`
	MediaURL        string      `json:"media_url"`
	Visibility      Visibility  `gorm:"type:varchar(12);default:'public'" json:"visibility"`
	LikesCount      int64       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount   int64       `gorm:"not null;default:0" json:"comments_count"`
	SharesCount     int64       `gorm:"not null;default:0" json:"shares_count"`
	SavesCount      int64       `gorm:"not null;default:0" json:"saves_count"`
	EngagementScore int64       `gorm:"not null;default:0" json:"engagement_score"`
	// Liked/Saved indicate the requesting user's interaction state. Scanned
	// from a per-query subselect, never persisted.
	Liked     bool           `gorm:"->;-:migration" json:"liked"`
	Saved     bool           `gorm:"->;-:migration" json:"saved"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
