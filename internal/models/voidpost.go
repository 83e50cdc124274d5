package models

import "time"

// VoidPost is an ephemeral post with a fixed visibility window.
// Once now() >= ExpiresAt the post is excluded from every read path; the
// background sweeper physically reclaims the row some time later. Visibility
// never depends on the sweep having run.
type VoidPost struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CreatorID     uint        `gorm:"not null;index" json:"creator_id"`
	Creator       User        `gorm:"foreignKey:CreatorID" json:"creator"`
	ContentType   ContentType `gorm:"type:varchar(10);not null" json:"content_type"`
	MediaURL      string      `json:"media_url"`
	Caption       string      `json:"caption"`
	DurationHours int         `gorm:"not null" json:"duration_hours"`
	ExpiresAt     time.Time   `gorm:"not null;index" json:"expires_at"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName specifies the table name for GORM
func (VoidPost) TableName() string {
	return "void_posts"
}

// Expired reports whether the post's visibility window has closed at now.
func (v *VoidPost) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
