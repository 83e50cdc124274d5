// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// VerificationTier is the account verification badge level.
type VerificationTier string

const (
	TierNone  VerificationTier = "none"
	TierBlue  VerificationTier = "blue"
	TierGold  VerificationTier = "gold"
	TierStaff VerificationTier = "staff"
)

// Valid reports whether t is a known verification tier.
func (t VerificationTier) Valid() bool {
	switch t {
	case TierNone, TierBlue, TierGold, TierStaff:
		return true
	}
	return false
}

// Role is the moderation capability level of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may access moderation surfaces.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// User is an account's durable public profile.
//
// FollowersCount, FollowingCount and PostsCount are derived counters owned by
// the repository's transactional mutation methods. They must always equal the
// count of the corresponding edge/row sets; client code never writes them
// directly.
type User struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Username       string           `gorm:"unique;not null" json:"username"`
	Email          string           `gorm:"unique;not null" json:"email"`
	Password       string           `gorm:"not null" json:"-"`
	DisplayName    string           `json:"display_name"`
	Bio            string           `json:"bio"`
	Avatar         string           `json:"avatar"`
	Banner         string           `json:"banner"`
	Tier           VerificationTier `gorm:"type:varchar(10);default:'none'" json:"tier"`
	Role           Role             `gorm:"type:varchar(20);default:'user'" json:"role"`
	FollowersCount int64            `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int64            `gorm:"not null;default:0" json:"following_count"`
	PostsCount     int64            `gorm:"not null;default:0" json:"posts_count"`
	WalletBalance  int64            `gorm:"not null;default:0;check:wallet_balance >= 0" json:"wallet_balance"`
	IsPrivate      bool             `gorm:"default:false" json:"is_private"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	Settings *UserSettings `gorm:"foreignKey:UserID" json:"settings,omitempty"`
}

// UserSettings holds per-account preferences, cascade-created at signup.
type UserSettings struct {
	UserID               uint      `gorm:"primaryKey" json:"user_id"`
	NotificationsEnabled bool      `gorm:"default:true" json:"notifications_enabled"`
	DMsFromAnyone        bool      `gorm:"default:true" json:"dms_from_anyone"`
	ShowActivityStatus   bool      `gorm:"default:true" json:"show_activity_status"`
	UpdatedAt            time.Time `json:"updated_at"`
}
