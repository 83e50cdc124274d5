package models

import (
	"time"

	"gorm.io/gorm"
)

// FreePaymentRef is the sentinel payment reference recorded when a free pack
// is auto-granted without a checkout handshake.
const FreePaymentRef = "free"

// StickerPack is a purchasable set of stickers.
// Free packs (Price == 0) are auto-approved; paid packs require moderation
// approval before they appear in public listings. SalesCount is derived,
// maintained by the purchase transaction.
type StickerPack struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatorID   uint           `gorm:"not null;index" json:"creator_id"`
	Creator     User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	CoverURL    string         `json:"cover_url"`
	Price       int64          `gorm:"not null;default:0;check:price >= 0" json:"price"` // cents
	// No column default here: GORM drops zero-value fields that carry a
	// default tag, which would silently turn IsPublic=false into true.
	IsPublic    bool           `gorm:"not null" json:"is_public"`
	IsApproved  bool           `gorm:"default:false" json:"is_approved"`
	SalesCount  int64          `gorm:"not null;default:0" json:"sales_count"`
	Stickers    []Sticker      `gorm:"foreignKey:PackID" json:"stickers,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Free reports whether the pack needs no payment handshake.
func (p *StickerPack) Free() bool {
	return p.Price == 0
}

// Sticker is a single image inside a pack.
type Sticker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PackID    uint      `gorm:"not null;index" json:"pack_id"`
	ImageURL  string    `gorm:"not null" json:"image_url"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Purchase is durable proof of ownership of a sticker pack. Its existence is
// the sole source of truth for access gating; client-side flags never are.
type Purchase struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_pack" json:"user_id"`
	PackID     uint      `gorm:"not null;uniqueIndex:idx_user_pack" json:"pack_id"`
	Amount     int64     `gorm:"not null;default:0" json:"amount"` // cents, 0 for free grants
	PaymentRef string    `gorm:"not null" json:"payment_ref"`
	CreatedAt  time.Time `json:"created_at"`
}
