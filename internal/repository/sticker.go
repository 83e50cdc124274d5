package repository

import (
	"context"
	"errors"

	"voidline/internal/cache"
	"voidline/internal/models"
	"voidline/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StickerRepository defines the interface for sticker marketplace data.
//
// The Purchase row is the sole proof of ownership. RecordPurchase is
// idempotent over (user, pack) and maintains the pack's sales counter in the
// same transaction as the insert.
type StickerRepository interface {
	CreatePack(ctx context.Context, pack *models.StickerPack) error
	GetPack(ctx context.Context, id uint) (*models.StickerPack, error)
	ListPublicPacks(ctx context.Context, limit, offset int) ([]*models.StickerPack, error)
	ListPacksByCreator(ctx context.Context, creatorID uint) ([]*models.StickerPack, error)
	UpdatePack(ctx context.Context, pack *models.StickerPack) error
	DeletePack(ctx context.Context, id uint) error
	AddSticker(ctx context.Context, sticker *models.Sticker) error
	HasPurchase(ctx context.Context, userID, packID uint) (bool, error)
	RecordPurchase(ctx context.Context, purchase *models.Purchase) (bool, error)
	ListPurchases(ctx context.Context, userID uint) ([]*models.Purchase, error)
	GetPurchaseByRef(ctx context.Context, paymentRef string) (*models.Purchase, error)
}

// stickerRepository implements StickerRepository
type stickerRepository struct {
	db *gorm.DB
}

// NewStickerRepository creates a new sticker repository
func NewStickerRepository(db *gorm.DB) StickerRepository {
	return &stickerRepository{db: db}
}

func (r *stickerRepository) CreatePack(ctx context.Context, pack *models.StickerPack) error {
	if err := r.db.WithContext(ctx).Create(pack).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *stickerRepository) GetPack(ctx context.Context, id uint) (*models.StickerPack, error) {
	var pack models.StickerPack
	key := cache.StickerPackKey(id)

	err := cache.Aside(ctx, key, &pack, cache.StickerPackTTL, func() error {
		if err := r.db.WithContext(ctx).
			Preload("Stickers", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Creator").
			First(&pack, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("StickerPack", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *stickerRepository) ListPublicPacks(ctx context.Context, limit, offset int) ([]*models.StickerPack, error) {
	var packs []*models.StickerPack
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("is_public = ? AND is_approved = ?", true, true).
		Order("sales_count DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&packs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return packs, nil
}

func (r *stickerRepository) ListPacksByCreator(ctx context.Context, creatorID uint) ([]*models.StickerPack, error) {
	var packs []*models.StickerPack
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&packs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return packs, nil
}

func (r *stickerRepository) UpdatePack(ctx context.Context, pack *models.StickerPack) error {
	if err := r.db.WithContext(ctx).Save(pack).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStickerPack(ctx, pack.ID)
	return nil
}

func (r *stickerRepository) DeletePack(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.StickerPack{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStickerPack(ctx, id)
	return nil
}

func (r *stickerRepository) AddSticker(ctx context.Context, sticker *models.Sticker) error {
	if err := r.db.WithContext(ctx).Create(sticker).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStickerPack(ctx, sticker.PackID)
	return nil
}

func (r *stickerRepository) HasPurchase(ctx context.Context, userID, packID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("user_id = ? AND pack_id = ?", userID, packID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// RecordPurchase inserts the ownership row and bumps the pack's sales count
// in one transaction. Returns false when the user already owned the pack; a
// duplicate grant never double-counts a sale.
func (r *stickerRepository) RecordPurchase(ctx context.Context, purchase *models.Purchase) (bool, error) {
	defer observability.TrackQuery("purchase", "purchases")()

	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(purchase)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		observability.CounterAdjustments.WithLabelValues("pack_sales", "inc").Inc()
		return tx.Model(&models.StickerPack{}).Where("id = ?", purchase.PackID).
			Update("sales_count", gorm.Expr("sales_count + 1")).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if inserted {
		cache.InvalidateStickerPack(ctx, purchase.PackID)
	}
	return inserted, nil
}

func (r *stickerRepository) ListPurchases(ctx context.Context, userID uint) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return purchases, nil
}

func (r *stickerRepository) GetPurchaseByRef(ctx context.Context, paymentRef string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("payment_ref = ?", paymentRef).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &purchase, nil
}
