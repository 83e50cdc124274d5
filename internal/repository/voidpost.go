package repository

import (
	"context"
	"errors"
	"time"

	"voidline/internal/models"
	"voidline/internal/observability"

	"gorm.io/gorm"
)

// VoidPostRepository defines the interface for ephemeral post data operations.
//
// Expiry is a read-side predicate: every read path filters on
// expires_at > now, so an expired post vanishes immediately regardless of
// whether the background sweep has reclaimed the row yet.
type VoidPostRepository interface {
	Create(ctx context.Context, post *models.VoidPost) error
	GetByID(ctx context.Context, id uint, now time.Time) (*models.VoidPost, error)
	GetByCreatorID(ctx context.Context, creatorID uint, now time.Time) ([]*models.VoidPost, error)
	ListVisible(ctx context.Context, creatorIDs []uint, now time.Time) ([]*models.VoidPost, error)
	Delete(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// voidPostRepository implements VoidPostRepository
type voidPostRepository struct {
	db *gorm.DB
}

// NewVoidPostRepository creates a new void post repository
func NewVoidPostRepository(db *gorm.DB) VoidPostRepository {
	return &voidPostRepository{db: db}
}

func (r *voidPostRepository) Create(ctx context.Context, post *models.VoidPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *voidPostRepository) GetByID(ctx context.Context, id uint, now time.Time) (*models.VoidPost, error) {
	var post models.VoidPost
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("expires_at > ?", now).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Expired and absent are deliberately the same observable outcome.
			return nil, models.NewNotFoundError("VoidPost", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *voidPostRepository) GetByCreatorID(ctx context.Context, creatorID uint, now time.Time) ([]*models.VoidPost, error) {
	var posts []*models.VoidPost
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id = ? AND expires_at > ?", creatorID, now).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListVisible returns unexpired void posts from the given creators, newest
// first. The caller supplies the creator set (typically the viewer plus the
// accounts they follow).
func (r *voidPostRepository) ListVisible(ctx context.Context, creatorIDs []uint, now time.Time) ([]*models.VoidPost, error) {
	if len(creatorIDs) == 0 {
		return nil, nil
	}
	var posts []*models.VoidPost
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id IN ? AND expires_at > ?", creatorIDs, now).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *voidPostRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.VoidPost{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteExpired physically reclaims every expired row. Idempotent: deleting
// an already-absent row is a no-op, so overlapping sweeps are harmless.
func (r *voidPostRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer observability.TrackQuery("sweep", "void_posts")()

	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.VoidPost{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		observability.VoidPostsSwept.Add(float64(res.RowsAffected))
	}
	return res.RowsAffected, nil
}
