// Package repository provides data access layer implementations for the application.
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

// PostRepository defines the interface for post data operations.
//
// Every interaction mutation (Like, Unlike, Save, Unsave, Share, and the
// comment mutations in CommentRepository) adjusts the parent post's derived
// counters and recomputes its engagement score inside the same transaction
// as the row change. The recompute reads live row counts instead of applying
// a delta, so a drifted counter heals on the next mutation.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByCreatorID(ctx context.Context, creatorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	ListFeed(ctx context.Context, currentUserID uint, limit, offset int, sort string) ([]*models.Post, error)
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	Save(ctx context.Context, userID, postID uint) error
	Unsave(ctx context.Context, userID, postID uint) error
	Share(ctx context.Context, postID uint) error
	RecomputeEngagement(ctx context.Context, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	weights models.EngagementWeights
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, weights: models.DefaultEngagementWeights}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", post.CreatorID).
			Update("posts_count", gorm.Expr("posts_count + 1")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("user_posts", "inc").Inc()
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, post.CreatorID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyViewerState(r.db.WithContext(ctx), currentUserID).
		Preload("Creator").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByCreatorID(ctx context.Context, creatorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyViewerState(r.db.WithContext(ctx), currentUserID).
		Preload("Creator").
		Where("posts.creator_id = ?", creatorID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListFeed returns posts the viewer is allowed to see, audience-filtered in
// the query itself: public posts, the viewer's own posts, and followers-only
// posts from creators the viewer follows. Anonymous viewers see public only.
func (r *postRepository) ListFeed(ctx context.Context, currentUserID uint, limit, offset int, sort string) ([]*models.Post, error) {
	base := r.applyViewerState(r.db.WithContext(ctx), currentUserID).
		Preload("Creator")

	if currentUserID == 0 {
		base = base.Where("posts.visibility = ?", models.VisibilityPublic)
	} else {
		base = base.Where(
			"posts.visibility = ? OR posts.creator_id = ? OR (posts.visibility = ? AND EXISTS (SELECT 1 FROM follows WHERE follows.follower_id = ? AND follows.following_id = posts.creator_id))",
			models.VisibilityPublic, currentUserID, models.VisibilityFollowers, currentUserID,
		)
	}

	var posts []*models.Post
	err := r.applySort(base, sort).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyViewerState(r.db.WithContext(ctx), userID).
		Preload("Creator").
		Joins("JOIN saves ON saves.post_id = posts.id").
		Where("saves.user_id = ?", userID).
		Order("saves.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applySort appends the ORDER BY clause for the requested sort type.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "top":
		return db.Order("posts.engagement_score DESC, posts.created_at DESC")
	default: // "new" and anything unrecognized
		return db.Order("posts.created_at DESC")
	}
}

// applyViewerState adds subqueries exposing the requesting user's liked/saved
// state in a single query.
func (r *postRepository) applyViewerState(db *gorm.DB, currentUserID uint) *gorm.DB {
	if currentUserID != 0 {
		return db.Select(
			"posts.*, "+
				"EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked, "+
				"EXISTS(SELECT 1 FROM saves WHERE saves.post_id = posts.id AND saves.user_id = ?) as saved",
			currentUserID, currentUserID,
		)
	}
	return db.Select("posts.*, false as liked, false as saved")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete soft-deletes the post and cascades to its interaction rows inside
// one transaction: likes and saves are removed, comments are soft-deleted,
// and the creator's posts_count is decremented (clamped at zero).
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return err
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&models.Save{}).Error; err != nil {
			return err
		}

		// Comment likes go with the comments. Collect the ids before the
		// soft delete hides the rows from the default scope.
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Unscoped().Where("comment_id IN ?", commentIDs).
				Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.User{}).Where("id = ?", post.CreatorID).
			Update("posts_count", gorm.Expr("CASE WHEN posts_count > 0 THEN posts_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("user_posts", "dec").Inc()

		cache.InvalidateUser(ctx, post.CreatorID)
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("like", "likes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{UserID: userID, PostID: postID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already liked; the desired state already holds.
			return nil
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_likes", "inc").Inc()
		return r.recomputeEngagement(tx, postID)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("unlike", "likes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_likes", "dec").Inc()
		return r.recomputeEngagement(tx, postID)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Save(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("save", "saves")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		save := models.Save{UserID: userID, PostID: postID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&save)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("saves_count", gorm.Expr("saves_count + 1")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_saves", "inc").Inc()
		return r.recomputeEngagement(tx, postID)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Unsave(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("unsave", "saves")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Save{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("saves_count", gorm.Expr("CASE WHEN saves_count > 0 THEN saves_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_saves", "dec").Inc()
		return r.recomputeEngagement(tx, postID)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

// Share increments the share counter. Shares have no backing row set, so the
// counter is the authoritative count; it still flows through the engagement
// recompute like every other interaction.
func (r *postRepository) Share(ctx context.Context, postID uint) error {
	defer observability.TrackQuery("share", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("shares_count", gorm.Expr("shares_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		observability.CounterAdjustments.WithLabelValues("post_shares", "inc").Inc()
		return r.recomputeEngagement(tx, postID)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

// RecomputeEngagement recalculates a post's engagement score from live row
// counts outside any surrounding mutation. Exposed for repair tooling.
func (r *postRepository) RecomputeEngagement(ctx context.Context, postID uint) error {
	return r.recomputeEngagement(r.db.WithContext(ctx), postID)
}

// recomputeEngagement sets engagement_score from the live likes/comments/saves
// row counts and the shares counter. Counting rows rather than trusting the
// denormalized counters makes the operation idempotent and self-healing.
func (r *postRepository) recomputeEngagement(tx *gorm.DB, postID uint) error {
	return recomputePostEngagement(tx, postID, r.weights)
}
