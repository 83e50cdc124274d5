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

// CommentRepository defines the interface for comment data operations.
//
// Comment create/delete maintain the parent post's comments_count and
// engagement score in the same transaction. Deleting a comment removes its
// whole reply subtree and the subtree's likes.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, commentID uint) error
	Unlike(ctx context.Context, userID, commentID uint) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	db      *gorm.DB
	weights models.EngagementWeights
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, weights: models.DefaultEngagementWeights}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if comment.ParentID != nil {
			// A reply must attach to a live comment on the same post.
			var parent models.Comment
			if err := tx.First(&parent, *comment.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Comment", *comment.ParentID)
				}
				return err
			}
			if parent.PostID != comment.PostID {
				return models.NewValidationError("Parent comment belongs to a different post")
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_comments", "inc").Inc()
		return recomputePostEngagement(tx, comment.PostID, r.weights)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete soft-deletes the comment and every descendant reply, hard-deletes
// their likes, and decrements the post's comments_count by the subtree size
// (clamped at zero), all in one transaction.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "comments")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.First(&root, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Comment", id)
			}
			return err
		}

		// Collect the reply subtree breadth-first. Thread depth is tiny in
		// practice, so a loop of IN queries beats a recursive CTE here.
		subtree := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var childIDs []uint
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			subtree = append(subtree, childIDs...)
			frontier = childIDs
		}

		res := tx.Where("id IN ?", subtree).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed := res.RowsAffected
		if removed == 0 {
			return nil
		}

		if err := tx.Unscoped().Where("comment_id IN ?", subtree).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", root.PostID).
			Update("comments_count", gorm.Expr("CASE WHEN comments_count > ? THEN comments_count - ? ELSE 0 END", removed, removed)).Error; err != nil {
			return err
		}
		observability.CounterAdjustments.WithLabelValues("post_comments", "dec").Inc()

		if err := recomputePostEngagement(tx, root.PostID, r.weights); err != nil {
			return err
		}
		cache.InvalidatePost(ctx, root.PostID)
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.CommentLike{UserID: userID, CommentID: commentID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		observability.CounterAdjustments.WithLabelValues("comment_likes", "inc").Inc()
		return tx.Model(&models.Comment{}).Where("id = ?", commentID).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("user_id = ? AND comment_id = ?", userID, commentID).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		observability.CounterAdjustments.WithLabelValues("comment_likes", "dec").Inc()
		return tx.Model(&models.Comment{}).Where("id = ?", commentID).
			Update("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// recomputePostEngagement recalculates a post's engagement score from live
// row counts. Shared by the comment and post repositories so both sides of a
// mutation use the identical formula.
func recomputePostEngagement(tx *gorm.DB, postID uint, w models.EngagementWeights) error {
	observability.EngagementRecomputes.Inc()
	return tx.Model(&models.Post{}).Where("id = ?", postID).
		Update("engagement_score", gorm.Expr(
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) * ? + "+
				"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) * ? + "+
				"shares_count * ? + "+
				"(SELECT COUNT(*) FROM saves WHERE saves.post_id = posts.id) * ?",
			w.Like, w.Comment, w.Share, w.Save,
		)).Error
}
