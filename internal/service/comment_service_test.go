package service

import (
	"context"
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicPostRepo() *stubPostRepo {
	return &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
			return &models.Post{ID: id, CreatorID: 2, Visibility: models.VisibilityPublic}, nil
		},
	}
}

func privatePostRepo() *stubPostRepo {
	return &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
			return &models.Post{ID: id, CreatorID: 2, Visibility: models.VisibilityPrivate}, nil
		},
	}
}

func TestCreateCommentRequiresReadablePost(t *testing.T) {
	commentRepo := &stubCommentRepo{
		CreateFn: func(ctx context.Context, comment *models.Comment) error {
			comment.ID = 1
			return nil
		},
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 1, PostID: 10, Content: "nice"}, nil
		},
	}

	t.Run("readable post accepts the comment", func(t *testing.T) {
		postSvc := NewPostService(publicPostRepo(), &stubFollowRepo{})
		svc := NewCommentService(commentRepo, postSvc, neverModerator)

		comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 1, PostID: 10, Content: "nice",
		})
		require.NoError(t, err)
		assert.Equal(t, uint(1), comment.ID)
	})

	t.Run("unreadable post looks not-found", func(t *testing.T) {
		postSvc := NewPostService(privatePostRepo(), &stubFollowRepo{})
		svc := NewCommentService(commentRepo, postSvc, neverModerator)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 1, PostID: 10, Content: "nice",
		})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appErrorCode(t, err))
	})

	t.Run("blank content is rejected", func(t *testing.T) {
		postSvc := NewPostService(publicPostRepo(), &stubFollowRepo{})
		svc := NewCommentService(commentRepo, postSvc, neverModerator)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 1, PostID: 10, Content: "  ",
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
	})
}

func TestDeleteCommentAuthority(t *testing.T) {
	newRepo := func(deleted *bool) *stubCommentRepo {
		return &stubCommentRepo{
			GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
				return &models.Comment{ID: id, UserID: 2, PostID: 10}, nil
			},
			DeleteFn: func(ctx context.Context, id uint) error {
				*deleted = true
				return nil
			},
		}
	}
	postSvc := NewPostService(publicPostRepo(), &stubFollowRepo{})

	t.Run("author deletes own comment", func(t *testing.T) {
		deleted := false
		svc := NewCommentService(newRepo(&deleted), postSvc, neverModerator)
		require.NoError(t, svc.DeleteComment(context.Background(), 2, 5))
		assert.True(t, deleted)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		deleted := false
		svc := NewCommentService(newRepo(&deleted), postSvc, neverModerator)
		err := svc.DeleteComment(context.Background(), 3, 5)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appErrorCode(t, err))
		assert.False(t, deleted)
	})

	t.Run("moderator may delete", func(t *testing.T) {
		deleted := false
		svc := NewCommentService(newRepo(&deleted), postSvc, alwaysModerator)
		require.NoError(t, svc.DeleteComment(context.Background(), 3, 5))
		assert.True(t, deleted)
	})
}

func TestUpdateCommentOwnerOnly(t *testing.T) {
	commentRepo := &stubCommentRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 2, PostID: 10, Content: "original"}, nil
		},
	}
	postSvc := NewPostService(publicPostRepo(), &stubFollowRepo{})
	svc := NewCommentService(commentRepo, postSvc, alwaysModerator)

	// Editing is author-only; even moderators don't rewrite other people's words.
	_, err := svc.UpdateComment(context.Background(), 3, 5, "rewritten")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrorCode(t, err))

	updated, err := svc.UpdateComment(context.Background(), 2, 5, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}
