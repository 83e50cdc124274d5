package service

import (
	"context"
	"strings"

	"voidline/internal/models"
	"voidline/internal/repository"
)

// CommentService provides comment business logic. Commenting requires read
// access to the parent post; the post service's predicate does that check and
// hides denials as not-found.
type CommentService struct {
	commentRepo repository.CommentRepository
	postService *PostService
	isModerator func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postService *PostService,
	isModerator func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postService: postService,
		isModerator: isModerator,
	}
}

const maxCommentLen = 2000

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	// Must be able to read the post to comment on it.
	if _, err := s.postService.GetPost(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
		Content:  in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) GetComments(ctx context.Context, postID uint, limit, offset int, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.postService.GetPost(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment and its reply subtree. Allowed for the
// comment author, or for moderators acting through the moderation surface.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		if s.isModerator == nil {
			return models.NewForbiddenError("You can only delete your own comments")
		}
		mod, err := s.isModerator(ctx, userID)
		if err != nil {
			return err
		}
		if !mod {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	return s.commentRepo.Delete(ctx, commentID)
}

func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	// Liking requires read access to the comment's post.
	if _, err := s.postService.GetPost(ctx, comment.PostID, userID); err != nil {
		return err
	}
	return s.commentRepo.Like(ctx, userID, commentID)
}

func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return err
	}
	return s.commentRepo.Unlike(ctx, userID, commentID)
}
