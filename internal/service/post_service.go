// Package service contains the application's business logic layer.
package service

import (
	"context"
	"strings"

	"voidline/internal/authz"
	"voidline/internal/cache"
	"voidline/internal/models"
	"voidline/internal/repository"
)

// PostService provides post business logic. Read denials are surfaced as
// not-found so a caller can never distinguish "hidden from you" from
// "does not exist".
type PostService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
}

type CreatePostInput struct {
	CreatorID   uint
	Caption     string
	ContentType string
	MediaURL    string
	Visibility  string
}

type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Caption    string
	Visibility string
}

type ListFeedInput struct {
	ViewerID uint
	Limit    int
	Offset   int
	Sort     string
}

func NewPostService(postRepo repository.PostRepository, followRepo repository.FollowRepository) *PostService {
	return &PostService{
		postRepo:   postRepo,
		followRepo: followRepo,
	}
}

const maxCaptionLen = 2200

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	contentType := models.ContentType(in.ContentType)
	if in.ContentType == "" {
		contentType = models.ContentTypeText
	}
	if !contentType.Valid() {
		return nil, models.NewValidationError("Invalid content_type")
	}

	visibility := models.Visibility(in.Visibility)
	if in.Visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, models.NewValidationError("Invalid visibility")
	}

	if len(in.Caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption too long (max 2200 characters)")
	}
	if contentType == models.ContentTypeText {
		if strings.TrimSpace(in.Caption) == "" {
			return nil, models.NewValidationError("Caption is required for text posts")
		}
	} else if strings.TrimSpace(in.MediaURL) == "" {
		return nil, models.NewValidationError("media_url is required for media posts")
	}

	post := &models.Post{
		CreatorID:   in.CreatorID,
		Caption:     in.Caption,
		ContentType: contentType,
		MediaURL:    in.MediaURL,
		Visibility:  visibility,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.CreatorID)
}

// GetPost returns the post if the viewer may read it, not-found otherwise.
func (s *PostService) GetPost(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReadable(ctx, post, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

// requireReadable evaluates the read predicate and hides denial behind
// not-found.
func (s *PostService) requireReadable(ctx context.Context, post *models.Post, viewerID uint) error {
	isFollower := false
	if viewerID != 0 && viewerID != post.CreatorID && post.Visibility == models.VisibilityFollowers {
		var err error
		isFollower, err = s.followRepo.IsFollowing(ctx, viewerID, post.CreatorID)
		if err != nil {
			return err
		}
	}
	if !authz.CanReadPost(viewerID, post, isFollower) {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (s *PostService) GetFeed(ctx context.Context, in ListFeedInput) ([]*models.Post, error) {
	// Anonymous first pages are identical for everyone, so they are worth caching.
	if in.ViewerID == 0 && in.Offset == 0 && in.Limit <= 20 {
		var posts []*models.Post
		key := cache.FeedKey(0, in.Sort, 0)
		err := cache.Aside(ctx, key, &posts, cache.FeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.ListFeed(ctx, 0, in.Limit, in.Offset, in.Sort)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
		return posts, nil
	}

	return s.postRepo.ListFeed(ctx, in.ViewerID, in.Limit, in.Offset, in.Sort)
}

// GetUserPosts lists a creator's posts, filtered to what the viewer may see.
func (s *PostService) GetUserPosts(ctx context.Context, creatorID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.GetByCreatorID(ctx, creatorID, limit, offset, viewerID)
	if err != nil {
		return nil, err
	}

	isFollower := false
	if viewerID != 0 && viewerID != creatorID {
		isFollower, err = s.followRepo.IsFollowing(ctx, viewerID, creatorID)
		if err != nil {
			return nil, err
		}
	}

	visible := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if authz.CanReadPost(viewerID, p, isFollower) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetSavedPosts lists the viewer's saved posts. Saves are private: only the
// owner may list them.
func (s *PostService) GetSavedPosts(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]*models.Post, error) {
	if !authz.CanReadSaves(viewerID, ownerID) {
		return nil, models.NewForbiddenError("You can only view your own saved posts")
	}
	return s.postRepo.ListSaved(ctx, ownerID, limit, offset)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !authz.CanWritePost(in.UserID, post) {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Caption != "" {
		if len(in.Caption) > maxCaptionLen {
			return nil, models.NewValidationError("Caption too long (max 2200 characters)")
		}
		post.Caption = in.Caption
	}
	if in.Visibility != "" {
		visibility := models.Visibility(in.Visibility)
		if !visibility.Valid() {
			return nil, models.NewValidationError("Invalid visibility")
		}
		post.Visibility = visibility
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !authz.CanWritePost(userID, post) {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Like(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

func (s *PostService) SavePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Save(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

func (s *PostService) UnsavePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Unsave(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

func (s *PostService) SharePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.Share(ctx, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}
