package service

import (
	"context"
	"strings"
	"time"

	"voidline/internal/authz"
	"voidline/internal/models"
	"voidline/internal/repository"
)

// VoidService provides ephemeral post business logic. Visibility is a pure
// function of the clock: an expired post is gone from every read path the
// instant its window closes, whether or not the sweeper has reclaimed it.
type VoidService struct {
	voidRepo   repository.VoidPostRepository
	followRepo repository.FollowRepository
	now        func() time.Time
}

type CreateVoidPostInput struct {
	CreatorID     uint
	Caption       string
	ContentType   string
	MediaURL      string
	DurationHours int
}

func NewVoidService(voidRepo repository.VoidPostRepository, followRepo repository.FollowRepository) *VoidService {
	return &VoidService{
		voidRepo:   voidRepo,
		followRepo: followRepo,
		now:        time.Now,
	}
}

func (s *VoidService) CreateVoidPost(ctx context.Context, in CreateVoidPostInput) (*models.VoidPost, error) {
	contentType := models.ContentType(in.ContentType)
	if in.ContentType == "" {
		contentType = models.ContentTypeText
	}
	if !contentType.Valid() {
		return nil, models.NewValidationError("Invalid content_type")
	}
	if !models.ValidVoidDuration(in.DurationHours) {
		return nil, models.NewValidationError("Duration must be 6, 12 or 24 hours")
	}
	if contentType != models.ContentTypeText && strings.TrimSpace(in.MediaURL) == "" {
		return nil, models.NewValidationError("media_url is required for media posts")
	}

	now := s.now()
	post := &models.VoidPost{
		CreatorID:     in.CreatorID,
		Caption:       in.Caption,
		ContentType:   contentType,
		MediaURL:      in.MediaURL,
		DurationHours: in.DurationHours,
		ExpiresAt:     now.Add(time.Duration(in.DurationHours) * time.Hour),
	}
	if err := s.voidRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetVoidPost returns the post if it is unexpired and the viewer may see it.
// Expired, denied and absent all surface as not-found.
func (s *VoidService) GetVoidPost(ctx context.Context, id, viewerID uint) (*models.VoidPost, error) {
	now := s.now()
	post, err := s.voidRepo.GetByID(ctx, id, now)
	if err != nil {
		return nil, err
	}

	isFollower := false
	if viewerID != 0 && viewerID != post.CreatorID {
		isFollower, err = s.followRepo.IsFollowing(ctx, viewerID, post.CreatorID)
		if err != nil {
			return nil, err
		}
	}
	if !authz.CanReadVoidPost(viewerID, post, isFollower, now) {
		return nil, models.NewNotFoundError("VoidPost", id)
	}
	return post, nil
}

// GetVoidFeed lists unexpired void posts from the viewer and the accounts
// they follow.
func (s *VoidService) GetVoidFeed(ctx context.Context, viewerID uint) ([]*models.VoidPost, error) {
	following, err := s.followRepo.GetFollowing(ctx, viewerID, 1000, 0)
	if err != nil {
		return nil, err
	}

	creatorIDs := make([]uint, 0, len(following)+1)
	creatorIDs = append(creatorIDs, viewerID)
	for _, u := range following {
		creatorIDs = append(creatorIDs, u.ID)
	}

	return s.voidRepo.ListVisible(ctx, creatorIDs, s.now())
}

// GetUserVoidPosts lists a creator's unexpired void posts visible to the viewer.
func (s *VoidService) GetUserVoidPosts(ctx context.Context, creatorID, viewerID uint) ([]*models.VoidPost, error) {
	if viewerID != creatorID {
		isFollower, err := s.followRepo.IsFollowing(ctx, viewerID, creatorID)
		if err != nil {
			return nil, err
		}
		if !isFollower {
			// Same shape as a creator with no void posts.
			return nil, nil
		}
	}
	return s.voidRepo.GetByCreatorID(ctx, creatorID, s.now())
}

// DeleteVoidPost removes a void post before its window closes. Owner only.
func (s *VoidService) DeleteVoidPost(ctx context.Context, userID, postID uint) error {
	post, err := s.voidRepo.GetByID(ctx, postID, s.now())
	if err != nil {
		return err
	}
	if !authz.CanWriteVoidPost(userID, post) {
		return models.NewForbiddenError("You can only delete your own void posts")
	}
	return s.voidRepo.Delete(ctx, postID)
}
