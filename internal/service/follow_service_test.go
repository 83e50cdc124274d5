package service

import (
	"context"
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRejectsSelf(t *testing.T) {
	followed := false
	followRepo := &stubFollowRepo{
		FollowFn: func(ctx context.Context, followerID, followingID uint) error {
			followed = true
			return nil
		},
	}
	svc := NewFollowService(followRepo, &stubUserRepo{})

	err := svc.Follow(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
	assert.False(t, followed, "self-follow must never reach the repository")
}

func TestFollowUnknownTarget(t *testing.T) {
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
	}
	svc := NewFollowService(&stubFollowRepo{}, userRepo)

	err := svc.Follow(context.Background(), 1, 99)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrorCode(t, err))
}

func TestUnfollowIsNoOpSafe(t *testing.T) {
	svc := NewFollowService(&stubFollowRepo{}, &stubUserRepo{})

	// Unfollowing someone you never followed succeeds quietly.
	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
}
