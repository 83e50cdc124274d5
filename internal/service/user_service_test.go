package service

import (
	"context"
	"strings"
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileValidation(t *testing.T) {
	t.Parallel()

	var saved *models.User
	repo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "someone", Bio: "old bio"}, nil
		},
		UpdateFn: func(ctx context.Context, user *models.User) error {
			saved = user
			return nil
		},
	}
	svc := NewUserService(repo)

	t.Run("bio too long", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: 1,
			Bio:    strings.Repeat("x", 501),
		})
		assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
	})

	t.Run("display name too long", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:      1,
			DisplayName: strings.Repeat("x", 51),
		})
		assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
	})

	t.Run("empty fields leave existing values", func(t *testing.T) {
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:      1,
			DisplayName: "New Name",
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", user.DisplayName)
		assert.Equal(t, "old bio", user.Bio, "untouched field keeps its value")
		require.NotNil(t, saved)
	})

	t.Run("privacy toggle", func(t *testing.T) {
		private := true
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:    1,
			IsPrivate: &private,
		})
		require.NoError(t, err)
		assert.True(t, user.IsPrivate)
	})
}

func TestSetRoleValidatesValue(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleUser}, nil
		},
	}
	svc := NewUserService(repo)

	_, err := svc.SetRole(context.Background(), 1, models.Role("overlord"))
	assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))

	user, err := svc.SetRole(context.Background(), 1, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, user.Role)
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	t.Parallel()

	svc := NewUserService(&stubUserRepo{})
	_, err := svc.SearchUsers(context.Background(), "", 10, 0)
	assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
}
