package seed

import (
	"context"
	"testing"

	"voidline/internal/database"
	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedSocialMeshKeepsCountersConsistent(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)
	ctx := context.Background()

	users, err := s.SeedSocialMesh(ctx, 12)
	require.NoError(t, err)
	require.Len(t, users, 12)

	assert.Equal(t, models.RoleModerator, users[0].Role, "first user is a moderator")

	// Stored counters must match the actual follow rows.
	for _, u := range users {
		var stored models.User
		require.NoError(t, db.First(&stored, u.ID).Error)

		var followers, following int64
		require.NoError(t, db.Model(&models.Follow{}).Where("following_id = ?", u.ID).Count(&followers).Error)
		require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = ?", u.ID).Count(&following).Error)

		assert.Equal(t, followers, stored.FollowersCount, "followers_count for user %d", u.ID)
		assert.Equal(t, following, stored.FollowingCount, "following_count for user %d", u.ID)
	}
}

func TestSeedEngagementProducesConsistentScores(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)
	ctx := context.Background()

	users, err := s.SeedSocialMesh(ctx, 6)
	require.NoError(t, err)

	posts, err := s.SeedEngagement(ctx, users, 15)
	require.NoError(t, err)
	require.Len(t, posts, 15)

	for _, p := range posts {
		var stored models.Post
		require.NoError(t, db.First(&stored, p.ID).Error)
		want := stored.LikesCount + stored.CommentsCount*3 + stored.SharesCount*5 + stored.SavesCount*10
		assert.Equal(t, want, stored.EngagementScore, "engagement_score for post %d", p.ID)
	}
}

func TestSeedStickerMarketGrantsAreFreeOnly(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)
	ctx := context.Background()

	users, err := s.SeedSocialMesh(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, s.SeedStickerMarket(ctx, users, 10))

	var purchases []models.Purchase
	require.NoError(t, db.Find(&purchases).Error)
	for _, p := range purchases {
		assert.Equal(t, models.FreePaymentRef, p.PaymentRef)
		assert.Zero(t, p.Amount)
	}
}

func TestClearAllEmptiesTables(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)
	ctx := context.Background()

	users, err := s.SeedSocialMesh(ctx, 4)
	require.NoError(t, err)
	_, err = s.SeedEngagement(ctx, users, 5)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Zero(t, userCount)
	assert.Zero(t, postCount)
}
