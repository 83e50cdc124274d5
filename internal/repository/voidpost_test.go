package repository

import (
	"testing"
	"time"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createVoidPost(t *testing.T, repo VoidPostRepository, creatorID uint, expiresAt time.Time) *models.VoidPost {
	t.Helper()
	post := &models.VoidPost{
		CreatorID:     creatorID,
		Caption:       "ephemeral",
		ContentType:   models.ContentTypeText,
		DurationHours: 6,
		ExpiresAt:     expiresAt,
	}
	require.NoError(t, repo.Create(testCtx, post))
	return post
}

func TestVoidPostVisibilityIsClockDriven(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoidPostRepository(db)

	alice := createTestUser(t, db, "alice")
	base := time.Now().UTC()
	post := createVoidPost(t, repo, alice.ID, base.Add(6*time.Hour))

	// Readable inside the window.
	got, err := repo.GetByID(testCtx, post.ID, base)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	// Unreadable the instant the window closes, sweep or no sweep.
	_, err = repo.GetByID(testCtx, post.ID, base.Add(6*time.Hour))
	require.Error(t, err)

	// The row still physically exists; only the predicate hides it.
	var count int64
	require.NoError(t, db.Model(&models.VoidPost{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVoidPostListVisibleFiltersExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoidPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	base := time.Now().UTC()

	live := createVoidPost(t, repo, alice.ID, base.Add(time.Hour))
	createVoidPost(t, repo, alice.ID, base.Add(-time.Minute)) // already expired
	createVoidPost(t, repo, bob.ID, base.Add(time.Hour))      // not in creator set

	posts, err := repo.ListVisible(testCtx, []uint{alice.ID}, base)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, live.ID, posts[0].ID)
}

func TestDeleteExpiredReclaimsOnlyClosedWindows(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoidPostRepository(db)

	alice := createTestUser(t, db, "alice")
	base := time.Now().UTC()

	live := createVoidPost(t, repo, alice.ID, base.Add(time.Hour))
	createVoidPost(t, repo, alice.ID, base.Add(-2*time.Hour))
	createVoidPost(t, repo, alice.ID, base.Add(-time.Minute))

	swept, err := repo.DeleteExpired(testCtx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	var remaining []models.VoidPost
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, live.ID, remaining[0].ID)

	// Sweeping again finds nothing.
	swept, err = repo.DeleteExpired(testCtx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)
}
