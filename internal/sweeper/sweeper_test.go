package sweeper

import (
	"context"
	"testing"
	"time"

	"voidline/internal/database"
	"voidline/internal/models"
	"voidline/internal/repository"

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
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestSweepOnceReclaimsExpiredRows(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewVoidPostRepository(db)

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, db.Create(user).Error)

	base := time.Now().UTC()
	for _, expiresAt := range []time.Time{
		base.Add(-time.Hour),
		base.Add(-time.Minute),
		base.Add(time.Hour),
	} {
		require.NoError(t, db.Create(&models.VoidPost{
			CreatorID:     user.ID,
			ContentType:   models.ContentTypeText,
			Caption:       "gone soon",
			DurationHours: 6,
			ExpiresAt:     expiresAt,
		}).Error)
	}

	s := New(repo, 15*time.Minute)
	s.now = func() time.Time { return base }

	swept, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	var remaining int64
	require.NoError(t, db.Model(&models.VoidPost{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	// Nothing left to reclaim on the next pass.
	swept, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewVoidPostRepository(db)

	s := New(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
