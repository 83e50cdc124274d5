package repository

import (
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCreateBumpsPostsCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")

	post := &models.Post{
		CreatorID:   alice.ID,
		Caption:     "first",
		ContentType: models.ContentTypeText,
		Visibility:  models.VisibilityPublic,
	}
	require.NoError(t, repo.Create(testCtx, post))

	assert.Equal(t, int64(1), fetchUser(t, db, alice.ID).PostsCount)
}

func TestLikeIdempotencyAndEngagement(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID))
	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID)) // duplicate

	got := fetchPost(t, db, post.ID)
	assert.Equal(t, int64(1), got.LikesCount)
	assert.Equal(t, int64(1), got.EngagementScore, "one like at weight 1")

	require.NoError(t, repo.Unlike(testCtx, bob.ID, post.ID))
	require.NoError(t, repo.Unlike(testCtx, bob.ID, post.ID)) // already gone

	got = fetchPost(t, db, post.ID)
	assert.Equal(t, int64(0), got.LikesCount)
	assert.Equal(t, int64(0), got.EngagementScore)
}

func TestEngagementScoreWeights(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	commentRepo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID))
	require.NoError(t, repo.Like(testCtx, carol.ID, post.ID))
	require.NoError(t, commentRepo.Create(testCtx, &models.Comment{
		UserID: bob.ID, PostID: post.ID, Content: "nice",
	}))
	require.NoError(t, repo.Save(testCtx, carol.ID, post.ID))
	require.NoError(t, repo.Share(testCtx, post.ID))

	// 2 likes + 1 comment×3 + 1 share×5 + 1 save×10
	got := fetchPost(t, db, post.ID)
	assert.Equal(t, int64(2), got.LikesCount)
	assert.Equal(t, int64(1), got.CommentsCount)
	assert.Equal(t, int64(1), got.SharesCount)
	assert.Equal(t, int64(1), got.SavesCount)
	assert.Equal(t, int64(20), got.EngagementScore)
}

func TestRecomputeEngagementHealsDrift(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID))

	// Corrupt the derived score out-of-band.
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("engagement_score", 9999).Error)

	require.NoError(t, repo.RecomputeEngagement(testCtx, post.ID))
	assert.Equal(t, int64(1), fetchPost(t, db, post.ID).EngagementScore)
}

func TestSaveIdempotencyAndListSaved(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Save(testCtx, bob.ID, post.ID))
	require.NoError(t, repo.Save(testCtx, bob.ID, post.ID))

	got := fetchPost(t, db, post.ID)
	assert.Equal(t, int64(1), got.SavesCount)
	assert.Equal(t, int64(10), got.EngagementScore)

	saved, err := repo.ListSaved(testCtx, bob.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)

	require.NoError(t, repo.Unsave(testCtx, bob.ID, post.ID))
	got = fetchPost(t, db, post.ID)
	assert.Equal(t, int64(0), got.SavesCount)
	assert.Equal(t, int64(0), got.EngagementScore)
}

func TestListFeedVisibility(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	followRepo := NewFollowRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	public := createTestPost(t, db, alice.ID, models.VisibilityPublic)
	followersOnly := createTestPost(t, db, alice.ID, models.VisibilityFollowers)
	private := createTestPost(t, db, alice.ID, models.VisibilityPrivate)

	require.NoError(t, followRepo.Follow(testCtx, bob.ID, alice.ID))

	feedIDs := func(viewerID uint) map[uint]bool {
		posts, err := repo.ListFeed(testCtx, viewerID, 50, 0, "new")
		require.NoError(t, err)
		ids := make(map[uint]bool, len(posts))
		for _, p := range posts {
			ids[p.ID] = true
		}
		return ids
	}

	// Follower sees public and followers-only.
	ids := feedIDs(bob.ID)
	assert.True(t, ids[public.ID])
	assert.True(t, ids[followersOnly.ID])
	assert.False(t, ids[private.ID])

	// Stranger sees only public.
	ids = feedIDs(carol.ID)
	assert.True(t, ids[public.ID])
	assert.False(t, ids[followersOnly.ID])
	assert.False(t, ids[private.ID])

	// Anonymous sees only public.
	ids = feedIDs(0)
	assert.True(t, ids[public.ID])
	assert.False(t, ids[followersOnly.ID])

	// Creator sees everything of their own.
	ids = feedIDs(alice.ID)
	assert.True(t, ids[public.ID])
	assert.True(t, ids[followersOnly.ID])
	assert.True(t, ids[private.ID])
}

func TestListFeedTopSortsByEngagement(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	quiet := createTestPost(t, db, alice.ID, models.VisibilityPublic)
	loud := createTestPost(t, db, alice.ID, models.VisibilityPublic)
	require.NoError(t, repo.Save(testCtx, bob.ID, loud.ID))

	posts, err := repo.ListFeed(testCtx, 0, 10, 0, "top")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, loud.ID, posts[0].ID)
	assert.Equal(t, quiet.ID, posts[1].ID)
}

func TestViewerStateFlags(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID))

	got, err := repo.GetByID(testCtx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, got.Liked)
	assert.False(t, got.Saved)

	got, err = repo.GetByID(testCtx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Liked)
}

func TestDeletePostCleansUp(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	commentRepo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Like(testCtx, bob.ID, post.ID))
	comment := &models.Comment{UserID: bob.ID, PostID: post.ID, Content: "bye"}
	require.NoError(t, commentRepo.Create(testCtx, comment))
	require.NoError(t, commentRepo.Like(testCtx, alice.ID, comment.ID))

	require.NoError(t, repo.Delete(testCtx, post.ID))

	_, err := repo.GetByID(testCtx, post.ID, bob.ID)
	require.Error(t, err)

	assert.Equal(t, int64(0), fetchUser(t, db, alice.ID).PostsCount)

	var likeCount int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeCount).Error)
	assert.Equal(t, int64(0), likeCount)

	// Likes on the post's comments follow the comments out.
	var commentLikeCount int64
	require.NoError(t, db.Unscoped().Model(&models.CommentLike{}).
		Where("comment_id = ?", comment.ID).Count(&commentLikeCount).Error)
	assert.Equal(t, int64(0), commentLikeCount)
}
