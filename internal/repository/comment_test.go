package repository

import (
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateBumpsCountAndEngagement(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	require.NoError(t, repo.Create(testCtx, &models.Comment{
		UserID: bob.ID, PostID: post.ID, Content: "hello",
	}))

	got := fetchPost(t, db, post.ID)
	assert.Equal(t, int64(1), got.CommentsCount)
	assert.Equal(t, int64(3), got.EngagementScore, "one comment at weight 3")
}

func TestCommentReplyParentValidation(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	postA := createTestPost(t, db, alice.ID, models.VisibilityPublic)
	postB := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	parent := &models.Comment{UserID: alice.ID, PostID: postA.ID, Content: "root"}
	require.NoError(t, repo.Create(testCtx, parent))

	// Reply under the right post works.
	require.NoError(t, repo.Create(testCtx, &models.Comment{
		UserID: alice.ID, PostID: postA.ID, ParentID: &parent.ID, Content: "reply",
	}))

	// A parent from a different post is rejected.
	err := repo.Create(testCtx, &models.Comment{
		UserID: alice.ID, PostID: postB.ID, ParentID: &parent.ID, Content: "stray",
	})
	require.Error(t, err)

	// A parent that doesn't exist is rejected.
	missing := uint(9999)
	err = repo.Create(testCtx, &models.Comment{
		UserID: alice.ID, PostID: postA.ID, ParentID: &missing, Content: "orphan",
	})
	require.Error(t, err)
}

func TestCommentDeleteCascadesSubtree(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	root := &models.Comment{UserID: bob.ID, PostID: post.ID, Content: "root"}
	require.NoError(t, repo.Create(testCtx, root))
	reply := &models.Comment{UserID: alice.ID, PostID: post.ID, ParentID: &root.ID, Content: "reply"}
	require.NoError(t, repo.Create(testCtx, reply))
	nested := &models.Comment{UserID: bob.ID, PostID: post.ID, ParentID: &reply.ID, Content: "nested"}
	require.NoError(t, repo.Create(testCtx, nested))

	sibling := &models.Comment{UserID: bob.ID, PostID: post.ID, Content: "untouched"}
	require.NoError(t, repo.Create(testCtx, sibling))

	assert.Equal(t, int64(4), fetchPost(t, db, post.ID).CommentsCount)

	require.NoError(t, repo.Delete(testCtx, root.ID))

	// The whole subtree is gone, the sibling survives, and the derived
	// counter and score match the remaining rows.
	got := fetchPost(t, db, post.ID)
	assert.Equal(t, int64(1), got.CommentsCount)
	assert.Equal(t, int64(3), got.EngagementScore)

	_, err := repo.GetByID(testCtx, nested.ID)
	require.Error(t, err)
	_, err = repo.GetByID(testCtx, sibling.ID)
	require.NoError(t, err)
}

func TestCommentLikeIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, models.VisibilityPublic)

	comment := &models.Comment{UserID: alice.ID, PostID: post.ID, Content: "likeable"}
	require.NoError(t, repo.Create(testCtx, comment))

	require.NoError(t, repo.Like(testCtx, bob.ID, comment.ID))
	require.NoError(t, repo.Like(testCtx, bob.ID, comment.ID))

	got, err := repo.GetByID(testCtx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesCount)

	require.NoError(t, repo.Unlike(testCtx, bob.ID, comment.ID))
	require.NoError(t, repo.Unlike(testCtx, bob.ID, comment.ID))

	got, err = repo.GetByID(testCtx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LikesCount)
}
