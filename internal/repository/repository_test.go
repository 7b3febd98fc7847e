package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/database"
	"threadhub/pkg/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.Config{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func insertComment(t *testing.T, repo CommentRepository, articleID int64, parent *int64, content string, at time.Time) int64 {
	t.Helper()
	rec := &models.CommentRecord{
		ArticleID:  articleID,
		ParentID:   parent,
		UserID:     "u1",
		AuthorName: "Ana",
		Content:    content,
		CreatedAt:  at,
	}
	require.NoError(t, repo.Create(context.Background(), rec))
	require.NotZero(t, rec.ID)
	return rec.ID
}

func TestCommentRepository_CreateAndGet(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	id := insertComment(t, repo, 7, nil, "hello", at)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ArticleID)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "hello", got.Content)
	assert.True(t, at.Equal(got.CreatedAt), "created_at round trip: %v", got.CreatedAt)

	_, err = repo.GetByID(context.Background(), id+100)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommentRepository_ListWithReactions(t *testing.T) {
	db := newTestDB(t)
	comments := NewCommentRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	root := insertComment(t, comments, 7, nil, "root", at)
	reply := insertComment(t, comments, 7, models.ParentRef(root), "reply", at.Add(time.Minute))
	insertComment(t, comments, 8, nil, "other article", at)

	target := models.Target{Kind: models.TargetComment, ID: root}
	require.NoError(t, reactions.Upsert(ctx, target, "u1", models.ReactionLike))
	require.NoError(t, reactions.Upsert(ctx, target, "u2", models.ReactionLike))
	require.NoError(t, reactions.Upsert(ctx, target, "u3", models.ReactionDislike))

	list, err := comments.ListByArticle(ctx, 7, "u3")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, reply, list[0].ID)
	require.NotNil(t, list[0].ParentID)
	assert.Equal(t, root, *list[0].ParentID)
	assert.Equal(t, models.ReactionState{UserReaction: models.ReactionNone}, list[0].Reactions)

	assert.Equal(t, root, list[1].ID)
	assert.Equal(t, models.ReactionState{LikeCount: 2, DislikeCount: 1, UserReaction: models.ReactionDislike}, list[1].Reactions)
}

func TestCommentRepository_Depth(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	at := time.Now()

	a := insertComment(t, repo, 1, nil, "a", at)
	b := insertComment(t, repo, 1, models.ParentRef(a), "b", at)
	c := insertComment(t, repo, 1, models.ParentRef(b), "c", at)
	orphan := insertComment(t, repo, 1, models.ParentRef(999), "orphan", at)

	for id, want := range map[int64]int{a: 0, b: 1, c: 2, orphan: 0} {
		got, err := repo.Depth(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "depth of %d", id)
	}

	_, err := repo.Depth(context.Background(), 12345)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommentRepository_DeleteCascade(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()
	at := time.Now()

	one := insertComment(t, repo, 1, nil, "1", at)
	two := insertComment(t, repo, 1, models.ParentRef(one), "2", at)
	three := insertComment(t, repo, 1, models.ParentRef(two), "3", at)
	require.NoError(t, reactions.Upsert(ctx, models.Target{Kind: models.TargetComment, ID: three}, "u1", models.ReactionLike))

	removed, err := repo.DeleteCascade(ctx, two)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{two, three}, removed)

	list, err := repo.ListByArticle(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, one, list[0].ID)

	state, err := reactions.State(ctx, models.Target{Kind: models.TargetComment, ID: three}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.LikeCount)

	_, err = repo.DeleteCascade(ctx, two)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReactionRepository_UpsertReplaces(t *testing.T) {
	repo := NewReactionRepository(newTestDB(t))
	ctx := context.Background()
	target := models.Target{Kind: models.TargetArticle, ID: 3}

	require.NoError(t, repo.Upsert(ctx, target, "u1", models.ReactionLike))
	require.NoError(t, repo.Upsert(ctx, target, "u1", models.ReactionDislike))

	state, err := repo.State(ctx, target, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{DislikeCount: 1, UserReaction: models.ReactionDislike}, state)

	require.NoError(t, repo.Delete(ctx, target, "u1"))
	require.NoError(t, repo.Delete(ctx, target, "u1"))

	state, err = repo.State(ctx, target, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{UserReaction: models.ReactionNone}, state)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "ana", DisplayName: "Ana", PasswordHash: "x", Role: models.UserRoleUser, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &models.User{ID: "u2", Username: "ana", PasswordHash: "y", Role: models.UserRoleUser, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := repo.UsernameExists(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "bo")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.UpdateRole(ctx, "u1", models.UserRoleModerator))
	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleModerator, got.Role)
	assert.Equal(t, "Ana", got.Name())

	assert.ErrorIs(t, repo.UpdateRole(ctx, "missing", models.UserRoleAdmin), models.ErrNotFound)
}

func TestNopCache(t *testing.T) {
	var cache CommentCache = NopCache{}
	cache.Set(context.Background(), 1, "", []models.CommentPayload{{ID: 1}})
	_, ok := cache.Get(context.Background(), 1, "")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	// This test requires a running redis instance
	addr := os.Getenv("THREADHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping test: THREADHUB_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	cache, err := NewRedisCache(ctx, RedisConfig{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Skipf("Skipping test: redis not available: %v", err)
	}

	articleID := time.Now().UnixNano()
	cache.Set(ctx, articleID, "u1", []models.CommentPayload{{ID: 5, Content: "hi"}})

	list, ok := cache.Get(ctx, articleID, "u1")
	require.True(t, ok)
	assert.Equal(t, "hi", list[0].Content)

	cache.Invalidate(ctx, articleID)
	_, ok = cache.Get(ctx, articleID, "u1")
	assert.False(t, ok)
}
