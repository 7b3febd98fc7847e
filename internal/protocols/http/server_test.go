package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/internal/api"
	"threadhub/internal/core"
	"threadhub/internal/identity"
	"threadhub/internal/repository"
	"threadhub/internal/session"
	"threadhub/pkg/database"
	"threadhub/pkg/models"
)

type testEnv struct {
	srv    *httptest.Server
	client *api.Client
	users  repository.UserRepository
}

func newTestEnv(t *testing.T, maxDepth int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(database.Config{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	users := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	issuer := identity.NewIssuer("e2e-secret", "threadhub-e2e", time.Hour)

	server := NewServer(Services{
		Auth:      core.NewAuthService(users, issuer),
		Comments:  core.NewCommentService(commentRepo, nil, nil, core.CommentOptions{MaxDepth: maxDepth}),
		Reactions: core.NewReactionService(repository.NewReactionRepository(db), commentRepo, nil, nil),
		Health:    db,
	}, false)

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:    srv,
		client: api.NewClient(srv.URL+"/api/v1", api.WithRateLimit(0, 0)),
		users:  users,
	}
}

// signIn registers and logs in a user, returning its identity provider
func (e *testEnv) signIn(t *testing.T, username string) *identity.TokenProvider {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.client.Register(ctx, models.RegisterRequest{Username: username, DisplayName: strings.ToUpper(username), Password: "password123"}))
	resp, err := e.client.Login(ctx, username, "password123")
	require.NoError(t, err)
	return identity.NewTokenProvider(resp.Token)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 4)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestEndToEnd_Discussion(t *testing.T) {
	env := newTestEnv(t, 4)
	ctx := context.Background()
	ana := env.signIn(t, "ana")

	ctrl := session.New(1, env.client, ana, session.DefaultPolicy())
	require.NoError(t, ctrl.Load(ctx))
	assert.Equal(t, 0, ctrl.Count())

	root, err := ctrl.AddComment(ctx, "first!")
	require.NoError(t, err)
	assert.False(t, root.ID.IsPending())
	assert.Equal(t, "ANA", root.Creator.DisplayName)

	reply, err := ctrl.Reply(ctx, root.ID, "a reply")
	require.NoError(t, err)
	_, err = ctrl.Reply(ctx, reply.ID, "a nested reply")
	require.NoError(t, err)
	assert.Equal(t, 3, ctrl.Count())

	state, err := ctrl.ReactToComment(ctx, root.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{LikeCount: 1, UserReaction: models.ReactionLike}, state)

	state, err = ctrl.ReactToArticle(ctx, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{DislikeCount: 1, UserReaction: models.ReactionDislike}, state)

	// A fresh session sees the persisted tree and personalized reactions
	fresh := session.New(1, env.client, ana, session.DefaultPolicy())
	require.NoError(t, fresh.Load(ctx))
	tree := fresh.Tree()
	require.Len(t, tree, 1)
	assert.Equal(t, "first!", tree[0].Content)
	assert.Equal(t, models.ReactionLike, tree[0].CurrentUserReaction)
	require.Len(t, tree[0].Replies, 1)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, 2, tree[0].Replies[0].Replies[0].Depth)

	removed, err := ctrl.Delete(ctx, reply.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, ctrl.Count())

	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, 1, fresh.Count())
}

func TestEndToEnd_ServerDepthLimit(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	ana := env.signIn(t, "ana")
	cred, err := ana.Credential()
	require.NoError(t, err)

	root, err := env.client.CreateComment(ctx, cred, 1, "root", nil)
	require.NoError(t, err)
	reply, err := env.client.CreateComment(ctx, cred, 1, "reply", models.ParentRef(root.ID))
	require.NoError(t, err)

	_, err = env.client.CreateComment(ctx, cred, 1, "too deep", models.ParentRef(reply.ID))
	assert.ErrorIs(t, err, models.ErrBackendRejected)
}

func TestEndToEnd_Errors(t *testing.T) {
	env := newTestEnv(t, 4)
	ctx := context.Background()
	ana := env.signIn(t, "ana")
	bo := env.signIn(t, "bobby")

	anaCred, err := ana.Credential()
	require.NoError(t, err)
	boCred, err := bo.Credential()
	require.NoError(t, err)

	created, err := env.client.CreateComment(ctx, anaCred, 1, "mine", nil)
	require.NoError(t, err)

	err = env.client.DeleteComment(ctx, boCred, created.ID)
	require.ErrorIs(t, err, models.ErrBackendRejected)
	assert.Equal(t, 403, models.Classify(err).StatusCode)

	err = env.client.DeleteComment(ctx, anaCred, created.ID+100)
	assert.ErrorIs(t, err, models.ErrNotFound)

	forged := anaCred
	forged.Token = "not-a-token"
	_, err = env.client.CreateComment(ctx, forged, 1, "hello", nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = env.client.SetReaction(ctx, anaCred, models.Target{Kind: models.TargetComment, ID: 999}, models.ReactionLike)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.client.Login(ctx, "ana", "wrong-password")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	err = env.client.Register(ctx, models.RegisterRequest{Username: "ana", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrBackendRejected)
}

func TestEndToEnd_ClearReaction(t *testing.T) {
	env := newTestEnv(t, 4)
	ctx := context.Background()
	ana := env.signIn(t, "ana")
	cred, err := ana.Credential()
	require.NoError(t, err)
	target := models.Target{Kind: models.TargetArticle, ID: 5}

	res, err := env.client.SetReaction(ctx, cred, target, models.ReactionLike)
	require.NoError(t, err)
	require.NotNil(t, res.LikeCount)
	assert.Equal(t, 1, *res.LikeCount)

	res, err = env.client.ClearReaction(ctx, cred, target)
	require.NoError(t, err)
	require.NotNil(t, res.LikeCount)
	assert.Equal(t, 0, *res.LikeCount)
	require.NotNil(t, res.UserReaction)
	assert.Equal(t, models.ReactionNone, *res.UserReaction)
}

func TestCreateComment_RejectsForeignAuthor(t *testing.T) {
	env := newTestEnv(t, 4)
	ana := env.signIn(t, "ana")

	body := strings.NewReader(`{"content":"hi","author_id":"someone-else"}`)
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/articles/1/comments", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ana.Token())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 403, resp.StatusCode)
	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, string(models.KindBackendRejected), envelope.Code)
}

func TestEndToEnd_FetchReaction(t *testing.T) {
	env := newTestEnv(t, 4)
	ctx := context.Background()
	ana := env.signIn(t, "ana")
	cred, err := ana.Credential()
	require.NoError(t, err)
	target := models.Target{Kind: models.TargetArticle, ID: 9}

	_, err = env.client.SetReaction(ctx, cred, target, models.ReactionDislike)
	require.NoError(t, err)

	state, err := env.client.FetchReaction(ctx, target, cred.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{DislikeCount: 1, UserReaction: models.ReactionDislike}, state)

	state, err = env.client.FetchReaction(ctx, target, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{DislikeCount: 1, UserReaction: models.ReactionNone}, state)

	_, err = env.client.FetchReaction(ctx, models.Target{Kind: models.TargetComment, ID: 404}, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, 4)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-123", resp.Header.Get("X-Request-ID"))
}
