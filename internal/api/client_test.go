package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

var cred = models.Credential{UserID: "u1", DisplayName: "Ana", Token: "secret"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1", WithRateLimit(0, 0), WithTimeout(2*time.Second))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestFetchComments_NormalizesCasing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/articles/3/comments", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("viewer_id"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"comments":[
			{"id":1,"content":"root","createdAt":"2025-03-01T12:00:00Z","creator":{"id":"u1","displayName":"Ana"},"likeCount":2,"currentUserReaction":"like"},
			{"Id":"2","Content":"reply","created_at":"2025-03-01T12:05:00Z","ParentId":1,"creator_id":"u2","creator_name":"Bo","dislike_count":1,"user_reaction":-1},
			{"ID":3,"content":"orphan","parent_id":null,"created_at":1740830400}
		]}}`)
	})

	list, err := client.FetchComments(context.Background(), 3, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, models.ConfirmedID(1), list[0].ID)
	assert.Nil(t, list[0].ParentID)
	assert.Equal(t, "Ana", list[0].Creator.DisplayName)
	assert.Equal(t, 2, list[0].LikeCount)
	assert.Equal(t, models.ReactionLike, list[0].CurrentUserReaction)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), list[0].CreatedAt.UTC())

	assert.Equal(t, models.ConfirmedID(2), list[1].ID)
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, int64(1), *list[1].ParentID)
	assert.Equal(t, models.Creator{ID: "u2", DisplayName: "Bo"}, list[1].Creator)
	assert.Equal(t, models.ReactionDislike, list[1].CurrentUserReaction)

	assert.Equal(t, models.ReactionNone, list[2].CurrentUserReaction)
	assert.Nil(t, list[2].ParentID)
	assert.Equal(t, int64(1740830400), list[2].CreatedAt.Unix())
}

func TestFetchComments_BareArrayWithoutViewer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":4,"content":"x"}]}`)
	})

	list, err := client.FetchComments(context.Background(), 3, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ConfirmedID(4), list[0].ID)
}

func TestCreateComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req models.CreateCommentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Content)
		assert.Equal(t, "u1", req.AuthorID)
		require.NotNil(t, req.ParentID)
		assert.Equal(t, int64(2), *req.ParentID)

		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":12,"creatorName":"Ana L."}}`)
	})

	res, err := client.CreateComment(context.Background(), cred, 3, "hello", models.ParentRef(2))
	require.NoError(t, err)
	assert.Equal(t, &models.CreateResult{ID: 12, CreatorName: "Ana L."}, res)
}

func TestCreateComment_NoCredential(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	_, err := client.CreateComment(context.Background(), models.Credential{}, 3, "hello", nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"success":false,"error":"token expired"}`, want: models.ErrUnauthenticated},
		{name: "not found", status: http.StatusNotFound, body: `{"success":false,"error":"comment not found"}`, want: models.ErrNotFound},
		{name: "forbidden", status: http.StatusForbidden, body: `{"success":false,"error":"not your comment"}`, want: models.ErrBackendRejected, message: "not your comment"},
		{name: "server error with html", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: models.ErrBackendRejected},
		{name: "success false on 200", status: http.StatusOK, body: `{"success":false,"error":"rate limited"}`, want: models.ErrBackendRejected, message: "rate limited"},
		{name: "garbage on 200", status: http.StatusOK, body: `not json`, want: models.ErrNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.DeleteComment(context.Background(), cred, 9)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			if tt.message != "" {
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.message, appErr.UserMessage())
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url+"/api/v1", WithRateLimit(0, 0))
	_, err := client.FetchComments(context.Background(), 1, "")

	assert.ErrorIs(t, err, models.ErrNetworkFailure)
}

func TestContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchComments(ctx, 1, "")
	assert.ErrorIs(t, err, models.ErrNetworkFailure)
}

func TestSetReaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/reactions/comment/7", r.URL.Path)

		var req models.SetReactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.ReactionLike, req.Type)

		writeJSON(w, http.StatusOK, `{"success":true,"data":{"likeCount":5,"dislike_count":0,"userReaction":"like"}}`)
	})

	res, err := client.SetReaction(context.Background(), cred, models.Target{Kind: models.TargetComment, ID: 7}, models.ReactionLike)
	require.NoError(t, err)

	require.NotNil(t, res.LikeCount)
	require.NotNil(t, res.DislikeCount)
	require.NotNil(t, res.UserReaction)
	assert.Equal(t, 5, *res.LikeCount)
	assert.Equal(t, 0, *res.DislikeCount)
	assert.Equal(t, models.ReactionLike, *res.UserReaction)
}

func TestClearReaction_WithoutData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/reactions/article/3", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("user_id"))
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	res, err := client.ClearReaction(context.Background(), cred, models.Target{Kind: models.TargetArticle, ID: 3})
	require.NoError(t, err)
	assert.Nil(t, res.LikeCount)
	assert.Nil(t, res.UserReaction)
}

func TestSetReaction_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false}`)
	})

	_, err := client.SetReaction(context.Background(), cred, models.Target{Kind: models.TargetComment, ID: 7}, models.ReactionLike)
	assert.ErrorIs(t, err, models.ErrBackendRejected)
}
