package cliutil

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

func TestRenderTree(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	roots := []*models.Comment{
		{
			ID:                  models.ConfirmedID(1),
			Content:             "root",
			Creator:             models.Creator{DisplayName: "Ana"},
			CreatedAt:           now.Add(-2 * time.Hour),
			LikeCount:           3,
			CurrentUserReaction: models.ReactionLike,
			Replies: []*models.Comment{
				{
					ID:        models.CommentID{Pending: "abc"},
					Content:   "reply",
					Creator:   models.Creator{DisplayName: "Bo"},
					CreatedAt: now,
					ParentID:  models.ParentRef(1),
				},
			},
		},
	}

	var buf bytes.Buffer
	RenderTree(&buf, roots, now)

	want := "[1] Ana · 2 hours ago  +3/-0  (you liked)\n" +
		"  root\n" +
		"  [pending:abc] Bo · sending…  +0/-0\n" +
		"    reply\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderTree(&buf, nil, time.Now())
	assert.Equal(t, "No comments yet.\n", buf.String())
}

func TestParseCommentID(t *testing.T) {
	id, err := ParseCommentID("42")
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmedID(42), id)

	for _, bad := range []string{"", "abc", "-3", "0", "pending:xyz"} {
		_, err := ParseCommentID(bad)
		assert.Error(t, err, bad)
	}
}

func TestExplain(t *testing.T) {
	assert.Nil(t, Explain(nil))
	assert.Contains(t, Explain(models.ErrUnauthenticated).Error(), "auth login")
	assert.Equal(t, models.ErrDepthExceeded.Message, Explain(models.ErrDepthExceeded).Error())
	assert.Contains(t, Explain(errors.New("dial tcp: refused")).Error(), models.ErrNetworkFailure.Message)
}

func TestRenderEvent(t *testing.T) {
	var buf bytes.Buffer
	RenderEvent(&buf, models.CommentEvent{
		Type:      models.EventCommentDeleted,
		CommentID: 7,
		Removed:   []int64{7, 8},
		Timestamp: time.Now(),
	})
	assert.Contains(t, buf.String(), "comment 7 deleted (2 removed)")
}
