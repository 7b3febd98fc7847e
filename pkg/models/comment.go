package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxCommentLength = 5000
	DefaultMaxDepth  = 4
)

const pendingPrefix = "pending:"

// CommentID identifies a comment. Server-assigned ids live in Confirmed;
// comments created locally and not yet acknowledged carry a Pending token.
// The zero value is not a valid id.
type CommentID struct {
	Confirmed int64
	Pending   string
}

// ConfirmedID wraps a server-assigned id
func ConfirmedID(id int64) CommentID {
	return CommentID{Confirmed: id}
}

// NewPendingID returns a fresh placeholder id for an optimistic comment
func NewPendingID() CommentID {
	return CommentID{Pending: uuid.NewString()}
}

// IsPending reports whether the id is a local placeholder
func (id CommentID) IsPending() bool {
	return id.Pending != ""
}

// IsZero reports whether the id is unset
func (id CommentID) IsZero() bool {
	return id.Pending == "" && id.Confirmed == 0
}

func (id CommentID) String() string {
	if id.IsPending() {
		return pendingPrefix + id.Pending
	}
	return strconv.FormatInt(id.Confirmed, 10)
}

// ParseCommentID parses the String form of a CommentID
func ParseCommentID(s string) (CommentID, error) {
	if strings.HasPrefix(s, pendingPrefix) {
		return CommentID{Pending: strings.TrimPrefix(s, pendingPrefix)}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return CommentID{}, err
	}
	return ConfirmedID(n), nil
}

// Creator - minimal author info attached to a comment
type Creator struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Comment is the canonical comment record. Replies is only populated in
// tree views built from the flat collection.
type Comment struct {
	ID                  CommentID  `json:"-"`
	Content             string     `json:"content"`
	Creator             Creator    `json:"creator"`
	CreatedAt           time.Time  `json:"created_at"`
	ParentID            *int64     `json:"parent_id,omitempty"`
	Depth               int        `json:"depth"`
	LikeCount           int        `json:"like_count"`
	DislikeCount        int        `json:"dislike_count"`
	CurrentUserReaction Reaction   `json:"current_user_reaction"`
	Replies             []*Comment `json:"replies,omitempty"`
}

// IsRoot reports whether the comment has no parent reference
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// Reactions returns the comment's reaction counters as a ReactionState
func (c *Comment) Reactions() ReactionState {
	return ReactionState{
		LikeCount:    c.LikeCount,
		DislikeCount: c.DislikeCount,
		UserReaction: c.CurrentUserReaction,
	}
}

// ApplyReactions overwrites the comment's reaction counters
func (c *Comment) ApplyReactions(s ReactionState) {
	c.LikeCount = s.LikeCount
	c.DislikeCount = s.DislikeCount
	c.CurrentUserReaction = s.UserReaction
}

// Clone returns a deep copy. Replies are copied recursively.
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	if c.Replies != nil {
		cp.Replies = make([]*Comment, len(c.Replies))
		for i, r := range c.Replies {
			cp.Replies[i] = r.Clone()
		}
	}
	return &cp
}

// ParentRef returns a pointer to a copy of id, for building ParentID values
func ParentRef(id int64) *int64 {
	return &id
}

// CreateResult is what the comment backend returns for a created comment
type CreateResult struct {
	ID          int64
	CreatorName string
}

// CreateCommentRequest is the wire body for comment creation
type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	AuthorID string `json:"author_id"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// CreateCommentResponse is the data payload of a successful create
type CreateCommentResponse struct {
	ID          int64  `json:"id"`
	CreatorName string `json:"creator_name,omitempty"`
}

// CommentPayload is the wire shape the development backend emits for a comment
type CommentPayload struct {
	ID                  int64     `json:"id"`
	Content             string    `json:"content"`
	Creator             Creator   `json:"creator"`
	CreatedAt           time.Time `json:"created_at"`
	ParentID            *int64    `json:"parent_id"`
	Depth               int       `json:"depth"`
	LikeCount           int       `json:"like_count"`
	DislikeCount        int       `json:"dislike_count"`
	CurrentUserReaction Reaction  `json:"current_user_reaction"`
}

// CommentListResponse wraps the initial flat load
type CommentListResponse struct {
	Comments []CommentPayload `json:"comments"`
}

// CommentRecord is a persisted comment row of the development backend
type CommentRecord struct {
	ID         int64
	ArticleID  int64
	ParentID   *int64
	UserID     string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// Payload renders the record with its reaction state for the wire
func (r *CommentRecord) Payload(depth int, state ReactionState) CommentPayload {
	state = state.Normalized()
	return CommentPayload{
		ID:                  r.ID,
		Content:             r.Content,
		Creator:             Creator{ID: r.UserID, DisplayName: r.AuthorName},
		CreatedAt:           r.CreatedAt,
		ParentID:            r.ParentID,
		Depth:               depth,
		LikeCount:           state.LikeCount,
		DislikeCount:        state.DislikeCount,
		CurrentUserReaction: state.UserReaction,
	}
}
