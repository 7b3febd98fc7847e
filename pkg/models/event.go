package models

import "time"

// Comment event types
const (
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
	EventReaction       = "reaction"
)

// CommentEvent is pushed to live listeners of an article
type CommentEvent struct {
	Type       string         `json:"type"`
	ArticleID  int64          `json:"article_id"`
	CommentID  int64          `json:"comment_id,omitempty"`
	ParentID   *int64         `json:"parent_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Removed    []int64        `json:"removed,omitempty"`
	Target     *TargetRef     `json:"target,omitempty"`
	Reactions  *ReactionState `json:"reactions,omitempty"`
	Content    string         `json:"content,omitempty"`
	AuthorName string         `json:"author_name,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// TargetRef is the wire form of a Target
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}
