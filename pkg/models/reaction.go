package models

import (
	"fmt"
	"strings"
)

// Reaction is the current user's stance on a target
type Reaction string

const (
	ReactionNone    Reaction = "none"
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Normalize maps the empty value to ReactionNone
func (r Reaction) Normalize() Reaction {
	if r == "" {
		return ReactionNone
	}
	return r
}

// ParseReaction accepts the spellings seen on the wire and in CLI input
func ParseReaction(s string) (Reaction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "0", "null":
		return ReactionNone, nil
	case "like", "liked", "up", "1":
		return ReactionLike, nil
	case "dislike", "disliked", "down", "-1":
		return ReactionDislike, nil
	default:
		return ReactionNone, fmt.Errorf("unknown reaction %q", s)
	}
}

// TargetKind distinguishes what a reaction is attached to
type TargetKind string

const (
	TargetArticle TargetKind = "article"
	TargetComment TargetKind = "comment"
)

// ParseTargetKind validates a kind path segment
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(strings.ToLower(s)) {
	case TargetArticle:
		return TargetArticle, nil
	case TargetComment:
		return TargetComment, nil
	default:
		return "", fmt.Errorf("unknown target kind %q", s)
	}
}

// Target is a reactable entity
type Target struct {
	Kind TargetKind
	ID   int64
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// ReactionState holds the counters of one target together with the
// current user's reaction. Values are compared with ==.
type ReactionState struct {
	LikeCount    int      `json:"like_count"`
	DislikeCount int      `json:"dislike_count"`
	UserReaction Reaction `json:"user_reaction"`
}

// Normalized clamps counters at zero and fills an empty reaction
func (s ReactionState) Normalized() ReactionState {
	if s.LikeCount < 0 {
		s.LikeCount = 0
	}
	if s.DislikeCount < 0 {
		s.DislikeCount = 0
	}
	s.UserReaction = s.UserReaction.Normalize()
	return s
}

// ReactionResult is the reaction backend's answer. Nil fields mean the
// backend did not report an authoritative value.
type ReactionResult struct {
	LikeCount    *int
	DislikeCount *int
	UserReaction *Reaction
}

// SetReactionRequest is the wire body for adding or replacing a reaction
type SetReactionRequest struct {
	Type   Reaction `json:"type" binding:"required"`
	UserID string   `json:"user_id"`
}

// ReactionResponse is the wire data of a reaction call
type ReactionResponse struct {
	LikeCount    *int      `json:"like_count,omitempty"`
	DislikeCount *int      `json:"dislike_count,omitempty"`
	UserReaction *Reaction `json:"user_reaction,omitempty"`
}
