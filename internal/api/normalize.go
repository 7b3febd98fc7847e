package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"threadhub/pkg/models"
)

// payload is a decoded JSON object with keys folded to lower case and with
// underscores removed, so "parentId", "parent_id" and "ParentID" all land
// on "parentid".
type payload map[string]json.RawMessage

func newPayload(raw json.RawMessage) (payload, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	p := make(payload, len(obj))
	for k, v := range obj {
		key := foldKey(k)
		if _, exists := p[key]; !exists {
			p[key] = v
		}
	}
	return p, nil
}

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(k, "_", ""), "-", ""))
}

// lookup returns the first present, non-null value among keys
func (p payload) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := p[foldKey(k)]
		if ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (p payload) str(keys ...string) string {
	v, ok := p.lookup(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.Trim(string(v), `"`)
}

func (p payload) integer(keys ...string) (int64, bool) {
	v, ok := p.lookup(keys...)
	if !ok {
		return 0, false
	}
	return parseInt64(v)
}

func (p payload) intPtr(keys ...string) *int {
	n, ok := p.integer(keys...)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func parseInt64(v json.RawMessage) (int64, bool) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return 0, false
	}
	switch x := raw.(type) {
	case json.Number:
		n = x
	case string:
		n = json.Number(strings.TrimSpace(x))
	default:
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	if f, err := n.Float64(); err == nil {
		return int64(f), true
	}
	return 0, false
}

func (p payload) timestamp(keys ...string) time.Time {
	v, ok := p.lookup(keys...)
	if !ok {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	if n, ok := parseInt64(v); ok {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	return time.Time{}
}

func (p payload) reaction(keys ...string) models.Reaction {
	v, ok := p.lookup(keys...)
	if !ok {
		return models.ReactionNone
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		s = string(v)
	}
	r, err := models.ParseReaction(s)
	if err != nil {
		return models.ReactionNone
	}
	return r
}

// decodeComment maps one comment object, in whatever casing the backend
// used, onto the canonical record.
func decodeComment(raw json.RawMessage) (models.Comment, error) {
	p, err := newPayload(raw)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to decode comment: %w", err)
	}

	id, ok := p.integer("id", "comment_id")
	if !ok {
		return models.Comment{}, fmt.Errorf("comment without id")
	}

	c := models.Comment{
		ID:                  models.ConfirmedID(id),
		Content:             p.str("content", "text", "body"),
		CreatedAt:           p.timestamp("created_at", "createdAt", "created"),
		Depth:               int(firstInt(p, "depth", "level")),
		LikeCount:           int(firstInt(p, "like_count", "likes")),
		DislikeCount:        int(firstInt(p, "dislike_count", "dislikes")),
		CurrentUserReaction: p.reaction("current_user_reaction", "user_reaction", "my_reaction"),
	}
	if parent, ok := p.integer("parent_id", "parent"); ok && parent != 0 {
		c.ParentID = models.ParentRef(parent)
	}
	c.Creator = decodeCreator(p)

	return c, nil
}

func firstInt(p payload, keys ...string) int64 {
	n, _ := p.integer(keys...)
	return n
}

func decodeCreator(p payload) models.Creator {
	var creator models.Creator
	if v, ok := p.lookup("creator", "author", "user"); ok {
		if nested, err := newPayload(v); err == nil {
			creator.ID = nested.str("id", "user_id")
			creator.DisplayName = nested.str("display_name", "name", "username")
		}
	}
	if creator.ID == "" {
		creator.ID = p.str("creator_id", "author_id", "user_id")
	}
	if creator.DisplayName == "" {
		creator.DisplayName = p.str("creator_name", "author_name", "username")
	}
	return creator
}

// decodeCommentList accepts either a bare array or an object carrying the
// array under "comments".
func decodeCommentList(data json.RawMessage) ([]models.Comment, error) {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return []models.Comment{}, nil
	}

	var items []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode comments: %w", err)
		}
	} else {
		p, err := newPayload(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode comments: %w", err)
		}
		if v, ok := p.lookup("comments", "items"); ok {
			if err := json.Unmarshal(v, &items); err != nil {
				return nil, fmt.Errorf("failed to decode comments: %w", err)
			}
		}
	}

	out := make([]models.Comment, 0, len(items))
	for _, item := range items {
		c, err := decodeComment(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeCreateResult(data json.RawMessage) (*models.CreateResult, error) {
	p, err := newPayload(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	id, ok := p.integer("id", "comment_id")
	if !ok {
		return nil, fmt.Errorf("create response without id")
	}
	res := &models.CreateResult{ID: id, CreatorName: p.str("creator_name", "author_name")}
	if res.CreatorName == "" {
		res.CreatorName = decodeCreator(p).DisplayName
	}
	return res, nil
}

func decodeReactionResult(data json.RawMessage) (*models.ReactionResult, error) {
	if isNull(data) {
		return &models.ReactionResult{}, nil
	}
	p, err := newPayload(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reaction response: %w", err)
	}
	res := &models.ReactionResult{
		LikeCount:    p.intPtr("like_count", "likes"),
		DislikeCount: p.intPtr("dislike_count", "dislikes"),
	}
	if _, ok := p.lookup("user_reaction", "current_user_reaction", "reaction"); ok {
		r := p.reaction("user_reaction", "current_user_reaction", "reaction")
		res.UserReaction = &r
	}
	return res, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
