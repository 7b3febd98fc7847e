package comments

import (
	"context"
	"strings"
	"sync"
	"time"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

// Operations is the comment backend as seen by a single article's store.
// The caller binds the article and the credential.
type Operations interface {
	Create(ctx context.Context, parentID *int64, content string) (*models.CreateResult, error)
	Delete(ctx context.Context, id int64) error
}

// Store owns the flat comment collection of one article and applies
// optimistic mutations to it.
//
// The lock is never held while an Operations call is running, so readers
// see pending comments while their create is in flight.
type Store struct {
	mu        sync.RWMutex
	articleID int64
	ops       Operations
	maxDepth  int
	now       func() time.Time
	comments  []models.Comment
}

// Option configures a Store
type Option func(*Store)

// WithMaxDepth overrides the deepest allowed reply depth
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithClock sets the time source used for locally created comments
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store for articleID
func NewStore(articleID int64, ops Operations, opts ...Option) *Store {
	s := &Store{
		articleID: articleID,
		ops:       ops,
		maxDepth:  models.DefaultMaxDepth,
		now:       time.Now,
		comments:  []models.Comment{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ArticleID returns the article this store belongs to
func (s *Store) ArticleID() int64 {
	return s.articleID
}

// MaxDepth returns the deepest allowed reply depth
func (s *Store) MaxDepth() int {
	return s.maxDepth
}

// Load replaces the collection. Duplicate ids keep their first occurrence,
// replies are cleared and depth is recomputed from the parent chain.
func (s *Store) Load(flat []models.Comment) {
	depths := make(map[models.CommentID]int, len(flat))
	Walk(BuildTree(flat), func(c *models.Comment, depth int) bool {
		depths[c.ID] = depth
		return true
	})

	seen := make(map[models.CommentID]bool, len(flat))
	next := make([]models.Comment, 0, len(flat))
	for i := range flat {
		if seen[flat[i].ID] {
			continue
		}
		seen[flat[i].ID] = true
		c := flat[i].Clone()
		c.Replies = nil
		c.Depth = depths[c.ID]
		c.CurrentUserReaction = c.CurrentUserReaction.Normalize()
		next = append(next, *c)
	}

	s.mu.Lock()
	s.comments = next
	s.mu.Unlock()

	logger.Debugf("comments: loaded %d comments for article %d", len(next), s.articleID)
}

// AddRootComment creates a top-level comment. The comment is visible as
// pending until the backend confirms it; on failure it is removed again.
func (s *Store) AddRootComment(ctx context.Context, content string, author *models.Creator) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrEmptyContent
	}
	if author == nil {
		return nil, models.ErrUnauthenticated
	}

	pending := models.Comment{
		ID:                  models.NewPendingID(),
		Content:             content,
		Creator:             *author,
		CreatedAt:           s.now(),
		CurrentUserReaction: models.ReactionNone,
	}

	s.mu.Lock()
	s.comments = append([]models.Comment{pending}, s.comments...)
	s.mu.Unlock()
	logger.Comment("pending", s.articleID, pending.ID.String())

	return s.commit(ctx, pending)
}

// AddReply creates a reply under parentID, refusing to go deeper than the
// configured maximum depth.
func (s *Store) AddReply(ctx context.Context, parentID models.CommentID, content string, author *models.Creator) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrEmptyContent
	}
	if author == nil {
		return nil, models.ErrUnauthenticated
	}

	s.mu.Lock()
	idx := s.indexOf(parentID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, models.ErrNotFound
	}
	parent := s.comments[idx]
	if parent.ID.IsPending() {
		s.mu.Unlock()
		return nil, models.ErrPending
	}
	if parent.Depth+1 > s.maxDepth {
		s.mu.Unlock()
		return nil, models.ErrDepthExceeded
	}

	pending := models.Comment{
		ID:                  models.NewPendingID(),
		Content:             content,
		Creator:             *author,
		CreatedAt:           s.now(),
		ParentID:            models.ParentRef(parent.ID.Confirmed),
		Depth:               parent.Depth + 1,
		CurrentUserReaction: models.ReactionNone,
	}
	s.comments = append(s.comments, pending)
	s.mu.Unlock()
	logger.Comment("pending", s.articleID, pending.ID.String())

	return s.commit(ctx, pending)
}

// commit runs the backend create for a pending comment and either confirms
// it under the server id or removes it.
func (s *Store) commit(ctx context.Context, pending models.Comment) (*models.Comment, error) {
	res, err := s.ops.Create(ctx, pending.ParentID, pending.Content)
	if err == nil && res == nil {
		err = models.NewBackendRejected("empty create response", 0)
	}
	if err != nil {
		s.mu.Lock()
		s.removeLocked(pending.ID)
		s.mu.Unlock()
		logger.Comment("rolled_back", s.articleID, pending.ID.String())
		return nil, models.Classify(err)
	}

	confirmed := s.confirm(pending.ID, res)
	if confirmed == nil {
		// A reload dropped the placeholder while the create was in flight.
		c := pending
		c.ID = models.ConfirmedID(res.ID)
		if res.CreatorName != "" {
			c.Creator.DisplayName = res.CreatorName
		}
		confirmed = &c
	}
	logger.Comment("confirmed", s.articleID, confirmed.ID.String())
	return confirmed, nil
}

// confirm moves a pending comment to its server-assigned id
func (s *Store) confirm(pendingID models.CommentID, res *models.CreateResult) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(pendingID)
	if idx < 0 {
		return nil
	}
	serverID := models.ConfirmedID(res.ID)
	if s.indexOf(serverID) >= 0 {
		s.comments = append(s.comments[:idx], s.comments[idx+1:]...)
		existing := s.comments[s.indexOf(serverID)]
		return existing.Clone()
	}

	c := &s.comments[idx]
	c.ID = serverID
	if res.CreatorName != "" {
		c.Creator.DisplayName = res.CreatorName
	}
	return c.Clone()
}

// DeleteComment deletes id on the backend and, once that succeeds, removes
// it together with all of its descendants. It returns the removed ids.
func (s *Store) DeleteComment(ctx context.Context, id models.CommentID) ([]models.CommentID, error) {
	s.mu.RLock()
	idx := s.indexOf(id)
	s.mu.RUnlock()
	if idx < 0 {
		return nil, models.ErrNotFound
	}
	if id.IsPending() {
		return nil, models.ErrPending
	}

	if err := s.ops.Delete(ctx, id.Confirmed); err != nil {
		return nil, models.Classify(err)
	}

	s.mu.Lock()
	removed := s.descendantsLocked(id)
	if s.indexOf(id) >= 0 {
		removed = append([]models.CommentID{id}, removed...)
	}
	drop := make(map[models.CommentID]bool, len(removed))
	for _, r := range removed {
		drop[r] = true
	}
	kept := s.comments[:0]
	for _, c := range s.comments {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	s.mu.Unlock()

	logger.Comment("deleted", s.articleID, id.String())
	return removed, nil
}

// Descendants returns the ids of every comment below id
func (s *Store) Descendants(id models.CommentID) []models.CommentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.descendantsLocked(id)
}

// descendantsLocked follows the built tree rather than raw parent ids, so a
// parent cycle that BuildTree broke cannot pull an ancestor into the result.
func (s *Store) descendantsLocked(id models.CommentID) []models.CommentID {
	node := Find(BuildTree(s.comments), id)
	if node == nil {
		return []models.CommentID{}
	}
	out := []models.CommentID{}
	Walk(node.Replies, func(c *models.Comment, _ int) bool {
		out = append(out, c.ID)
		return true
	})
	return out
}

// SetReaction overwrites the reaction counters of a comment
func (s *Store) SetReaction(id models.CommentID, state models.ReactionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.ErrNotFound
	}
	s.comments[idx].ApplyReactions(state.Normalized())
	return nil
}

// ReactionState returns the reaction counters of a comment
func (s *Store) ReactionState(id models.CommentID) (models.ReactionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.ReactionState{}, models.ErrNotFound
	}
	return s.comments[idx].Reactions(), nil
}

// Get returns a copy of the comment with the given id
func (s *Store) Get(id models.CommentID) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Comment{}, false
	}
	return *s.comments[idx].Clone(), true
}

// Comments returns a copy of the flat collection
func (s *Store) Comments() []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, len(s.comments))
	for i := range s.comments {
		out[i] = *s.comments[i].Clone()
	}
	return out
}

// Tree builds the threaded view of the current collection
func (s *Store) Tree() []*models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildTree(s.comments)
}

// Count returns the number of comments reachable in the tree
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CountAll(s.comments)
}

// Len returns the size of the flat collection
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments)
}

func (s *Store) indexOf(id models.CommentID) int {
	for i := range s.comments {
		if s.comments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id models.CommentID) {
	if idx := s.indexOf(id); idx >= 0 {
		s.comments = append(s.comments[:idx], s.comments[idx+1:]...)
	}
}
