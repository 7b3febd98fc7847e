// Package core - development backend business logic
// Protocol-agnostic comment, reaction and account services
package core

import (
	"context"
	"errors"
	"time"

	"threadhub/internal/comments"
	"threadhub/internal/repository"
	"threadhub/pkg/logger"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

// EventPublisher receives comment events for live listeners
type EventPublisher interface {
	Publish(event models.CommentEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.CommentEvent) {}

type multiPublisher []EventPublisher

func (m multiPublisher) Publish(event models.CommentEvent) {
	for _, p := range m {
		p.Publish(event)
	}
}

// Publishers fans every event out to each non-nil publisher in order
func Publishers(publishers ...EventPublisher) EventPublisher {
	var m multiPublisher
	for _, p := range publishers {
		if p != nil {
			m = append(m, p)
		}
	}
	if len(m) == 0 {
		return nopPublisher{}
	}
	return m
}

// CommentService defines comment operations
type CommentService interface {
	List(ctx context.Context, articleID int64, viewerID string) ([]models.CommentPayload, error)
	Create(ctx context.Context, articleID int64, user *models.User, req models.CreateCommentRequest) (*models.CreateCommentResponse, error)
	Delete(ctx context.Context, id int64, user *models.User) ([]int64, error)
}

// CommentOptions tunes server-side limits
type CommentOptions struct {
	MaxDepth         int
	MaxContentLength int
}

type commentService struct {
	commentRepo repository.CommentRepository
	cache       repository.CommentCache
	events      EventPublisher
	opts        CommentOptions
	now         func() time.Time
}

// NewCommentService creates a new comment service. cache and events may be nil.
func NewCommentService(commentRepo repository.CommentRepository, cache repository.CommentCache, events EventPublisher, opts CommentOptions) CommentService {
	if cache == nil {
		cache = repository.NopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = models.DefaultMaxDepth
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = models.MaxCommentLength
	}
	return &commentService{
		commentRepo: commentRepo,
		cache:       cache,
		events:      events,
		opts:        opts,
		now:         time.Now,
	}
}

// List returns an article's comments with depth derived from the tree
func (s *commentService) List(ctx context.Context, articleID int64, viewerID string) ([]models.CommentPayload, error) {
	if list, ok := s.cache.Get(ctx, articleID, viewerID); ok {
		return list, nil
	}

	rows, err := s.commentRepo.ListByArticle(ctx, articleID, viewerID)
	if err != nil {
		return nil, err
	}

	flat := make([]models.Comment, 0, len(rows))
	for _, row := range rows {
		flat = append(flat, models.Comment{ID: models.ConfirmedID(row.ID), ParentID: row.ParentID, CreatedAt: row.CreatedAt})
	}
	depths := make(map[int64]int, len(rows))
	comments.Walk(comments.BuildTree(flat), func(c *models.Comment, depth int) bool {
		depths[c.ID.Confirmed] = depth
		return true
	})

	list := make([]models.CommentPayload, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.Payload(depths[row.ID], row.Reactions))
	}

	s.cache.Set(ctx, articleID, viewerID, list)
	return list, nil
}

// Create stores a comment or a reply
func (s *commentService) Create(ctx context.Context, articleID int64, user *models.User, req models.CreateCommentRequest) (*models.CreateCommentResponse, error) {
	if user == nil {
		return nil, models.ErrUnauthenticated
	}
	if req.AuthorID != "" && req.AuthorID != user.ID {
		return nil, models.NewBackendRejected("author does not match the signed-in user", 403)
	}
	content, err := utils.ValidateContent(req.Content, 1, s.opts.MaxContentLength)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ArticleID != articleID {
			return nil, models.NewError(models.KindNotFound, "parent comment belongs to another article", nil)
		}
		depth, err := s.commentRepo.Depth(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		if depth+1 > s.opts.MaxDepth {
			return nil, models.ErrDepthExceeded
		}
	}

	record := &models.CommentRecord{
		ArticleID:  articleID,
		ParentID:   req.ParentID,
		UserID:     user.ID,
		AuthorName: user.Name(),
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, articleID)
	s.events.Publish(models.CommentEvent{
		Type:       models.EventCommentCreated,
		ArticleID:  articleID,
		CommentID:  record.ID,
		ParentID:   record.ParentID,
		UserID:     user.ID,
		Content:    record.Content,
		AuthorName: record.AuthorName,
		Timestamp:  record.CreatedAt,
	})
	logger.Infof("comment %d created on article %d by %s", record.ID, articleID, user.ID)

	return &models.CreateCommentResponse{ID: record.ID, CreatorName: record.AuthorName}, nil
}

// Delete removes a comment subtree. Only the author or a moderator may.
func (s *commentService) Delete(ctx context.Context, id int64, user *models.User) ([]int64, error) {
	if user == nil {
		return nil, models.ErrUnauthenticated
	}
	record, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != user.ID && !user.HasRole(models.UserRoleModerator) {
		return nil, models.NewBackendRejected("you can only delete your own comments", 403)
	}

	removed, err := s.commentRepo.DeleteCascade(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, record.ArticleID)
	s.events.Publish(models.CommentEvent{
		Type:      models.EventCommentDeleted,
		ArticleID: record.ArticleID,
		CommentID: id,
		UserID:    user.ID,
		Removed:   removed,
		Timestamp: s.now().UTC(),
	})
	logger.Infof("comment %d deleted with %d descendants by %s", id, len(removed)-1, user.ID)

	return removed, nil
}
