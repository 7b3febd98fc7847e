package core

import (
	"context"
	"time"

	"threadhub/internal/repository"
	"threadhub/pkg/models"
)

// ReactionService defines reaction operations
type ReactionService interface {
	Set(ctx context.Context, target models.Target, userID string, r models.Reaction) (models.ReactionState, error)
	Clear(ctx context.Context, target models.Target, userID string) (models.ReactionState, error)
	Get(ctx context.Context, target models.Target, viewerID string) (models.ReactionState, error)
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	commentRepo  repository.CommentRepository
	cache        repository.CommentCache
	events       EventPublisher
}

// NewReactionService creates a new reaction service. cache and events may be nil.
func NewReactionService(reactionRepo repository.ReactionRepository, commentRepo repository.CommentRepository, cache repository.CommentCache, events EventPublisher) ReactionService {
	if cache == nil {
		cache = repository.NopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &reactionService{
		reactionRepo: reactionRepo,
		commentRepo:  commentRepo,
		cache:        cache,
		events:       events,
	}
}

// Set records userID's reaction; ReactionNone clears it
func (s *reactionService) Set(ctx context.Context, target models.Target, userID string, r models.Reaction) (models.ReactionState, error) {
	if userID == "" {
		return models.ReactionState{}, models.ErrUnauthenticated
	}
	r = r.Normalize()
	if r == models.ReactionNone {
		return s.Clear(ctx, target, userID)
	}
	if r != models.ReactionLike && r != models.ReactionDislike {
		return models.ReactionState{}, models.NewBackendRejected("unknown reaction type", 400)
	}

	articleID, err := s.articleOf(ctx, target)
	if err != nil {
		return models.ReactionState{}, err
	}
	if err := s.reactionRepo.Upsert(ctx, target, userID, r); err != nil {
		return models.ReactionState{}, err
	}
	return s.after(ctx, target, articleID, userID)
}

// Clear removes userID's reaction
func (s *reactionService) Clear(ctx context.Context, target models.Target, userID string) (models.ReactionState, error) {
	if userID == "" {
		return models.ReactionState{}, models.ErrUnauthenticated
	}
	articleID, err := s.articleOf(ctx, target)
	if err != nil {
		return models.ReactionState{}, err
	}
	if err := s.reactionRepo.Delete(ctx, target, userID); err != nil {
		return models.ReactionState{}, err
	}
	return s.after(ctx, target, articleID, userID)
}

// Get returns target's counters; viewerID personalizes the user reaction
func (s *reactionService) Get(ctx context.Context, target models.Target, viewerID string) (models.ReactionState, error) {
	if _, err := s.articleOf(ctx, target); err != nil {
		return models.ReactionState{}, err
	}
	return s.reactionRepo.State(ctx, target, viewerID)
}

// articleOf checks that a comment target exists and returns its article
func (s *reactionService) articleOf(ctx context.Context, target models.Target) (int64, error) {
	switch target.Kind {
	case models.TargetArticle:
		return target.ID, nil
	case models.TargetComment:
		record, err := s.commentRepo.GetByID(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		return record.ArticleID, nil
	default:
		return 0, models.NewBackendRejected("unknown reaction target", 400)
	}
}

func (s *reactionService) after(ctx context.Context, target models.Target, articleID int64, userID string) (models.ReactionState, error) {
	state, err := s.reactionRepo.State(ctx, target, userID)
	if err != nil {
		return models.ReactionState{}, err
	}
	if target.Kind == models.TargetComment {
		s.cache.Invalidate(ctx, articleID)
	}

	// Listeners get counters only; the user's own reaction is private.
	public := models.ReactionState{LikeCount: state.LikeCount, DislikeCount: state.DislikeCount, UserReaction: models.ReactionNone}
	s.events.Publish(models.CommentEvent{
		Type:      models.EventReaction,
		ArticleID: articleID,
		Target:    &models.TargetRef{Kind: target.Kind, ID: target.ID},
		Reactions: &public,
		Timestamp: time.Now().UTC(),
	})
	return state, nil
}
