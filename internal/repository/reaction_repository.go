package repository

import (
	"context"
	"time"

	"threadhub/pkg/database"
	"threadhub/pkg/models"
)

// ReactionRepository stores one reaction per user and target
type ReactionRepository interface {
	// Upsert sets userID's reaction on target, replacing any previous one
	Upsert(ctx context.Context, target models.Target, userID string, r models.Reaction) error
	Delete(ctx context.Context, target models.Target, userID string) error
	// State returns the counters of target and userID's reaction
	State(ctx context.Context, target models.Target, userID string) (models.ReactionState, error)
}

type reactionRepository struct {
	db *database.DB
}

// NewReactionRepository creates a new SQL reaction repository
func NewReactionRepository(db *database.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Upsert inserts or replaces a reaction
func (r *reactionRepository) Upsert(ctx context.Context, target models.Target, userID string, reaction models.Reaction) error {
	query := r.db.Rebind(`
		INSERT INTO reactions (target_kind, target_id, user_id, reaction, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (target_kind, target_id, user_id)
		DO UPDATE SET reaction = excluded.reaction, updated_at = excluded.updated_at
	`)

	_, err := r.db.ExecContext(ctx, query,
		string(target.Kind),
		target.ID,
		userID,
		string(reaction),
		dbTime{time.Now()},
	)
	return mapDBError(err, "upsert_reaction")
}

// Delete removes a reaction; removing a missing reaction is not an error
func (r *reactionRepository) Delete(ctx context.Context, target models.Target, userID string) error {
	query := r.db.Rebind(`DELETE FROM reactions WHERE target_kind = ? AND target_id = ? AND user_id = ?`)
	_, err := r.db.ExecContext(ctx, query, string(target.Kind), target.ID, userID)
	return mapDBError(err, "delete_reaction")
}

// State aggregates the counters of a target
func (r *reactionRepository) State(ctx context.Context, target models.Target, userID string) (models.ReactionState, error) {
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN reaction = 'like' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reaction = 'dislike' THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(CASE WHEN user_id = ? THEN reaction END), 'none')
		FROM reactions
		WHERE target_kind = ? AND target_id = ?
	`)

	var state models.ReactionState
	var reaction string
	err := r.db.QueryRowContext(ctx, query, userID, string(target.Kind), target.ID).Scan(
		&state.LikeCount,
		&state.DislikeCount,
		&reaction,
	)
	if err != nil {
		return models.ReactionState{}, mapDBError(err, "reaction_state")
	}
	state.UserReaction = models.Reaction(reaction).Normalize()
	return state, nil
}
