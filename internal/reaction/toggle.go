// Package reaction implements the like/dislike toggle shared by articles
// and comments.
package reaction

import (
	"context"
	"sync"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

// Action is the single backend call a transition requires
type Action int

const (
	ActionSet Action = iota
	ActionClear
	// ActionNone means the state already matches and no call is needed
	ActionNone
)

func (a Action) String() string {
	switch a {
	case ActionClear:
		return "clear"
	case ActionNone:
		return "none"
	default:
		return "set"
	}
}

// Next computes the state after the user asks for desired. Asking for the
// reaction already held clears it; asking for the other one switches.
// ReactionNone clears whatever is held. Counters never drop below zero.
func Next(state models.ReactionState, desired models.Reaction) (models.ReactionState, Action) {
	next := state.Normalized()
	current := next.UserReaction
	desired = desired.Normalize()

	if desired == models.ReactionNone {
		if current == models.ReactionNone {
			return next, ActionNone
		}
		desired = current
	}

	if desired == current {
		switch desired {
		case models.ReactionLike:
			next.LikeCount--
		case models.ReactionDislike:
			next.DislikeCount--
		}
		next.UserReaction = models.ReactionNone
		return next.Normalized(), ActionClear
	}

	switch current {
	case models.ReactionLike:
		next.LikeCount--
	case models.ReactionDislike:
		next.DislikeCount--
	}
	switch desired {
	case models.ReactionLike:
		next.LikeCount++
	case models.ReactionDislike:
		next.DislikeCount++
	}
	next.UserReaction = desired
	return next.Normalized(), ActionSet
}

// Backend is the reaction collaborator
type Backend interface {
	SetReaction(ctx context.Context, cred models.Credential, target models.Target, r models.Reaction) (*models.ReactionResult, error)
	ClearReaction(ctx context.Context, cred models.Credential, target models.Target) (*models.ReactionResult, error)
}

// Toggle holds the reaction state of one target and serializes toggles on
// it. A second toggle while one is in flight is refused.
type Toggle struct {
	mu       sync.Mutex
	target   models.Target
	backend  Backend
	state    models.ReactionState
	inFlight bool
	onChange func(models.ReactionState)
}

// New creates a toggle for target starting from initial
func New(target models.Target, backend Backend, initial models.ReactionState) *Toggle {
	return &Toggle{
		target:  target,
		backend: backend,
		state:   initial.Normalized(),
	}
}

// OnChange registers fn to be called with every state the toggle moves to,
// including the optimistic one and a rollback.
func (t *Toggle) OnChange(fn func(models.ReactionState)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Target returns the reactable entity
func (t *Toggle) Target() models.Target {
	return t.target
}

// State returns the current, possibly optimistic, state
func (t *Toggle) State() models.ReactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// InFlight reports whether a toggle is waiting on the backend
func (t *Toggle) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Reset replaces the state, for example after a fresh load. It is ignored
// while a toggle is in flight.
func (t *Toggle) Reset(state models.ReactionState) {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return
	}
	t.state = state.Normalized()
	fn := t.onChange
	cur := t.state
	t.mu.Unlock()

	if fn != nil {
		fn(cur)
	}
}

// Toggle applies desired optimistically, performs one backend call and
// either reconciles with the backend's answer or restores the previous
// state exactly.
func (t *Toggle) Toggle(ctx context.Context, cred models.Credential, desired models.Reaction) (models.ReactionState, error) {
	if !cred.Valid() {
		return t.State(), models.ErrUnauthenticated
	}
	desired = desired.Normalize()
	switch desired {
	case models.ReactionNone, models.ReactionLike, models.ReactionDislike:
	default:
		return t.State(), models.ErrInvalidReaction
	}

	t.mu.Lock()
	if t.inFlight {
		cur := t.state
		t.mu.Unlock()
		return cur, models.ErrInFlight
	}
	snapshot := t.state
	optimistic, action := Next(snapshot, desired)
	if action == ActionNone {
		t.mu.Unlock()
		return snapshot, nil
	}
	t.state = optimistic
	t.inFlight = true
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(optimistic)
	}

	var (
		res *models.ReactionResult
		err error
	)
	switch action {
	case ActionClear:
		res, err = t.backend.ClearReaction(ctx, cred, t.target)
	default:
		res, err = t.backend.SetReaction(ctx, cred, t.target, desired)
	}

	t.mu.Lock()
	if err != nil {
		t.state = snapshot
	} else {
		t.state = reconcile(optimistic, res)
	}
	t.inFlight = false
	final := t.state
	fn = t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(final)
	}
	logger.Reaction(t.target.String(), string(snapshot.UserReaction), string(final.UserReaction), err)

	if err != nil {
		return final, models.Classify(err)
	}
	return final, nil
}

// reconcile overwrites the optimistic values with whatever the backend
// reported authoritatively.
func reconcile(optimistic models.ReactionState, res *models.ReactionResult) models.ReactionState {
	if res == nil {
		return optimistic
	}
	out := optimistic
	if res.LikeCount != nil {
		out.LikeCount = *res.LikeCount
	}
	if res.DislikeCount != nil {
		out.DislikeCount = *res.DislikeCount
	}
	if res.UserReaction != nil {
		out.UserReaction = *res.UserReaction
	}
	return out.Normalized()
}
