package reaction

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

type mockBackend struct {
	mock.Mock
	block chan struct{}
}

func (m *mockBackend) SetReaction(ctx context.Context, cred models.Credential, target models.Target, r models.Reaction) (*models.ReactionResult, error) {
	if m.block != nil {
		<-m.block
	}
	args := m.Called(ctx, cred, target, r)
	res, _ := args.Get(0).(*models.ReactionResult)
	return res, args.Error(1)
}

func (m *mockBackend) ClearReaction(ctx context.Context, cred models.Credential, target models.Target) (*models.ReactionResult, error) {
	args := m.Called(ctx, cred, target)
	res, _ := args.Get(0).(*models.ReactionResult)
	return res, args.Error(1)
}

var (
	cred   = models.Credential{UserID: "u1", DisplayName: "Ana", Token: "tok"}
	target = models.Target{Kind: models.TargetComment, ID: 7}
)

func intp(n int) *int { return &n }

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		state   models.ReactionState
		desired models.Reaction
		want    models.ReactionState
		action  Action
	}{
		{
			name:    "like from none",
			state:   models.ReactionState{LikeCount: 0, DislikeCount: 0, UserReaction: models.ReactionNone},
			desired: models.ReactionLike,
			want:    models.ReactionState{LikeCount: 1, DislikeCount: 0, UserReaction: models.ReactionLike},
			action:  ActionSet,
		},
		{
			name:    "like again clears",
			state:   models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionLike},
			desired: models.ReactionLike,
			want:    models.ReactionState{LikeCount: 2, DislikeCount: 1, UserReaction: models.ReactionNone},
			action:  ActionClear,
		},
		{
			name:    "like replaces dislike",
			state:   models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionDislike},
			desired: models.ReactionLike,
			want:    models.ReactionState{LikeCount: 4, DislikeCount: 0, UserReaction: models.ReactionLike},
			action:  ActionSet,
		},
		{
			name:    "dislike from none",
			state:   models.ReactionState{LikeCount: 2, UserReaction: models.ReactionNone},
			desired: models.ReactionDislike,
			want:    models.ReactionState{LikeCount: 2, DislikeCount: 1, UserReaction: models.ReactionDislike},
			action:  ActionSet,
		},
		{
			name:    "dislike replaces like",
			state:   models.ReactionState{LikeCount: 2, DislikeCount: 5, UserReaction: models.ReactionLike},
			desired: models.ReactionDislike,
			want:    models.ReactionState{LikeCount: 1, DislikeCount: 6, UserReaction: models.ReactionDislike},
			action:  ActionSet,
		},
		{
			name:    "dislike again clears",
			state:   models.ReactionState{LikeCount: 2, DislikeCount: 5, UserReaction: models.ReactionDislike},
			desired: models.ReactionDislike,
			want:    models.ReactionState{LikeCount: 2, DislikeCount: 4, UserReaction: models.ReactionNone},
			action:  ActionClear,
		},
		{
			name:    "clear never goes negative",
			state:   models.ReactionState{LikeCount: 0, DislikeCount: 0, UserReaction: models.ReactionLike},
			desired: models.ReactionLike,
			want:    models.ReactionState{UserReaction: models.ReactionNone},
			action:  ActionClear,
		},
		{
			name:    "switch never goes negative",
			state:   models.ReactionState{LikeCount: 0, DislikeCount: 0, UserReaction: models.ReactionDislike},
			desired: models.ReactionLike,
			want:    models.ReactionState{LikeCount: 1, UserReaction: models.ReactionLike},
			action:  ActionSet,
		},
		{
			name:    "none clears a like",
			state:   models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionLike},
			desired: models.ReactionNone,
			want:    models.ReactionState{LikeCount: 2, DislikeCount: 1, UserReaction: models.ReactionNone},
			action:  ActionClear,
		},
		{
			name:    "none clears a dislike",
			state:   models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionDislike},
			desired: models.ReactionNone,
			want:    models.ReactionState{LikeCount: 3, DislikeCount: 0, UserReaction: models.ReactionNone},
			action:  ActionClear,
		},
		{
			name:    "none without a reaction changes nothing",
			state:   models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionNone},
			desired: models.ReactionNone,
			want:    models.ReactionState{LikeCount: 3, DislikeCount: 1, UserReaction: models.ReactionNone},
			action:  ActionNone,
		},
		{
			name:    "empty reaction counts as none",
			state:   models.ReactionState{LikeCount: 1},
			desired: models.ReactionDislike,
			want:    models.ReactionState{LikeCount: 1, DislikeCount: 1, UserReaction: models.ReactionDislike},
			action:  ActionSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, action := Next(tt.state, tt.desired)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestNext_MutualExclusion(t *testing.T) {
	states := []models.Reaction{models.ReactionNone, models.ReactionLike, models.ReactionDislike}
	for _, from := range states {
		for _, desired := range []models.Reaction{models.ReactionLike, models.ReactionDislike} {
			start := models.ReactionState{LikeCount: 1, DislikeCount: 1, UserReaction: from}
			got, _ := Next(start, desired)

			delta := (got.LikeCount - start.LikeCount) + (got.DislikeCount - start.DislikeCount)
			assert.GreaterOrEqual(t, delta, -1)
			assert.LessOrEqual(t, delta, 1)
			assert.GreaterOrEqual(t, got.LikeCount, 0)
			assert.GreaterOrEqual(t, got.DislikeCount, 0)
			assert.NotEqual(t, from, got.UserReaction)
		}
	}
}

func TestToggle_RollbackOnRejection(t *testing.T) {
	backend := &mockBackend{}
	initial := models.ReactionState{UserReaction: models.ReactionNone}
	tg := New(target, backend, initial)

	var seen []models.ReactionState
	tg.OnChange(func(s models.ReactionState) { seen = append(seen, s) })

	backend.On("SetReaction", mock.Anything, cred, target, models.ReactionLike).
		Return(nil, models.NewBackendRejected("", 200)).Once()

	state, err := tg.Toggle(context.Background(), cred, models.ReactionLike)

	assert.ErrorIs(t, err, models.ErrBackendRejected)
	assert.Equal(t, initial, state)
	assert.Equal(t, initial, tg.State())
	require.Len(t, seen, 2)
	assert.Equal(t, models.ReactionState{LikeCount: 1, UserReaction: models.ReactionLike}, seen[0])
	assert.Equal(t, initial, seen[1])
	assert.False(t, tg.InFlight())
}

func TestToggle_RollbackOnTransportError(t *testing.T) {
	backend := &mockBackend{}
	initial := models.ReactionState{LikeCount: 4, DislikeCount: 2, UserReaction: models.ReactionLike}
	tg := New(target, backend, initial)

	backend.On("ClearReaction", mock.Anything, cred, target).
		Return(nil, errors.New("dial tcp: refused")).Once()

	state, err := tg.Toggle(context.Background(), cred, models.ReactionLike)

	assert.ErrorIs(t, err, models.ErrNetworkFailure)
	assert.Equal(t, initial, state)
}

func TestToggle_Reconciles(t *testing.T) {
	backend := &mockBackend{}
	tg := New(target, backend, models.ReactionState{LikeCount: 1, UserReaction: models.ReactionNone})

	liked := models.ReactionLike
	backend.On("SetReaction", mock.Anything, cred, target, models.ReactionLike).
		Return(&models.ReactionResult{LikeCount: intp(10), DislikeCount: intp(3), UserReaction: &liked}, nil).Once()

	state, err := tg.Toggle(context.Background(), cred, models.ReactionLike)
	require.NoError(t, err)

	assert.Equal(t, models.ReactionState{LikeCount: 10, DislikeCount: 3, UserReaction: models.ReactionLike}, state)
	backend.AssertExpectations(t)
}

func TestToggle_KeepsOptimisticWithoutCounts(t *testing.T) {
	backend := &mockBackend{}
	tg := New(target, backend, models.ReactionState{LikeCount: 1, DislikeCount: 1, UserReaction: models.ReactionLike})

	backend.On("SetReaction", mock.Anything, cred, target, models.ReactionDislike).
		Return(&models.ReactionResult{}, nil).Once()

	state, err := tg.Toggle(context.Background(), cred, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{LikeCount: 0, DislikeCount: 2, UserReaction: models.ReactionDislike}, state)
}

func TestToggle_Unauthenticated(t *testing.T) {
	backend := &mockBackend{}
	initial := models.ReactionState{LikeCount: 2}
	tg := New(target, backend, initial)

	state, err := tg.Toggle(context.Background(), models.Credential{}, models.ReactionLike)

	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	assert.Equal(t, initial.Normalized(), state)
	backend.AssertNotCalled(t, "SetReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_InFlightIsRefused(t *testing.T) {
	backend := &mockBackend{block: make(chan struct{})}
	tg := New(target, backend, models.ReactionState{UserReaction: models.ReactionNone})

	backend.On("SetReaction", mock.Anything, cred, target, models.ReactionLike).
		Return(&models.ReactionResult{}, nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := tg.Toggle(context.Background(), cred, models.ReactionLike)
		assert.NoError(t, err)
	}()

	require.Eventually(t, tg.InFlight, time.Second, time.Millisecond)

	state, err := tg.Toggle(context.Background(), cred, models.ReactionDislike)
	assert.ErrorIs(t, err, models.ErrInFlight)
	assert.Equal(t, models.ReactionLike, state.UserReaction)

	close(backend.block)
	wg.Wait()

	assert.False(t, tg.InFlight())
	backend.AssertNumberOfCalls(t, "SetReaction", 1)
}

func TestToggle_ResetIgnoredWhileInFlight(t *testing.T) {
	backend := &mockBackend{block: make(chan struct{})}
	tg := New(target, backend, models.ReactionState{})

	backend.On("SetReaction", mock.Anything, cred, target, models.ReactionLike).
		Return(&models.ReactionResult{}, nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tg.Toggle(context.Background(), cred, models.ReactionLike)
	}()
	require.Eventually(t, tg.InFlight, time.Second, time.Millisecond)

	tg.Reset(models.ReactionState{LikeCount: 99})
	assert.Equal(t, 1, tg.State().LikeCount)

	close(backend.block)
	<-done

	tg.Reset(models.ReactionState{LikeCount: 99})
	assert.Equal(t, models.ReactionState{LikeCount: 99, UserReaction: models.ReactionNone}, tg.State())
}

func TestToggle_NoneClearsReaction(t *testing.T) {
	backend := &mockBackend{}
	tg := New(target, backend, models.ReactionState{LikeCount: 1, UserReaction: models.ReactionLike})

	backend.On("ClearReaction", mock.Anything, cred, target).Return(&models.ReactionResult{}, nil).Once()

	desired, err := models.ParseReaction("none")
	require.NoError(t, err)
	state, err := tg.Toggle(context.Background(), cred, desired)

	require.NoError(t, err)
	assert.Equal(t, models.ReactionState{UserReaction: models.ReactionNone}, state)
	backend.AssertExpectations(t)
}

func TestToggle_NoneWithoutReactionSkipsBackend(t *testing.T) {
	backend := &mockBackend{}
	initial := models.ReactionState{LikeCount: 4, UserReaction: models.ReactionNone}
	tg := New(target, backend, initial)

	var calls int
	tg.OnChange(func(models.ReactionState) { calls++ })

	state, err := tg.Toggle(context.Background(), cred, models.ReactionNone)

	require.NoError(t, err)
	assert.Equal(t, initial, state)
	assert.Zero(t, calls)
	assert.False(t, tg.InFlight())
	backend.AssertNotCalled(t, "ClearReaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggle_InvalidReactionStaysLocal(t *testing.T) {
	backend := &mockBackend{}
	initial := models.ReactionState{LikeCount: 1, UserReaction: models.ReactionLike}
	tg := New(target, backend, initial)

	state, err := tg.Toggle(context.Background(), cred, models.Reaction("love"))

	assert.ErrorIs(t, err, models.ErrInvalidReaction)
	assert.NotEqual(t, models.KindBackendRejected, models.KindOf(err))
	assert.Equal(t, initial, state)
	backend.AssertNotCalled(t, "SetReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "ClearReaction", mock.Anything, mock.Anything, mock.Anything)
}

// serverBackend keeps one user's reaction on top of fixed counts from other
// users. fail and report decide the outcome of the next call.
type serverBackend struct {
	others models.ReactionState
	mine   models.Reaction
	fail   bool
	report bool
}

func (b *serverBackend) counts() models.ReactionState {
	s := b.others
	switch b.mine {
	case models.ReactionLike:
		s.LikeCount++
	case models.ReactionDislike:
		s.DislikeCount++
	}
	s.UserReaction = b.mine
	return s
}

func (b *serverBackend) answer(mine models.Reaction) (*models.ReactionResult, error) {
	if b.fail {
		return nil, errors.New("connection reset")
	}
	b.mine = mine
	if !b.report {
		return &models.ReactionResult{}, nil
	}
	s := b.counts()
	return &models.ReactionResult{LikeCount: intp(s.LikeCount), DislikeCount: intp(s.DislikeCount), UserReaction: &s.UserReaction}, nil
}

func (b *serverBackend) SetReaction(ctx context.Context, cred models.Credential, target models.Target, r models.Reaction) (*models.ReactionResult, error) {
	return b.answer(r)
}

func (b *serverBackend) ClearReaction(ctx context.Context, cred models.Credential, target models.Target) (*models.ReactionResult, error) {
	return b.answer(models.ReactionNone)
}

func TestToggle_SequenceKeepsInvariants(t *testing.T) {
	backend := &serverBackend{others: models.ReactionState{LikeCount: 2, DislikeCount: 1}, mine: models.ReactionNone}
	tg := New(target, backend, backend.counts())

	rng := rand.New(rand.NewSource(7))
	choices := []models.Reaction{models.ReactionLike, models.ReactionDislike, models.ReactionNone}

	for step := 0; step < 300; step++ {
		desired := choices[rng.Intn(len(choices))]
		backend.fail = rng.Intn(4) == 0
		backend.report = rng.Intn(2) == 0
		before := tg.State()

		state, err := tg.Toggle(context.Background(), cred, desired)
		msg := fmt.Sprintf("step %d: %s from %+v (fail=%v report=%v)", step, desired, before, backend.fail, backend.report)

		if err != nil {
			require.ErrorIs(t, err, models.ErrNetworkFailure, msg)
			require.Equal(t, before, state, msg)
		}
		require.Equal(t, backend.counts(), state, msg)
		require.Equal(t, state, tg.State(), msg)

		require.GreaterOrEqual(t, state.LikeCount, 0, msg)
		require.GreaterOrEqual(t, state.DislikeCount, 0, msg)
		mineLike := state.LikeCount - backend.others.LikeCount
		mineDislike := state.DislikeCount - backend.others.DislikeCount
		require.Contains(t, []int{0, 1}, mineLike, msg)
		require.Contains(t, []int{0, 1}, mineDislike, msg)
		require.LessOrEqual(t, mineLike+mineDislike, 1, msg)
		require.Equal(t, mineLike == 1, state.UserReaction == models.ReactionLike, msg)
		require.Equal(t, mineDislike == 1, state.UserReaction == models.ReactionDislike, msg)
	}
}
