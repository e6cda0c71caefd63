package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	s := StateIdle
	var err error
	for _, e := range []Event{EventOpen, EventGenerationDone, EventFinish, EventFinalizeDone} {
		s, err = Transition(s, e)
		require.NoError(t, err)
	}
	assert.Equal(t, StateFinalized, s)
}

func TestTransition_OpenCompletedSkipsGeneration(t *testing.T) {
	s, err := Transition(StateIdle, EventOpenCompleted)
	require.NoError(t, err)
	assert.Equal(t, StateReadyForRevision, s)
}

func TestTransition_Exhaustive(t *testing.T) {
	events := []Event{EventOpen, EventOpenCompleted, EventGenerationDone, EventFinish, EventFinalizeDone, EventFinalizeFailed}
	allowed := map[PageState]map[Event]PageState{
		StateIdle:               {EventOpen: StateAwaitingGeneration, EventOpenCompleted: StateReadyForRevision},
		StateAwaitingGeneration: {EventGenerationDone: StateReadyForRevision},
		StateReadyForRevision:   {EventFinish: StateFinalizing},
		StateFinalizing:         {EventFinalizeDone: StateFinalized, EventFinalizeFailed: StateReadyForRevision},
		StateFinalized:          {},
	}

	for _, s := range AllPageStates() {
		for _, e := range events {
			next, err := Transition(s, e)
			if want, ok := allowed[s][e]; ok {
				require.NoError(t, err, "%s on %s", e, s)
				assert.Equal(t, want, next)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", e, s)
				assert.Equal(t, s, next, "state unchanged on rejected event")
			}
		}

		next, err := Transition(s, EventReset)
		require.NoError(t, err)
		assert.Equal(t, StateIdle, next)
	}
}
