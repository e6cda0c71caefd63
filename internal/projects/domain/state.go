package domain

import "fmt"

// PageState is the explicit state of one device's preview page.
type PageState string

const (
	StateIdle               PageState = "idle"
	StateAwaitingGeneration PageState = "awaiting_generation"
	StateReadyForRevision   PageState = "ready_for_revision"
	StateFinalizing         PageState = "finalizing"
	StateFinalized          PageState = "finalized"
)

// Event drives PageState transitions.
type Event string

const (
	EventOpen           Event = "open"
	EventOpenCompleted  Event = "open_completed"
	EventGenerationDone Event = "generation_done"
	EventFinish         Event = "finish"
	EventFinalizeDone   Event = "finalize_done"
	EventFinalizeFailed Event = "finalize_failed"
	EventReset          Event = "reset"
)

var transitions = map[PageState]map[Event]PageState{
	StateIdle: {
		EventOpen:          StateAwaitingGeneration,
		EventOpenCompleted: StateReadyForRevision,
	},
	StateAwaitingGeneration: {
		EventGenerationDone: StateReadyForRevision,
	},
	StateReadyForRevision: {
		EventFinish: StateFinalizing,
	},
	StateFinalizing: {
		EventFinalizeDone:   StateFinalized,
		EventFinalizeFailed: StateReadyForRevision,
	},
	StateFinalized: {},
}

// Transition returns the state reached from s on e. Reset is accepted everywhere.
func Transition(s PageState, e Event) (PageState, error) {
	if e == EventReset {
		return StateIdle, nil
	}
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}

// AllPageStates lists every state, in lifecycle order.
func AllPageStates() []PageState {
	return []PageState{StateIdle, StateAwaitingGeneration, StateReadyForRevision, StateFinalizing, StateFinalized}
}
