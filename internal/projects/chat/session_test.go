package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
)

func newTestSession(replies ...string) *Session {
	if len(replies) == 0 {
		replies = []string{"applied"}
	}
	n := 0
	return NewSession(
		NewRandomResponder(replies, 7),
		WithClock(func() time.Time { return time.UnixMilli(1000) }),
		WithIDs(func() string { n++; return fmt.Sprintf("m%d", n) }),
		WithPlaceholder("working..."),
	)
}

func processingCount(msgs []domain.ChatMessage) int {
	n := 0
	for _, m := range msgs {
		if m.IsProcessing {
			n++
		}
	}
	return n
}

func TestSubmitResolve(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Welcome("hello"))
	assert.False(t, s.Pending())

	user, err := s.Submit("make the windows bigger")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, s.Pending())

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.WelcomeMessageID, msgs[0].ID)
	assert.True(t, msgs[2].IsProcessing)
	assert.Equal(t, "working...", msgs[2].Content)
	assert.Equal(t, 1, processingCount(msgs))

	reply, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "applied", reply.Content)
	assert.False(t, s.Pending())

	msgs = s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, 0, processingCount(msgs))
	assert.Equal(t, reply, msgs[2])
	assert.Equal(t, []string{"make the windows bigger"}, s.Modifications())
}

func TestSubmit_RejectedWhilePending(t *testing.T) {
	s := newTestSession()
	_, err := s.Submit("first")
	require.NoError(t, err)
	before := len(s.Messages())

	_, err = s.Submit("second")
	assert.ErrorIs(t, err, domain.ErrRequestPending)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, s.Messages(), before, "message count unchanged")
	assert.Equal(t, 1, processingCount(s.Messages()))
}

func TestSubmit_EmptyText(t *testing.T) {
	s := newTestSession()
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(text)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, s.Messages())
	assert.False(t, s.Pending())
}

func TestResolve_WithoutPending(t *testing.T) {
	s := newTestSession()
	_, err := s.Resolve()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestWelcome_OnlyOnEmptySession(t *testing.T) {
	s := newTestSession()
	_, err := s.Submit("x")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Welcome("late"), domain.ErrInvalidTransition)
}

func TestHistory_ExcludesPlaceholder(t *testing.T) {
	s := newTestSession()
	_, err := s.Submit("add a garage")
	require.NoError(t, err)

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, "add a garage", h[0].Content)
}

func TestModifications_AppendOnlyInOrder(t *testing.T) {
	s := newTestSession()
	for _, text := range []string{"one", "two", "three"} {
		_, err := s.Submit(text)
		require.NoError(t, err)
		_, err = s.Resolve()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"one", "two", "three"}, s.Modifications())
	assert.Len(t, s.Messages(), 6)
}

func TestRandomResponder_DeterministicUnderSeed(t *testing.T) {
	replies := []string{"a", "b", "c", "d"}
	r1 := NewRandomResponder(replies, 42)
	r2 := NewRandomResponder(replies, 42)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		got := r1.Reply("x")
		assert.Equal(t, got, r2.Reply("x"))
		assert.Contains(t, replies, got)
		seen[got] = true
	}
	assert.Greater(t, len(seen), 1, "uniform pick should not be constant")

	assert.Equal(t, "", NewRandomResponder(nil, 1).Reply("x"))
	assert.Equal(t, "ok", FixedResponder("ok").Reply("x"))
}
