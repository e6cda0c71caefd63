// Package chat implements the revision conversation attached to a project while it
// is being previewed.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
)

// Session is an append-only message log with a single in-flight request.
// States: idle -(Submit)-> pending -(Resolve)-> idle.
type Session struct {
	mu          sync.Mutex
	messages    []domain.ChatMessage
	pending     bool
	responder   Responder
	placeholder string
	now         func() time.Time
	newID       func() string
}

type Option func(*Session)

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDs sets the message id generator.
func WithIDs(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// WithPlaceholder sets the text of the in-flight assistant message.
func WithPlaceholder(text string) Option {
	return func(s *Session) { s.placeholder = text }
}

func NewSession(responder Responder, opts ...Option) *Session {
	s := &Session{
		responder: responder,
		now:       time.Now,
		newID:     domain.NewMessageID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Welcome appends the opening assistant message. Only valid on an empty session.
func (s *Session) Welcome(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) > 0 {
		return fmt.Errorf("%w: welcome on a non-empty session", domain.ErrInvalidTransition)
	}
	s.messages = append(s.messages, domain.ChatMessage{
		ID:        domain.WelcomeMessageID,
		Role:      domain.RoleAssistant,
		Content:   text,
		Timestamp: domain.Millis(s.now()),
	})
	return nil
}

// Submit records a revision request and the processing placeholder that stands
// in for the reply until Resolve is called.
func (s *Session) Submit(text string) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}
	if s.pending {
		return domain.ChatMessage{}, domain.ErrRequestPending
	}

	ts := domain.Millis(s.now())
	user := domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: ts,
	}
	s.messages = append(s.messages, user, domain.ChatMessage{
		ID:           s.newID(),
		Role:         domain.RoleAssistant,
		Content:      s.placeholder,
		Timestamp:    ts,
		IsProcessing: true,
	})
	s.pending = true
	return user, nil
}

// Resolve replaces the placeholder with a reply and returns to idle.
func (s *Session) Resolve() (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return domain.ChatMessage{}, fmt.Errorf("%w: no revision request in progress", domain.ErrInvalidTransition)
	}

	request := ""
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.IsProcessing {
			continue
		}
		if m.Role == domain.RoleUser {
			request = m.Content
		}
		kept = append(kept, m)
	}
	s.messages = kept

	reply := domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleAssistant,
		Content:   s.responder.Reply(request),
		Timestamp: domain.Millis(s.now()),
	}
	s.messages = append(s.messages, reply)
	s.pending = false
	return reply, nil
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the log, placeholder included.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// History returns the log without the in-flight placeholder.
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, 0, len(s.messages))
	for _, m := range s.messages {
		if !m.IsProcessing {
			out = append(out, m)
		}
	}
	return out
}

// Modifications returns every user-authored message, in order.
func (s *Session) Modifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.messages)/2)
	for _, m := range s.messages {
		if m.Role == domain.RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}
