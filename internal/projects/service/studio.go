package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/chat"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// idlePageGrace is how long a page that was never opened stays cached.
const idlePageGrace = time.Minute

// Studio hands out per-device lifecycle controllers and preview pages over a
// shared store.
type Studio struct {
	store     store.Store
	catalog   *catalog.Catalog
	clock     delay.Clock
	responder chat.Responder
	timings   Timings

	mu       sync.Mutex
	previews map[string]*Preview
}

type StudioOption func(*Studio)

func WithClock(c delay.Clock) StudioOption {
	return func(s *Studio) { s.clock = c }
}

func WithResponder(r chat.Responder) StudioOption {
	return func(s *Studio) { s.responder = r }
}

func WithTimings(t Timings) StudioOption {
	return func(s *Studio) { s.timings = t }
}

// NewStudio creates a Studio. Without WithResponder the catalog replies are
// picked by a time-seeded random responder.
func NewStudio(st store.Store, cat *catalog.Catalog, opts ...StudioOption) *Studio {
	s := &Studio{
		store:    st,
		catalog:  cat,
		clock:    delay.RealClock(),
		previews: make(map[string]*Preview),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.responder == nil {
		s.responder = chat.NewRandomResponder(cat.Chat.Replies, 0)
	}
	return s
}

func (s *Studio) Catalog() *catalog.Catalog {
	return s.catalog
}

// Lifecycle returns the controller for deviceID's namespace.
func (s *Studio) Lifecycle(deviceID string) *Lifecycle {
	repo := repository.NewProjectRepository(store.Namespace(s.store, deviceID), repository.WithNow(s.clock.Now))
	return NewLifecycle(repo, s.catalog, s.clock, s.timings.Generation)
}

// Preview returns deviceID's preview page, creating it on first use.
func (s *Studio) Preview(deviceID string) *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.previews[deviceID]; ok {
		return p
	}
	ctx := logger.WithDevice(context.Background(), deviceID)
	p := newPreview(ctx, s.Lifecycle(deviceID), s.catalog, s.clock, s.responder, s.timings)
	s.previews[deviceID] = p
	return p
}

// StartNew clears deviceID's transient slots and its preview page.
func (s *Studio) StartNew(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	p, ok := s.previews[deviceID]
	delete(s.previews, deviceID)
	s.mu.Unlock()
	if !ok {
		return s.Lifecycle(deviceID).StartNew(ctx)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.Reset()
	return s.Lifecycle(deviceID).StartNew(ctx)
}

// Prune drops cached pages nobody has used for idleFor, and pages that were
// created but never opened once idlePageGrace has passed. Store slots are left
// to the janitor's sweep.
func (s *Studio) Prune(idleFor time.Duration) int {
	cutoff := s.clock.Now().Add(-idleFor)

	s.mu.Lock()
	var stale []*Preview
	for id, p := range s.previews {
		if p.idleSince(cutoff, idlePageGrace) {
			stale = append(stale, p)
			delete(s.previews, id)
		}
	}
	s.mu.Unlock()

	for _, p := range stale {
		p.discard()
	}
	return len(stale)
}

// Pages returns the number of cached preview pages.
func (s *Studio) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previews)
}

// Close cancels every outstanding timer.
func (s *Studio) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.previews {
		p.Reset()
		delete(s.previews, id)
	}
}
