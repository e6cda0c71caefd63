package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/chat"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// Snapshot is the view of a preview page at one instant.
type Snapshot struct {
	State    domain.PageState     `json:"state"`
	Project  *domain.Project      `json:"project,omitempty"`
	Messages []domain.ChatMessage `json:"messages"`
	Pending  bool                 `json:"pending"`
	Demo     bool                 `json:"demo"`
	Final    *domain.Project      `json:"final,omitempty"`
}

// Preview drives one device's preview page: generation, revision chat and finalize.
// Timer callbacks are tagged with the epoch they were scheduled in and are ignored
// once the page has been reopened or reset.
type Preview struct {
	mu sync.Mutex
	// writeMu orders slot writes made by timers against Studio.StartNew and
	// pruning. Always taken before mu.
	writeMu sync.Mutex

	ctx       context.Context
	lifecycle *Lifecycle
	catalog   *catalog.Catalog
	clock     delay.Clock
	responder chat.Responder
	timings   Timings

	epoch      uint64
	lastActive time.Time
	state      domain.PageState
	project *domain.Project
	session *chat.Session
	demo    bool
	final   *domain.Project

	generation *delay.Delayed[*domain.Project]
	reply      *delay.Delayed[domain.ChatMessage]
	finalize   *delay.Delayed[*domain.Project]
}

// Timings are the simulated durations of the pipeline steps. Generation is
// applied by Lifecycle.CompleteProject.
type Timings struct {
	Generation time.Duration
	Response   time.Duration
	Finalize   time.Duration
}

func newPreview(ctx context.Context, l *Lifecycle, cat *catalog.Catalog, clock delay.Clock, responder chat.Responder, timings Timings) *Preview {
	return &Preview{
		ctx:       ctx,
		lifecycle: l,
		catalog:   cat,
		clock:     clock,
		responder: responder,
		timings:    timings,
		state:      domain.StateIdle,
		lastActive: clock.Now(),
	}
}

func (p *Preview) touchLocked() {
	p.lastActive = p.clock.Now()
}

// idleSince reports whether the page has seen no request since before t.
// Pages that were never opened qualify after grace.
func (p *Preview) idleSince(t time.Time, grace time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == domain.StateIdle && !p.lastActive.Add(grace).After(p.clock.Now()) {
		return true
	}
	return p.lastActive.Before(t)
}

// discard resets the page once no timer write is in flight.
func (p *Preview) discard() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.Reset()
}

func (p *Preview) transitionLocked(e domain.Event) error {
	next, err := domain.Transition(p.state, e)
	if err != nil {
		return err
	}
	logger.Debug(p.ctx, "preview transition", "from", p.state, "event", e, "to", next)
	p.state = next
	return nil
}

func (p *Preview) newSessionLocked(welcome string) {
	p.session = chat.NewSession(p.responder,
		chat.WithClock(p.clock.Now),
		chat.WithPlaceholder(p.catalog.Chat.Placeholder),
	)
	_ = p.session.Welcome(welcome)
}

func (p *Preview) cancelLocked() {
	p.epoch++
	if p.generation != nil {
		p.generation.Cancel()
	}
	if p.reply != nil {
		p.reply.Cancel()
	}
	if p.finalize != nil {
		p.finalize.Cancel()
	}
	p.generation, p.reply, p.finalize = nil, nil, nil
}

func (p *Preview) resetLocked() {
	p.cancelLocked()
	p.state, _ = domain.Transition(p.state, domain.EventReset)
	p.project, p.session, p.final, p.demo = nil, nil, nil, false
}

// Open (re)enters the preview page. The current project is generated after the
// generation delay unless it is already completed. With no current project the
// demo project is shown instead.
func (p *Preview) Open(ctx context.Context) (*delay.Delayed[*domain.Project], error) {
	cur, err := p.lifecycle.Current(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.touchLocked()

	if cur == nil {
		p.demo = true
		p.project = p.catalog.DemoProject(p.clock.Now())
		p.newSessionLocked(p.catalog.Chat.WelcomeDemo)
		if err := p.transitionLocked(domain.EventOpenCompleted); err != nil {
			return nil, err
		}
		return delay.Resolved(p.project.Clone(), nil), nil
	}

	if cur.Status == domain.StatusCompleted {
		p.demo = cur.Type == domain.TypeDemo
		p.project = cur
		welcome := p.catalog.Chat.Welcome
		if p.demo {
			welcome = p.catalog.Chat.WelcomeDemo
		}
		p.newSessionLocked(welcome)
		if err := p.transitionLocked(domain.EventOpenCompleted); err != nil {
			return nil, err
		}
		return delay.Resolved(p.project.Clone(), nil), nil
	}

	if err := p.transitionLocked(domain.EventOpen); err != nil {
		return nil, err
	}
	p.project = cur
	epoch := p.epoch
	p.generation = delay.Then(p.lifecycle.CompleteProject(cur), func(completed *domain.Project, err error) (*domain.Project, error) {
		if err != nil {
			return nil, err
		}
		return p.onGenerated(epoch, completed)
	})
	return p.generation, nil
}

func (p *Preview) onGenerated(epoch uint64, completed *domain.Project) (*domain.Project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return nil, delay.ErrCancelled
	}
	if err := p.transitionLocked(domain.EventGenerationDone); err != nil {
		return nil, err
	}
	p.project = completed
	p.newSessionLocked(p.catalog.Chat.Welcome)
	logger.Info(p.ctx, "generation completed", "project_id", completed.ID)
	return completed.Clone(), nil
}

// Submit sends a revision request; the reply arrives after the response delay.
func (p *Preview) Submit(ctx context.Context, text string) (domain.ChatMessage, *delay.Delayed[domain.ChatMessage], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != domain.StateReadyForRevision {
		return domain.ChatMessage{}, nil, fmt.Errorf("%w: project is not ready for modifications (%s)", domain.ErrInvalidTransition, p.state)
	}
	user, err := p.session.Submit(text)
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}
	p.touchLocked()

	epoch := p.epoch
	session := p.session
	p.reply = delay.After(p.clock, p.timings.Response, func() (domain.ChatMessage, error) {
		return p.onReply(epoch, session)
	})
	logger.Debug(ctx, "revision submitted", "message_id", user.ID)
	return user, p.reply, nil
}

func (p *Preview) onReply(epoch uint64, session *chat.Session) (domain.ChatMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return domain.ChatMessage{}, delay.ErrCancelled
	}
	return session.Resolve()
}

// Finish freezes the revision session. After the finalize delay the project is
// written to finalProject and the page becomes finalized.
func (p *Preview) Finish(ctx context.Context) (*delay.Delayed[*domain.Project], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.StateReadyForRevision && p.session.Pending() {
		return nil, domain.ErrRequestPending
	}
	if err := p.transitionLocked(domain.EventFinish); err != nil {
		return nil, err
	}
	p.touchLocked()

	epoch := p.epoch
	project := p.project.Clone()
	session := p.session
	p.finalize = delay.After(p.clock, p.timings.Finalize, func() (*domain.Project, error) {
		return p.onFinalize(epoch, project, session)
	})
	logger.Info(ctx, "finalizing project", "project_id", project.ID)
	return p.finalize, nil
}

func (p *Preview) onFinalize(epoch uint64, project *domain.Project, session *chat.Session) (*domain.Project, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	stale := epoch != p.epoch
	p.mu.Unlock()
	if stale {
		return nil, delay.ErrCancelled
	}

	final, err := p.lifecycle.FinalizeProject(p.ctx, project, session)

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return nil, delay.ErrCancelled
	}
	if err != nil {
		logger.Error(p.ctx, "finalize failed", "error", err)
		_ = p.transitionLocked(domain.EventFinalizeFailed)
		return nil, err
	}
	if err := p.transitionLocked(domain.EventFinalizeDone); err != nil {
		return nil, err
	}
	p.final = final
	return final.Clone(), nil
}

// Snapshot returns the current page view.
func (p *Preview) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		State:    p.state,
		Project:  p.project.Clone(),
		Messages: []domain.ChatMessage{},
		Demo:     p.demo,
		Final:    p.final.Clone(),
	}
	if p.session != nil {
		s.Messages = p.session.Messages()
		s.Pending = p.session.Pending()
	}
	return s
}

// State returns the page state.
func (p *Preview) State() domain.PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset discards the page and cancels outstanding timers.
func (p *Preview) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}
