package cronjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// Backend is a store that can enumerate its device namespaces.
type Backend interface {
	store.Store
	store.Lister
}

// Pager drops in-memory preview pages that have been idle for idleFor.
type Pager interface {
	Prune(idleFor time.Duration) int
}

// Janitor clears currentProject and finalProject slots that were abandoned
// for longer than ttl. History is never touched.
type Janitor struct {
	backend Backend
	pages   Pager
	ttl     time.Duration
	now     func() time.Time
	cron    *cron.Cron
}

func NewJanitor(backend Backend, ttl time.Duration) *Janitor {
	return &Janitor{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// WithPages makes every scheduled run also prune idle preview pages.
func (j *Janitor) WithPages(p Pager) *Janitor {
	j.pages = p
	return j
}

// Start schedules Run on spec (six-field cron syntax, seconds first).
func (j *Janitor) Start(spec string) error {
	_, err := j.cron.AddFunc(spec, func() {
		j.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("janitor schedule %q: %w", spec, err)
	}

	logger.Info(context.Background(), "janitor started", "schedule", spec, "ttl", j.ttl)
	j.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to return.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Run prunes idle pages, then sweeps the store.
func (j *Janitor) Run(ctx context.Context) {
	if j.pages != nil {
		if n := j.pages.Prune(j.ttl); n > 0 {
			logger.Info(ctx, "janitor pruned preview pages", "pruned", n)
		}
	}

	cleared, err := j.Sweep(ctx)
	if err != nil {
		logger.Error(ctx, "janitor sweep failed", "error", err)
		return
	}
	logger.Info(ctx, "janitor sweep finished", "cleared", cleared)
}

// Sweep clears stale transient slots in every namespace and returns how many it removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	namespaces, err := j.backend.Namespaces(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := domain.Millis(j.now().Add(-j.ttl))
	cleared := 0
	for _, ns := range namespaces {
		nctx := logger.WithDevice(ctx, ns)
		repo := repository.NewProjectRepository(store.Namespace(j.backend, ns))

		n, err := j.sweepNamespace(nctx, repo, cutoff)
		cleared += n
		if err != nil {
			return cleared, fmt.Errorf("namespace %s: %w", ns, err)
		}
	}
	return cleared, nil
}

func (j *Janitor) sweepNamespace(ctx context.Context, repo *repository.ProjectRepository, cutoff int64) (int, error) {
	cleared := 0

	cur, err := repo.GetCurrent(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return cleared, err
	default:
		stale, err := isStale(ctx, repo, repository.CurrentProjectKey, cur, cutoff)
		if err != nil {
			return cleared, err
		}
		if stale {
			if err := repo.ClearCurrent(ctx); err != nil {
				return cleared, err
			}
			logger.Debug(ctx, "cleared stale current project", "project_id", cur.ID)
			cleared++
		}
	}

	final, err := repo.GetFinal(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return cleared, err
	default:
		stale, err := isStale(ctx, repo, repository.FinalProjectKey, final, cutoff)
		if err != nil {
			return cleared, err
		}
		if stale {
			if err := repo.ClearFinal(ctx); err != nil {
				return cleared, err
			}
			logger.Debug(ctx, "cleared stale final project", "project_id", final.ID)
			cleared++
		}
	}

	return cleared, nil
}

// isStale judges a slot by when it was last written. Records opened from
// history carry an old timestamp, so the record's own times are only used for
// slots written without a write stamp.
func isStale(ctx context.Context, repo *repository.ProjectRepository, slot string, p *domain.Project, cutoff int64) (bool, error) {
	touched, ok, err := repo.TouchedAt(ctx, slot)
	if err != nil {
		return false, err
	}
	if !ok {
		touched = lastTouched(p)
	}
	return touched < cutoff, nil
}

func lastTouched(p *domain.Project) int64 {
	if p.FinalizedAt != nil {
		return *p.FinalizedAt
	}
	return p.Timestamp
}
