package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// Keys of the three slots a device holds.
const (
	CurrentProjectKey = "currentProject"
	FinalProjectKey   = "finalProject"
	HistoryKey        = "projectHistory"

	// touchedSuffix names the companion key holding when a transient slot was last written.
	touchedSuffix = "TouchedAt"
)

// TouchedKey returns the companion key recording the last write of slot.
func TouchedKey(slot string) string {
	return slot + touchedSuffix
}

// ProjectRepository reads and writes project records in a device's store.
type ProjectRepository struct {
	store store.Store
	now   func() time.Time
}

type Option func(*ProjectRepository)

// WithNow sets the clock used to stamp slot writes.
func WithNow(now func() time.Time) Option {
	return func(r *ProjectRepository) { r.now = now }
}

// NewProjectRepository creates a new project repository on an already scoped store.
func NewProjectRepository(s store.Store, opts ...Option) *ProjectRepository {
	r := &ProjectRepository{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetCurrent returns the intake->preview handoff record.
func (r *ProjectRepository) GetCurrent(ctx context.Context) (*domain.Project, error) {
	return r.getProject(ctx, CurrentProjectKey)
}

// PutCurrent replaces the intake->preview handoff record.
func (r *ProjectRepository) PutCurrent(ctx context.Context, p *domain.Project) error {
	return r.putSlot(ctx, CurrentProjectKey, p)
}

func (r *ProjectRepository) ClearCurrent(ctx context.Context) error {
	return r.clearSlot(ctx, CurrentProjectKey)
}

// GetFinal returns the preview->results handoff record.
func (r *ProjectRepository) GetFinal(ctx context.Context) (*domain.Project, error) {
	return r.getProject(ctx, FinalProjectKey)
}

// PutFinal replaces the preview->results handoff record.
func (r *ProjectRepository) PutFinal(ctx context.Context, p *domain.Project) error {
	return r.putSlot(ctx, FinalProjectKey, p)
}

func (r *ProjectRepository) ClearFinal(ctx context.Context) error {
	return r.clearSlot(ctx, FinalProjectKey)
}

// TouchedAt reports when slot was last written, in epoch milliseconds.
// ok is false for slots written before write stamps existed or never written.
func (r *ProjectRepository) TouchedAt(ctx context.Context, slot string) (ms int64, ok bool, err error) {
	data, found, err := r.store.Get(ctx, TouchedKey(slot))
	if err != nil || !found {
		return 0, false, err
	}
	ms, err = strconv.ParseInt(data, 10, 64)
	if err != nil {
		r.logCorrupt(ctx, TouchedKey(slot), err)
		return 0, false, nil
	}
	return ms, true, nil
}

// GetHistory returns the saved projects, most recently saved first.
// A missing or unreadable collection is reported as domain.ErrNotFound.
func (r *ProjectRepository) GetHistory(ctx context.Context) ([]domain.Project, error) {
	data, ok, err := r.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	var history []domain.Project
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		r.logCorrupt(ctx, HistoryKey, err)
		return nil, domain.ErrNotFound
	}
	return history, nil
}

// PutHistory replaces the whole collection.
func (r *ProjectRepository) PutHistory(ctx context.Context, history []domain.Project) error {
	if history == nil {
		history = []domain.Project{}
	}
	return r.put(ctx, HistoryKey, history)
}

func (r *ProjectRepository) getProject(ctx context.Context, key string) (*domain.Project, error) {
	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logCorrupt(ctx, key, err)
		return nil, domain.ErrNotFound
	}
	if !p.Type.Valid() || !p.Status.Valid() {
		r.logCorrupt(ctx, key, fmt.Errorf("type %q status %q", p.Type, p.Status))
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// putSlot writes a transient slot and stamps the write time next to it. The
// record itself keeps the client's JSON shape.
func (r *ProjectRepository) putSlot(ctx context.Context, key string, p *domain.Project) error {
	if err := r.put(ctx, key, p); err != nil {
		return err
	}
	stamp := strconv.FormatInt(domain.Millis(r.now()), 10)
	if err := r.store.Set(ctx, TouchedKey(key), stamp); err != nil {
		return fmt.Errorf("failed to write %s: %w", TouchedKey(key), err)
	}
	return nil
}

func (r *ProjectRepository) clearSlot(ctx context.Context, key string) error {
	if err := r.store.Remove(ctx, key); err != nil {
		return err
	}
	return r.store.Remove(ctx, TouchedKey(key))
}

func (r *ProjectRepository) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// logCorrupt records a malformed slot; callers then treat it as absent.
func (r *ProjectRepository) logCorrupt(ctx context.Context, key string, cause error) {
	logger.Warn(ctx, "ignoring malformed slot",
		"slot", key,
		"error", fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, cause).Error(),
	)
}
