package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// Transcript is the part of a chat session that finalize folds into a project.
type Transcript interface {
	Modifications() []string
	History() []domain.ChatMessage
}

// HistoryFilter narrows History results. Empty fields match everything.
type HistoryFilter struct {
	Status domain.Status
	Query  string
}

// ExportReceipt acknowledges a simulated drawing export. No file is produced.
type ExportReceipt struct {
	ProjectID      domain.ProjectID `json:"project_id"`
	Title          string           `json:"title"`
	Format         string           `json:"format"`
	FileName       string           `json:"file_name"`
	AcknowledgedAt int64            `json:"acknowledged_at"`
}

// Lifecycle moves one device's project records between the intake, preview,
// results and history slots.
type Lifecycle struct {
	repo            *repository.ProjectRepository
	catalog         *catalog.Catalog
	clock           delay.Clock
	generationDelay time.Duration
}

// NewLifecycle creates a lifecycle controller on a device-scoped repository.
func NewLifecycle(repo *repository.ProjectRepository, cat *catalog.Catalog, clock delay.Clock, generationDelay time.Duration) *Lifecycle {
	if clock == nil {
		clock = delay.RealClock()
	}
	return &Lifecycle{
		repo:            repo,
		catalog:         cat,
		clock:           clock,
		generationDelay: generationDelay,
	}
}

// StartProject validates intake input and stores a processing record in currentProject.
func (l *Lifecycle) StartProject(ctx context.Context, in domain.Input) (*domain.Project, error) {
	p := &domain.Project{
		Type:      in.Type,
		Title:     l.catalog.TitleFor(in.Type),
		Status:    domain.StatusProcessing,
		Timestamp: domain.Millis(l.clock.Now()),
	}

	switch in.Type {
	case domain.TypePrompt:
		if strings.TrimSpace(in.Content) == "" {
			return nil, domain.NewValidationError("content", "please enter a description of the building")
		}
		p.Content = in.Content
	case domain.TypeUpload:
		files := make([]string, 0, len(in.Files))
		for _, f := range in.Files {
			if name := strings.TrimSpace(f); name != "" {
				files = append(files, name)
			}
		}
		if len(files) == 0 {
			return nil, domain.NewValidationError("files", "please upload at least one file")
		}
		p.Files = files
	default:
		return nil, domain.NewValidationError("type", fmt.Sprintf("unsupported input type %q", in.Type))
	}

	if err := l.repo.PutCurrent(ctx, p); err != nil {
		return nil, err
	}
	logger.Info(ctx, "project started", "type", p.Type)
	return p, nil
}

// CompleteProject simulates generation: after the configured delay the future
// resolves to a completed copy of p with a fresh id and the completed title.
func (l *Lifecycle) CompleteProject(p *domain.Project) *delay.Delayed[*domain.Project] {
	if p == nil {
		return delay.Resolved[*domain.Project](nil, domain.NewValidationError("project", "nothing to complete"))
	}
	src := p.Clone()
	return delay.After(l.clock, l.generationDelay, func() (*domain.Project, error) {
		return l.completed(src), nil
	})
}

func (l *Lifecycle) completed(p *domain.Project) *domain.Project {
	out := p.Clone()
	out.Status = domain.StatusCompleted
	out.ID = domain.TimeBasedID(l.clock.Now())
	out.Title = l.catalog.Titles.Completed
	return out
}

// FinalizeProject folds the chat transcript into a copy of p, stamps it and
// stores it in finalProject. currentProject is left as is.
func (l *Lifecycle) FinalizeProject(ctx context.Context, p *domain.Project, t Transcript) (*domain.Project, error) {
	if p == nil {
		return nil, domain.NewValidationError("project", "nothing to finalize")
	}

	final := p.Clone()
	mods := append([]string{}, p.Modifications...)
	history := append([]domain.ChatMessage{}, p.ChatHistory...)
	if t != nil {
		mods = append(mods, t.Modifications()...)
		seen := make(map[string]bool, len(history))
		for _, m := range history {
			seen[m.ID] = true
		}
		// A reopened project already carries its welcome message.
		for _, m := range t.History() {
			if !seen[m.ID] {
				seen[m.ID] = true
				history = append(history, m)
			}
		}
	}
	final.Modifications = mods
	final.ChatHistory = history
	finalizedAt := domain.Millis(l.clock.Now())
	final.FinalizedAt = &finalizedAt

	if err := l.repo.PutFinal(ctx, final); err != nil {
		return nil, err
	}
	logger.Info(ctx, "project finalized", "project_id", final.ID, "modifications", len(mods))
	return final, nil
}

// SaveToHistory inserts p at the front of the history, or replaces the entry with
// the same id where it stands, then clears finalProject.
func (l *Lifecycle) SaveToHistory(ctx context.Context, p *domain.Project) error {
	if p == nil || p.ID == "" {
		return domain.NewValidationError("id", "project has no id")
	}

	history, err := l.repo.GetHistory(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	replaced := false
	for i := range history {
		if history[i].ID == p.ID {
			history[i] = *p.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		history = append([]domain.Project{*p.Clone()}, history...)
	}

	if err := l.repo.PutHistory(ctx, history); err != nil {
		return err
	}
	if err := l.repo.ClearFinal(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "project saved", "project_id", p.ID, "updated", replaced)
	return nil
}

// StartNew clears both transient slots.
func (l *Lifecycle) StartNew(ctx context.Context) error {
	if err := l.repo.ClearFinal(ctx); err != nil {
		return err
	}
	return l.repo.ClearCurrent(ctx)
}

// DeleteFromHistory removes the entry with id. Unknown ids are ignored.
func (l *Lifecycle) DeleteFromHistory(ctx context.Context, id domain.ProjectID) error {
	history, err := l.repo.GetHistory(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	kept := make([]domain.Project, 0, len(history))
	for _, p := range history {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(history) {
		return nil
	}
	logger.Info(ctx, "project deleted", "project_id", id)
	return l.repo.PutHistory(ctx, kept)
}

// History returns saved projects matching f. An empty, missing or unreadable
// collection is replaced by the demo seed first.
func (l *Lifecycle) History(ctx context.Context, f HistoryFilter) ([]domain.Project, error) {
	history, err := l.repo.GetHistory(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if len(history) == 0 {
		if history, err = l.SeedHistory(ctx); err != nil {
			return nil, err
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Project, 0, len(history))
	for _, p := range history {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Content), query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// SeedHistory replaces the history with the catalog's demo records.
func (l *Lifecycle) SeedHistory(ctx context.Context) ([]domain.Project, error) {
	seed := l.catalog.SeedProjects(l.clock.Now())
	if err := l.repo.PutHistory(ctx, seed); err != nil {
		return nil, err
	}
	logger.Info(ctx, "history seeded", "records", len(seed))
	return seed, nil
}

// OpenFromHistory copies a saved project into currentProject for another preview.
func (l *Lifecycle) OpenFromHistory(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	history, err := l.repo.GetHistory(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	for _, p := range history {
		if p.ID != id {
			continue
		}
		if p.Status == domain.StatusProcessing {
			return nil, domain.NewValidationError("status", "project is still processing")
		}
		cur := p.Clone()
		if err := l.repo.PutCurrent(ctx, cur); err != nil {
			return nil, err
		}
		return cur, nil
	}
	return nil, domain.NewNotFoundError(fmt.Sprintf("project %s", id), domain.StageHistory)
}

// StartDemo stores the completed demo project in currentProject.
func (l *Lifecycle) StartDemo(ctx context.Context) (*domain.Project, error) {
	p := l.catalog.DemoProject(l.clock.Now())
	if err := l.repo.PutCurrent(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Current loads currentProject; a missing record sends the user back to intake.
func (l *Lifecycle) Current(ctx context.Context) (*domain.Project, error) {
	p, err := l.repo.GetCurrent(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError(repository.CurrentProjectKey, domain.StageIntake)
	}
	return p, err
}

// Final loads finalProject; a missing record sends the user back to preview.
func (l *Lifecycle) Final(ctx context.Context) (*domain.Project, error) {
	p, err := l.repo.GetFinal(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError(repository.FinalProjectKey, domain.StagePreview)
	}
	return p, err
}

// Export acknowledges a download of the final project in format.
func (l *Lifecycle) Export(ctx context.Context, format string) (*ExportReceipt, error) {
	f, ok := l.catalog.ExportFormat(format)
	if !ok {
		return nil, domain.NewValidationError("format", fmt.Sprintf("unsupported export format %q", format))
	}
	p, err := l.Final(ctx)
	if err != nil {
		return nil, err
	}
	receipt := &ExportReceipt{
		ProjectID:      p.ID,
		Title:          p.Title,
		Format:         f,
		FileName:       fmt.Sprintf("project-%s-%s", p.ID, strings.ToLower(f)),
		AcknowledgedAt: domain.Millis(l.clock.Now()),
	}
	logger.Info(ctx, "export acknowledged", "project_id", p.ID, "format", f)
	return receipt, nil
}
