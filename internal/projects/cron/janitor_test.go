package cronjob

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// seed writes the transient slots as if they were stored age ago.
func seed(t *testing.T, backend Backend, ns string, age time.Duration, current, final *domain.Project) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewProjectRepository(store.Namespace(backend, ns),
		repository.WithNow(func() time.Time { return now.Add(-age) }))
	if current != nil {
		require.NoError(t, repo.PutCurrent(ctx, current))
	}
	if final != nil {
		require.NoError(t, repo.PutFinal(ctx, final))
	}
	require.NoError(t, repo.PutHistory(ctx, []domain.Project{{ID: "kept", Type: domain.TypePrompt, Status: domain.StatusCompleted}}))
}

// dropStamps leaves the slots as older builds wrote them.
func dropStamps(t *testing.T, backend Backend, ns string) {
	t.Helper()
	ctx := context.Background()
	s := store.Namespace(backend, ns)
	require.NoError(t, s.Remove(ctx, repository.TouchedKey(repository.CurrentProjectKey)))
	require.NoError(t, s.Remove(ctx, repository.TouchedKey(repository.FinalProjectKey)))
}

func project(age time.Duration) *domain.Project {
	return &domain.Project{ID: "p", Type: domain.TypePrompt, Status: domain.StatusCompleted, Timestamp: domain.Millis(now.Add(-age))}
}

func exerciseSweep(t *testing.T, backend Backend) {
	ctx := context.Background()

	seed(t, backend, "old", 48*time.Hour, project(time.Hour), project(time.Hour))
	seed(t, backend, "fresh", time.Hour, project(90*24*time.Hour), project(90*24*time.Hour))

	stale := project(48 * time.Hour)
	recentlyFinalized := project(48 * time.Hour)
	at := domain.Millis(now.Add(-time.Hour))
	recentlyFinalized.FinalizedAt = &at
	seed(t, backend, "legacy", 0, stale, recentlyFinalized)
	dropStamps(t, backend, "legacy")

	j := NewJanitor(backend, 24*time.Hour)
	j.now = func() time.Time { return now }

	cleared, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)

	old := repository.NewProjectRepository(store.Namespace(backend, "old"))
	_, err = old.GetCurrent(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound, "write stamp wins over a recent timestamp")
	_, err = old.GetFinal(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, ok, err := old.TouchedAt(ctx, repository.CurrentProjectKey)
	require.NoError(t, err)
	assert.False(t, ok, "stamp cleared with the slot")
	h, err := old.GetHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, h, 1, "history is never swept")

	fresh := repository.NewProjectRepository(store.Namespace(backend, "fresh"))
	_, err = fresh.GetCurrent(ctx)
	assert.NoError(t, err, "old record written recently is kept")
	_, err = fresh.GetFinal(ctx)
	assert.NoError(t, err)

	legacy := repository.NewProjectRepository(store.Namespace(backend, "legacy"))
	_, err = legacy.GetCurrent(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound, "unstamped slots fall back to timestamp")
	_, err = legacy.GetFinal(ctx)
	assert.NoError(t, err, "finalizedAt wins over timestamp")

	cleared, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
}

func TestJanitor_MemoryStore(t *testing.T) {
	exerciseSweep(t, store.NewMemoryStore())
}

func TestJanitor_RedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	exerciseSweep(t, store.NewRedisStore(client, "archstudio:"))
}

func TestJanitor_KeepsProjectOpenedFromHistory(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	clock := delay.NewManualClock(now)
	studio := service.NewStudio(backend, catalog.Default(), service.WithClock(clock))
	t.Cleanup(studio.Close)

	repo := repository.NewProjectRepository(store.Namespace(backend, "phone-1"))
	archived := domain.Project{ID: "1700000000000", Type: domain.TypePrompt, Status: domain.StatusCompleted, Timestamp: domain.Millis(now.Add(-30 * 24 * time.Hour))}
	require.NoError(t, repo.PutHistory(ctx, []domain.Project{archived}))

	_, err := studio.Lifecycle("phone-1").OpenFromHistory(ctx, archived.ID)
	require.NoError(t, err)

	j := NewJanitor(backend, 24*time.Hour)
	j.now = func() time.Time { return now.Add(time.Minute) }
	cleared, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
	cur, err := repo.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, archived.ID, cur.ID)

	j.now = func() time.Time { return now.Add(25 * time.Hour) }
	cleared, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
}

type fakePager struct {
	idleFor []time.Duration
}

func (f *fakePager) Prune(idleFor time.Duration) int {
	f.idleFor = append(f.idleFor, idleFor)
	return 1
}

func TestJanitor_RunPrunesPages(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	seed(t, backend, "old", 48*time.Hour, project(time.Hour), nil)

	pages := &fakePager{}
	j := NewJanitor(backend, 24*time.Hour).WithPages(pages)
	j.now = func() time.Time { return now }
	j.Run(ctx)

	assert.Equal(t, []time.Duration{24 * time.Hour}, pages.idleFor)
	_, err := repository.NewProjectRepository(store.Namespace(backend, "old")).GetCurrent(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound, "run also sweeps")
}

func TestJanitor_RunPrunesStudioPages(t *testing.T) {
	clock := delay.NewManualClock(now)
	studio := service.NewStudio(store.NewMemoryStore(), catalog.Default(), service.WithClock(clock))
	t.Cleanup(studio.Close)
	for _, id := range []string{"rotated-1", "rotated-2", "rotated-3"} {
		studio.Preview(id)
	}
	require.Equal(t, 3, studio.Pages())

	j := NewJanitor(store.NewMemoryStore(), 24*time.Hour).WithPages(studio)
	clock.Advance(2 * time.Minute)
	j.Run(context.Background())
	assert.Equal(t, 0, studio.Pages())
}

func TestJanitor_StartRejectsBadSchedule(t *testing.T) {
	j := NewJanitor(store.NewMemoryStore(), time.Hour)
	assert.Error(t, j.Start("every minute"))

	require.NoError(t, j.Start("0 */15 * * * *"))
	j.Stop()
}
