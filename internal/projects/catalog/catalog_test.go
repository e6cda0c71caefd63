package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.SamplePrompts, 5)
	assert.Len(t, c.Guidance.Prompt, 6)
	assert.Len(t, c.Guidance.Upload, 5)
	assert.Len(t, c.Chat.Replies, 4)
	assert.Equal(t, "demo-001", c.Demo.ID)
	require.Len(t, c.Seed, 3)
	assert.Equal(t, 24*time.Hour, c.Seed[0].Age)
}

func TestSeedProjects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed := Default().SeedProjects(now)

	require.Len(t, seed, 3)
	statuses := []domain.Status{seed[0].Status, seed[1].Status, seed[2].Status}
	assert.Equal(t, []domain.Status{domain.StatusCompleted, domain.StatusCompleted, domain.StatusProcessing}, statuses)
	assert.Equal(t, domain.Millis(now.Add(-24*time.Hour)), seed[0].Timestamp)
	assert.Equal(t, domain.Millis(now.Add(-time.Hour)), seed[2].Timestamp)
	assert.Equal(t, domain.TypeUpload, seed[1].Type)
	assert.Empty(t, seed[1].Content)
}

func TestTitleFor(t *testing.T) {
	c := Default()
	assert.Equal(t, c.Titles.Prompt, c.TitleFor(domain.TypePrompt))
	assert.Equal(t, c.Titles.Upload, c.TitleFor(domain.TypeUpload))
	assert.Equal(t, c.Titles.Demo, c.TitleFor(domain.TypeDemo))
}

func TestDemoProject(t *testing.T) {
	now := time.UnixMilli(1000)
	p := Default().DemoProject(now)
	assert.Equal(t, domain.ProjectID("demo-001"), p.ID)
	assert.Equal(t, domain.TypeDemo, p.Type)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.Equal(t, int64(1000), p.Timestamp)
}

func TestExportFormat(t *testing.T) {
	c := Default()
	f, ok := c.ExportFormat(" dwg ")
	assert.True(t, ok)
	assert.Equal(t, "DWG", f)

	_, ok = c.ExportFormat("stl")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Chat.Replies)

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
titles: {prompt: P, upload: U, completed: C, demo: D}
chat: {replies: ["only reply"]}
demo: {id: d-1}
`), 0o600))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only reply"}, c.Chat.Replies)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`titles: {prompt: P}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`
titles: {prompt: P, upload: U, completed: C, demo: D}
chat: {replies: [r]}
demo: {id: d}
seed:
  - {id: a, title: A, type: prompt, status: completed}
  - {id: a, title: B, type: prompt, status: completed}
`))
	assert.Error(t, err)

	_, err = Parse([]byte("::not yaml"))
	assert.Error(t, err)
}
