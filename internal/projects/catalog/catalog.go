// Package catalog holds the canned content of the studio: titles, sample prompts,
// intake guidance, chat replies, the demo project and the history seed.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Titles        Titles       `yaml:"titles" json:"titles"`
	SamplePrompts []string     `yaml:"sample_prompts" json:"sample_prompts"`
	Guidance      Guidance     `yaml:"guidance" json:"guidance"`
	Chat          Chat         `yaml:"chat" json:"-"`
	Demo          Demo         `yaml:"demo" json:"-"`
	Seed          []SeedRecord `yaml:"seed" json:"-"`
	ExportFormats []string     `yaml:"export_formats" json:"export_formats"`
}

type Titles struct {
	Prompt    string `yaml:"prompt" json:"prompt"`
	Upload    string `yaml:"upload" json:"upload"`
	Completed string `yaml:"completed" json:"completed"`
	Demo      string `yaml:"demo" json:"demo"`
}

type Guidance struct {
	Prompt []string `yaml:"prompt" json:"prompt"`
	Upload []string `yaml:"upload" json:"upload"`
}

type Chat struct {
	Welcome     string   `yaml:"welcome"`
	WelcomeDemo string   `yaml:"welcome_demo"`
	Placeholder string   `yaml:"placeholder"`
	Replies     []string `yaml:"replies"`
}

type Demo struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
}

// SeedRecord is a history entry shown to first-time users. Age is relative to seeding time.
type SeedRecord struct {
	ID      string             `yaml:"id"`
	Title   string             `yaml:"title"`
	Type    domain.ProjectType `yaml:"type"`
	Content string             `yaml:"content"`
	Status  domain.Status      `yaml:"status"`
	Age     time.Duration      `yaml:"age"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if c.Titles.Prompt == "" || c.Titles.Upload == "" || c.Titles.Completed == "" || c.Titles.Demo == "" {
		return fmt.Errorf("catalog: all titles are required")
	}
	if len(c.Chat.Replies) == 0 {
		return fmt.Errorf("catalog: at least one chat reply is required")
	}
	if c.Demo.ID == "" {
		return fmt.Errorf("catalog: demo id is required")
	}
	seen := make(map[string]bool, len(c.Seed))
	for i, r := range c.Seed {
		if r.ID == "" || seen[r.ID] {
			return fmt.Errorf("catalog: seed[%d] needs a unique id", i)
		}
		seen[r.ID] = true
		if !r.Type.Valid() || !r.Status.Valid() {
			return fmt.Errorf("catalog: seed[%d] has invalid type or status", i)
		}
	}
	return nil
}

// TitleFor returns the intake title for a project type.
func (c *Catalog) TitleFor(t domain.ProjectType) string {
	switch t {
	case domain.TypeUpload:
		return c.Titles.Upload
	case domain.TypeDemo:
		return c.Titles.Demo
	default:
		return c.Titles.Prompt
	}
}

// DemoProject builds the completed demo project shown by "try it yourself".
func (c *Catalog) DemoProject(now time.Time) *domain.Project {
	return &domain.Project{
		ID:        domain.ProjectID(c.Demo.ID),
		Title:     c.Titles.Demo,
		Type:      domain.TypeDemo,
		Content:   c.Demo.Content,
		Status:    domain.StatusCompleted,
		Timestamp: domain.Millis(now),
	}
}

// SeedProjects materialises the seed records relative to now, in catalog order.
func (c *Catalog) SeedProjects(now time.Time) []domain.Project {
	out := make([]domain.Project, 0, len(c.Seed))
	for _, r := range c.Seed {
		out = append(out, domain.Project{
			ID:        domain.ProjectID(r.ID),
			Title:     r.Title,
			Type:      r.Type,
			Content:   r.Content,
			Status:    r.Status,
			Timestamp: domain.Millis(now.Add(-r.Age)),
		})
	}
	return out
}

// ExportFormat normalises format and reports whether the catalog offers it.
func (c *Catalog) ExportFormat(format string) (string, bool) {
	f := strings.ToUpper(strings.TrimSpace(format))
	for _, known := range c.ExportFormats {
		if known == f {
			return f, true
		}
	}
	return "", false
}
