package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/model"
)

// Memory is an in-memory content store. Its content is replaced wholesale by
// Replace, typically from a seed file.
type Memory struct {
	mu        sync.RWMutex
	documents []*model.Document
	projects  []*model.Project
	blogs     map[string]*model.Blog
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		blogs: make(map[string]*model.Blog),
	}
}

// NewFromSeed creates a store holding the content of seed
func NewFromSeed(seed *Seed) *Memory {
	m := New()
	m.Replace(seed)
	return m
}

// Replace swaps the whole content of the store with seed
func (m *Memory) Replace(seed *Seed) {
	docs, projects, blogs := seed.toModels()

	blogMap := make(map[string]*model.Blog, len(blogs))
	for _, b := range blogs {
		blogMap[b.Slug] = b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = docs
	m.projects = projects
	m.blogs = blogMap
}

func copyDocument(d *model.Document) *model.Document {
	copied := *d
	copied.Tags = append([]string{}, d.Tags...)
	return &copied
}

func copyProject(p *model.Project) *model.Project {
	copied := *p
	copied.Tags = append([]string{}, p.Tags...)
	return &copied
}

func copyBlog(b *model.Blog) *model.Blog {
	copied := *b
	copied.Tags = append([]string{}, b.Tags...)
	return &copied
}

func (m *Memory) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Document, len(m.documents))
	for i, d := range m.documents {
		result[i] = copyDocument(d)
	}
	return result, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Project, len(m.projects))
	for i, p := range m.projects {
		result[i] = copyProject(p)
	}

	model.SortProjects(result)
	return result, nil
}

func (m *Memory) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		result = append(result, b.Summary())
	}

	model.SortBlogs(result)
	return result, nil
}

func (m *Memory) GetBlog(ctx context.Context, slug string) (*model.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blogs[slug]
	if !ok {
		return nil, nil
	}
	return copyBlog(b), nil
}

func (m *Memory) Close() error {
	return nil
}
