package interfaces

import (
	"context"

	"github.com/secmon-lab/folio/pkg/domain/model"
)

// ContentRepository is the read side of the portfolio content store.
// All methods are pure reads.
type ContentRepository interface {
	// ListDocuments returns all generic knowledge documents
	ListDocuments(ctx context.Context) ([]*model.Document, error)

	// ListProjects returns all projects ordered by display order, then name
	ListProjects(ctx context.Context) ([]*model.Project, error)

	// ListBlogs returns blog summaries ordered by publish date (newest first),
	// then title. Content may be empty in the summaries.
	ListBlogs(ctx context.Context) ([]*model.Blog, error)

	// GetBlog returns the full blog post for slug, or nil if it does not exist
	GetBlog(ctx context.Context, slug string) (*model.Blog, error)
}

// Repository is a content store backend owning its resources
type Repository interface {
	ContentRepository
	Close() error
}
