package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/model"
)

// ErrBlogNotFound is returned when a blog slug does not exist
var ErrBlogNotFound = goerr.New("blog not found")

// ContentUseCase serves the portfolio listings shown by the site
type ContentUseCase struct {
	repo interfaces.ContentRepository
}

func NewContentUseCase(repo interfaces.ContentRepository) *ContentUseCase {
	return &ContentUseCase{repo: repo}
}

// ListProjects returns projects ordered by display order, then name
func (uc *ContentUseCase) ListProjects(ctx context.Context) ([]*model.Project, error) {
	projects, err := uc.repo.ListProjects(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}
	return projects, nil
}

// ListBlogs returns blog summaries without their content
func (uc *ContentUseCase) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	blogs, err := uc.repo.ListBlogs(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list blogs")
	}

	summaries := make([]*model.Blog, len(blogs))
	for i, b := range blogs {
		summaries[i] = b.Summary()
	}
	return summaries, nil
}

// GetBlog returns the full post for slug or ErrBlogNotFound
func (uc *ContentUseCase) GetBlog(ctx context.Context, slug string) (*model.Blog, error) {
	blog, err := uc.repo.GetBlog(ctx, slug)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get blog", goerr.V("slug", slug))
	}
	if blog == nil {
		return nil, goerr.Wrap(ErrBlogNotFound, "no blog with slug", goerr.V("slug", slug))
	}
	return blog, nil
}
