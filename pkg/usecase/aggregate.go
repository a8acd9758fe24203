package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/domain/types"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultBlogFetchConcurrency = 4

// ContentAggregator turns documents, projects and blogs from the content
// store into retrievable units
type ContentAggregator struct {
	repo            interfaces.ContentRepository
	blogConcurrency int
}

// NewContentAggregator creates a ContentAggregator reading from repo
func NewContentAggregator(repo interfaces.ContentRepository) *ContentAggregator {
	return &ContentAggregator{
		repo:            repo,
		blogConcurrency: defaultBlogFetchConcurrency,
	}
}

// Aggregate reads the full content set and returns its units: documents,
// then projects, then blogs, each in listing order. Any read failure fails
// the whole pass.
func (a *ContentAggregator) Aggregate(ctx context.Context) ([]*model.RetrievableUnit, error) {
	var (
		documents []*model.Document
		projects  []*model.Project
		summaries []*model.Blog
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		documents, err = a.repo.ListDocuments(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to list documents")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		projects, err = a.repo.ListProjects(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to list projects")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		summaries, err = a.repo.ListBlogs(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to list blogs")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	blogs, err := a.fetchBlogs(ctx, summaries)
	if err != nil {
		return nil, err
	}

	units := make([]*model.RetrievableUnit, 0, len(documents)+len(projects)+len(blogs))
	for _, d := range documents {
		units = append(units, documentUnit(d))
	}
	caser := cases.Title(language.English)
	for _, p := range projects {
		units = append(units, projectUnit(p, caser))
	}
	for _, b := range blogs {
		units = append(units, blogUnit(b))
	}

	return filterUnits(ctx, units), nil
}

// fetchBlogs loads the full post of every summary. Posts that disappeared
// between listing and fetch are skipped.
func (a *ContentAggregator) fetchBlogs(ctx context.Context, summaries []*model.Blog) ([]*model.Blog, error) {
	fetched := make([]*model.Blog, len(summaries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.blogConcurrency)
	for i, summary := range summaries {
		if summary == nil || summary.Slug == "" {
			continue
		}
		eg.Go(func() error {
			blog, err := a.repo.GetBlog(egCtx, summary.Slug)
			if err != nil {
				return goerr.Wrap(err, "failed to get blog", goerr.V("slug", summary.Slug))
			}
			fetched[i] = blog
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	blogs := make([]*model.Blog, 0, len(fetched))
	for i, b := range fetched {
		if b == nil {
			if summaries[i] != nil {
				logger.Warn("Blog listed but not found, skipping", "slug", summaries[i].Slug)
			}
			continue
		}
		blogs = append(blogs, b)
	}
	return blogs, nil
}

func documentUnit(d *model.Document) *model.RetrievableUnit {
	return &model.RetrievableUnit{
		ID:         d.DocID,
		SourceKind: types.SourceKindDocument,
		Title:      d.Title,
		Text:       fmt.Sprintf("%s\n%s", d.Title, d.Content),
		Metadata: map[string]string{
			"source":   types.SourceKindDocument.String(),
			"doc_id":   d.DocID,
			"title":    d.Title,
			"category": d.Category,
		},
	}
}

func projectUnit(p *model.Project, caser cases.Caser) *model.RetrievableUnit {
	var b strings.Builder
	fmt.Fprintf(&b, "Project Type: %s\n", caser.String(p.Type()))
	fmt.Fprintf(&b, "Project: %s\n", p.Name)
	fmt.Fprintf(&b, "Short Summary: %s\n", p.ShortSummary)
	fmt.Fprintf(&b, "Details: %s\n", p.Details())
	fmt.Fprintf(&b, "Tags: %s", model.RenderTags(p.Tags))

	return &model.RetrievableUnit{
		ID:         model.ProjectUnitPrefix + p.Slug,
		SourceKind: types.SourceKindProject,
		Title:      p.Name,
		Text:       b.String(),
		Metadata: map[string]string{
			"source": types.SourceKindProject.String(),
			"slug":   p.Slug,
			"title":  p.Name,
		},
	}
}

func blogUnit(blog *model.Blog) *model.RetrievableUnit {
	var b strings.Builder
	fmt.Fprintf(&b, "Blog Post: %s\n", blog.Title)
	fmt.Fprintf(&b, "Excerpt: %s\n", blog.Excerpt)
	fmt.Fprintf(&b, "Content: %s\n", blog.Content)
	fmt.Fprintf(&b, "Tags: %s", model.RenderTags(blog.Tags))

	return &model.RetrievableUnit{
		ID:         model.BlogUnitPrefix + blog.Slug,
		SourceKind: types.SourceKindBlog,
		Title:      blog.Title,
		Text:       b.String(),
		Metadata: map[string]string{
			"source": types.SourceKindBlog.String(),
			"slug":   blog.Slug,
			"title":  blog.Title,
		},
	}
}

// filterUnits drops units that break the id or text invariants. The first
// unit with a given id is kept.
func filterUnits(ctx context.Context, units []*model.RetrievableUnit) []*model.RetrievableUnit {
	logger := logging.From(ctx)
	seen := make(map[string]struct{}, len(units))
	out := make([]*model.RetrievableUnit, 0, len(units))

	for _, u := range units {
		if err := u.Validate(); err != nil {
			logger.Warn("Skipping invalid unit", "id", u.ID, "source", u.SourceKind, "error", err.Error())
			continue
		}
		if _, ok := seen[u.ID]; ok {
			logger.Warn("Skipping duplicate unit", "id", u.ID, "source", u.SourceKind)
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}
