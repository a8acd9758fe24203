package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Records are decoded from raw maps because the tags field is stored either
// as an array or as a comma separated string depending on how it was seeded.

func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toDocument(doc *firestore.DocumentSnapshot) *model.Document {
	data := doc.Data()
	docID := stringField(data, "doc_id")
	if docID == "" {
		docID = doc.Ref.ID
	}
	return &model.Document{
		DocID:    docID,
		Title:    stringField(data, "title"),
		Category: stringField(data, "category"),
		Tags:     model.NormalizeTags(data["tags"]),
		Content:  stringField(data, "content"),
	}
}

func toProject(doc *firestore.DocumentSnapshot) *model.Project {
	data := doc.Data()
	slug := stringField(data, "slug")
	if slug == "" {
		slug = doc.Ref.ID
	}
	return &model.Project{
		Slug:         slug,
		Name:         stringField(data, "name"),
		ShortSummary: stringField(data, "short_summary"),
		LongSummary:  stringField(data, "long_summary"),
		Tags:         model.NormalizeTags(data["tags"]),
		GithubURL:    stringField(data, "github_url"),
		DemoURL:      stringField(data, "demo_url"),
		HeroImage:    stringField(data, "hero_image"),
		DisplayOrder: intField(data, "display_order"),
		ProjectType:  stringField(data, "project_type"),
	}
}

func toBlog(doc *firestore.DocumentSnapshot) *model.Blog {
	data := doc.Data()
	slug := stringField(data, "slug")
	if slug == "" {
		slug = doc.Ref.ID
	}
	return &model.Blog{
		Slug:          slug,
		Title:         stringField(data, "title"),
		Excerpt:       stringField(data, "excerpt"),
		Content:       stringField(data, "content"),
		ContentFormat: stringField(data, "content_format"),
		PublishedAt:   stringField(data, "published_at"),
		Tags:          model.NormalizeTags(data["tags"]),
		HeroImage:     stringField(data, "hero_image"),
		MediumLink:    stringField(data, "medium_link"),
	}
}

func listAll[T any](ctx context.Context, ref *firestore.CollectionRef, conv func(*firestore.DocumentSnapshot) T) ([]T, error) {
	iter := ref.Documents(ctx)
	defer iter.Stop()

	var result []T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate collection", goerr.V("collection", ref.ID))
		}
		result = append(result, conv(doc))
	}

	return result, nil
}

func (f *Firestore) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	docs, err := listAll(ctx, f.collection(documentsCollection), toDocument)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents")
	}
	return docs, nil
}

func (f *Firestore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	projects, err := listAll(ctx, f.collection(projectsCollection), toProject)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}

	model.SortProjects(projects)
	return projects, nil
}

func (f *Firestore) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	blogs, err := listAll(ctx, f.collection(blogsCollection), func(doc *firestore.DocumentSnapshot) *model.Blog {
		return toBlog(doc).Summary()
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list blogs")
	}

	model.SortBlogs(blogs)
	return blogs, nil
}

func (f *Firestore) GetBlog(ctx context.Context, slug string) (*model.Blog, error) {
	doc, err := f.collection(blogsCollection).Doc(slug).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get blog", goerr.V("slug", slug))
	}

	return toBlog(doc), nil
}
