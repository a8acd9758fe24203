package memory

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/folio/pkg/domain/model"
)

// Seed formats accepted by ParseSeed
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

var ErrUnsupportedFormat = goerr.New("unsupported seed format")

// Seed is the raw content of a seed file. Tag fields are kept untyped so that
// both list and comma separated forms are accepted.
type Seed struct {
	Documents []SeedDocument `toml:"documents" json:"documents"`
	Projects  []SeedProject  `toml:"projects" json:"projects"`
	Blogs     []SeedBlog     `toml:"blogs" json:"blogs"`
}

type SeedDocument struct {
	DocID    string `toml:"doc_id" json:"doc_id"`
	Title    string `toml:"title" json:"title"`
	Category string `toml:"category" json:"category"`
	Tags     any    `toml:"tags" json:"tags"`
	Content  string `toml:"content" json:"content"`
}

type SeedProject struct {
	Slug         string `toml:"slug" json:"slug"`
	Name         string `toml:"name" json:"name"`
	ShortSummary string `toml:"short_summary" json:"short_summary"`
	LongSummary  string `toml:"long_summary" json:"long_summary"`
	Tags         any    `toml:"tags" json:"tags"`
	GithubURL    string `toml:"github_url" json:"github_url"`
	DemoURL      string `toml:"demo_url" json:"demo_url"`
	HeroImage    string `toml:"hero_image" json:"hero_image"`
	DisplayOrder int    `toml:"display_order" json:"display_order"`
	ProjectType  string `toml:"project_type" json:"project_type"`
}

type SeedBlog struct {
	Slug          string `toml:"slug" json:"slug"`
	Title         string `toml:"title" json:"title"`
	Excerpt       string `toml:"excerpt" json:"excerpt"`
	Content       string `toml:"content" json:"content"`
	ContentFormat string `toml:"content_format" json:"content_format"`
	PublishedAt   string `toml:"published_at" json:"published_at"`
	Tags          any    `toml:"tags" json:"tags"`
	HeroImage     string `toml:"hero_image" json:"hero_image"`
	MediumLink    string `toml:"medium_link" json:"medium_link"`
}

// FormatFromPath guesses the seed format from a file name
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// ParseSeed decodes a seed file and validates it
func ParseSeed(data []byte, format string) (*Seed, error) {
	var seed Seed
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &seed); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML seed")
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &seed); err != nil {
			return nil, goerr.Wrap(err, "failed to parse JSON seed")
		}
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "cannot parse seed", goerr.V("format", format))
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks that every record has its key and that keys are unique
func (s *Seed) Validate() error {
	docIDs := make(map[string]bool)
	for i, d := range s.Documents {
		if d.DocID == "" {
			return goerr.New("document doc_id is required", goerr.V("index", i))
		}
		if docIDs[d.DocID] {
			return goerr.New("duplicate document doc_id", goerr.V("doc_id", d.DocID))
		}
		docIDs[d.DocID] = true
	}

	slugs := make(map[string]bool)
	for i, p := range s.Projects {
		if p.Slug == "" || p.Name == "" {
			return goerr.New("project slug and name are required", goerr.V("index", i))
		}
		if slugs[p.Slug] {
			return goerr.New("duplicate project slug", goerr.V("slug", p.Slug))
		}
		slugs[p.Slug] = true
	}

	slugs = make(map[string]bool)
	for i, b := range s.Blogs {
		if b.Slug == "" || b.Title == "" {
			return goerr.New("blog slug and title are required", goerr.V("index", i))
		}
		if slugs[b.Slug] {
			return goerr.New("duplicate blog slug", goerr.V("slug", b.Slug))
		}
		slugs[b.Slug] = true
	}

	return nil
}

func (s *Seed) toModels() ([]*model.Document, []*model.Project, []*model.Blog) {
	if s == nil {
		return nil, nil, nil
	}

	docs := make([]*model.Document, len(s.Documents))
	for i, d := range s.Documents {
		docs[i] = &model.Document{
			DocID:    d.DocID,
			Title:    d.Title,
			Category: d.Category,
			Tags:     model.NormalizeTags(d.Tags),
			Content:  d.Content,
		}
	}

	projects := make([]*model.Project, len(s.Projects))
	for i, p := range s.Projects {
		projects[i] = &model.Project{
			Slug:         p.Slug,
			Name:         p.Name,
			ShortSummary: p.ShortSummary,
			LongSummary:  p.LongSummary,
			Tags:         model.NormalizeTags(p.Tags),
			GithubURL:    p.GithubURL,
			DemoURL:      p.DemoURL,
			HeroImage:    p.HeroImage,
			DisplayOrder: p.DisplayOrder,
			ProjectType:  p.ProjectType,
		}
	}

	blogs := make([]*model.Blog, len(s.Blogs))
	for i, b := range s.Blogs {
		blogs[i] = &model.Blog{
			Slug:          b.Slug,
			Title:         b.Title,
			Excerpt:       b.Excerpt,
			Content:       b.Content,
			ContentFormat: b.ContentFormat,
			PublishedAt:   b.PublishedAt,
			Tags:          model.NormalizeTags(b.Tags),
			HeroImage:     b.HeroImage,
			MediumLink:    b.MediumLink,
		}
	}

	return docs, projects, blogs
}
