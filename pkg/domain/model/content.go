package model

// DefaultProjectType is applied to projects that carry no type
const DefaultProjectType = "personal"

// DefaultContentFormat is applied to blogs that carry no content format
const DefaultContentFormat = "markdown"

// Document is a generic knowledge snippet about the portfolio owner
type Document struct {
	DocID    string
	Title    string
	Category string
	Tags     []string
	Content  string
}

// Project is a portfolio project
type Project struct {
	Slug         string
	Name         string
	ShortSummary string
	LongSummary  string
	Tags         []string
	GithubURL    string
	DemoURL      string
	HeroImage    string
	DisplayOrder int
	ProjectType  string
}

// Type returns the project type, falling back to DefaultProjectType
func (p *Project) Type() string {
	if p.ProjectType == "" {
		return DefaultProjectType
	}
	return p.ProjectType
}

// Details returns the long summary, falling back to the short summary
func (p *Project) Details() string {
	if p.LongSummary == "" {
		return p.ShortSummary
	}
	return p.LongSummary
}

// Blog is a blog post. Listings may leave Content empty; the full post is
// obtained by slug.
type Blog struct {
	Slug          string
	Title         string
	Excerpt       string
	Content       string
	ContentFormat string
	PublishedAt   string
	Tags          []string
	HeroImage     string
	MediumLink    string
}

// Format returns the content format, falling back to DefaultContentFormat
func (b *Blog) Format() string {
	if b.ContentFormat == "" {
		return DefaultContentFormat
	}
	return b.ContentFormat
}

// Summary returns a copy of the blog without its full content
func (b *Blog) Summary() *Blog {
	copied := *b
	copied.Content = ""
	copied.Tags = append([]string{}, b.Tags...)
	return &copied
}
