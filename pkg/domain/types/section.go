package types

import "fmt"

// Section is a client-side navigation destination of the portfolio site
type Section string

const (
	SectionProjects Section = "projects"
	SectionBlogs    Section = "blogs"
	SectionHome     Section = "home"
)

// AllSections returns all valid sections
func AllSections() []Section {
	return []Section{
		SectionProjects,
		SectionBlogs,
		SectionHome,
	}
}

// IsValid checks if the section is valid
func (s Section) IsValid() bool {
	switch s {
	case SectionProjects,
		SectionBlogs,
		SectionHome:
		return true
	default:
		return false
	}
}

// String returns the string representation of the section
func (s Section) String() string {
	return string(s)
}

// ParseSection parses a string into a Section
func ParseSection(s string) (Section, error) {
	section := Section(s)
	if !section.IsValid() {
		return "", fmt.Errorf("invalid section: %s", s)
	}
	return section, nil
}
