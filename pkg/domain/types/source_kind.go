package types

import "fmt"

// SourceKind identifies which content source a retrievable unit came from
type SourceKind string

const (
	SourceKindDocument SourceKind = "document"
	SourceKindProject  SourceKind = "project"
	SourceKindBlog     SourceKind = "blog"
)

// IsValid checks if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindDocument,
		SourceKindProject,
		SourceKindBlog:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source kind
func (k SourceKind) String() string {
	return string(k)
}

// ParseSourceKind parses a string into a SourceKind
func ParseSourceKind(s string) (SourceKind, error) {
	kind := SourceKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid source kind: %s", s)
	}
	return kind, nil
}
