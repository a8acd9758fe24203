package model

import (
	"fmt"
	"strings"
)

const tagSeparator = ", "

// NormalizeTags accepts a tag field in any of the shapes the content stores
// produce (a list or a comma separated string) and returns the trimmed,
// non-empty tags. List entries are split on commas as well, since a comma
// cannot survive rendering. The result is never nil.
func NormalizeTags(value any) []string {
	tags := []string{}

	switch v := value.(type) {
	case nil:
	case []string:
		for _, tag := range v {
			tags = appendTags(tags, tag)
		}
	case []any:
		for _, tag := range v {
			if tag == nil {
				continue
			}
			tags = appendTags(tags, fmt.Sprint(tag))
		}
	case string:
		tags = appendTags(tags, v)
	default:
		tags = appendTags(tags, fmt.Sprint(v))
	}

	return tags
}

func appendTags(tags []string, raw string) []string {
	for _, segment := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(segment); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// RenderTags joins tags the way they appear in unit text. For any input,
// NormalizeTags(RenderTags(tags)) equals NormalizeTags(tags).
func RenderTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), tagSeparator)
}
