package model

import "sort"

// SortProjects orders projects by display order, then name
func SortProjects(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].DisplayOrder != projects[j].DisplayOrder {
			return projects[i].DisplayOrder < projects[j].DisplayOrder
		}
		return projects[i].Name < projects[j].Name
	})
}

// SortBlogs orders blogs newest first; posts without a publish date go last,
// ties are broken by title
func SortBlogs(blogs []*Blog) {
	sort.SliceStable(blogs, func(i, j int) bool {
		if blogs[i].PublishedAt != blogs[j].PublishedAt {
			return blogs[i].PublishedAt > blogs[j].PublishedAt
		}
		return blogs[i].Title < blogs[j].Title
	})
}
