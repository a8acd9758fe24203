package navigation

import (
	"strings"

	"github.com/secmon-lab/folio/pkg/agent/tool/portfolio"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/domain/types"
)

type textRule struct {
	section types.Section
	phrases []string
}

// Checked in order; the first section with a matching phrase wins.
var textRules = []textRule{
	{section: types.SectionProjects, phrases: []string{"projects page", "projects section", "view all the projects"}},
	{section: types.SectionBlogs, phrases: []string{"blog page", "blogs page", "blogs section"}},
	{section: types.SectionHome, phrases: []string{"home page", "homepage"}},
}

// FromToolCalls returns the section argument of the first
// navigate_to_section call. Later navigate calls in the same turn are not
// considered, even when the first one carries an invalid section.
func FromToolCalls(calls []*model.ToolCall) (types.Section, bool) {
	for _, call := range calls {
		if call == nil || call.Name != portfolio.NavigateToolName {
			continue
		}
		raw, _ := call.Arguments["section"].(string)
		section := types.Section(raw)
		if !section.IsValid() {
			return "", false
		}
		return section, true
	}
	return "", false
}

// FromText looks for wording in a final answer that points the visitor to a
// section. It is a secondary signal behind explicit tool calls.
func FromText(content string) (types.Section, bool) {
	lower := strings.ToLower(content)
	for _, rule := range textRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return rule.section, true
			}
		}
	}
	return "", false
}

// Resolve derives the navigation signal of one model message. Messages with
// tool calls only use the tool call path; the text fallback applies to the
// terminal message.
func Resolve(msg *model.Message) (types.Section, bool) {
	if msg == nil {
		return "", false
	}
	if msg.HasToolCalls() {
		return FromToolCalls(msg.ToolCalls)
	}
	return FromText(msg.Content)
}
