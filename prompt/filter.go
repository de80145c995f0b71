package prompt

import "strings"

// Filter returns a view of the sections matching a free-text query and a set
// of required tags. A prompt matches the query when its title, content or any
// tag contains it case-insensitively; it matches the tag set when it carries
// every selected tag. With an active filter, sections left empty are dropped;
// without one, empty sections stay visible.
func Filter(sections []Section, query string, selectedTags []string) []Section {
	q := strings.ToLower(strings.TrimSpace(query))
	filtering := q != "" || len(selectedTags) > 0
	out := make([]Section, 0, len(sections))
	for _, sec := range sections {
		view := sec
		view.Prompts = make([]Prompt, 0, len(sec.Prompts))
		for _, p := range sec.Prompts {
			if matchesQuery(p, q) && hasAllTags(p.Tags, selectedTags) {
				view.Prompts = append(view.Prompts, p)
			}
		}
		if len(view.Prompts) > 0 || !filtering {
			out = append(out, view)
		}
	}
	return out
}

func matchesQuery(p Prompt, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func hasAllTags(tags, selected []string) bool {
	for _, want := range selected {
		if !containsString(tags, want) {
			return false
		}
	}
	return true
}
