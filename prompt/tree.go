package prompt

// Tree primitives used by the submission controller and the reorder engine.
// All of them operate on the section slice in place; callers own locking.

// FindPrompt locates a prompt by id. It returns the index of the owning
// section and the index within its prompt list, or (-1, -1).
func FindPrompt(sections []Section, id PromptID) (int, int) {
	for si := range sections {
		for pi := range sections[si].Prompts {
			if sections[si].Prompts[pi].ID == id {
				return si, pi
			}
		}
	}
	return -1, -1
}

// FindSection returns the index of the section with the given id, or -1.
func FindSection(sections []Section, id SectionID) int {
	for i := range sections {
		if sections[i].ID == id {
			return i
		}
	}
	return -1
}

// RemovePrompt deletes the prompt with the given id from every section.
// A prompt id is unique tree-wide, but the scan is unconditional on purpose:
// it is cheap at these sizes and self-heals a duplicated id.
func RemovePrompt(sections []Section, id PromptID) bool {
	removed := false
	for si := range sections {
		prompts := sections[si].Prompts[:0]
		for _, p := range sections[si].Prompts {
			if p.ID == id {
				removed = true
				continue
			}
			prompts = append(prompts, p)
		}
		sections[si].Prompts = prompts
	}
	return removed
}

// InsertAtHead puts p at the front of the section's prompt list. It reports
// false when the section does not exist.
func InsertAtHead(sections []Section, sectionID SectionID, p Prompt) bool {
	si := FindSection(sections, sectionID)
	if si == -1 {
		return false
	}
	sections[si].Prompts = append([]Prompt{p}, sections[si].Prompts...)
	return true
}

// MergeImages appends to existing the entries of incoming that are not
// already present, preserving both orders. Comparison is plain string
// equality on the URLs.
func MergeImages(existing, incoming []string) []string {
	merged := existing
	for _, img := range incoming {
		if !containsString(existing, img) {
			merged = append(merged, img)
		}
	}
	return merged
}

// DedupeTags returns tags with later duplicates dropped, preserving order.
func DedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, found := seen[t]; found {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
