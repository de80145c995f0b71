package main

import (
	"sync"

	"github.com/aquilax/promptbox/prompt"
)

type DragKind string

const (
	DragSection  DragKind = "SECTION"
	DragPrompt   DragKind = "PROMPT"
	DragFavorite DragKind = "FAVORITE"
)

type drag struct {
	kind          DragKind
	sectionID     prompt.SectionID
	promptID      prompt.PromptID
	favoriteIndex int
}

// Reorderer is the drag-reorder engine: one active drag at a time, moves are
// committed immediately on drop, drops that hit nothing are no-ops. Section
// and prompt drags never start for non-admins; favorites are open to anyone.
type Reorderer struct {
	st  *State
	rec *Reconciler

	mu     sync.Mutex
	active *drag
}

func NewReorderer(st *State, rec *Reconciler) *Reorderer {
	return &Reorderer{st: st, rec: rec}
}

func (r *Reorderer) StartSection(id prompt.SectionID) bool {
	if !r.st.IsAdmin() {
		return false
	}
	r.setActive(&drag{kind: DragSection, sectionID: id})
	return true
}

func (r *Reorderer) StartPrompt(id prompt.PromptID, sourceSectionID prompt.SectionID) bool {
	if !r.st.IsAdmin() {
		return false
	}
	r.setActive(&drag{kind: DragPrompt, promptID: id, sectionID: sourceSectionID})
	return true
}

func (r *Reorderer) StartFavorite(index int) bool {
	r.setActive(&drag{kind: DragFavorite, favoriteIndex: index})
	return true
}

// DropOnSection handles both section reordering (a dragged section moves to
// the target's index) and dropping a prompt on a section's background area
// (appended at the end of that section).
func (r *Reorderer) DropOnSection(targetID prompt.SectionID) {
	d := r.takeActive()
	if d == nil {
		return
	}
	changed := false
	r.st.Update(func(s *State) {
		switch d.kind {
		case DragSection:
			changed = moveSection(s, d.sectionID, targetID)
		case DragPrompt:
			changed = appendPrompt(s, d.promptID, targetID)
		}
	})
	if changed {
		r.rec.Persist()
	}
}

// DropOnPrompt inserts the dragged prompt immediately before the target
// prompt, in the target's section.
func (r *Reorderer) DropOnPrompt(targetID prompt.PromptID) {
	d := r.takeActive()
	if d == nil || d.kind != DragPrompt || d.promptID == targetID {
		return
	}
	changed := false
	r.st.Update(func(s *State) {
		changed = insertPromptBefore(s, d.promptID, targetID)
	})
	if changed {
		r.rec.Persist()
	}
}

// DropOnFavorite moves the dragged favorite to the target index.
func (r *Reorderer) DropOnFavorite(targetIndex int) {
	d := r.takeActive()
	if d == nil || d.kind != DragFavorite {
		return
	}
	changed := false
	r.st.Update(func(s *State) {
		if d.favoriteIndex < 0 || d.favoriteIndex >= len(s.favorites) ||
			targetIndex < 0 || targetIndex >= len(s.favorites) {
			return
		}
		moved := s.favorites[d.favoriteIndex]
		s.favorites = append(s.favorites[:d.favoriteIndex], s.favorites[d.favoriteIndex+1:]...)
		rest := append([]prompt.Prompt{}, s.favorites[targetIndex:]...)
		s.favorites = append(append(s.favorites[:targetIndex], moved), rest...)
		changed = true
	})
	if changed {
		r.rec.Persist()
	}
}

// Cancel drops the active drag without touching anything.
func (r *Reorderer) Cancel() {
	r.takeActive()
}

func (r *Reorderer) setActive(d *drag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = d
}

func (r *Reorderer) takeActive() *drag {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.active
	r.active = nil
	return d
}

// moveSection is an array move, not a swap: everything between the old and
// new position shifts by one.
func moveSection(s *State, draggedID, targetID prompt.SectionID) bool {
	from := prompt.FindSection(s.sections, draggedID)
	to := prompt.FindSection(s.sections, targetID)
	if from == -1 || to == -1 || from == to {
		return false
	}
	moved := s.sections[from]
	s.sections = append(s.sections[:from], s.sections[from+1:]...)
	rest := append([]prompt.Section{}, s.sections[to:]...)
	s.sections = append(append(s.sections[:to], moved), rest...)
	return true
}

func appendPrompt(s *State, draggedID prompt.PromptID, targetSectionID prompt.SectionID) bool {
	if prompt.FindSection(s.sections, targetSectionID) == -1 {
		return false
	}
	si, pi := prompt.FindPrompt(s.sections, draggedID)
	if si == -1 {
		return false
	}
	moved := s.sections[si].Prompts[pi]
	prompt.RemovePrompt(s.sections, draggedID)
	ti := prompt.FindSection(s.sections, targetSectionID)
	s.sections[ti].Prompts = append(s.sections[ti].Prompts, moved)
	return true
}

func insertPromptBefore(s *State, draggedID, targetID prompt.PromptID) bool {
	si, pi := prompt.FindPrompt(s.sections, draggedID)
	if si == -1 {
		return false
	}
	if ti, _ := prompt.FindPrompt(s.sections, targetID); ti == -1 {
		return false
	}
	moved := s.sections[si].Prompts[pi]
	prompt.RemovePrompt(s.sections, draggedID)
	// Target index may have shifted after the removal.
	ti, tpi := prompt.FindPrompt(s.sections, targetID)
	prompts := s.sections[ti].Prompts
	rest := append([]prompt.Prompt{}, prompts[tpi:]...)
	s.sections[ti].Prompts = append(append(prompts[:tpi], moved), rest...)
	return true
}
