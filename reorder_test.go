package main

import (
	"sort"
	"testing"

	"github.com/aquilax/promptbox/prompt"
	storememory "github.com/aquilax/promptbox/store/memory"
	"github.com/stretchr/testify/require"
)

func newReorderApp(t *testing.T, isAdmin bool) (*State, *Reorderer) {
	t.Helper()
	st := NewState()
	st.SetIdentity(nil, isAdmin)
	rec := NewReconciler(st, storememory.New(0), nil)
	return st, NewReorderer(st, rec)
}

func sectionFixture() []prompt.Section {
	return []prompt.Section{
		{ID: "s-1", Title: "A", Prompts: []prompt.Prompt{{ID: "p-1"}, {ID: "p-2"}}},
		{ID: "s-2", Title: "B", Prompts: []prompt.Prompt{{ID: "p-3"}}},
		{ID: "s-3", Title: "C", Prompts: []prompt.Prompt{}},
	}
}

func sectionIDs(sections []prompt.Section) []string {
	ids := make([]string, len(sections))
	for i, sec := range sections {
		ids[i] = sec.ID
	}
	return ids
}

func TestSectionMove(t *testing.T) {
	st, r := newReorderApp(t, true)
	st.Update(func(s *State) { s.sections = sectionFixture() })

	require.True(t, r.StartSection("s-1"))
	r.DropOnSection("s-3")

	got := sectionIDs(st.Snapshot().Sections)
	// Array move, not swap: everything between shifts by one.
	require.Equal(t, []string{"s-2", "s-3", "s-1"}, got)

	sorted := append([]string{}, got...)
	sort.Strings(sorted)
	require.Equal(t, []string{"s-1", "s-2", "s-3"}, sorted, "the id multiset never changes")
}

func TestSectionMoveBackwards(t *testing.T) {
	st, r := newReorderApp(t, true)
	st.Update(func(s *State) { s.sections = sectionFixture() })

	require.True(t, r.StartSection("s-3"))
	r.DropOnSection("s-1")

	require.Equal(t, []string{"s-3", "s-1", "s-2"}, sectionIDs(st.Snapshot().Sections))
}

func TestPromptDropOnPrompt(t *testing.T) {
	t.Run("across sections", func(t *testing.T) {
		st, r := newReorderApp(t, true)
		st.Update(func(s *State) { s.sections = sectionFixture() })

		require.True(t, r.StartPrompt("p-1", "s-1"))
		r.DropOnPrompt("p-3")

		snapshot := st.Snapshot()
		require.Equal(t, []prompt.Prompt{{ID: "p-2"}}, snapshot.Sections[0].Prompts)
		require.Equal(t, "p-1", snapshot.Sections[1].Prompts[0].ID)
		require.Equal(t, "p-3", snapshot.Sections[1].Prompts[1].ID)
	})

	t.Run("within a section", func(t *testing.T) {
		st, r := newReorderApp(t, true)
		st.Update(func(s *State) { s.sections = sectionFixture() })

		require.True(t, r.StartPrompt("p-2", "s-1"))
		r.DropOnPrompt("p-1")

		snapshot := st.Snapshot()
		require.Equal(t, "p-2", snapshot.Sections[0].Prompts[0].ID)
		require.Equal(t, "p-1", snapshot.Sections[0].Prompts[1].ID)
	})
}

func TestPromptDropOnSectionBackground(t *testing.T) {
	st, r := newReorderApp(t, true)
	st.Update(func(s *State) { s.sections = sectionFixture() })

	require.True(t, r.StartPrompt("p-1", "s-1"))
	r.DropOnSection("s-3")

	snapshot := st.Snapshot()
	require.Equal(t, []prompt.Prompt{{ID: "p-2"}}, snapshot.Sections[0].Prompts)
	require.Equal(t, []prompt.Prompt{{ID: "p-1"}}, snapshot.Sections[2].Prompts)
}

func TestDropOnNothingIsNoOp(t *testing.T) {
	st, r := newReorderApp(t, true)
	st.Update(func(s *State) { s.sections = sectionFixture() })
	before := st.Snapshot().Sections

	require.True(t, r.StartSection("s-1"))
	r.DropOnSection("s-404")
	require.Equal(t, before, st.Snapshot().Sections)

	require.True(t, r.StartPrompt("p-1", "s-1"))
	r.Cancel()
	require.Equal(t, before, st.Snapshot().Sections)

	// A drop with no active drag does nothing.
	r.DropOnSection("s-2")
	require.Equal(t, before, st.Snapshot().Sections)
}

func TestNonAdminDragGating(t *testing.T) {
	st, r := newReorderApp(t, false)
	st.Update(func(s *State) {
		s.sections = sectionFixture()
		s.favorites = []prompt.Prompt{{ID: "f-1"}, {ID: "f-2"}, {ID: "f-3"}}
	})

	require.False(t, r.StartSection("s-1"), "section drags never start for visitors")
	require.False(t, r.StartPrompt("p-1", "s-1"), "prompt drags never start for visitors")

	require.True(t, r.StartFavorite(0))
	r.DropOnFavorite(2)

	favorites := st.Favorites()
	require.Equal(t, "f-2", favorites[0].ID)
	require.Equal(t, "f-3", favorites[1].ID)
	require.Equal(t, "f-1", favorites[2].ID)
}
