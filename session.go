package main

import (
	"sync"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/google/uuid"
)

// Session is one viewer's browsing session: the last-visit timestamp frozen
// at session start (freshness baseline) and the set of restricted sections
// the viewer has confirmed into. Neither survives the session.
type Session struct {
	ID        string
	lastVisit time.Time
	ln        *Language
	st        *State

	mu       sync.Mutex
	revealed map[prompt.SectionID]bool
}

func NewSession(st *State, lastVisit time.Time, ln *Language) *Session {
	return &Session{
		ID:        uuid.New().String(),
		lastVisit: lastVisit,
		ln:        ln,
		st:        st,
		revealed:  make(map[prompt.SectionID]bool),
	}
}

func (s *Session) Lang(text string) string {
	return s.ln.Lang(text)
}

// IsNew reports whether id was minted after this session's baseline.
func (s *Session) IsNew(id string) bool {
	return prompt.NewSince(id, s.lastVisit)
}

// Reveal expands a restricted section. Non-admins pass the gate only with an
// explicit confirmation, and only once per section: the gate is one-way for
// the rest of the session. Returns whether the section is now revealed.
func (s *Session) Reveal(sectionID prompt.SectionID, confirmed bool) bool {
	if s.st.IsAdmin() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed[sectionID] {
		return true
	}
	if !confirmed {
		return false
	}
	s.revealed[sectionID] = true
	return true
}

// Expanded reports whether sec shows expanded to this viewer. Restricted
// sections stay collapsed until revealed, regardless of stored state.
func (s *Session) Expanded(sec prompt.Section) bool {
	if sec.IsRestricted && !s.st.IsAdmin() {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.revealed[sec.ID]
	}
	return !sec.IsCollapsed
}

// Sessions tracks live viewer sessions by cookie token.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

func (ss *Sessions) Get(id string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.byID[id]
}

func (ss *Sessions) Add(s *Session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.byID[s.ID] = s
}
