package main

import (
	"sync"

	"github.com/aquilax/promptbox/auth"
	"github.com/aquilax/promptbox/prompt"
)

// State is the one application state every engine works against. A single
// mutex stands in for the event loop: each operation locks, mutates, unlocks,
// so no partial tree is ever observable.
type State struct {
	mu sync.Mutex

	sections   []prompt.Section
	commonTags []string
	siteNotes  string
	favorites  []prompt.Prompt

	identity *auth.Identity
	isAdmin  bool

	loadError      string
	storageWarning string
}

func NewState() *State {
	return &State{}
}

// Update runs fn with the lock held. fn receives the state itself; it must
// not retain references past the call.
func (s *State) Update(fn func(s *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// SetIdentity is the identity provider's subscription target and the only
// mutator of the admin flag.
func (s *State) SetIdentity(identity *auth.Identity, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.isAdmin = isAdmin
}

func (s *State) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

// Snapshot copies the exportable bundle out of the state.
func (s *State) Snapshot() prompt.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return prompt.Snapshot{
		Sections:   cloneSections(s.sections),
		CommonTags: append([]string{}, s.commonTags...),
		SiteNotes:  s.siteNotes,
	}
}

// ReplaceSnapshot swaps the whole tree in one step.
func (s *State) ReplaceSnapshot(snapshot prompt.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = snapshot.Sections
	s.commonTags = snapshot.CommonTags
	s.siteNotes = snapshot.SiteNotes
}

func (s *State) Favorites() []prompt.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePrompts(s.favorites)
}

func (s *State) SetLoadError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadError = message
}

func (s *State) LoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadError
}

// SetStorageWarning raises the sticky "storage full, export now" banner. It
// stays until acknowledged.
func (s *State) SetStorageWarning(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storageWarning = message
}

func (s *State) StorageWarning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageWarning
}

func (s *State) AcknowledgeStorageWarning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storageWarning = ""
}

func cloneSections(sections []prompt.Section) []prompt.Section {
	out := make([]prompt.Section, len(sections))
	for i, sec := range sections {
		out[i] = sec
		out[i].Prompts = clonePrompts(sec.Prompts)
	}
	return out
}

func clonePrompts(prompts []prompt.Prompt) []prompt.Prompt {
	out := make([]prompt.Prompt, len(prompts))
	for i, p := range prompts {
		out[i] = p.Clone()
	}
	return out
}
