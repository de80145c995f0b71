// Package auth resolves who is using the box. Identity changes flow through a
// subscription callback so the application state always learns about sign-in
// and sign-out from the same place.
package auth

import (
	"errors"
	"sync"
)

var ErrUnknownToken = errors.New("auth: unknown token")

type Identity struct {
	ID    string
	Email string
	Name  string
}

// Callback receives every identity change. A nil identity means signed out.
type Callback func(identity *Identity, isAdmin bool)

type Provider interface {
	SignIn(token string) (*Identity, error)
	SignOut()
	Current() (*Identity, bool)
	Subscribe(cb Callback)
}

// Static maps opaque tokens to identities. The administrator is whoever
// matches the configured admin identifier, never a flag on the identity
// itself.
type Static struct {
	mu      sync.Mutex
	adminID string
	tokens  map[string]Identity
	current *Identity
	subs    []Callback
}

func NewStatic(adminID string, tokens map[string]Identity) *Static {
	return &Static{adminID: adminID, tokens: tokens}
}

func (s *Static) SignIn(token string) (*Identity, error) {
	s.mu.Lock()
	identity, ok := s.tokens[token]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownToken
	}
	s.current = &identity
	subs, isAdmin := s.subs, s.isAdmin(&identity)
	s.mu.Unlock()

	for _, cb := range subs {
		cb(&identity, isAdmin)
	}
	return &identity, nil
}

func (s *Static) SignOut() {
	s.mu.Lock()
	s.current = nil
	subs := s.subs
	s.mu.Unlock()

	for _, cb := range subs {
		cb(nil, false)
	}
}

func (s *Static) Current() (*Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, s.isAdmin(s.current)
}

func (s *Static) Subscribe(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, cb)
}

func (s *Static) isAdmin(identity *Identity) bool {
	return s.adminID != "" && identity != nil && identity.ID == s.adminID
}
