// Package store is the local persistent cache: whole JSON documents under a
// handful of namespaced keys, overwritten on every state change so the last
// writer always wins.
package store

import "errors"

// Logical keys. Each holds one JSON-serialized blob.
const (
	KeySections   = "promptbox:sections-tree"
	KeyCommonTags = "promptbox:common-tags"
	KeySiteNotes  = "promptbox:site-notes"
	KeyFavorites  = "promptbox:favorites"
	KeyLastVisit  = "promptbox:last-visit"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrQuotaExceeded is returned when a write would exceed the backend's
	// value size bound. Callers downgrade it to a warning; it must never
	// fail the mutation that triggered the write.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

type Store interface {
	Open(driver, dsn string) error
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
