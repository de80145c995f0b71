package main

import (
	"sync"
	"time"
)

// SpamGuard throttles submissions per submitter address.
type SpamGuard struct {
	block time.Duration
	posts map[string]time.Time
	mutex sync.Mutex
	now   func() time.Time
}

func NewSpamGuard(block time.Duration) *SpamGuard {
	return &SpamGuard{
		block: block,
		posts: make(map[string]time.Time),
		now:   time.Now,
	}
}

// CanPost reports whether id may post now. The first call for an id starts
// its block window; later calls inside the window are refused.
func (sg *SpamGuard) CanPost(id string) bool {
	now := sg.now()
	sg.mutex.Lock()
	defer sg.mutex.Unlock()
	expires, found := sg.posts[id]
	if found && expires.After(now) {
		return false
	}
	sg.posts[id] = now.Add(sg.block)
	sg.clean(now)
	return true
}

func (sg *SpamGuard) clean(now time.Time) {
	for key, expires := range sg.posts {
		if expires.Before(now) {
			delete(sg.posts, key)
		}
	}
}
