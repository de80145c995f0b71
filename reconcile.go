package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/remote"
	"github.com/aquilax/promptbox/store"
)

// Reconciler keeps the in-memory tree, the local persistent cache and the
// remote snapshot in agreement. The local cache wins at startup; the remote
// only ever replaces state on an explicit forced pull.
type Reconciler struct {
	st     *State
	store  store.Store
	remote remote.Client
	now    func() time.Time

	// lastVisit is the freshness baseline: the previous session's timestamp,
	// read once at startup and immediately overwritten for the next session.
	lastVisit time.Time
}

func NewReconciler(st *State, s store.Store, r remote.Client) *Reconciler {
	return &Reconciler{st: st, store: s, remote: r, now: time.Now}
}

// Load restores state at startup: cached snapshot first, remote fetch as the
// fallback. A fetch failure here degrades to an observable load error, it
// never propagates.
func (r *Reconciler) Load(ctx context.Context) {
	r.rotateLastVisit()
	r.loadFavorites()

	if r.loadCached() {
		return
	}
	if r.remote == nil {
		return
	}
	snapshot, err := r.remote.Fetch(ctx)
	if err != nil {
		r.st.SetLoadError("could not load the prompt collection, working with what is here")
		log.Printf("startup fetch failed: %v", err)
		return
	}
	prompt.Sanitize(snapshot)
	recomputeCollapsed(snapshot.Sections)
	r.st.ReplaceSnapshot(*snapshot)
	r.Persist()
}

// PullFromRemote fetches and sanitizes the remote snapshot. Only a forced
// pull replaces in-memory state and the cache; unforced pulls are dry runs.
func (r *Reconciler) PullFromRemote(ctx context.Context, force bool) error {
	if r.remote == nil {
		return &NetworkError{Op: "pull", Err: errors.New("no remote configured")}
	}
	snapshot, err := r.remote.Fetch(ctx)
	if err != nil {
		return &NetworkError{Op: "pull", Err: err}
	}
	prompt.Sanitize(snapshot)
	recomputeCollapsed(snapshot.Sections)
	if !force {
		return nil
	}
	r.st.ReplaceSnapshot(*snapshot)
	r.Persist()
	return nil
}

// PushToRemote hands the full bundle to the remote client. The client's
// read-revision-then-write is opaque here; only success or failure comes back.
func (r *Reconciler) PushToRemote(ctx context.Context) error {
	snapshot := r.st.Snapshot()
	if r.remote == nil {
		return &NetworkError{Op: "push", Err: errors.New("no remote configured")}
	}
	if err := r.remote.Push(ctx, &snapshot); err != nil {
		return &NetworkError{Op: "push", Err: err}
	}
	return nil
}

// IsNew reports whether the id was minted after the previous session ended.
func (r *Reconciler) IsNew(id string) bool {
	return prompt.NewSince(id, r.lastVisit)
}

func (r *Reconciler) LastVisit() time.Time {
	return r.lastVisit
}

// Persist mirrors the in-memory state to the local cache. Tree, tags and
// notes are written only for the administrator; favorites always. A quota
// overflow keeps the in-memory change and raises the sticky storage warning
// instead of failing the action that caused the write.
func (r *Reconciler) Persist() {
	if r.st.IsAdmin() {
		snapshot := r.st.Snapshot()
		r.persistValue(store.KeySections, snapshot.Sections)
		r.persistValue(store.KeyCommonTags, snapshot.CommonTags)
		r.persistValue(store.KeySiteNotes, snapshot.SiteNotes)
	}
	r.persistValue(store.KeyFavorites, r.st.Favorites())
}

func (r *Reconciler) persistValue(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("persist %s: %v", key, err)
		return
	}
	if err := r.store.Set(key, raw); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			r.st.SetStorageWarning("local storage is full, export your data now")
			return
		}
		log.Printf("persist %s: %v", key, err)
	}
}

// loadCached restores the tree from the local cache. Collapsed state is
// recomputed from the restricted/default flags; whatever was stored in
// isCollapsed does not survive a restart.
func (r *Reconciler) loadCached() bool {
	raw, err := r.store.Get(store.KeySections)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("load sections: %v", err)
		}
		return false
	}
	snapshot := prompt.Snapshot{}
	if err := json.Unmarshal(raw, &snapshot.Sections); err != nil {
		log.Printf("load sections: %v", err)
		return false
	}
	if raw, err := r.store.Get(store.KeyCommonTags); err == nil {
		if err := json.Unmarshal(raw, &snapshot.CommonTags); err != nil {
			snapshot.CommonTags = nil
		}
	}
	if raw, err := r.store.Get(store.KeySiteNotes); err == nil {
		if err := json.Unmarshal(raw, &snapshot.SiteNotes); err != nil {
			snapshot.SiteNotes = ""
		}
	}
	prompt.Sanitize(&snapshot)
	recomputeCollapsed(snapshot.Sections)
	r.st.ReplaceSnapshot(snapshot)
	return true
}

func (r *Reconciler) loadFavorites() {
	raw, err := r.store.Get(store.KeyFavorites)
	if err != nil {
		return
	}
	var favorites []prompt.Prompt
	if err := json.Unmarshal(raw, &favorites); err != nil {
		return
	}
	r.st.Update(func(s *State) {
		s.favorites = favorites
	})
}

func (r *Reconciler) rotateLastVisit() {
	now := r.now()
	// On a first visit everything predates the session, so nothing is new.
	r.lastVisit = now
	if raw, err := r.store.Get(store.KeyLastVisit); err == nil {
		if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			r.lastVisit = time.UnixMilli(ms)
		}
	}
	if err := r.store.Set(store.KeyLastVisit, []byte(strconv.FormatInt(now.UnixMilli(), 10))); err != nil {
		log.Printf("record last visit: %v", err)
	}
}

func recomputeCollapsed(sections []prompt.Section) {
	for i := range sections {
		sections[i].IsCollapsed = sections[i].IsRestricted || sections[i].DefaultCollapsed
	}
}
