package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/store"
	storememory "github.com/aquilax/promptbox/store/memory"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	snapshot *prompt.Snapshot
	fetchErr error
	pushed   *prompt.Snapshot
	pushErr  error
}

func (f *fakeRemote) Fetch(ctx context.Context) (*prompt.Snapshot, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	copied := *f.snapshot
	return &copied, nil
}

func (f *fakeRemote) Push(ctx context.Context, snapshot *prompt.Snapshot) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = snapshot
	return nil
}

func seedStore(t *testing.T, s store.Store, key string, value interface{}) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, s.Set(key, raw))
}

func TestLoadPrefersCache(t *testing.T) {
	mem := storememory.New(0)
	seedStore(t, mem, store.KeySections, []prompt.Section{
		{ID: "s-1700000000001", Title: "Cached", IsRestricted: true, IsCollapsed: false},
		{ID: "s-1700000000002", Title: "Open", IsCollapsed: true},
	})
	seedStore(t, mem, store.KeyCommonTags, []string{"story"})
	seedStore(t, mem, store.KeySiteNotes, "cached notes")

	st := NewState()
	rec := NewReconciler(st, mem, &fakeRemote{snapshot: &prompt.Snapshot{
		Sections: []prompt.Section{{ID: "s-9", Title: "Remote"}},
	}})
	rec.Load(context.Background())

	snapshot := st.Snapshot()
	require.Len(t, snapshot.Sections, 2)
	require.Equal(t, "Cached", snapshot.Sections[0].Title)
	require.Equal(t, "cached notes", snapshot.SiteNotes)
	// Collapsed state is recomputed from the flags, not restored.
	require.True(t, snapshot.Sections[0].IsCollapsed, "restricted section must start collapsed")
	require.False(t, snapshot.Sections[1].IsCollapsed, "plain section must start expanded")
	require.Empty(t, st.LoadError())
}

func TestLoadFallsBackToRemote(t *testing.T) {
	st := NewState()
	rec := NewReconciler(st, storememory.New(0), &fakeRemote{snapshot: &prompt.Snapshot{
		Sections:   []prompt.Section{{ID: "s-9", Title: "Remote"}},
		CommonTags: []string{"story"},
	}})
	rec.Load(context.Background())

	snapshot := st.Snapshot()
	require.Len(t, snapshot.Sections, 1)
	require.Equal(t, "Remote", snapshot.Sections[0].Title)
}

func TestLoadFetchFailureDegrades(t *testing.T) {
	st := NewState()
	rec := NewReconciler(st, storememory.New(0), &fakeRemote{fetchErr: errors.New("offline")})
	rec.Load(context.Background())

	require.NotEmpty(t, st.LoadError())
	require.Empty(t, st.Snapshot().Sections)
}

func TestPullFromRemote(t *testing.T) {
	remote := &fakeRemote{snapshot: &prompt.Snapshot{
		Sections: []prompt.Section{{ID: "s-9", Title: "Remote"}},
	}}
	st := NewState()
	st.SetIdentity(nil, true)
	st.ReplaceSnapshot(prompt.Snapshot{Sections: []prompt.Section{{ID: "s-1", Title: "Local"}}})
	rec := NewReconciler(st, storememory.New(0), remote)

	t.Run("without force nothing changes", func(t *testing.T) {
		require.NoError(t, rec.PullFromRemote(context.Background(), false))
		require.Equal(t, "Local", st.Snapshot().Sections[0].Title)
	})

	t.Run("with force state is replaced and persisted", func(t *testing.T) {
		require.NoError(t, rec.PullFromRemote(context.Background(), true))
		require.Equal(t, "Remote", st.Snapshot().Sections[0].Title)
	})

	t.Run("fetch failure is a network error", func(t *testing.T) {
		remote.fetchErr = errors.New("offline")
		var network *NetworkError
		require.True(t, errors.As(rec.PullFromRemote(context.Background(), true), &network))
	})
}

func TestPushToRemote(t *testing.T) {
	remote := &fakeRemote{}
	st := NewState()
	st.ReplaceSnapshot(prompt.Snapshot{
		Sections:   []prompt.Section{{ID: "s-1", Title: "Local"}},
		CommonTags: []string{"story"},
		SiteNotes:  "notes",
	})
	rec := NewReconciler(st, storememory.New(0), remote)

	require.NoError(t, rec.PushToRemote(context.Background()))
	require.NotNil(t, remote.pushed)
	require.Equal(t, "notes", remote.pushed.SiteNotes)

	remote.pushErr = errors.New("offline")
	var network *NetworkError
	require.True(t, errors.As(rec.PushToRemote(context.Background()), &network))
}

func TestIsNew(t *testing.T) {
	lastVisit := time.UnixMilli(1700000000000)
	mem := storememory.New(0)
	require.NoError(t, mem.Set(store.KeyLastVisit, []byte("1700000000000")))

	st := NewState()
	rec := NewReconciler(st, mem, nil)
	rec.now = func() time.Time { return lastVisit.Add(time.Hour) }
	rec.Load(context.Background())

	require.True(t, rec.IsNew("1700000000500"), "bare id minted after the last visit")
	require.True(t, rec.IsNew("u-1700000000500"), "prefixed id minted after the last visit")
	require.False(t, rec.IsNew("1699999999999"), "id minted before the last visit")
	require.False(t, rec.IsNew("1700000000000"), "id minted exactly at the last visit")
	require.False(t, rec.IsNew("hand-typed-id"), "id without an embedded timestamp")

	// The baseline for the next session is already recorded.
	raw, err := mem.Get(store.KeyLastVisit)
	require.NoError(t, err)
	require.Equal(t, "1700003600000", string(raw))
}

func TestIsNewOnFirstVisit(t *testing.T) {
	firstVisit := time.UnixMilli(1700000000000)
	mem := storememory.New(0)

	st := NewState()
	rec := NewReconciler(st, mem, nil)
	rec.now = func() time.Time { return firstVisit }
	rec.Load(context.Background())

	// With no recorded last visit the baseline is the visit itself, so
	// everything already in the tree predates the session.
	require.False(t, rec.IsNew("1690000000001"))
	require.False(t, rec.IsNew("u-1700000000000"))
	require.True(t, rec.IsNew("u-1700000000001"))

	raw, err := mem.Get(store.KeyLastVisit)
	require.NoError(t, err)
	require.Equal(t, "1700000000000", string(raw))
}

func TestPersistQuotaDowngradesToWarning(t *testing.T) {
	st := NewState()
	st.SetIdentity(nil, true)
	st.ReplaceSnapshot(prompt.Snapshot{
		Sections: []prompt.Section{{ID: "s-1", Title: "A very long section title that will not fit"}},
	})
	rec := NewReconciler(st, storememory.New(10), nil)

	rec.Persist()

	require.NotEmpty(t, st.StorageWarning())
	// The in-memory change survives; only durability is lost.
	require.Equal(t, "A very long section title that will not fit", st.Snapshot().Sections[0].Title)

	st.AcknowledgeStorageWarning()
	require.Empty(t, st.StorageWarning())
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := prompt.Snapshot{
		Sections: []prompt.Section{
			{
				ID:    "s-1700000000001",
				Title: "Stories",
				Prompts: []prompt.Prompt{
					{
						ID:      "u-1700000000002",
						Title:   "First",
						Content: "content",
						Images:  []string{"a", "b"},
						Tags:    []string{"story"},
						Similar: []prompt.Variant{{Content: "alt", Contributor: "x"}},
					},
				},
			},
			{ID: "s-1700000000003", Title: "Empty", Prompts: []prompt.Prompt{}},
		},
		CommonTags: []string{"story", "character"},
		SiteNotes:  "welcome",
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	var restored prompt.Snapshot
	require.NoError(t, json.Unmarshal(raw, &restored))

	require.Equal(t, original.Sections, restored.Sections)
	require.Equal(t, original.CommonTags, restored.CommonTags)
	require.Equal(t, original.SiteNotes, restored.SiteNotes)
}
