// ABOUTME: Tests for the local SQLite cache.
// ABOUTME: Covers thread history round-trips, layout defaults, and sign-out clearing.

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/familiar/internal/session"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalStore_ThreadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	threads := []session.ThreadRecord{
		{ID: "t1", Title: "Newest", AgentID: "a1", AgentName: "Main Agent", LastActivity: time.UnixMilli(1700000002000)},
		{ID: "t2", Title: "Older", LastActivity: time.UnixMilli(1700000001000)},
	}
	require.NoError(t, s.SaveThreads(t.Context(), threads))

	loaded, err := s.LoadThreads(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Newest", loaded[0].Title)
	assert.Equal(t, "Main Agent", loaded[0].AgentName)
	assert.Equal(t, int64(1700000002000), loaded[0].LastActivity.UnixMilli())
	assert.Equal(t, "Older", loaded[1].Title)
}

func TestLocalStore_SaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveThreads(t.Context(), []session.ThreadRecord{
		{ID: "t1", Title: "Stale", LastActivity: time.UnixMilli(1)},
	}))
	require.NoError(t, s.SaveThreads(t.Context(), []session.ThreadRecord{
		{ID: "t2", Title: "Fresh", LastActivity: time.UnixMilli(2)},
	}))

	loaded, err := s.LoadThreads(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Fresh", loaded[0].Title)
}

func TestLocalStore_LoadRespectsLimit(t *testing.T) {
	s := newTestStore(t)

	var threads []session.ThreadRecord
	for i := 0; i < 5; i++ {
		threads = append(threads, session.ThreadRecord{
			ID:           session.NewThreadID(""),
			Title:        "thread",
			LastActivity: time.UnixMilli(int64(i)),
		})
	}
	require.NoError(t, s.SaveThreads(t.Context(), threads))

	loaded, err := s.LoadThreads(t.Context(), 3)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestLocalStore_ClearThreads(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveThreads(t.Context(), []session.ThreadRecord{
		{ID: "t1", Title: "T", LastActivity: time.Now()},
	}))
	require.NoError(t, s.ClearThreads(t.Context()))

	loaded, err := s.LoadThreads(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLocalStore_LayoutDefault(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, []int{70, 30}, s.Layout(t.Context()))
}

func TestLocalStore_LayoutRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveLayout(t.Context(), []int{60, 40}))
	assert.Equal(t, []int{60, 40}, s.Layout(t.Context()))

	// Overwrite.
	require.NoError(t, s.SaveLayout(t.Context(), []int{50, 50}))
	assert.Equal(t, []int{50, 50}, s.Layout(t.Context()))
}

func TestLocalStore_ClearLayoutRestoresDefault(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveLayout(t.Context(), []int{55, 45}))
	require.NoError(t, s.ClearLayout(t.Context()))

	assert.Equal(t, []int{70, 30}, s.Layout(t.Context()))
}

func TestLocalStore_ImplementsHistoryCache(t *testing.T) {
	var _ session.HistoryCache = newTestStore(t)
}
