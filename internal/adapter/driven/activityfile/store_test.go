package activityfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "activity.json"))
}

func TestStore_Load_MissingFile(t *testing.T) {
	store := testStore(t)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_Load_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	records, err := New(path).Load(context.Background())
	require.NoError(t, err, "corrupt files degrade to empty, never error")
	assert.Empty(t, records)
}

func TestStore_Load_BadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	doc := `{"a/b": {"repo_name": "a/b", "last_date_activity": "yesterday", "attempts": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	records, err := New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	in := map[string]model.ActivityRecord{
		"alice/alpha": {
			RepoName:       "alice/alpha",
			LastActivityAt: time.Date(2026, 3, 2, 9, 15, 30, 500000000, time.UTC),
			AttemptsToday:  4,
		},
		"bob/beta": {
			RepoName:       "bob/beta",
			LastActivityAt: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			AttemptsToday:  1,
		},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	got := out["alice/alpha"]
	assert.Equal(t, "alice/alpha", got.RepoName)
	assert.Equal(t, 4, got.AttemptsToday)
	assert.True(t, got.LastActivityAt.Equal(in["alice/alpha"].LastActivityAt))
}

func TestStore_Save_OverwritesWholeDocument(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]model.ActivityRecord{
		"alice/alpha": {RepoName: "alice/alpha", LastActivityAt: time.Now().UTC(), AttemptsToday: 1},
		"bob/beta":    {RepoName: "bob/beta", LastActivityAt: time.Now().UTC(), AttemptsToday: 2},
	}))
	require.NoError(t, store.Save(ctx, map[string]model.ActivityRecord{
		"alice/alpha": {RepoName: "alice/alpha", LastActivityAt: time.Now().UTC(), AttemptsToday: 3},
	}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out["alice/alpha"].AttemptsToday)
}

func TestStore_Load_OffsetlessTimestamp(t *testing.T) {
	// Files written by earlier versions carry timestamps without a zone
	// offset; they must load as host-local time, not be discarded as corrupt.
	path := filepath.Join(t.TempDir(), "activity.json")
	doc := `{"a/b": {"repo_name": "a/b", "last_date_activity": "2026-03-02T09:15:30.500000", "attempts": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	records, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records["a/b"]
	assert.Equal(t, 2, got.AttemptsToday)
	want := time.Date(2026, 3, 2, 9, 15, 30, 500000000, time.Local)
	assert.True(t, got.LastActivityAt.Equal(want))
}

func TestStore_Load_FallsBackToKeyForName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	doc := `{"a/b": {"last_date_activity": "2026-03-02T09:00:00Z", "attempts": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	records, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a/b", records["a/b"].RepoName)
}
