package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/events"
)

func tempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestAppend_AssignsID(t *testing.T) {
	r := tempRepo(t)
	ctx := context.Background()

	e := &Entry{ActionID: "builtin.connect", Title: "Connect", OK: true, Outcome: "completed", Elapsed: 1500 * time.Millisecond}
	if err := r.Append(ctx, e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if e.ID == 0 {
		t.Error("expected ID to be assigned after insert")
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := r.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Connect", got.Title)
	assert.True(t, got.OK)
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt), "created_at round-trips")

	_, err = r.Get(ctx, 999)
	assert.True(t, IsNotFound(err))
}

func TestListRecent_NewestFirst(t *testing.T) {
	r := tempRepo(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		e := &Entry{ActionID: "a", Title: fmt.Sprintf("run%d", i), CreatedAt: base.Add(time.Duration(i) * 100 * time.Millisecond)}
		require.NoError(t, r.Append(ctx, e))
	}

	got, err := r.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "run4", got[0].Title)
	assert.Equal(t, "run3", got[1].Title)
	assert.Equal(t, "run2", got[2].Title)
}

func TestListForAction(t *testing.T) {
	r := tempRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a", "c", "a"} {
		require.NoError(t, r.Append(ctx, &Entry{ActionID: id}))
	}

	got, err := r.ListForAction(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, "a", e.ActionID)
	}

	got, err = r.ListForAction(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteOlderThan(t *testing.T) {
	r := tempRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, &Entry{ActionID: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, r.Append(ctx, &Entry{ActionID: "new"}))

	n, err := r.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ActionID)
}

func TestRecorder(t *testing.T) {
	r := tempRepo(t)
	bus := events.NewBus()
	bus.Performed.Subscribe(Recorder(r, nil))

	bus.Performed.Publish(events.ActionPerformed{
		ID:          "builtin.disconnect",
		Title:       "Disconnect",
		Text:        "You are disconnected from NordVPN.",
		OK:          true,
		Description: "Disconnect (/usr/bin/nordvpn d): exit 0, normal, 1.2s",
		Outcome:     "completed",
		At:          time.Now(),
	})

	got, err := r.ListForAction(context.Background(), "builtin.disconnect", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "You are disconnected from NordVPN.", got[0].Output)
	assert.Equal(t, "completed", got[0].Outcome)
}

func TestOpenAt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	r, err := OpenAt(path)
	require.NoError(t, err)
	require.NoError(t, r.Append(context.Background(), &Entry{ActionID: "x"}))
	require.NoError(t, r.Close())

	r, err = OpenAt(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
