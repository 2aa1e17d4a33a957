package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"command-center-go/internal/queries"
	"command-center-go/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func dq(ids ...string) []types.DisplayQuery {
	out := make([]types.DisplayQuery, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.DisplayQuery{ID: id, RiskTag: types.RiskNormal, Entities: map[string]string{}})
	}
	return out
}

func snapshotIDs(t *testing.T, s *Store) []string {
	t.Helper()
	st, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	out := []string{}
	for _, q := range st.Queries {
		out = append(out, q.ID)
	}
	return out
}

func TestStore_ApplyReplacesCollection(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	seq, err := s.Begin(ctx, "")
	require.NoError(t, err)
	applied, size, err := s.Apply(ctx, seq, dq("a", "b"), nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, size)

	seq, err = s.Begin(ctx, "DRV-1")
	require.NoError(t, err)
	_, _, err = s.Apply(ctx, seq, dq("c"), nil)
	require.NoError(t, err)

	st, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, snapshotIDs(t, s))
	assert.Equal(t, "DRV-1", st.DriverFilter)
	assert.False(t, st.Loading)
	assert.Equal(t, 2026, st.UpdatedAt.Year())
}

func TestStore_LatestIssuedWins(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	first, _ := s.Begin(ctx, "")
	second, _ := s.Begin(ctx, "DRV-2")

	st, _ := s.Snapshot(ctx)
	assert.True(t, st.Loading)

	// second resolves first, then the stale first response arrives
	applied, _, err := s.Apply(ctx, second, dq("new"), nil)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, _, err = s.Apply(ctx, first, dq("old-1", "old-2"), nil)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, []string{"new"}, snapshotIDs(t, s))
	st, _ = s.Snapshot(ctx)
	assert.False(t, st.Loading)
}

func TestStore_StaleResultDroppedEvenIfNewestStillInFlight(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	first, _ := s.Begin(ctx, "")
	_, _ = s.Begin(ctx, "")

	applied, _, _ := s.Apply(ctx, first, dq("old"), nil)
	assert.False(t, applied)
	assert.Empty(t, snapshotIDs(t, s))
}

func TestStore_FailedFetchClearsQueue(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	seq, _ := s.Begin(ctx, "")
	_, _, _ = s.Apply(ctx, seq, dq("a"), nil)

	seq, _ = s.Begin(ctx, "")
	fetchErr := &queries.Error{Kind: queries.ErrRequest, Message: "db down", Status: 500}
	applied, size, err := s.Apply(ctx, seq, nil, fetchErr)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Zero(t, size)

	st, _ := s.Snapshot(ctx)
	assert.Empty(t, st.Queries)
	assert.NotNil(t, st.Queries)
	assert.Equal(t, "db down", st.Error)

	// a later success clears the error
	seq, _ = s.Begin(ctx, "")
	_, _, _ = s.Apply(ctx, seq, dq("b"), nil)
	st, _ = s.Snapshot(ctx)
	assert.Empty(t, st.Error)
}

func TestStore_PlainErrorMessage(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	seq, _ := s.Begin(ctx, "")
	_, _, _ = s.Apply(ctx, seq, nil, errors.New("boom"))
	st, _ := s.Snapshot(ctx)
	assert.Equal(t, "boom", st.Error)
}

func TestStore_ResolveRemovesByID(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	seq, _ := s.Begin(ctx, "")
	_, _, _ = s.Apply(ctx, seq, dq("a", "b", "c"), nil)

	removed, size, err := s.Resolve(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 2, size)
	assert.Equal(t, []string{"a", "c"}, snapshotIDs(t, s))

	removed, _, err = s.Resolve(ctx, "b")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	seq, _ := s.Begin(ctx, "")
	_, _, _ = s.Apply(ctx, seq, dq("a", "b"), nil)

	st, _ := s.Snapshot(ctx)
	st.Queries[0].ID = "mutated"
	_, _, _ = s.Resolve(ctx, "b")

	assert.Equal(t, []string{"a"}, snapshotIDs(t, s))
	assert.Equal(t, "mutated", st.Queries[0].ID)
	assert.Equal(t, "b", st.Queries[1].ID)
}

func TestStore_DedupesAndDropsEmptyIDs(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	in := dq("a", "", "b", "a")
	in[3].RawText = "duplicate"
	seq, _ := s.Begin(ctx, "")
	_, size, _ := s.Apply(ctx, seq, in, nil)

	assert.Equal(t, 2, size)
	assert.Equal(t, []string{"a", "b"}, snapshotIDs(t, s))
}

func TestStore_StoppedReturnsErr(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestStore_CallerContextCancelled(t *testing.T) {
	s := NewStore() // never started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Begin(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
