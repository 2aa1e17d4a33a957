package dashboard

import (
	"context"
	"errors"
	"time"

	"command-center-go/internal/queries"
	"command-center-go/internal/types"
)

// ErrStopped is returned once the store's Run loop has exited.
var ErrStopped = errors.New("dashboard store stopped")

// State is a point-in-time copy of the queue.
type State struct {
	Queries      []types.DisplayQuery `json:"queries"`
	Error        string               `json:"error,omitempty"`
	DriverFilter string               `json:"driverFilter,omitempty"`
	Loading      bool                 `json:"loading"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// state is only touched by the Run goroutine.
type state struct {
	queries      []types.DisplayQuery
	err          string
	driverFilter string
	issued       uint64
	applied      uint64
	updatedAt    time.Time
}

// Store owns the agent queue. A single goroutine (Run) applies every
// read and write, so callers never share the slice.
type Store struct {
	ops  chan func(*state)
	done chan struct{}
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		ops:  make(chan func(*state)),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Run serves operations until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.done)
	st := &state{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-s.ops:
			op(st)
		}
	}
}

func (s *Store) do(ctx context.Context, op func(*state)) error {
	finished := make(chan struct{})
	wrapped := func(st *state) {
		op(st)
		close(finished)
	}
	select {
	case s.ops <- wrapped:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Begin issues a new fetch sequence number for driverFilter.
// Only the latest issued sequence may later Apply.
func (s *Store) Begin(ctx context.Context, driverFilter string) (uint64, error) {
	var seq uint64
	err := s.do(ctx, func(st *state) {
		st.issued++
		seq = st.issued
		st.driverFilter = driverFilter
	})
	return seq, err
}

// Apply replaces the queue with the result of fetch seq. Results of
// superseded fetches are dropped and reported as not applied. A failed
// fetch empties the queue and records its message.
func (s *Store) Apply(ctx context.Context, seq uint64, qs []types.DisplayQuery, fetchErr error) (applied bool, size int, err error) {
	err = s.do(ctx, func(st *state) {
		if seq != st.issued {
			return
		}
		applied = true
		st.applied = seq
		st.updatedAt = s.now()
		if fetchErr != nil {
			st.queries = nil
			st.err = message(fetchErr)
			return
		}
		st.queries = dedupe(qs)
		st.err = ""
		size = len(st.queries)
	})
	return applied, size, err
}

// Resolve removes the query with id. It reports whether one was removed
// and the queue size afterwards.
func (s *Store) Resolve(ctx context.Context, id string) (removed bool, size int, err error) {
	err = s.do(ctx, func(st *state) {
		for i, q := range st.queries {
			if q.ID == id {
				st.queries = append(st.queries[:i:i], st.queries[i+1:]...)
				removed = true
				break
			}
		}
		size = len(st.queries)
	})
	return removed, size, err
}

// Snapshot copies the current state.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	var out State
	err := s.do(ctx, func(st *state) {
		out = State{
			Queries:      append([]types.DisplayQuery(nil), st.queries...),
			Error:        st.err,
			DriverFilter: st.driverFilter,
			Loading:      st.applied != st.issued,
			UpdatedAt:    st.updatedAt,
		}
		if out.Queries == nil {
			out.Queries = []types.DisplayQuery{}
		}
	})
	return out, err
}

// dedupe drops records with an empty or repeated id, keeping the first.
func dedupe(qs []types.DisplayQuery) []types.DisplayQuery {
	seen := make(map[string]struct{}, len(qs))
	out := make([]types.DisplayQuery, 0, len(qs))
	for _, q := range qs {
		if q.ID == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// message is the text shown to the agent for a failed fetch.
func message(err error) string {
	var apiErr *queries.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
