package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"command-center-go/internal/assist"
	"command-center-go/internal/logger"
	"command-center-go/internal/mapper"
	"command-center-go/internal/metrics"
	"command-center-go/internal/queries"
	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

// Fetcher is the remote query source; *queries.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, driverID string) ([]types.RawQuery, error)
}

// View is what the queue screen renders.
type View struct {
	Queries      []types.DisplayQuery `json:"queries"`
	Visible      int                  `json:"visible"`
	Summary      triage.Summary       `json:"summary"`
	DriverFilter string               `json:"driverFilter,omitempty"`
	Loading      bool                 `json:"loading"`
	Error        string               `json:"error,omitempty"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// Detail is what the side panel renders for one query.
type Detail struct {
	Query  types.DisplayQuery `json:"query"`
	Assist assist.ActionCard  `json:"assist"`
}

type Service struct {
	store   *Store
	fetcher Fetcher
	log     *logger.Logger
	metrics *metrics.Metrics

	retryMaxElapsed    time.Duration
	riskScoreThreshold int
}

type Option func(*Service)

func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithRetry retries failed fetches with exponential backoff for up to maxElapsed.
// Zero disables retries.
func WithRetry(maxElapsed time.Duration) Option {
	return func(s *Service) { s.retryMaxElapsed = maxElapsed }
}

// WithRiskScoreThreshold gates the refund_risk view on riskScore when the
// selection does not set its own threshold.
func WithRiskScoreThreshold(score int) Option {
	return func(s *Service) { s.riskScoreThreshold = score }
}

func NewService(store *Store, fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		fetcher: fetcher,
		log:     logger.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	s.log = s.log.Component("dashboard")
	return s
}

// Refresh fetches the queue (optionally for one driver) and replaces the
// current collection. A failed fetch empties the queue; the error is also
// returned. applied is false when a newer refresh superseded this one.
func (s *Service) Refresh(ctx context.Context, driverFilter string) (applied bool, err error) {
	driverID := strings.TrimSpace(driverFilter)
	seq, err := s.store.Begin(ctx, driverID)
	if err != nil {
		return false, err
	}
	log := s.log.WithField("seq", seq).WithField("driver_id", driverID)

	start := time.Now()
	raws, fetchErr := s.fetch(ctx, driverID)
	s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	s.metrics.FetchTotal.WithLabelValues(outcome(fetchErr)).Inc()

	var mapped []types.DisplayQuery
	if fetchErr == nil {
		mapped = mapper.MapAll(raws)
	}

	// the issued sequence must settle even when the caller has gone away
	applied, size, err := s.store.Apply(context.WithoutCancel(ctx), seq, mapped, fetchErr)
	if err != nil {
		return false, err
	}
	if !applied {
		s.metrics.StaleDiscarded.Inc()
		log.Info("discarding superseded fetch result")
		return false, fetchErr
	}
	s.metrics.QueueSize.Set(float64(size))

	if fetchErr != nil {
		log.WithField("error", fetchErr.Error()).Warn("refresh failed; queue cleared")
		return true, fetchErr
	}
	log.WithField("count", size).WithField("duration_ms", time.Since(start).Milliseconds()).Info("queue refreshed")
	return true, nil
}

func (s *Service) fetch(ctx context.Context, driverID string) ([]types.RawQuery, error) {
	if s.retryMaxElapsed <= 0 {
		return s.fetcher.Fetch(ctx, driverID)
	}

	var out []types.RawQuery
	op := func() error {
		raws, err := s.fetcher.Fetch(ctx, driverID)
		if err != nil {
			var apiErr *queries.Error
			if errors.As(err, &apiErr) && apiErr.Permanent() {
				return backoff.Permanent(err)
			}
			s.log.WithField("error", err.Error()).Warn("fetch failed, retrying")
			return err
		}
		out = raws
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.retryMaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

// View filters the queue with sel; the summary covers the whole queue.
func (s *Service) View(ctx context.Context, sel triage.Selection) (View, error) {
	st, err := s.store.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	if sel.MinRiskScore == 0 {
		sel.MinRiskScore = s.riskScoreThreshold
	}
	visible := triage.Filter(st.Queries, sel)
	return View{
		Queries:      visible,
		Visible:      len(visible),
		Summary:      triage.Summarize(st.Queries),
		DriverFilter: st.DriverFilter,
		Loading:      st.Loading,
		Error:        st.Error,
		UpdatedAt:    st.UpdatedAt,
	}, nil
}

// Detail looks up one query and its assist card.
func (s *Service) Detail(ctx context.Context, id string) (Detail, bool, error) {
	st, err := s.store.Snapshot(ctx)
	if err != nil {
		return Detail{}, false, err
	}
	for _, q := range st.Queries {
		if q.ID == id {
			return Detail{Query: q, Assist: assist.Generate(q)}, true, nil
		}
	}
	return Detail{}, false, nil
}

// Resolve removes a query from the queue without refetching.
func (s *Service) Resolve(ctx context.Context, id string) (bool, error) {
	removed, size, err := s.store.Resolve(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.Resolved.Inc()
		s.metrics.QueueSize.Set(float64(size))
		s.log.WithField("query_id", id).Info("query resolved")
	}
	return removed, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, queries.ErrDecode):
		return metrics.OutcomeDecode
	case errors.Is(err, queries.ErrRequest):
		return metrics.OutcomeRequest
	case errors.Is(err, queries.ErrShape):
		return metrics.OutcomeShape
	default:
		return metrics.OutcomeOther
	}
}
