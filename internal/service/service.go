package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/cache"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// Fetcher retrieves interest-over-time tables.
type Fetcher interface {
	Fetch(ctx context.Context, q query.Query) (*trend.Table, error)
}

// Options tunes the analysis pipeline.
type Options struct {
	// DropPartialRows removes trailing points the provider still revises
	// before summarizing.
	DropPartialRows bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Service runs the validate, fetch, summarize pipeline over session states.
type Service struct {
	fetcher     Fetcher
	cache       *cache.Manager
	dropPartial bool
	now         func() time.Time
}

// New creates a service. A nil cache manager disables caching.
func New(fetcher Fetcher, cacheManager *cache.Manager, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		fetcher:     fetcher,
		cache:       cacheManager,
		dropPartial: opts.DropPartialRows,
		now:         now,
	}
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Analyze validates in, fetches the table and summarizes it. On success the
// returned state replaces prev. On failure it is prev with the submitted input
// and an inline error message, so the last good table stays visible.
func (s *Service) Analyze(ctx context.Context, prev session.State, in query.Input) (session.State, error) {
	q, table, summary, err := s.run(ctx, in)
	if err != nil {
		next := prev
		next.Input = in
		next.Error = Message(err)
		next.UpdatedAt = s.now()
		return next, err
	}

	return session.State{
		ID:        prev.ID,
		Input:     in,
		Query:     &q,
		Table:     table,
		Summary:   summary,
		UpdatedAt: s.now(),
	}, nil
}

func (s *Service) run(ctx context.Context, in query.Input) (query.Query, *trend.Table, *trend.Summary, error) {
	q, err := query.Build(in, s.now())
	if err != nil {
		return q, nil, nil, err
	}

	table, err := s.fetch(ctx, q)
	if err != nil {
		return q, nil, nil, err
	}

	if s.dropPartial {
		table = table.WithoutPartial()
	}
	if !table.HasData() {
		return q, nil, nil, trend.ErrNoData
	}

	summary, err := trend.Summarize(table)
	if err != nil {
		return q, nil, nil, err
	}
	return q, table, summary, nil
}

func (s *Service) fetch(ctx context.Context, q query.Query) (*trend.Table, error) {
	table, err := s.cache.GetTable(ctx, q)
	if err == nil {
		log.Debug().Str("key", cache.GenerateKey(q)).Msg("Trends cache hit")
		return table, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Msg("Trends cache lookup failed")
	}

	start := time.Now()
	table, err = s.fetcher.Fetch(ctx, q)
	if err != nil {
		log.Error().Err(err).
			Str("region", string(q.Region)).
			Strs("keywords", q.Keywords).
			Msg("Failed to fetch trends")
		return nil, err
	}
	log.Info().
		Str("region", string(q.Region)).
		Str("timeframe", q.Range.Timeframe()).
		Strs("keywords", q.Keywords).
		Int("points", table.Len()).
		Dur("latency", time.Since(start)).
		Msg("Fetched trends")

	// Empty results are cached as well.
	if err := s.cache.SetTable(ctx, q, table); err != nil {
		log.Warn().Err(err).Msg("Failed to cache trends table")
	}
	return table, nil
}

// Reload drops the held table and summary, keeping the form input.
func (s *Service) Reload(prev session.State) session.State {
	return session.State{
		ID:        prev.ID,
		Input:     prev.Input,
		UpdatedAt: s.now(),
	}
}
