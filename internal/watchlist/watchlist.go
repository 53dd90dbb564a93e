package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/archive"
	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/slack"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// ErrUnknownWatchlist is returned by Run for names not configured.
var ErrUnknownWatchlist = errors.New("unknown watchlist")

// Watchlist is a saved query analyzed on a cron schedule.
type Watchlist struct {
	Name     string   `json:"name"`
	Region   string   `json:"region"`
	Preset   string   `json:"preset"`
	Keywords []string `json:"keywords"`
	Schedule string   `json:"schedule"`
	Enabled  bool     `json:"enabled"`
	Formats  []string `json:"formats,omitempty"`
}

// Input converts the watchlist to the form the analyzer validates.
func (w Watchlist) Input() query.Input {
	return query.Input{
		Region:   w.Region,
		Mode:     query.ModePreset,
		Preset:   w.Preset,
		Keywords: strings.Join(w.Keywords, ", "),
	}
}

// Kinds returns the export formats, defaulting to every supported one.
func (w Watchlist) Kinds() ([]export.Kind, error) {
	if len(w.Formats) == 0 {
		return export.Kinds(), nil
	}
	kinds := make([]export.Kind, 0, len(w.Formats))
	for _, f := range w.Formats {
		k, err := export.ParseKind(f)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Analyzer is the part of the service a run needs.
type Analyzer interface {
	Analyze(ctx context.Context, prev session.State, in query.Input) (session.State, error)
	Export(state session.State, kind export.Kind) (*service.Artifact, error)
}

// Notifier announces finished runs.
type Notifier interface {
	SendTrendSummary(ctx context.Context, report slack.TrendReport) error
}

// Report is the outcome of one run.
type Report struct {
	Name     string         `json:"name"`
	Query    *query.Query   `json:"query"`
	Summary  *trend.Summary `json:"summary"`
	Files    []string       `json:"files"`
	Notified bool           `json:"notified"`
	RanAt    time.Time      `json:"ran_at"`
}

// Runner analyzes, exports, archives and announces watchlists.
type Runner struct {
	analyzer Analyzer
	store    archive.Store
	notifier Notifier
	lists    map[string]Watchlist
	now      func() time.Time
}

// NewRunner creates a runner. store and notifier may be nil.
func NewRunner(analyzer Analyzer, store archive.Store, notifier Notifier, lists []Watchlist) *Runner {
	if store == nil {
		store = archive.Noop{}
	}
	byName := make(map[string]Watchlist, len(lists))
	for _, w := range lists {
		byName[w.Name] = w
	}
	return &Runner{
		analyzer: analyzer,
		store:    store,
		notifier: notifier,
		lists:    byName,
		now:      time.Now,
	}
}

// Lists returns the configured watchlists sorted by name.
func (r *Runner) Lists() []Watchlist {
	lists := make([]Watchlist, 0, len(r.lists))
	for _, w := range r.lists {
		lists = append(lists, w)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists
}

// Run analyzes the named watchlist from a fresh state, archives its exports
// and posts the summary. Archive and notification failures are logged and
// do not fail the run.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	w, ok := r.lists[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWatchlist, name)
	}
	kinds, err := w.Kinds()
	if err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", name, err)
	}

	state, err := r.analyzer.Analyze(ctx, session.New(), w.Input())
	if err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", name, err)
	}

	report := &Report{
		Name:    name,
		Query:   state.Query,
		Summary: state.Summary,
		Files:   []string{},
		RanAt:   r.now(),
	}

	for _, kind := range kinds {
		artifact, err := r.analyzer.Export(state, kind)
		if err != nil {
			return nil, fmt.Errorf("watchlist %s: %w", name, err)
		}
		location, err := r.store.Put(ctx, archive.ObjectName(name, report.RanAt, artifact.FileName), artifact.ContentType, artifact.Data)
		if errors.Is(err, archive.ErrDisabled) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Str("watchlist", name).Str("file", artifact.FileName).Msg("Failed to archive export")
			continue
		}
		report.Files = append(report.Files, location)
	}

	if r.notifier != nil {
		err := r.notifier.SendTrendSummary(ctx, slack.TrendReport{
			Name:        name,
			Region:      state.Query.Region,
			Range:       state.Query.Range,
			Keywords:    state.Query.Keywords,
			Summary:     state.Summary,
			Files:       report.Files,
			GeneratedAt: report.RanAt,
		})
		if err != nil {
			log.Warn().Err(err).Str("watchlist", name).Msg("Failed to send Slack notification")
		} else {
			report.Notified = true
		}
	}

	return report, nil
}

// Schedule registers every enabled watchlist on c. Lists with invalid cron
// expressions are skipped and reported in the returned error.
func Schedule(ctx context.Context, c *cron.Cron, r *Runner) (int, error) {
	var errs []error
	scheduled := 0

	for _, w := range r.Lists() {
		if !w.Enabled {
			log.Info().Str("watchlist", w.Name).Msg("Skipping disabled watchlist")
			continue
		}

		name := w.Name
		_, err := c.AddFunc(w.Schedule, func() {
			log.Info().Str("watchlist", name).Msg("Scheduled watchlist run starting")
			report, err := r.Run(ctx, name)
			if err != nil {
				log.Error().Err(err).Str("watchlist", name).Msg("Scheduled watchlist run failed")
				return
			}
			log.Info().Str("watchlist", name).Int("files", len(report.Files)).Msg("Scheduled watchlist run completed")
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("scheduling %s (%q): %w", name, w.Schedule, err))
			continue
		}

		scheduled++
		log.Info().Str("watchlist", name).Str("schedule", w.Schedule).Msg("Scheduled watchlist")
	}

	return scheduled, errors.Join(errs...)
}
