package watchlist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pep299/trends-dashboard/internal/archive"
	"github.com/pep299/trends-dashboard/internal/cache"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/slack"
	"github.com/pep299/trends-dashboard/internal/trend"
)

type stubFetcher struct {
	err error
}

func (f stubFetcher) Fetch(ctx context.Context, q query.Query) (*trend.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	start := q.Range.Start
	series := make([][]float64, len(q.Keywords))
	for k := range series {
		series[k] = []float64{float64(10 * (k + 1)), float64(50 - 10*k)}
	}
	return trend.NewTable([]time.Time{start, start.AddDate(0, 0, 7)}, q.Keywords, series, nil)
}

type memoryStore struct {
	objects map[string][]byte
	fail    bool
}

func (m *memoryStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if m.fail {
		return "", errors.New("bucket unavailable")
	}
	m.objects[name] = data
	return "mem://" + name, nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]archive.Object, error) {
	var objects []archive.Object
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			objects = append(objects, archive.Object{Name: name})
		}
	}
	return objects, nil
}

func (m *memoryStore) Close() error { return nil }

type recordingNotifier struct {
	reports []slack.TrendReport
	err     error
}

func (n *recordingNotifier) SendTrendSummary(ctx context.Context, report slack.TrendReport) error {
	n.reports = append(n.reports, report)
	return n.err
}

func newAnalyzer(f service.Fetcher) *service.Service {
	return service.New(f, cache.NewManagerWith(cache.NewMemoryCache(time.Hour), cache.TypeMemory), service.Options{})
}

var phones = Watchlist{
	Name:     "celulares",
	Region:   "CL",
	Preset:   "last-4-weeks",
	Keywords: []string{"iPhone 14", "Nokia 3310"},
	Schedule: "0 9 * * 1",
	Enabled:  true,
}

func TestRun(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	notifier := &recordingNotifier{}
	runner := NewRunner(newAnalyzer(stubFetcher{}), store, notifier, []Watchlist{phones})

	report, err := runner.Run(context.Background(), "celulares")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Files) != 3 {
		t.Fatalf("Expected 3 archived files, got %v", report.Files)
	}
	for _, f := range report.Files {
		if !strings.HasPrefix(f, "mem://celulares/") {
			t.Errorf("Unexpected archive location '%s'", f)
		}
	}
	if report.Summary.TopRiser.Keyword != "iPhone 14" {
		t.Errorf("Expected iPhone 14 as top riser, got %s", report.Summary.TopRiser.Keyword)
	}
	if !report.Notified || len(notifier.reports) != 1 {
		t.Fatalf("Expected one notification, got %d", len(notifier.reports))
	}
	if notifier.reports[0].Region != query.RegionChile {
		t.Errorf("Expected region CL, got %s", notifier.reports[0].Region)
	}
}

func TestRunWithoutArchiveOrNotifier(t *testing.T) {
	lists := []Watchlist{{Name: "csv-only", Keywords: []string{"a"}, Formats: []string{"csv"}}}
	runner := NewRunner(newAnalyzer(stubFetcher{}), nil, nil, lists)

	report, err := runner.Run(context.Background(), "csv-only")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Files) != 0 || report.Notified {
		t.Errorf("Expected no files and no notification, got %+v", report)
	}
}

func TestRunToleratesSideEffectFailures(t *testing.T) {
	store := &memoryStore{fail: true}
	notifier := &recordingNotifier{err: errors.New("slack down")}
	runner := NewRunner(newAnalyzer(stubFetcher{}), store, notifier, []Watchlist{phones})

	report, err := runner.Run(context.Background(), "celulares")
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}
	if len(report.Files) != 0 || report.Notified {
		t.Errorf("Expected no files and failed notification, got %+v", report)
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	runner := NewRunner(newAnalyzer(stubFetcher{}), nil, nil, []Watchlist{phones})
	if _, err := runner.Run(ctx, "missing"); !errors.Is(err, ErrUnknownWatchlist) {
		t.Errorf("Expected ErrUnknownWatchlist, got %v", err)
	}

	bad := phones
	bad.Formats = []string{"pdf"}
	runner = NewRunner(newAnalyzer(stubFetcher{}), nil, nil, []Watchlist{bad})
	if _, err := runner.Run(ctx, "celulares"); err == nil {
		t.Error("Expected error for unknown format")
	}

	runner = NewRunner(newAnalyzer(stubFetcher{err: errors.New("offline")}), nil, nil, []Watchlist{phones})
	if _, err := runner.Run(ctx, "celulares"); err == nil {
		t.Error("Expected fetch error to fail the run")
	}
}

func TestSchedule(t *testing.T) {
	disabled := phones
	disabled.Name = "disabled"
	disabled.Enabled = false

	invalid := phones
	invalid.Name = "invalid"
	invalid.Schedule = "every tuesday"

	runner := NewRunner(newAnalyzer(stubFetcher{}), nil, nil, []Watchlist{phones, disabled, invalid})
	c := cron.New()

	n, err := Schedule(context.Background(), c, runner)
	if n != 1 {
		t.Errorf("Expected 1 scheduled watchlist, got %d", n)
	}
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Errorf("Expected error mentioning the invalid watchlist, got %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("Expected 1 cron entry, got %d", len(c.Entries()))
	}
}

func TestLists(t *testing.T) {
	runner := NewRunner(nil, nil, nil, []Watchlist{{Name: "b"}, {Name: "a"}})
	lists := runner.Lists()
	if len(lists) != 2 || lists[0].Name != "a" {
		t.Errorf("Expected sorted lists, got %+v", lists)
	}
}
