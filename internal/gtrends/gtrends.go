package gtrends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

const (
	DefaultBaseURL  = "https://trends.google.com"
	DefaultLanguage = "es-CL"
	DefaultTZOffset = 360

	explorePath   = "/trends/api/explore"
	multilinePath = "/trends/api/widgetdata/multiline"

	timeseriesWidget = "TIMESERIES"
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL           string
	Language          string
	TZOffset          int
	Timeout           time.Duration
	RequestsPerMinute int
	UserAgent         string
}

// Client fetches interest-over-time tables from Google Trends.
type Client struct {
	client   *resty.Client
	language string
	tz       string
	limiter  *rate.Limiter
	warmUp   sync.Once
}

// NewClient creates a new Google Trends client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": opts.Language,
			"User-Agent":      opts.UserAgent,
		})

	return &Client{
		client:   client,
		language: opts.Language,
		tz:       strconv.Itoa(opts.TZOffset),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

type timelinePoint struct {
	Time      string    `json:"time"`
	Value     []float64 `json:"value"`
	IsPartial bool      `json:"isPartial"`
}

// Fetch returns the interest-over-time table for q, one column per keyword
// in q's order. An empty timeline yields an empty table and no error; only
// transport and protocol failures are returned as errors.
func (c *Client) Fetch(ctx context.Context, q query.Query) (*trend.Table, error) {
	c.warmUp.Do(func() { c.fetchCookies(ctx, q.Region) })

	w, err := c.explore(ctx, q)
	if err != nil {
		return nil, err
	}

	points, err := c.timeline(ctx, w)
	if err != nil {
		return nil, err
	}

	table, err := buildTable(q.Keywords, points)
	if err != nil {
		return nil, &ProviderError{Op: "multiline", Err: err}
	}

	log.Debug().
		Str("region", string(q.Region)).
		Str("timeframe", q.Range.Timeframe()).
		Strs("keywords", q.Keywords).
		Int("points", table.Len()).
		Msg("Fetched trends timeline")

	return table, nil
}

// fetchCookies visits the landing page once so the provider sets the session
// cookies it expects on API calls. Failures only show up later as API errors.
func (c *Client) fetchCookies(ctx context.Context, region query.Region) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("geo", string(region)).
		Get("/trends/")
	if err != nil {
		log.Debug().Err(err).Msg("Trends cookie request failed")
		return
	}
	log.Debug().Int("status", resp.StatusCode()).Msg("Trends cookie request done")
}

func (c *Client) explore(ctx context.Context, q query.Query) (*widget, error) {
	req := exploreRequest{ComparisonItem: make([]comparisonItem, len(q.Keywords))}
	for i, kw := range q.Keywords {
		req.ComparisonItem[i] = comparisonItem{Keyword: kw, Geo: string(q.Region), Time: q.Range.Timeframe()}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling explore request: %w", err)
	}

	body, err := c.get(ctx, "explore", explorePath, map[string]string{"req": string(payload)})
	if err != nil {
		return nil, err
	}

	var explored exploreResponse
	if err := decodeGuarded(body, &explored); err != nil {
		return nil, &ProviderError{Op: "explore", Err: err}
	}

	for i := range explored.Widgets {
		if explored.Widgets[i].ID == timeseriesWidget {
			return &explored.Widgets[i], nil
		}
	}
	return nil, &ProviderError{Op: "explore", Err: ErrNoTimeseriesWidget}
}

func (c *Client) timeline(ctx context.Context, w *widget) ([]timelinePoint, error) {
	body, err := c.get(ctx, "multiline", multilinePath, map[string]string{
		"req":   string(w.Request),
		"token": w.Token,
	})
	if err != nil {
		return nil, err
	}

	var multiline multilineResponse
	if err := decodeGuarded(body, &multiline); err != nil {
		return nil, &ProviderError{Op: "multiline", Err: err}
	}
	return multiline.Default.TimelineData, nil
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("hl", c.language).
		SetQueryParam("tz", c.tz).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode(), Err: ErrRateLimited}
	case !resp.IsSuccess():
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("unexpected status: %s", snippet(resp.Body()))}
	}
	return resp.Body(), nil
}

// decodeGuarded strips the anti-JSON-hijacking prefix (")]}'" or ")]}',")
// before decoding.
func decodeGuarded(body []byte, v any) error {
	start := bytes.IndexByte(body, '{')
	if start == -1 {
		return fmt.Errorf("no JSON object in response: %s", snippet(body))
	}
	if err := json.Unmarshal(body[start:], v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func buildTable(keywords []string, points []timelinePoint) (*trend.Table, error) {
	index := make([]time.Time, len(points))
	partial := make([]bool, len(points))
	series := make([][]float64, len(keywords))
	for k := range series {
		series[k] = make([]float64, len(points))
	}

	for i, p := range points {
		sec, err := strconv.ParseInt(p.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", p.Time, err)
		}
		if len(p.Value) != len(keywords) {
			return nil, fmt.Errorf("point %d has %d values for %d keywords", i, len(p.Value), len(keywords))
		}
		index[i] = time.Unix(sec, 0).UTC()
		partial[i] = p.IsPartial
		for k, v := range p.Value {
			series[k][i] = v
		}
	}

	return trend.NewTable(index, keywords, series, partial)
}

func snippet(b []byte) string {
	s := string(bytes.TrimSpace(b))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}
