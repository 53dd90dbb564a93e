package trend

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MinScore and MaxScore bound the relative interest scale used by the provider.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Table is a time-indexed set of interest scores, one column per keyword.
// Build it with NewTable; the zero value is an empty table.
type Table struct {
	Index    []time.Time `json:"index"`
	Keywords []string    `json:"keywords"`
	Series   [][]float64 `json:"series"`
	Partial  []bool      `json:"partial,omitempty"`
}

// NewTable validates the columns and returns a table owning copies of them.
// A table with no keywords or no time points is structurally valid.
func NewTable(index []time.Time, keywords []string, series [][]float64, partial []bool) (*Table, error) {
	if len(series) != len(keywords) {
		return nil, invariantf("got %d series for %d keywords", len(series), len(keywords))
	}
	if len(partial) != 0 && len(partial) != len(index) {
		return nil, invariantf("got %d partial flags for %d time points", len(partial), len(index))
	}

	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return nil, invariantf("index not strictly ascending at position %d (%s after %s)",
				i, index[i].Format(time.RFC3339), index[i-1].Format(time.RFC3339))
		}
	}

	t := &Table{
		Index:    append([]time.Time(nil), index...),
		Keywords: make([]string, len(keywords)),
		Series:   make([][]float64, len(series)),
	}
	if len(partial) > 0 {
		t.Partial = append([]bool(nil), partial...)
	}

	for k, kw := range keywords {
		if kw != strings.TrimSpace(kw) || kw == "" {
			return nil, invariantf("keyword %d (%q) must be trimmed and non-empty", k, kw)
		}
		if len(series[k]) != len(index) {
			return nil, invariantf("keyword %q has %d scores for %d time points", kw, len(series[k]), len(index))
		}
		for i, v := range series[k] {
			if math.IsNaN(v) || v < MinScore || v > MaxScore {
				return nil, invariantf("keyword %q score %v at position %d outside [%g, %g]", kw, v, i, MinScore, MaxScore)
			}
		}
		t.Keywords[k] = kw
		t.Series[k] = append([]float64(nil), series[k]...)
	}

	return t, nil
}

// Len returns the number of time points.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// Empty reports whether the table has no keywords or no time points.
func (t *Table) Empty() bool {
	return t == nil || len(t.Keywords) == 0 || len(t.Index) == 0
}

// Column returns the scores of the first column named keyword.
func (t *Table) Column(keyword string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	for k, kw := range t.Keywords {
		if kw == keyword {
			return t.Series[k], true
		}
	}
	return nil, false
}

// Total sums every score in the table.
func (t *Table) Total() float64 {
	if t == nil {
		return 0
	}
	var sum float64
	for _, col := range t.Series {
		for _, v := range col {
			sum += v
		}
	}
	return sum
}

// HasData reports whether the table holds at least one non-zero score.
// The provider answers unknown terms with all-zero columns, which callers
// treat the same as an empty result.
func (t *Table) HasData() bool {
	return !t.Empty() && t.Total() > 0
}

// IsPartial reports whether row i is flagged as still being revised upstream.
func (t *Table) IsPartial(i int) bool {
	return i >= 0 && i < len(t.Partial) && t.Partial[i]
}

// WithoutPartial returns a new table without the rows flagged partial.
// The receiver is left untouched.
func (t *Table) WithoutPartial() *Table {
	keep := make([]int, 0, len(t.Index))
	for i := range t.Index {
		if !t.IsPartial(i) {
			keep = append(keep, i)
		}
	}

	out := &Table{
		Index:    make([]time.Time, 0, len(keep)),
		Keywords: append([]string(nil), t.Keywords...),
		Series:   make([][]float64, len(t.Series)),
	}
	for _, i := range keep {
		out.Index = append(out.Index, t.Index[i])
	}
	for k, col := range t.Series {
		out.Series[k] = make([]float64, 0, len(keep))
		for _, i := range keep {
			out.Series[k] = append(out.Series[k], col[i])
		}
	}
	return out
}

// Validate re-checks the construction invariants, e.g. after decoding JSON.
func (t *Table) Validate() error {
	if t == nil {
		return invariantf("nil table")
	}
	_, err := NewTable(t.Index, t.Keywords, t.Series, t.Partial)
	return err
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
