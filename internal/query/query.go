package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date format used by forms, the provider and exports.
const DateLayout = "2006-01-02"

// MaxKeywords is the number of terms the provider can compare in one request.
const MaxKeywords = 5

// Date modes accepted in Input.Mode.
const (
	ModePreset = "preset"
	ModeCustom = "custom"
)

var (
	ErrNoKeywords       = errors.New("enter at least one valid product")
	ErrTooManyKeywords  = fmt.Errorf("at most %d products can be compared at once", MaxKeywords)
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidDate      = errors.New("invalid date")
	ErrUnknownRegion    = errors.New("unknown region")
	ErrUnknownPreset    = errors.New("unknown date preset")
)

// ValidationError ties an input error to the form field that caused it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Input holds raw values as submitted by a form, the JSON API or the CLI.
type Input struct {
	Region   string `json:"region"`
	Mode     string `json:"mode"`
	Preset   string `json:"preset"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Keywords string `json:"keywords"`
}

// Range is a closed date interval.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Timeframe renders the range in the provider's "start end" form.
func (r Range) Timeframe() string {
	return r.Start.Format(DateLayout) + " " + r.End.Format(DateLayout)
}

// Query is a validated request ready to be fetched.
type Query struct {
	Keywords []string `json:"keywords"`
	Region   Region   `json:"region"`
	Range    Range    `json:"range"`
}

// ParseKeywords splits comma-separated text, trimming entries and dropping
// blanks. Order and duplicates are preserved.
func ParseKeywords(text string) []string {
	parts := strings.Split(text, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Build validates in and resolves it against now. Nothing is fetched when it
// returns an error.
func Build(in Input, now time.Time) (Query, error) {
	var q Query

	region, err := LookupRegion(in.Region)
	if err != nil {
		return q, &ValidationError{Field: "region", Err: err}
	}
	q.Region = region

	switch in.Mode {
	case ModeCustom:
		r, err := parseCustomRange(in.Start, in.End)
		if err != nil {
			return q, err
		}
		q.Range = r
	case ModePreset, "":
		preset, err := LookupPreset(in.Preset)
		if err != nil {
			return q, &ValidationError{Field: "preset", Err: err}
		}
		q.Range = preset.Range(now)
	default:
		return q, &ValidationError{Field: "mode", Err: fmt.Errorf("unknown date mode %q", in.Mode)}
	}

	q.Keywords = ParseKeywords(in.Keywords)
	if len(q.Keywords) == 0 {
		return q, &ValidationError{Field: "keywords", Err: ErrNoKeywords}
	}
	if len(q.Keywords) > MaxKeywords {
		return q, &ValidationError{Field: "keywords", Err: ErrTooManyKeywords}
	}

	return q, nil
}

func parseCustomRange(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return Range{}, &ValidationError{Field: "start", Err: fmt.Errorf("%w %q", ErrInvalidDate, start)}
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return Range{}, &ValidationError{Field: "end", Err: fmt.Errorf("%w %q", ErrInvalidDate, end)}
	}
	if !s.Before(e) {
		return Range{}, &ValidationError{Field: "start", Err: ErrInvalidDateRange}
	}
	return Range{Start: s, End: e}, nil
}
