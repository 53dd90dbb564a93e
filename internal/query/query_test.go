package query

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2024, 5, 31, 15, 4, 5, 0, time.UTC)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"  ,  , ", []string{}},
		{"iPhone 14", []string{"iPhone 14"}},
		{"iPhone 14, Samsung Galaxy S23 ,Nokia 3310", []string{"iPhone 14", "Samsung Galaxy S23", "Nokia 3310"}},
		{"a,,b", []string{"a", "b"}},
		{"a, a", []string{"a", "a"}},
	}

	for _, test := range tests {
		result := ParseKeywords(test.input)
		if len(result) != len(test.expected) {
			t.Errorf("For input '%s', expected length %d, got %d", test.input, len(test.expected), len(result))
			continue
		}
		for i, expected := range test.expected {
			if result[i] != expected {
				t.Errorf("For input '%s', expected[%d] = '%s', got '%s'", test.input, i, expected, result[i])
			}
		}
	}
}

func TestBuildPreset(t *testing.T) {
	tests := []struct {
		preset string
		start  string
	}{
		{"", "2024-05-24"},
		{"last-week", "2024-05-24"},
		{"last-4-weeks", "2024-05-03"},
		{"last-3-months", "2024-02-29"},
		{"last-year", "2023-05-31"},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			q, err := Build(Input{Region: "ar", Preset: tt.preset, Keywords: "a, b"}, now)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if q.Region != RegionArgentina {
				t.Errorf("Expected region AR, got %s", q.Region)
			}
			if got := q.Range.Start.Format(DateLayout); got != tt.start {
				t.Errorf("Expected start %s, got %s", tt.start, got)
			}
			if got := q.Range.End.Format(DateLayout); got != "2024-05-31" {
				t.Errorf("Expected end 2024-05-31, got %s", got)
			}
		})
	}
}

func TestBuildCustomRange(t *testing.T) {
	q, err := Build(Input{Mode: ModeCustom, Start: "2023-01-01", End: "2024-01-01", Keywords: "x"}, now)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if q.Region != DefaultRegion {
		t.Errorf("Expected default region %s, got %s", DefaultRegion, q.Region)
	}
	if got := q.Range.Timeframe(); got != "2023-01-01 2024-01-01" {
		t.Errorf("Expected timeframe '2023-01-01 2024-01-01', got '%s'", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		err   error
		field string
	}{
		{"no keywords", Input{Keywords: " , "}, ErrNoKeywords, "keywords"},
		{"too many keywords", Input{Keywords: "a,b,c,d,e,f"}, ErrTooManyKeywords, "keywords"},
		{"start equals end", Input{Mode: ModeCustom, Start: "2024-01-01", End: "2024-01-01", Keywords: "a"}, ErrInvalidDateRange, "start"},
		{"start after end", Input{Mode: ModeCustom, Start: "2024-02-01", End: "2024-01-01", Keywords: "a"}, ErrInvalidDateRange, "start"},
		{"bad start", Input{Mode: ModeCustom, Start: "01/02/2024", End: "2024-01-01", Keywords: "a"}, ErrInvalidDate, "start"},
		{"bad end", Input{Mode: ModeCustom, Start: "2024-01-01", End: "", Keywords: "a"}, ErrInvalidDate, "end"},
		{"unknown region", Input{Region: "BR", Keywords: "a"}, ErrUnknownRegion, "region"},
		{"unknown preset", Input{Preset: "last-decade", Keywords: "a"}, ErrUnknownPreset, "preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.input, now)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected %v, got %v", tt.err, err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field '%s', got '%s'", tt.field, vErr.Field)
			}
		})
	}
}

func TestRegionsAndPresets(t *testing.T) {
	if len(Regions()) != 5 {
		t.Errorf("Expected 5 regions, got %d", len(Regions()))
	}
	if RegionSpain.Name() != "España" {
		t.Errorf("Expected 'España', got '%s'", RegionSpain.Name())
	}
	if PresetLast3Months.Label() != "Últimos 3 meses" {
		t.Errorf("Expected 'Últimos 3 meses', got '%s'", PresetLast3Months.Label())
	}
	if _, err := LookupRegion("mx"); err != nil {
		t.Errorf("Expected lowercase region code to resolve, got %v", err)
	}
}
