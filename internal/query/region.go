package query

import (
	"fmt"
	"strings"
	"time"
)

// Region is a country-level geographic scope understood by the provider.
type Region string

const (
	RegionChile        Region = "CL"
	RegionArgentina    Region = "AR"
	RegionUnitedStates Region = "US"
	RegionSpain        Region = "ES"
	RegionMexico       Region = "MX"
)

// DefaultRegion is preselected in the dashboard.
const DefaultRegion = RegionChile

var regionNames = map[Region]string{
	RegionChile:        "Chile",
	RegionArgentina:    "Argentina",
	RegionUnitedStates: "Estados Unidos",
	RegionSpain:        "España",
	RegionMexico:       "México",
}

// Regions returns the selectable regions in display order.
func Regions() []Region {
	return []Region{RegionChile, RegionArgentina, RegionUnitedStates, RegionSpain, RegionMexico}
}

// Name returns the display name of the region.
func (r Region) Name() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return string(r)
}

// LookupRegion accepts a region code in any case. Empty selects DefaultRegion.
func LookupRegion(code string) (Region, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultRegion, nil
	}
	r := Region(code)
	if _, ok := regionNames[r]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownRegion, code)
	}
	return r, nil
}

// Preset is a named date range ending today.
type Preset string

const (
	PresetLastWeek    Preset = "last-week"
	PresetLast4Weeks  Preset = "last-4-weeks"
	PresetLast3Months Preset = "last-3-months"
	PresetLastYear    Preset = "last-year"
)

// DefaultPreset is preselected in the dashboard.
const DefaultPreset = PresetLastWeek

var presetLabels = map[Preset]string{
	PresetLastWeek:    "Última semana",
	PresetLast4Weeks:  "Últimas 4 semanas",
	PresetLast3Months: "Últimos 3 meses",
	PresetLastYear:    "Último año",
}

// Presets returns the presets in display order.
func Presets() []Preset {
	return []Preset{PresetLastWeek, PresetLast4Weeks, PresetLast3Months, PresetLastYear}
}

// Label returns the dashboard label of the preset.
func (p Preset) Label() string {
	if label, ok := presetLabels[p]; ok {
		return label
	}
	return string(p)
}

// LookupPreset resolves a preset name. Empty selects DefaultPreset.
func LookupPreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultPreset, nil
	}
	p := Preset(name)
	if _, ok := presetLabels[p]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Range resolves the preset to dates ending at now's calendar day.
// Months and years are calendar offsets clamped to the end of the target
// month (May 31 minus three months is Feb 29 or 28); weeks are day counts.
func (p Preset) Range(now time.Time) Range {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var start time.Time
	switch p {
	case PresetLast4Weeks:
		start = end.AddDate(0, 0, -28)
	case PresetLast3Months:
		start = addMonths(end, -3)
	case PresetLastYear:
		start = addMonths(end, -12)
	default:
		start = end.AddDate(0, 0, -7)
	}
	return Range{Start: start, End: end}
}

func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}
