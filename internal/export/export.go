package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// Kind is a downloadable artifact format.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindPNG  Kind = "png"
)

// ErrEmptyTable is returned when asked to export a table with nothing in it.
var ErrEmptyTable = errors.New("nothing to export: table is empty")

// ErrUnknownKind is returned by ParseKind for unsupported formats.
var ErrUnknownKind = errors.New("unknown export format")

// Kinds returns the supported formats in display order.
func Kinds() []Kind {
	return []Kind{KindCSV, KindXLSX, KindPNG}
}

// ParseKind resolves a format name such as "xlsx" or "PNG".
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindCSV, KindXLSX, KindPNG:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// ContentType returns the MIME type served for the format.
func (k Kind) ContentType() string {
	switch k {
	case KindCSV:
		return "text/csv; charset=utf-8"
	case KindXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// FileName builds the download name, e.g. tendencias_CL_2024-05-31.xlsx or
// grafico_CL_2024-05-31.png.
func FileName(kind Kind, region query.Region, date time.Time) string {
	prefix := "tendencias"
	if kind == KindPNG {
		prefix = "grafico"
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, region, date.Format(query.DateLayout), kind)
}

// HourLayout renders sub-daily time points.
const HourLayout = "2006-01-02 15:04"

// indexLayout keeps dates short for daily tables and adds the time of day
// when any point falls off midnight UTC, so hourly rows stay distinct.
func indexLayout(t *trend.Table) string {
	for _, ts := range t.Index {
		u := ts.UTC()
		if u.Hour() != 0 || u.Minute() != 0 || u.Second() != 0 {
			return HourLayout
		}
	}
	return query.DateLayout
}

// parseIndex accepts both layouts written by indexLayout.
func parseIndex(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(query.DateLayout, s); err == nil {
		return ts, nil
	}
	return time.Parse(HourLayout, s)
}
