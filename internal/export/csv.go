package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pep299/trends-dashboard/internal/trend"
)

const csvDateHeader = "date"

// WriteCSV writes the table with a "date" column followed by one column per
// keyword in table order.
func WriteCSV(w io.Writer, t *trend.Table) error {
	if t.Empty() {
		return ErrEmptyTable
	}

	cw := csv.NewWriter(w)
	header := append([]string{csvDateHeader}, t.Keywords...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	layout := indexLayout(t)
	record := make([]string, len(header))
	for i, ts := range t.Index {
		record[0] = ts.UTC().Format(layout)
		for k := range t.Keywords {
			record[k+1] = strconv.FormatFloat(t.Series[k][i], 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*trend.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading csv: missing header")
	}
	return parseRows(records[0][1:], records[1:], "")
}

// parseRows converts string rows (date first, then one score per keyword)
// into a table. prefix is stripped from keyword headers when present.
func parseRows(header []string, rows [][]string, prefix string) (*trend.Table, error) {
	keywords := make([]string, len(header))
	for k, h := range header {
		keywords[k] = strings.TrimPrefix(h, prefix)
	}

	index := make([]time.Time, 0, len(rows))
	series := make([][]float64, len(keywords))
	for n, row := range rows {
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		if len(row) != len(keywords)+1 {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", n+1, len(keywords)+1, len(row))
		}
		ts, err := parseIndex(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		index = append(index, ts)
		for k := range keywords {
			v, err := strconv.ParseFloat(row[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", n+1, keywords[k], err)
			}
			series[k] = append(series[k], v)
		}
	}
	for k := range series {
		if series[k] == nil {
			series[k] = []float64{}
		}
	}

	return trend.NewTable(index, keywords, series, nil)
}
