package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

func sampleTable(t *testing.T) *trend.Table {
	t.Helper()
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	index := []time.Time{start, start.AddDate(0, 0, 7), start.AddDate(0, 0, 14)}
	table, err := trend.NewTable(index,
		[]string{"iPhone 14", "Nokia 3310"},
		[][]float64{{10, 12.5, 30}, {50, 45, 0}},
		nil)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func hourlyTable(t *testing.T) *trend.Table {
	t.Helper()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	index := []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)}
	table, err := trend.NewTable(index, []string{"A"}, [][]float64{{10, 20, 30}}, nil)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func assertSameTable(t *testing.T, expected, got *trend.Table) {
	t.Helper()
	if len(got.Keywords) != len(expected.Keywords) {
		t.Fatalf("Expected keywords %v, got %v", expected.Keywords, got.Keywords)
	}
	for k, kw := range expected.Keywords {
		if got.Keywords[k] != kw {
			t.Errorf("Expected keyword[%d] '%s', got '%s'", k, kw, got.Keywords[k])
		}
	}
	if got.Len() != expected.Len() {
		t.Fatalf("Expected %d rows, got %d", expected.Len(), got.Len())
	}
	for i := range expected.Index {
		if !got.Index[i].Equal(expected.Index[i]) {
			t.Errorf("Expected index[%d] %v, got %v", i, expected.Index[i], got.Index[i])
		}
		for k := range expected.Keywords {
			if got.Series[k][i] != expected.Series[k][i] {
				t.Errorf("Expected %s[%d] = %v, got %v", expected.Keywords[k], i, expected.Series[k][i], got.Series[k][i])
			}
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	table := sampleTable(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "date,iPhone 14,Nokia 3310" {
		t.Errorf("Unexpected header '%s'", lines[0])
	}
	if lines[2] != "2024-01-14,12.5,45" {
		t.Errorf("Unexpected second row '%s'", lines[2])
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	assertSameTable(t, table, got)
}

func TestCSVRoundTripHourly(t *testing.T) {
	table := hourlyTable(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[2] != "2024-05-01 01:00,20" {
		t.Errorf("Expected hour in second row, got '%s'", lines[2])
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	assertSameTable(t, table, got)
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"bad date":     "date,a\n14/01/2024,1\n",
		"bad score":    "date,a\n2024-01-14,high\n",
		"out of range": "date,a\n2024-01-14,101\n",
		"unsorted":     "date,a\n2024-01-14,1\n2024-01-07,2\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(input)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	table := sampleTable(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Errorf("Expected single sheet '%s', got %v", SheetName, sheets)
	}
	header, _ := f.GetCellValue(SheetName, "B1")
	if header != "Interés: iPhone 14" {
		t.Errorf("Expected 'Interés: iPhone 14', got '%s'", header)
	}
	caption, _ := f.GetCellValue(SheetName, "C2")
	if caption != "Interés relativo (0-100)" {
		t.Errorf("Expected annotation row, got '%s'", caption)
	}
	date, _ := f.GetCellValue(SheetName, "A3")
	if date != "2024-01-07" {
		t.Errorf("Expected first date '2024-01-07', got '%s'", date)
	}

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadXLSX failed: %v", err)
	}
	assertSameTable(t, table, got)
}

func TestXLSXRoundTripHourly(t *testing.T) {
	table := hourlyTable(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadXLSX failed: %v", err)
	}
	assertSameTable(t, table, got)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	opts := ChartOptions{Title: ChartTitle(query.RegionChile, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC))}
	if err := WritePNG(&buf, sampleTable(t), opts); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("Expected PNG signature")
	}
}

func TestEmptyTableIsRejected(t *testing.T) {
	empty := &trend.Table{}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, empty); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("WriteCSV: expected ErrEmptyTable, got %v", err)
	}
	if err := WriteXLSX(&buf, empty); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("WriteXLSX: expected ErrEmptyTable, got %v", err)
	}
	if err := WritePNG(&buf, nil, ChartOptions{}); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("WritePNG: expected ErrEmptyTable, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	date := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindCSV, "tendencias_CL_2024-05-31.csv"},
		{KindXLSX, "tendencias_CL_2024-05-31.xlsx"},
		{KindPNG, "grafico_CL_2024-05-31.png"},
	}
	for _, tt := range tests {
		if got := FileName(tt.kind, query.RegionChile, date); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" XLSX "); err != nil || k != KindXLSX {
		t.Errorf("Expected xlsx, got %q (%v)", k, err)
	}
	if _, err := ParseKind("pdf"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
	if KindPNG.ContentType() != "image/png" {
		t.Errorf("Unexpected content type %s", KindPNG.ContentType())
	}
}
