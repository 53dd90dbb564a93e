package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/session"
)

// ErrNothingToExport is returned when the state holds no table.
var ErrNothingToExport = errors.New("no analysis to export")

// Artifact is a rendered download.
type Artifact struct {
	Kind        export.Kind
	FileName    string
	ContentType string
	Data        []byte
}

// Export renders the state's table in the requested format. File names and
// chart titles carry today's date, not the end of the analyzed range.
func (s *Service) Export(state session.State, kind export.Kind) (*Artifact, error) {
	if !state.HasTable() || state.Query == nil {
		return nil, ErrNothingToExport
	}

	today := s.now()
	var buf bytes.Buffer
	var err error
	switch kind {
	case export.KindCSV:
		err = export.WriteCSV(&buf, state.Table)
	case export.KindXLSX:
		err = export.WriteXLSX(&buf, state.Table)
	case export.KindPNG:
		err = export.WritePNG(&buf, state.Table, export.ChartOptions{
			Title: export.ChartTitle(state.Query.Region, today),
		})
	default:
		return nil, fmt.Errorf("%w %q", export.ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", kind, err)
	}

	return &Artifact{
		Kind:        kind,
		FileName:    export.FileName(kind, state.Query.Region, today),
		ContentType: kind.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
