package export

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// ChartOptions controls the rendered PNG. Zero sizes default to 10x4 inches.
type ChartOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// ChartTitle is the title shown above the chart, e.g.
// "Tendencias - Chile - 2024-05-31".
func ChartTitle(region query.Region, date time.Time) string {
	return fmt.Sprintf("Tendencias - %s - %s", region.Name(), date.Format(query.DateLayout))
}

// WritePNG renders one line per keyword against the time index.
func WritePNG(w io.Writer, t *trend.Table, opts ChartOptions) error {
	if t.Empty() {
		return ErrEmptyTable
	}
	if opts.Width <= 0 {
		opts.Width = 10 * vg.Inch
	}
	if opts.Height <= 0 {
		opts.Height = 4 * vg.Inch
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Fecha"
	p.Y.Label.Text = "Interés de búsqueda"
	p.X.Tick.Marker = plot.TimeTicks{Format: query.DateLayout}
	p.Y.Min = trend.MinScore
	p.Y.Max = trend.MaxScore

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(grid)

	p.Legend.Top = true
	p.Legend.Left = true

	for k, kw := range t.Keywords {
		points := make(plotter.XYs, t.Len())
		for i, ts := range t.Index {
			points[i].X = float64(ts.Unix())
			points[i].Y = t.Series[k][i]
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("building line for %q: %w", kw, err)
		}
		line.Color = plotutil.Color(k)
		line.Width = vg.Points(2)

		p.Add(line)
		p.Legend.Add(kw, line)
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}
