package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/trend"
)

type analyzeFlags struct {
	region   string
	preset   string
	from     string
	to       string
	keywords string
	outDir   string
	formats  []string
	json     bool
}

func (a *app) analyzeCommand() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch and summarize search interest",
		Long: `Fetch interest over time for up to five comma-separated products and
print the top riser, the top faller and the peak ranking.

Use --preset for a range ending today, or --from and --to for explicit dates.
With --formats the table is also exported into --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.region, "region", "r", string(query.DefaultRegion), "region code (CL, AR, US, ES, MX)")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", string(query.DefaultPreset), "date preset (last-week, last-4-weeks, last-3-months, last-year)")
	cmd.Flags().StringVar(&f.from, "from", "", "custom range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "custom range end, YYYY-MM-DD")
	cmd.Flags().StringVarP(&f.keywords, "keywords", "k", "", "comma-separated products (required)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "directory for exported files")
	cmd.Flags().StringSliceVar(&f.formats, "formats", nil, "export formats: csv, xlsx, png")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("keywords")

	return cmd
}

func (f analyzeFlags) input() query.Input {
	in := query.Input{
		Region:   f.region,
		Mode:     query.ModePreset,
		Preset:   f.preset,
		Keywords: f.keywords,
	}
	if f.from != "" || f.to != "" {
		in.Mode = query.ModeCustom
		in.Start = f.from
		in.End = f.to
	}
	return in
}

func (a *app) runAnalyze(cmd *cobra.Command, f analyzeFlags) error {
	kinds := make([]export.Kind, 0, len(f.formats))
	for _, name := range f.formats {
		kind, err := export.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	svc := service.New(a.opts.NewFetcher(a.cfg), nil, service.Options{
		DropPartialRows: a.cfg.DropPartialRows,
		Now:             a.opts.Now,
	})

	state, err := svc.Analyze(cmd.Context(), session.New(), f.input())
	if err != nil {
		return fmt.Errorf("%s (%w)", service.Message(err), err)
	}

	files := make([]string, 0, len(kinds))
	if len(kinds) > 0 {
		if err := os.MkdirAll(f.outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	for _, kind := range kinds {
		artifact, err := svc.Export(state, kind)
		if err != nil {
			return err
		}
		path := filepath.Join(f.outDir, artifact.FileName)
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		files = append(files, path)
	}

	if f.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":   state.Query,
			"summary": state.Summary,
			"files":   files,
		})
	}

	p := a.printer(cmd)
	p.Header("Tendencias - %s (%s)", state.Query.Region.Name(), state.Query.Region)
	p.Info("Rango seleccionado: %s hasta %s", state.Query.Range.Start.Format("02/01/2006"), state.Query.Range.End.Format("02/01/2006"))
	if partial := countPartial(state.Table); partial > 0 {
		p.Info("%d punto(s) parcial(es) al final de la serie", partial)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if err := printSummary(p, state.Summary); err != nil {
		return err
	}
	for _, path := range files {
		p.Success("Exportado %s", path)
	}
	return nil
}

func countPartial(t *trend.Table) int {
	n := 0
	for i := 0; i < t.Len(); i++ {
		if t.IsPartial(i) {
			n++
		}
	}
	return n
}

func printSummary(p *printer, s *trend.Summary) error {
	byColumn := make([]trend.KeywordPeak, len(s.Deltas))
	for _, pk := range s.PeakRanking {
		if pk.Column >= 0 && pk.Column < len(byColumn) {
			byColumn[pk.Column] = pk
		}
	}

	rows := make([][]string, 0, len(s.Deltas))
	for i, d := range s.Deltas {
		rows = append(rows, []string{
			d.Keyword,
			signedDelta(p, d.Delta),
			fmt.Sprintf("%.0f", byColumn[i].Peak),
			fmt.Sprintf("#%d", byColumn[i].Rank),
		})
	}
	if err := p.table([]string{"PRODUCTO", "VARIACIÓN", "PICO", "RANKING"}, rows); err != nil {
		return err
	}

	fmt.Fprintln(p.out)
	p.Info("Mayor alza: %s (%s)", s.TopRiser.Keyword, signedDelta(p, s.TopRiser.Delta))
	p.Info("Mayor baja: %s (%s)", s.TopFaller.Keyword, signedDelta(p, s.TopFaller.Delta))

	names := make([]string, len(s.PeakRanking))
	for i, pk := range s.PeakRanking {
		names[i] = pk.Keyword
	}
	p.Info("Ranking por pico: %s", strings.Join(names, " > "))
	return nil
}

func signedDelta(p *printer, v float64) string {
	s := fmt.Sprintf("%+.0f", v)
	switch {
	case v > 0:
		return p.Up(s)
	case v < 0:
		return p.Down(s)
	}
	return s
}
