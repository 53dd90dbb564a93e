package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/trend"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultKeywords prefills the product field of a new session.
const DefaultKeywords = "iPhone 14, Samsung Galaxy S23, Xiaomi Redmi Note 11, Motorola Moto G100, Nokia 3310"

const displayDateLayout = "02/01/2006"

var helpLines = []string{
	"Cada línea del gráfico es un producto.",
	"Los valores van de 0 a 100: 100 es el momento de mayor interés de búsqueda dentro del rango elegido.",
	"Una variación positiva significa que el interés subió entre el primer y el último día.",
	"Los valores son relativos: comparan los productos entre sí, no cantidades de búsquedas.",
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"signed": func(v float64) string { return fmt.Sprintf("%+.0f", v) },
		"score":  func(v float64) string { return fmt.Sprintf("%.0f", v) },
		"date":   func(t time.Time) string { return t.Format(displayDateLayout) },
	}
	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type tableRow struct {
	Date    time.Time
	Values  []float64
	Partial bool
}

type dashboardPage struct {
	Regions      []option
	Presets      []option
	Custom       bool
	Start        string
	End          string
	Keywords     string
	RangeLabel   string
	Error        string
	HasTable     bool
	ResultRegion string
	Columns      []string
	Rows         []tableRow
	Summary      *trend.Summary
	Kinds        []export.Kind
	ChartURL     string
	HelpLines    []string
	Version      string
}

func (s *Server) buildPage(state session.State) dashboardPage {
	in := state.Input
	now := s.service.Now()

	region, err := query.LookupRegion(in.Region)
	if err != nil {
		region = query.DefaultRegion
	}
	preset, err := query.LookupPreset(in.Preset)
	if err != nil {
		preset = query.DefaultPreset
	}

	page := dashboardPage{
		Custom:    in.Mode == query.ModeCustom,
		Start:     in.Start,
		End:       in.End,
		Keywords:  in.Keywords,
		Error:     state.Error,
		HasTable:  state.HasTable(),
		Summary:   state.Summary,
		Kinds:     export.Kinds(),
		HelpLines: helpLines,
		Version:   s.version,
	}
	if in == (query.Input{}) {
		page.Keywords = DefaultKeywords
	}

	for _, r := range query.Regions() {
		page.Regions = append(page.Regions, option{Value: string(r), Label: r.Name(), Selected: r == region})
	}
	for _, p := range query.Presets() {
		page.Presets = append(page.Presets, option{Value: string(p), Label: p.Label(), Selected: p == preset})
	}

	selected := preset.Range(now)
	if page.Custom {
		if r, ok := customRange(in.Start, in.End); ok {
			selected = r
		}
	}
	if page.Start == "" {
		page.Start = selected.Start.Format(query.DateLayout)
	}
	if page.End == "" {
		page.End = selected.End.Format(query.DateLayout)
	}
	page.RangeLabel = rangeBanner(selected)

	if page.HasTable {
		t := state.Table
		if state.Query != nil {
			page.ResultRegion = state.Query.Region.Name()
		}
		page.Columns = t.Keywords
		page.Rows = make([]tableRow, t.Len())
		for i, ts := range t.Index {
			values := make([]float64, len(t.Keywords))
			for k := range t.Keywords {
				values[k] = t.Series[k][i]
			}
			page.Rows[i] = tableRow{Date: ts, Values: values, Partial: t.IsPartial(i)}
		}
		page.ChartURL = fmt.Sprintf("/chart.png?v=%d", state.UpdatedAt.UnixNano())
	}
	return page
}

func customRange(start, end string) (query.Range, bool) {
	s, err := time.Parse(query.DateLayout, strings.TrimSpace(start))
	if err != nil {
		return query.Range{}, false
	}
	e, err := time.Parse(query.DateLayout, strings.TrimSpace(end))
	if err != nil {
		return query.Range{}, false
	}
	return query.Range{Start: s, End: e}, true
}

// rangeBanner renders the confirmation shown above the results.
func rangeBanner(r query.Range) string {
	return fmt.Sprintf("Rango seleccionado: %s hasta %s", r.Start.Format(displayDateLayout), r.End.Format(displayDateLayout))
}

func (s *Server) renderDashboard(w http.ResponseWriter, status int, state session.State) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", s.buildPage(state)); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// dashboardHandler renders the dashboard for the current session
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	state := s.currentSession(r)
	s.storeSession(w, r, state)
	s.renderDashboard(w, http.StatusOK, state)
}

// analyzeFormHandler handles the dashboard form
func (s *Server) analyzeFormHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in := query.Input{
		Region:   r.PostForm.Get("region"),
		Mode:     r.PostForm.Get("mode"),
		Preset:   r.PostForm.Get("preset"),
		Start:    r.PostForm.Get("start"),
		End:      r.PostForm.Get("end"),
		Keywords: r.PostForm.Get("keywords"),
	}

	next, err := s.service.Analyze(r.Context(), s.currentSession(r), in)
	s.storeSession(w, r, next)
	if err != nil {
		s.renderDashboard(w, problemFor(err).StatusCode, next)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reloadFormHandler clears the analysis and returns to the form
func (s *Server) reloadFormHandler(w http.ResponseWriter, r *http.Request) {
	next := s.service.Reload(s.currentSession(r))
	s.storeSession(w, r, next)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// chartHandler serves the chart of the current session inline
func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.service.Export(s.currentSession(r), export.KindPNG)
	if err != nil {
		p := problemFor(err)
		http.Error(w, p.Message, p.StatusCode)
		return
	}
	writeArtifact(w, artifact, "inline")
}

// downloadHandler serves an export of the current session as an attachment
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.artifactFor(r)
	if err != nil {
		p := problemFor(err)
		http.Error(w, p.Message, p.StatusCode)
		return
	}
	writeArtifact(w, artifact, "attachment")
}
