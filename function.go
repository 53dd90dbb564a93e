package cloudfunctions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/application"
	"github.com/pep299/trends-dashboard/internal/config"
	"github.com/pep299/trends-dashboard/internal/logging"
	"github.com/pep299/trends-dashboard/internal/response"
)

const version = "v1.0.0"

var (
	appOnce sync.Once
	app     *application.Application
	appErr  error
)

func init() {
	functions.HTTP("TrendsDashboard", TrendsDashboard)
	functions.HTTP("RunWatchlist", RunWatchlist)
}

// CloudEvent is the envelope Cloud Scheduler posts to RunWatchlist
type CloudEvent struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// CloudEventData names the watchlist to run
type CloudEventData struct {
	Watchlist string `json:"watchlist"`
}

func getApplication() (*application.Application, error) {
	appOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			appErr = fmt.Errorf("loading config: %w", err)
			return
		}
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
		app, appErr = application.New(context.Background(), cfg, version)
	})
	return app, appErr
}

// TrendsDashboard serves the dashboard and the JSON API
func TrendsDashboard(w http.ResponseWriter, r *http.Request) {
	a, err := getApplication()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize application")
		response.WriteInternalError(w, "service unavailable")
		return
	}
	a.Handler().ServeHTTP(w, r)
}

// RunWatchlist runs the watchlist named in a scheduler event
func RunWatchlist(w http.ResponseWriter, r *http.Request) {
	var event CloudEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.WriteBadRequest(w, "invalid event: "+err.Error())
		return
	}

	if err := ProcessWatchlistScheduled(r.Context(), event); err != nil {
		log.Error().Err(err).Str("event", event.ID).Msg("Scheduled watchlist failed")
		response.WriteInternalError(w, err.Error())
		return
	}
	response.WriteSuccess(w, "Watchlist run completed", nil)
}

// ProcessWatchlistScheduled decodes the event and runs its watchlist
func ProcessWatchlistScheduled(ctx context.Context, event CloudEvent) error {
	var data CloudEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to parse event data: %w", err)
	}
	if data.Watchlist == "" {
		return fmt.Errorf("event %s names no watchlist", event.ID)
	}

	a, err := getApplication()
	if err != nil {
		return err
	}

	log.Info().Str("watchlist", data.Watchlist).Str("event", event.ID).Msg("🕐 Scheduled execution starting")
	report, err := a.Runner.Run(ctx, data.Watchlist)
	if err != nil {
		return err
	}
	log.Info().
		Str("watchlist", data.Watchlist).
		Strs("files", report.Files).
		Bool("notified", report.Notified).
		Msg("✅ Scheduled execution completed")
	return nil
}
