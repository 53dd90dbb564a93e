package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/pep299/trends-dashboard/internal/archive"
	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/gtrends"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/response"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/trend"
	"github.com/pep299/trends-dashboard/internal/watchlist"
)

// problemFor maps domain errors to HTTP problems.
func problemFor(err error) response.Problem {
	p := response.Problem{
		StatusCode: http.StatusInternalServerError,
		Code:       "internal_error",
		Message:    service.Message(err),
	}

	var vErr *query.ValidationError
	var pErr *gtrends.ProviderError
	switch {
	case errors.As(err, &vErr):
		p.StatusCode, p.Code, p.Field = http.StatusBadRequest, "validation_error", vErr.Field
	case errors.Is(err, trend.ErrNoData):
		p.StatusCode, p.Code = http.StatusNotFound, "no_data"
	case errors.Is(err, service.ErrNothingToExport):
		p.StatusCode, p.Code = http.StatusConflict, "nothing_to_export"
	case errors.Is(err, export.ErrUnknownKind):
		p.StatusCode, p.Code, p.Message = http.StatusBadRequest, "unknown_format", "Formato no soportado: usá csv, xlsx o png."
	case errors.Is(err, gtrends.ErrRateLimited):
		p.StatusCode, p.Code = http.StatusTooManyRequests, "rate_limited"
	case isTimeout(err):
		p.StatusCode, p.Code, p.Message = http.StatusGatewayTimeout, "timeout", "Google Trends tardó demasiado en responder."
	case errors.As(err, &pErr):
		p.StatusCode, p.Code = http.StatusBadGateway, "provider_error"
	case errors.Is(err, watchlist.ErrUnknownWatchlist):
		p.StatusCode, p.Code, p.Message = http.StatusNotFound, "unknown_watchlist", "Lista de seguimiento desconocida."
	case errors.Is(err, archive.ErrDisabled):
		p.StatusCode, p.Code, p.Message = http.StatusServiceUnavailable, "archive_disabled", "El archivo de exportaciones no está configurado."
	}
	return p
}

// isTimeout also matches client timeouts surfaced as *url.Error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
