package service

import (
	"errors"

	"github.com/pep299/trends-dashboard/internal/gtrends"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

// Message turns an Analyze or Export error into the inline text shown to the
// user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, query.ErrNoKeywords):
		return "Ingresá al menos un producto válido."
	case errors.Is(err, query.ErrTooManyKeywords):
		return "Se pueden comparar hasta 5 productos a la vez."
	case errors.Is(err, query.ErrInvalidDateRange):
		return "La fecha de inicio debe ser anterior a la de fin."
	case errors.Is(err, query.ErrInvalidDate):
		return "Fecha inválida, usá el formato AAAA-MM-DD."
	case errors.Is(err, query.ErrUnknownRegion):
		return "Región no soportada."
	case errors.Is(err, query.ErrUnknownPreset):
		return "Rango de fechas no soportado."
	case errors.Is(err, trend.ErrNoData):
		return "No se encontraron datos para esos productos en esta región."
	case errors.Is(err, gtrends.ErrRateLimited):
		return "Google Trends limitó las consultas. Esperá unos minutos y volvé a intentar."
	case errors.Is(err, ErrNothingToExport):
		return "Primero analizá algunos productos."
	}

	var pErr *gtrends.ProviderError
	if errors.As(err, &pErr) {
		return "No se pudo consultar Google Trends. Intentá de nuevo más tarde."
	}
	return "Ocurrió un error inesperado."
}
