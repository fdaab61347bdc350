package controllers

import (
	"net/http"

	"github.com/shiplogix/logistics-backend/api/responses"
	"github.com/shiplogix/logistics-backend/internal/forecast"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

func CapacityForecast(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}
		report, err := svc.Generate(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
