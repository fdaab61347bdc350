package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shiplogix/logistics-backend/api/middleware"
	"github.com/shiplogix/logistics-backend/api/responses"
	"github.com/shiplogix/logistics-backend/api/validators"
	"github.com/shiplogix/logistics-backend/internal/capacity"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

// SetCapacityRequest carries the new value for one ledger field. Negative
// values reach the ledger and are rejected there.
type SetCapacityRequest struct {
	Value *int `json:"value" validate:"required"`
}

// ListCapacity returns the ledger rows in site order.
func ListCapacity(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capacity service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CapacityHistory(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capacity service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", capacity.DefaultHistoryLimit, 1, capacity.MaxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := capacity.HistoryQuery{Limit: limit}

		if raw := validators.QueryString(r, "warehouse"); raw != "" {
			warehouse, err := enums.ParseWarehouse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown warehouse").
					WithDetails(map[string]any{"warehouse": raw}))
				return
			}
			query.Warehouse = &warehouse
		}

		entries, err := svc.GetHistory(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// SetCapacityField writes one ledger field. The {field} segment selects
// bins-used, available-bins or total-capacity.
func SetCapacityField(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capacity service unavailable"))
			return
		}

		raw := chi.URLParam(r, "warehouse")
		warehouse, err := enums.ParseWarehouse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown warehouse").
				WithDetails(map[string]any{"warehouse": raw}))
			return
		}

		var body SetCapacityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWarehouse(ctx, warehouse.String())
		}
		actor := middleware.ActorFromContext(r.Context())

		var balance *capacity.Balance
		switch field := chi.URLParam(r, "field"); field {
		case "bins-used":
			balance, err = svc.SetBinsUsed(ctx, warehouse, *body.Value, actor)
		case "available-bins":
			balance, err = svc.SetAvailableBins(ctx, warehouse, *body.Value, actor)
		case "total-capacity":
			balance, err = svc.SetTotalCapacity(ctx, warehouse, *body.Value, actor)
		default:
			err = pkgerrors.New(pkgerrors.CodeNotFound, "unknown capacity field").WithDetails(map[string]any{"field": field})
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}
