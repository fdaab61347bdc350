package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/api/middleware"
	"github.com/shiplogix/logistics-backend/api/responses"
	"github.com/shiplogix/logistics-backend/api/validators"
	"github.com/shiplogix/logistics-backend/internal/shipments"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/pagination"
)

// ShipmentOperationRequest is the union of the arguments any transition
// accepts. Which fields are required depends on the operation.
type ShipmentOperationRequest struct {
	Passed      *bool      `json:"passed"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	Inspector   *uuid.UUID `json:"inspector"`
	Receiver    *uuid.UUID `json:"receiver"`
	ReceivedQty *int       `json:"receivedQty"`
	Reason      string     `json:"reason" validate:"max=500"`
}

// ListShipments returns a cursor-paginated page of shipments.
func ListShipments(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		query := shipments.ListQuery{Cursor: validators.QueryString(r, "cursor")}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Limit = limit

		if raw := validators.QueryString(r, "status"); raw != "" {
			status, err := enums.ParseShipmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		if raw := validators.QueryString(r, "warehouse"); raw != "" {
			warehouse, err := enums.ParseWarehouse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse filter"))
				return
			}
			query.Warehouse = &warehouse
		}

		week, err := validators.ParseOptionalQueryInt(r, "week", 1, 53)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.WeekNumber = week

		includeArchived, err := validators.ParseQueryBool(r, "include_archived", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.IncludeArchived = includeArchived

		page, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetShipment(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}
		id, err := shipmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ApplyShipmentOperation runs the transition named by the {operation} route
// segment on behalf of the authenticated actor.
func ApplyShipmentOperation(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}
		id, err := shipmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		segment := chi.URLParam(r, "operation")
		op, ok := shipments.ParseOperation(segment)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown shipment operation").
				WithDetails(map[string]any{"operation": segment}))
			return
		}

		var body ShipmentOperationRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithShipmentID(ctx, id.String())
		}

		dto, err := svc.Apply(ctx, id, op, shipments.Args{
			Passed:      body.Passed,
			Notes:       body.Notes,
			Inspector:   body.Inspector,
			Receiver:    body.Receiver,
			ReceivedQty: body.ReceivedQty,
			Reason:      strings.TrimSpace(body.Reason),
			Actor:       middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func shipmentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "shipmentId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipment id")
	}
	return id, nil
}
