package shipments

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// ShipmentDTO is the API view of a shipment.
type ShipmentDTO struct {
	ID                   uuid.UUID               `json:"id"`
	Supplier             string                  `json:"supplier"`
	OrderRef             string                  `json:"orderRef"`
	Status               enums.ShipmentStatus    `json:"status"`
	WeekNumber           int                     `json:"weekNumber"`
	SelectedWeekDate     *time.Time              `json:"selectedWeekDate,omitempty"`
	Quantity             int                     `json:"quantity"`
	PalletQty            *int                    `json:"palletQty,omitempty"`
	ReceivingWarehouse   enums.Warehouse         `json:"receivingWarehouse"`
	InspectionStatus     *enums.InspectionStatus `json:"inspectionStatus,omitempty"`
	InspectionDate       *time.Time              `json:"inspectionDate,omitempty"`
	InspectionNotes      *string                 `json:"inspectionNotes,omitempty"`
	InspectedBy          *uuid.UUID              `json:"inspectedBy,omitempty"`
	ReceivingDate        *time.Time              `json:"receivingDate,omitempty"`
	ReceivedQuantity     *int                    `json:"receivedQuantity,omitempty"`
	ReceivedBy           *uuid.UUID              `json:"receivedBy,omitempty"`
	UnloadingStartedAt   *time.Time              `json:"unloadingStartedAt,omitempty"`
	UnloadingCompletedAt *time.Time              `json:"unloadingCompletedAt,omitempty"`
	StatusBeforeArchive  *enums.ShipmentStatus   `json:"statusBeforeArchive,omitempty"`
	RejectionReason      *string                 `json:"rejectionReason,omitempty"`
	UpdatedBy            *uuid.UUID              `json:"updatedBy,omitempty"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

// FromModel maps a stored shipment onto its API view.
func FromModel(m models.Shipment) ShipmentDTO {
	return ShipmentDTO{
		ID:                   m.ID,
		Supplier:             m.Supplier,
		OrderRef:             m.OrderRef,
		Status:               m.LatestStatus,
		WeekNumber:           m.WeekNumber,
		SelectedWeekDate:     m.SelectedWeekDate,
		Quantity:             m.Quantity,
		PalletQty:            m.PalletQty,
		ReceivingWarehouse:   m.ReceivingWarehouse,
		InspectionStatus:     m.InspectionStatus,
		InspectionDate:       m.InspectionDate,
		InspectionNotes:      m.InspectionNotes,
		InspectedBy:          m.InspectedBy,
		ReceivingDate:        m.ReceivingDate,
		ReceivedQuantity:     m.ReceivedQuantity,
		ReceivedBy:           m.ReceivedBy,
		UnloadingStartedAt:   m.UnloadingStartedAt,
		UnloadingCompletedAt: m.UnloadingCompletedAt,
		StatusBeforeArchive:  m.StatusBeforeArchive,
		RejectionReason:      m.RejectionReason,
		UpdatedBy:            m.UpdatedBy,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// StateOf extracts the workflow state of a stored shipment.
func StateOf(m models.Shipment) State {
	return State{Status: m.LatestStatus, StatusBeforeArchive: m.StatusBeforeArchive}
}

// ListQuery is the service-level listing request.
type ListQuery struct {
	Status          *enums.ShipmentStatus
	Warehouse       *enums.Warehouse
	WeekNumber      *int
	IncludeArchived bool
	Limit           int
	Cursor          string
}

// CompleteInspectionInput carries the result of an inspection.
type CompleteInspectionInput struct {
	Passed    bool
	Notes     *string
	Inspector *uuid.UUID
}

// CompleteReceivingInput carries the counted quantity.
type CompleteReceivingInput struct {
	ReceivedQty int
	Receiver    *uuid.UUID
}
