package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// Shipment is an inbound consignment tracked from booking to storage.
// LatestStatus only changes through conditional transition writes.
type Shipment struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Supplier           string               `gorm:"column:supplier;not null"`
	OrderRef           string               `gorm:"column:order_ref;not null"`
	LatestStatus       enums.ShipmentStatus `gorm:"column:latest_status;type:shipment_status_enum;not null"`
	WeekNumber         int                  `gorm:"column:week_number;not null"`
	SelectedWeekDate   *time.Time           `gorm:"column:selected_week_date;type:date"`
	Quantity           int                  `gorm:"column:quantity;not null;default:0"`
	PalletQty          *int                 `gorm:"column:pallet_qty"`
	ReceivingWarehouse enums.Warehouse      `gorm:"column:receiving_warehouse;not null"`

	InspectionStatus *enums.InspectionStatus `gorm:"column:inspection_status"`
	InspectionDate   *time.Time              `gorm:"column:inspection_date"`
	InspectionNotes  *string                 `gorm:"column:inspection_notes"`
	InspectedBy      *uuid.UUID              `gorm:"column:inspected_by;type:uuid"`

	ReceivingDate    *time.Time `gorm:"column:receiving_date"`
	ReceivedQuantity *int       `gorm:"column:received_quantity"`
	ReceivedBy       *uuid.UUID `gorm:"column:received_by;type:uuid"`

	UnloadingStartedAt   *time.Time `gorm:"column:unloading_started_at"`
	UnloadingCompletedAt *time.Time `gorm:"column:unloading_completed_at"`

	StatusBeforeArchive *enums.ShipmentStatus `gorm:"column:status_before_archive;type:shipment_status_enum"`
	RejectionReason     *string               `gorm:"column:rejection_reason"`

	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shipment) TableName() string { return "shipments" }

func (s *Shipment) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Pallets returns the pallet count with the absent/zero default of 1.
func (s Shipment) Pallets() int {
	if s.PalletQty == nil || *s.PalletQty == 0 {
		return 1
	}
	return *s.PalletQty
}
