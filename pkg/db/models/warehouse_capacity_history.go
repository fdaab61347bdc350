package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// WarehouseCapacityHistory is an immutable audit row for a bins_used change.
type WarehouseCapacityHistory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseName enums.Warehouse `gorm:"column:warehouse_name;not null;index"`
	BinsUsed      int             `gorm:"column:bins_used;not null"`
	PreviousValue int             `gorm:"column:previous_value;not null"`
	ChangedBy     *uuid.UUID      `gorm:"column:changed_by;type:uuid"`
	ChangedAt     time.Time       `gorm:"column:changed_at;not null"`
}

func (WarehouseCapacityHistory) TableName() string { return "warehouse_capacity_history" }

func (h *WarehouseCapacityHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
