package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// WarehouseCapacity is the current bin ledger row for one warehouse.
// BinsUsed + AvailableBins is not required to equal TotalCapacity.
type WarehouseCapacity struct {
	WarehouseName enums.Warehouse `gorm:"column:warehouse_name;primaryKey"`
	TotalCapacity int             `gorm:"column:total_capacity;not null;default:0"`
	BinsUsed      int             `gorm:"column:bins_used;not null;default:0"`
	AvailableBins int             `gorm:"column:available_bins;not null;default:0"`
	UpdatedBy     *uuid.UUID      `gorm:"column:updated_by;type:uuid"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (WarehouseCapacity) TableName() string { return "warehouse_capacity" }
