package capacity

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// Field names a writable ledger column.
type Field string

const (
	FieldBinsUsed      Field = "bins_used"
	FieldAvailableBins Field = "available_bins"
	FieldTotalCapacity Field = "total_capacity"
)

// Balance is the current ledger row for one warehouse.
type Balance struct {
	Warehouse     enums.Warehouse `json:"warehouse"`
	TotalCapacity int             `json:"totalCapacity"`
	BinsUsed      int             `json:"binsUsed"`
	AvailableBins int             `json:"availableBins"`
	UpdatedBy     *uuid.UUID      `json:"updatedBy,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// HistoryEntry is one audited bins_used change.
type HistoryEntry struct {
	ID            uuid.UUID       `json:"id"`
	Warehouse     enums.Warehouse `json:"warehouse"`
	BinsUsed      int             `json:"binsUsed"`
	PreviousValue int             `json:"previousValue"`
	ChangedBy     *uuid.UUID      `json:"changedBy,omitempty"`
	ChangedAt     time.Time       `json:"changedAt"`
}

// HistoryQuery filters GetHistory. A nil Warehouse returns every site.
type HistoryQuery struct {
	Warehouse *enums.Warehouse
	Limit     int
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

func (q HistoryQuery) normalizedLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultHistoryLimit
	case q.Limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return q.Limit
	}
}

func balanceFromModel(m models.WarehouseCapacity) Balance {
	return Balance{
		Warehouse:     m.WarehouseName,
		TotalCapacity: m.TotalCapacity,
		BinsUsed:      m.BinsUsed,
		AvailableBins: m.AvailableBins,
		UpdatedBy:     m.UpdatedBy,
		UpdatedAt:     m.UpdatedAt,
	}
}

func historyFromModel(m models.WarehouseCapacityHistory) HistoryEntry {
	return HistoryEntry{
		ID:            m.ID,
		Warehouse:     m.WarehouseName,
		BinsUsed:      m.BinsUsed,
		PreviousValue: m.PreviousValue,
		ChangedBy:     m.ChangedBy,
		ChangedAt:     m.ChangedAt,
	}
}
