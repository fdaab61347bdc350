package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// ShipmentStatusChangedEvent is emitted for every applied workflow transition.
type ShipmentStatusChangedEvent struct {
	ShipmentID         uuid.UUID            `json:"shipment_id"`
	OrderRef           string               `json:"order_ref"`
	Supplier           string               `json:"supplier"`
	ReceivingWarehouse enums.Warehouse      `json:"receiving_warehouse"`
	Operation          string               `json:"operation"`
	FromStatus         enums.ShipmentStatus `json:"from_status"`
	ToStatus           enums.ShipmentStatus `json:"to_status"`
	Reason             string               `json:"reason,omitempty"`
	ChangedAt          time.Time            `json:"changed_at"`
}

// WarehouseCapacityChangedEvent reports one ledger field write.
type WarehouseCapacityChangedEvent struct {
	Warehouse     enums.Warehouse `json:"warehouse"`
	Field         string          `json:"field"`
	PreviousValue *int            `json:"previous_value,omitempty"`
	Value         int             `json:"value"`
	Audited       bool            `json:"audited"`
	ChangedAt     time.Time       `json:"changed_at"`
}

// CapacityAlertRaisedEvent carries a critical or overflow forecast week.
type CapacityAlertRaisedEvent struct {
	Warehouse         enums.Warehouse `json:"warehouse"`
	Year              int             `json:"year"`
	WeekNumber        int             `json:"week_number"`
	WeekOffset        int             `json:"week_offset"`
	Alert             enums.AlertTier `json:"alert"`
	ProjectedBinsUsed int             `json:"projected_bins_used"`
	Capacity          int             `json:"capacity"`
	PercentUsed       int             `json:"percent_used"`
	IncomingBins      int             `json:"incoming_bins"`
	Recommendation    string          `json:"recommendation,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}
