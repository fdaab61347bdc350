package forecast

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// Shipment is the slice of a shipment the forecast reads.
type Shipment struct {
	ID                 uuid.UUID
	WeekNumber         int
	ReceivingWarehouse enums.Warehouse
	Status             enums.ShipmentStatus
	PalletQty          *int
}

// ShipmentFromModel copies the forecast-relevant fields of a stored shipment.
func ShipmentFromModel(m models.Shipment) Shipment {
	return Shipment{
		ID:                 m.ID,
		WeekNumber:         m.WeekNumber,
		ReceivingWarehouse: m.ReceivingWarehouse,
		Status:             m.LatestStatus,
		PalletQty:          m.PalletQty,
	}
}

// Input is everything Generate needs. The engine reads nothing else.
type Input struct {
	Now             time.Time
	Shipments       []Shipment
	CurrentBinsUsed map[enums.Warehouse]int
	// Capacities come from the ledger's total_capacity column.
	Capacities map[enums.Warehouse]int
}

type WarehouseProjection struct {
	Warehouse         enums.Warehouse `json:"warehouse"`
	ProjectedBinsUsed int             `json:"projectedBinsUsed"`
	Capacity          int             `json:"capacity"`
	PercentUsed       int             `json:"percentUsed"`
	IncomingBins      int             `json:"incomingBins"`
	Alert             enums.AlertTier `json:"alert"`
}

// Spare is the room left before the site reaches capacity, never negative.
func (p WarehouseProjection) Spare() int {
	if p.ProjectedBinsUsed >= p.Capacity {
		return 0
	}
	return p.Capacity - p.ProjectedBinsUsed
}

type RecommendationType string

const (
	RecommendationOverflow     RecommendationType = "overflow"
	RecommendationRedistribute RecommendationType = "redistribute"
	RecommendationCritical     RecommendationType = "critical"
	RecommendationWarning      RecommendationType = "warning"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Recommendation is the single most urgent action for a forecast week.
type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Severity        Severity           `json:"severity"`
	Warehouse       enums.Warehouse    `json:"warehouse"`
	TargetWarehouse *enums.Warehouse   `json:"targetWarehouse,omitempty"`
	OverflowAmount  int                `json:"overflowAmount,omitempty"`
	MoveAmount      int                `json:"moveAmount,omitempty"`
	Message         string             `json:"message"`
}

type Entry struct {
	WeekOffset     int                   `json:"weekOffset"`
	WeekNumber     int                   `json:"weekNumber"`
	Warehouses     []WarehouseProjection `json:"warehouses"`
	TotalAlert     enums.AlertTier       `json:"totalAlert"`
	Recommendation *Recommendation       `json:"recommendation"`
}

// Warehouse returns the projection for w.
func (e Entry) Warehouse(w enums.Warehouse) (WarehouseProjection, bool) {
	for _, p := range e.Warehouses {
		if p.Warehouse == w {
			return p, true
		}
	}
	return WarehouseProjection{}, false
}

type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Year        int       `json:"year"`
	CurrentWeek int       `json:"currentWeek"`
	Entries     []Entry   `json:"entries"`
}
