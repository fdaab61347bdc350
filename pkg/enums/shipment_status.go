package enums

import "fmt"

// ShipmentStatus maps to the shipment_status enum in Postgres.
type ShipmentStatus string

const (
	// pre-arrival
	ShipmentStatusPlannedAirfreight   ShipmentStatus = "planned_airfreight"
	ShipmentStatusPlannedSeafreight   ShipmentStatus = "planned_seafreight"
	ShipmentStatusInTransitAirfreight ShipmentStatus = "in_transit_airfreight"
	ShipmentStatusInTransitSeafreight ShipmentStatus = "in_transit_seafreight"
	ShipmentStatusAirCustomsClearance ShipmentStatus = "air_customs_clearance"
	ShipmentStatusInTransitRoadway    ShipmentStatus = "in_transit_roadway"
	ShipmentStatusInTransitSeaway     ShipmentStatus = "in_transit_seaway"
	ShipmentStatusMoored              ShipmentStatus = "moored"
	ShipmentStatusBerthWorking        ShipmentStatus = "berth_working"
	ShipmentStatusBerthComplete       ShipmentStatus = "berth_complete"

	// arrival
	ShipmentStatusArrivedPTA     ShipmentStatus = "arrived_pta"
	ShipmentStatusArrivedKLM     ShipmentStatus = "arrived_klm"
	ShipmentStatusArrivedOffsite ShipmentStatus = "arrived_offsite"

	// post-arrival
	ShipmentStatusClearingCustoms      ShipmentStatus = "clearing_customs"
	ShipmentStatusInWarehouse          ShipmentStatus = "in_warehouse"
	ShipmentStatusUnloading            ShipmentStatus = "unloading"
	ShipmentStatusInspectionPending    ShipmentStatus = "inspection_pending"
	ShipmentStatusInspecting           ShipmentStatus = "inspecting"
	ShipmentStatusInspectionInProgress ShipmentStatus = "inspection_in_progress"
	ShipmentStatusInspectionPassed     ShipmentStatus = "inspection_passed"
	ShipmentStatusInspectionFailed     ShipmentStatus = "inspection_failed"
	ShipmentStatusReceivingGoods       ShipmentStatus = "receiving_goods"
	ShipmentStatusReceiving            ShipmentStatus = "receiving"
	ShipmentStatusReceived             ShipmentStatus = "received"
	ShipmentStatusStored               ShipmentStatus = "stored"

	// side states
	ShipmentStatusDelayed   ShipmentStatus = "delayed"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	ShipmentStatusArchived  ShipmentStatus = "archived"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPlannedAirfreight,
	ShipmentStatusPlannedSeafreight,
	ShipmentStatusInTransitAirfreight,
	ShipmentStatusInTransitSeafreight,
	ShipmentStatusAirCustomsClearance,
	ShipmentStatusInTransitRoadway,
	ShipmentStatusInTransitSeaway,
	ShipmentStatusMoored,
	ShipmentStatusBerthWorking,
	ShipmentStatusBerthComplete,
	ShipmentStatusArrivedPTA,
	ShipmentStatusArrivedKLM,
	ShipmentStatusArrivedOffsite,
	ShipmentStatusClearingCustoms,
	ShipmentStatusInWarehouse,
	ShipmentStatusUnloading,
	ShipmentStatusInspectionPending,
	ShipmentStatusInspecting,
	ShipmentStatusInspectionInProgress,
	ShipmentStatusInspectionPassed,
	ShipmentStatusInspectionFailed,
	ShipmentStatusReceivingGoods,
	ShipmentStatusReceiving,
	ShipmentStatusReceived,
	ShipmentStatusStored,
	ShipmentStatusDelayed,
	ShipmentStatusCancelled,
	ShipmentStatusArchived,
}

// InMotionStatuses are the pre-arrival statuses whose pallets count as
// incoming volume in the capacity forecast. in_transit_seafreight and
// air_customs_clearance are deliberately absent.
var InMotionStatuses = []ShipmentStatus{
	ShipmentStatusPlannedAirfreight,
	ShipmentStatusPlannedSeafreight,
	ShipmentStatusInTransitAirfreight,
	ShipmentStatusInTransitSeaway,
	ShipmentStatusInTransitRoadway,
	ShipmentStatusMoored,
	ShipmentStatusBerthWorking,
	ShipmentStatusBerthComplete,
}

// ShipmentStatuses returns every known status in declaration order.
func ShipmentStatuses() []ShipmentStatus {
	out := make([]ShipmentStatus, len(validShipmentStatuses))
	copy(out, validShipmentStatuses)
	return out
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsInMotion reports whether the status contributes to forecast inbound volume.
func (s ShipmentStatus) IsInMotion() bool {
	for _, candidate := range InMotionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no forward workflow operation applies anymore.
func (s ShipmentStatus) IsTerminal() bool {
	switch s {
	case ShipmentStatusStored, ShipmentStatusCancelled, ShipmentStatusArchived:
		return true
	default:
		return false
	}
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
