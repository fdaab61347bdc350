package enums

// OutboxAggregateType maps to aggregate_type_enum.
type OutboxAggregateType string

const (
	AggregateShipment     OutboxAggregateType = "shipment"
	AggregateWarehouse    OutboxAggregateType = "warehouse"
	AggregateCapacityWeek OutboxAggregateType = "capacity_week"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateShipment, AggregateWarehouse, AggregateCapacityWeek:
		return true
	}
	return false
}

// OutboxEventType maps to event_type_enum.
type OutboxEventType string

const (
	EventShipmentStatusChanged    OutboxEventType = "shipment_status_changed"
	EventWarehouseCapacityChanged OutboxEventType = "warehouse_capacity_changed"
	EventCapacityAlertRaised      OutboxEventType = "capacity_alert_raised"
)

func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventShipmentStatusChanged, EventWarehouseCapacityChanged, EventCapacityAlertRaised:
		return true
	}
	return false
}

// OutboxDLQErrorReason maps to outbox_dlq_error_reason_enum.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts marks an event that kept failing transiently.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable marks an event that can never be delivered
	// as stored: unknown type, bad payload or no publisher for its topic.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable:
		return true
	}
	return false
}
