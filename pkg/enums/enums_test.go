package enums

import "testing"

func TestInMotionExcludesSeafreightTransitAndCustoms(t *testing.T) {
	if len(InMotionStatuses) != 8 {
		t.Fatalf("expected 8 in-motion statuses, got %d", len(InMotionStatuses))
	}
	for _, s := range []ShipmentStatus{ShipmentStatusInTransitSeafreight, ShipmentStatusAirCustomsClearance, ShipmentStatusArrivedPTA} {
		if s.IsInMotion() {
			t.Fatalf("%s should not count as in motion", s)
		}
	}
	if !ShipmentStatusInTransitSeaway.IsInMotion() {
		t.Fatalf("in_transit_seaway should count as in motion")
	}
}

func TestParseShipmentStatus(t *testing.T) {
	got, err := ParseShipmentStatus("inspection_in_progress")
	if err != nil || got != ShipmentStatusInspectionInProgress {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParseShipmentStatus("lost_at_sea"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if len(ShipmentStatuses()) != 28 {
		t.Fatalf("expected 28 statuses, got %d", len(ShipmentStatuses()))
	}
}

func TestParseWarehouseIsCaseInsensitive(t *testing.T) {
	got, err := ParseWarehouse("offsite")
	if err != nil || got != WarehouseOffsite {
		t.Fatalf("expected Offsite, got %q %v", got, err)
	}
	if _, err := ParseWarehouse("DURBAN"); err == nil {
		t.Fatal("expected error for unknown warehouse")
	}
}

func TestWarehouseAggregateIDStable(t *testing.T) {
	if WarehousePretoria.AggregateID() != WarehousePretoria.AggregateID() {
		t.Fatal("aggregate id must be deterministic")
	}
	if WarehousePretoria.AggregateID() == WarehouseKlapmuts.AggregateID() {
		t.Fatal("aggregate ids must differ per warehouse")
	}
}

func TestAlertTierWorse(t *testing.T) {
	tier := AlertTierOK
	for _, next := range []AlertTier{AlertTierWarning, AlertTierOverflow, AlertTierCritical, AlertTierOK} {
		tier = tier.Worse(next)
	}
	if tier != AlertTierOverflow {
		t.Fatalf("expected overflow to stick, got %s", tier)
	}
	if AlertTierWarning.IsActionable() || !AlertTierCritical.IsActionable() {
		t.Fatal("unexpected actionable tiers")
	}
}

func TestOutboxEnumsRejectUnknownValues(t *testing.T) {
	if !EventCapacityAlertRaised.IsValid() || OutboxEventType("capacity_alert").IsValid() {
		t.Fatal("event type validation mismatch")
	}
	if !AggregateCapacityWeek.IsValid() || OutboxAggregateType("week").IsValid() {
		t.Fatal("aggregate type validation mismatch")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("gave_up").IsValid() {
		t.Fatal("dlq reason validation mismatch")
	}
	if MemberRole("owner").IsValid() || !MemberRoleSystem.IsValid() {
		t.Fatal("member role validation mismatch")
	}
}
