package forecast

import (
	"fmt"

	"github.com/google/uuid"
)

var alertNamespace = uuid.MustParse("3b1f6d2e-9c47-4a0e-8e15-52f0a7c4d9b3")

// Alert is one actionable (critical or overflow) warehouse projection.
type Alert struct {
	Year           int
	WeekOffset     int
	WeekNumber     int
	Projection     WarehouseProjection
	Recommendation *Recommendation
}

// AggregateID is stable for a (year, week, warehouse, tier) so repeated runs
// collapse onto one outbox row.
func (a Alert) AggregateID() uuid.UUID {
	key := fmt.Sprintf("%d:%d:%s:%s", a.Year, a.WeekNumber, a.Projection.Warehouse, a.Projection.Alert)
	return uuid.NewSHA1(alertNamespace, []byte(key))
}

// ActionableAlerts lists the critical and overflow projections of a report in
// entry order, then site order.
func ActionableAlerts(report Report) []Alert {
	var alerts []Alert
	for _, entry := range report.Entries {
		for _, p := range entry.Warehouses {
			if !p.Alert.IsActionable() {
				continue
			}
			alerts = append(alerts, Alert{
				Year:           report.Year,
				WeekOffset:     entry.WeekOffset,
				WeekNumber:     entry.WeekNumber,
				Projection:     p,
				Recommendation: entry.Recommendation,
			})
		}
	}
	return alerts
}
