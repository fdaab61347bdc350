package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Engine projects warehouse bin utilisation over the coming weeks.
// Generate is pure: the same Input always yields the same Report.
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// CurrentWeek is the day-count week of the year: days since Jan 1 divided by
// seven, plus one. It does not follow ISO-8601 week rules.
func CurrentWeek(now time.Time) int {
	return (now.YearDay()-1)/7 + 1
}

// Generate builds one entry per week offset in 0..HorizonWeeks.
// It panics on a shipment with a negative pallet count.
func (e *Engine) Generate(in Input) Report {
	currentWeek := CurrentWeek(in.Now)
	pallets := e.bucketPallets(in.Shipments)

	report := Report{
		GeneratedAt: in.Now.UTC(),
		Year:        in.Now.Year(),
		CurrentWeek: currentWeek,
		Entries:     make([]Entry, 0, e.params.HorizonWeeks+1),
	}

	for offset := 0; offset <= e.params.HorizonWeeks; offset++ {
		week := currentWeek + offset
		entry := Entry{
			WeekOffset: offset,
			WeekNumber: week,
			Warehouses: make([]WarehouseProjection, 0, len(enums.Warehouses)),
			TotalAlert: enums.AlertTierOK,
		}
		for _, w := range enums.Warehouses {
			p := e.project(w, offset, pallets[weekKey{week: week, warehouse: w}], in)
			entry.Warehouses = append(entry.Warehouses, p)
			entry.TotalAlert = entry.TotalAlert.Worse(p.Alert)
		}
		entry.Recommendation = e.recommend(entry)
		report.Entries = append(report.Entries, entry)
	}
	return report
}

type weekKey struct {
	week      int
	warehouse enums.Warehouse
}

func (e *Engine) bucketPallets(shipments []Shipment) map[weekKey]int {
	out := make(map[weekKey]int)
	for _, s := range shipments {
		if s.PalletQty != nil && *s.PalletQty < 0 {
			panic(fmt.Sprintf("forecast: shipment %s has negative pallet quantity %d", s.ID, *s.PalletQty))
		}
		if !s.Status.IsInMotion() {
			continue
		}
		qty := 1
		if s.PalletQty != nil && *s.PalletQty > 0 {
			qty = *s.PalletQty
		}
		out[weekKey{week: s.WeekNumber, warehouse: s.ReceivingWarehouse}] += qty
	}
	return out
}

func (e *Engine) project(w enums.Warehouse, offset, pallets int, in Input) WarehouseProjection {
	incoming := decimal.NewFromInt(int64(pallets)).Mul(e.params.BinsPerPallet).Ceil()
	current := decimal.NewFromInt(int64(in.CurrentBinsUsed[w]))

	estimated := current
	if offset > 0 {
		estimated = decimal.Max(decimal.Zero, current.Sub(incoming.Mul(e.params.DecayFactor)))
	}

	capacity := e.capacityFor(w, in.Capacities)
	projected := estimated.Add(incoming).Round(0)
	percent := projected.Mul(hundred).Div(decimal.NewFromInt(int64(capacity))).Round(0)

	p := WarehouseProjection{
		Warehouse:         w,
		ProjectedBinsUsed: int(projected.IntPart()),
		Capacity:          capacity,
		PercentUsed:       int(percent.IntPart()),
		IncomingBins:      int(incoming.IntPart()),
	}
	p.Alert = e.tier(p.PercentUsed)
	return p
}

func (e *Engine) capacityFor(w enums.Warehouse, ledger map[enums.Warehouse]int) int {
	if c := ledger[w]; c > 0 {
		return c
	}
	if c := e.params.NominalCapacity[w]; c > 0 {
		return c
	}
	// Never divide by zero; an unknown site reads as fully used at one bin.
	return 1
}

func (e *Engine) tier(percent int) enums.AlertTier {
	switch {
	case percent > overflowPercent:
		return enums.AlertTierOverflow
	case percent >= e.params.CriticalPercent:
		return enums.AlertTierCritical
	case percent >= e.params.WarningPercent:
		return enums.AlertTierWarning
	default:
		return enums.AlertTierOK
	}
}

func (e *Engine) recommend(entry Entry) *Recommendation {
	for _, w := range enums.Warehouses {
		p, _ := entry.Warehouse(w)
		if p.Alert == enums.AlertTierOverflow {
			amount := p.ProjectedBinsUsed - p.Capacity
			return &Recommendation{
				Type:           RecommendationOverflow,
				Severity:       SeverityCritical,
				Warehouse:      w,
				OverflowAmount: amount,
				Message: fmt.Sprintf("%s will exceed capacity by %d bins in week %d (%d%%)",
					w, amount, entry.WeekNumber, p.PercentUsed),
			}
		}
	}

	pretoria, _ := entry.Warehouse(enums.WarehousePretoria)
	klapmuts, _ := entry.Warehouse(enums.WarehouseKlapmuts)
	offsite, _ := entry.Warehouse(enums.WarehouseOffsite)

	if pretoria.Alert == enums.AlertTierCritical {
		for _, target := range []WarehouseProjection{klapmuts, offsite} {
			if rec := e.redistribute(entry.WeekNumber, pretoria, target); rec != nil {
				return rec
			}
		}
		return critical(entry.WeekNumber, pretoria)
	}
	if klapmuts.Alert == enums.AlertTierCritical {
		if rec := e.redistribute(entry.WeekNumber, klapmuts, offsite); rec != nil {
			return rec
		}
		return critical(entry.WeekNumber, klapmuts)
	}
	if offsite.Alert == enums.AlertTierCritical {
		return critical(entry.WeekNumber, offsite)
	}

	for _, p := range []WarehouseProjection{pretoria, klapmuts, offsite} {
		if p.Alert == enums.AlertTierWarning {
			return &Recommendation{
				Type:      RecommendationWarning,
				Severity:  SeverityWarning,
				Warehouse: p.Warehouse,
				Message: fmt.Sprintf("%s projected at %d%% in week %d; monitor inbound volume",
					p.Warehouse, p.PercentUsed, entry.WeekNumber),
			}
		}
	}
	return nil
}

// redistribute sizes a move from a critical source to a target still under
// the redistribution threshold. It returns nil when the target is too full.
func (e *Engine) redistribute(week int, source, target WarehouseProjection) *Recommendation {
	if target.PercentUsed >= e.params.RedistributeBelow {
		return nil
	}
	move := min(source.Spare()+e.params.Buffers[source.Warehouse], target.Capacity-target.ProjectedBinsUsed)
	dest := target.Warehouse
	return &Recommendation{
		Type:            RecommendationRedistribute,
		Severity:        SeverityCritical,
		Warehouse:       source.Warehouse,
		TargetWarehouse: &dest,
		MoveAmount:      move,
		Message: fmt.Sprintf("%s projected at %d%% in week %d; move %d bins to %s (%d%%)",
			source.Warehouse, source.PercentUsed, week, move, dest, target.PercentUsed),
	}
}

func critical(week int, p WarehouseProjection) *Recommendation {
	return &Recommendation{
		Type:      RecommendationCritical,
		Severity:  SeverityCritical,
		Warehouse: p.Warehouse,
		Message: fmt.Sprintf("%s projected at %d%% in week %d with no site able to absorb the excess",
			p.Warehouse, p.PercentUsed, week),
	}
}
