package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/enums"
)

const (
	// DefaultDecayFactor is the share of a week's incoming bins assumed to be
	// cleared from existing stock. It is a heuristic, not a measured rate.
	DefaultDecayFactor = "0.3"
	// DefaultHorizonWeeks yields offsets 0..8, nine entries.
	DefaultHorizonWeeks = 8

	DefaultWarningPercent  = 80
	DefaultCriticalPercent = 95
	// overflowPercent is strict: only utilisation above 100% overflows.
	overflowPercent = 100

	// DefaultRedistributeBelow is the utilisation a target site must stay
	// under to receive redistributed volume.
	DefaultRedistributeBelow = 80

	DefaultPretoriaBuffer = 50
	DefaultKlapmutsBuffer = 30
)

// Params holds every tunable of the forecast.
type Params struct {
	DecayFactor       decimal.Decimal
	BinsPerPallet     decimal.Decimal
	HorizonWeeks      int
	WarningPercent    int
	CriticalPercent   int
	RedistributeBelow int
	// Buffers are added to the source site's remaining room when sizing a
	// redistribution away from it.
	Buffers map[enums.Warehouse]int
	// NominalCapacity is used when the ledger has no positive total_capacity.
	NominalCapacity map[enums.Warehouse]int
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		DecayFactor:       decimal.RequireFromString(DefaultDecayFactor),
		BinsPerPallet:     decimal.NewFromInt(1),
		HorizonWeeks:      DefaultHorizonWeeks,
		WarningPercent:    DefaultWarningPercent,
		CriticalPercent:   DefaultCriticalPercent,
		RedistributeBelow: DefaultRedistributeBelow,
		Buffers: map[enums.Warehouse]int{
			enums.WarehousePretoria: DefaultPretoriaBuffer,
			enums.WarehouseKlapmuts: DefaultKlapmutsBuffer,
		},
		NominalCapacity: map[enums.Warehouse]int{
			enums.WarehousePretoria: 650,
			enums.WarehouseKlapmuts: 384,
			enums.WarehouseOffsite:  384,
		},
	}
}

// ParamsFromConfig maps env configuration onto Params.
func ParamsFromConfig(cfg config.ForecastConfig) Params {
	p := DefaultParams()
	p.DecayFactor = cfg.Decay()
	p.BinsPerPallet = cfg.PalletBins()
	p.HorizonWeeks = cfg.HorizonWeeks
	p.WarningPercent = cfg.WarningPercent
	p.CriticalPercent = cfg.CriticalPercent
	p.RedistributeBelow = cfg.RedistributeBelow
	p.Buffers[enums.WarehousePretoria] = cfg.PretoriaBuffer
	p.Buffers[enums.WarehouseKlapmuts] = cfg.KlapmutsBuffer
	p.NominalCapacity[enums.WarehousePretoria] = cfg.PretoriaCapacity
	p.NominalCapacity[enums.WarehouseKlapmuts] = cfg.KlapmutsCapacity
	p.NominalCapacity[enums.WarehouseOffsite] = cfg.OffsiteCapacity
	return p
}
