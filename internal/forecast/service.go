package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shiplogix/logistics-backend/internal/capacity"
	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

type shipmentSource interface {
	ListInMotion(ctx context.Context, fromWeek, toWeek int) ([]models.Shipment, error)
}

type ledgerSource interface {
	GetAll(ctx context.Context) (map[enums.Warehouse]capacity.Balance, error)
}

// Service assembles the forecast snapshot from storage and runs the engine.
type Service interface {
	Generate(ctx context.Context) (*Report, error)
}

type service struct {
	engine    *Engine
	shipments shipmentSource
	ledger    ledgerSource
	horizon   int
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params Params, shipments shipmentSource, ledger ledgerSource, logg *logger.Logger, now func() time.Time) (Service, error) {
	if shipments == nil {
		return nil, fmt.Errorf("shipment source required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("capacity ledger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		engine:    NewEngine(params),
		shipments: shipments,
		ledger:    ledger,
		horizon:   params.HorizonWeeks,
		logg:      logg,
		now:       now,
	}, nil
}

func (s *service) Generate(ctx context.Context) (*Report, error) {
	now := s.now()
	week := CurrentWeek(now)

	rows, err := s.shipments.ListInMotion(ctx, week, week+s.horizon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load in-motion shipments")
	}
	balances, err := s.ledger.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	in := Input{
		Now:             now,
		Shipments:       make([]Shipment, 0, len(rows)),
		CurrentBinsUsed: make(map[enums.Warehouse]int, len(balances)),
		Capacities:      make(map[enums.Warehouse]int, len(balances)),
	}
	for _, row := range rows {
		in.Shipments = append(in.Shipments, ShipmentFromModel(row))
	}
	for w, b := range balances {
		in.CurrentBinsUsed[w] = b.BinsUsed
		in.Capacities[w] = b.TotalCapacity
	}

	report := s.engine.Generate(in)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"current_week": report.CurrentWeek,
			"shipments":    len(in.Shipments),
		})
		s.logg.Debug(logCtx, "capacity forecast generated")
	}
	return &report, nil
}
