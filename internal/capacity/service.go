package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/metrics"
	"github.com/shiplogix/logistics-backend/pkg/outbox"
	"github.com/shiplogix/logistics-backend/pkg/outbox/payloads"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the warehouse bin ledger.
//
// Writers to the same warehouse are last-writer-wins: there is no version
// check on the ledger row. Each write holds the warehouse lock from reading
// the prior value until commit, so history records the value it replaced.
type Service interface {
	GetAll(ctx context.Context) (map[enums.Warehouse]Balance, error)
	List(ctx context.Context) ([]Balance, error)
	SetBinsUsed(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error)
	SetAvailableBins(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error)
	SetTotalCapacity(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error)
	GetHistory(ctx context.Context, query HistoryQuery) ([]HistoryEntry, error)
}

type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Outbox  outboxEmitter
	Logger  *logger.Logger
	Metrics *metrics.WorkflowMetrics
	Now     func() time.Time
}

type service struct {
	repo    *Repository
	tx      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("capacity repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) GetAll(ctx context.Context) (map[enums.Warehouse]Balance, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouse capacity")
	}
	out := make(map[enums.Warehouse]Balance, len(rows))
	for _, row := range rows {
		out[row.WarehouseName] = balanceFromModel(row)
	}
	return out, nil
}

// List returns the known ledger rows in site priority order.
func (s *service) List(ctx context.Context) ([]Balance, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Balance, 0, len(all))
	for _, w := range enums.Warehouses {
		if b, ok := all[w]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *service) SetBinsUsed(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error) {
	return s.set(ctx, warehouse, FieldBinsUsed, value, actor)
}

func (s *service) SetAvailableBins(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error) {
	return s.set(ctx, warehouse, FieldAvailableBins, value, actor)
}

func (s *service) SetTotalCapacity(ctx context.Context, warehouse enums.Warehouse, value int, actor *types.Actor) (*Balance, error) {
	return s.set(ctx, warehouse, FieldTotalCapacity, value, actor)
}

func (s *service) GetHistory(ctx context.Context, query HistoryQuery) ([]HistoryEntry, error) {
	if query.Warehouse != nil && !query.Warehouse.IsValid() {
		return nil, unknownWarehouse(*query.Warehouse)
	}
	rows, err := s.repo.ListHistory(ctx, query.Warehouse, query.normalizedLimit())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list capacity history")
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyFromModel(row))
	}
	return out, nil
}

// set upserts one ledger column. Only bins_used changes by an identified
// actor on an existing row are written to history, in the same transaction.
func (s *service) set(ctx context.Context, warehouse enums.Warehouse, field Field, value int, actor *types.Actor) (*Balance, error) {
	if !warehouse.IsValid() {
		return nil, unknownWarehouse(warehouse)
	}
	if value < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a non-negative integer", field)).
			WithDetails(map[string]any{"field": field, "value": value})
	}

	now := s.now().UTC()
	var result Balance
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		prior, err := repo.FindForUpdate(ctx, warehouse)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse capacity")
		}

		row := &models.WarehouseCapacity{
			WarehouseName: warehouse,
			UpdatedBy:     actor.UserIDPtr(),
			UpdatedAt:     now,
		}
		setField(row, field, value)
		if err := repo.UpsertField(ctx, row, field); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse capacity")
		}

		var previous *int
		if prior != nil {
			v := fieldValue(*prior, field)
			previous = &v
		}

		audited := field == FieldBinsUsed && prior != nil && actor.UserIDPtr() != nil
		if audited {
			entry := &models.WarehouseCapacityHistory{
				WarehouseName: warehouse,
				BinsUsed:      value,
				PreviousValue: prior.BinsUsed,
				ChangedBy:     actor.UserIDPtr(),
				ChangedAt:     now,
			}
			if err := repo.AppendHistory(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append capacity history")
			}
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWarehouseCapacityChanged,
			AggregateType: enums.AggregateWarehouse,
			AggregateID:   warehouse.AggregateID(),
			Actor:         outbox.ActorFrom(actor),
			OccurredAt:    now,
			Data: payloads.WarehouseCapacityChangedEvent{
				Warehouse:     warehouse,
				Field:         string(field),
				PreviousValue: previous,
				Value:         value,
				Audited:       audited,
				ChangedAt:     now,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit capacity event")
		}

		updated, err := repo.Find(ctx, warehouse)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload warehouse capacity")
		}
		result = balanceFromModel(*updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLedgerWrite(warehouse.String(), string(field))
	if s.logg != nil {
		logCtx := s.logg.WithWarehouse(ctx, warehouse.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"field": field, "value": value})
		s.logg.Info(logCtx, "warehouse capacity updated")
	}
	return &result, nil
}

func setField(row *models.WarehouseCapacity, field Field, value int) {
	switch field {
	case FieldBinsUsed:
		row.BinsUsed = value
	case FieldAvailableBins:
		row.AvailableBins = value
	case FieldTotalCapacity:
		row.TotalCapacity = value
	}
}

func fieldValue(row models.WarehouseCapacity, field Field) int {
	switch field {
	case FieldAvailableBins:
		return row.AvailableBins
	case FieldTotalCapacity:
		return row.TotalCapacity
	default:
		return row.BinsUsed
	}
}

func unknownWarehouse(w enums.Warehouse) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("warehouse %q not found", w))
}
