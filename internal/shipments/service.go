package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/metrics"
	"github.com/shiplogix/logistics-backend/pkg/outbox"
	"github.com/shiplogix/logistics-backend/pkg/outbox/payloads"
	"github.com/shiplogix/logistics-backend/pkg/pagination"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes shipment reads and the post-arrival workflow.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[ShipmentDTO], error)
	Apply(ctx context.Context, id uuid.UUID, op Operation, args Args) (*ShipmentDTO, error)

	StartUnloading(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	CompleteUnloading(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	StartInspection(ctx context.Context, id uuid.UUID, inspector *uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	CompleteInspection(ctx context.Context, id uuid.UUID, input CompleteInspectionInput, actor *types.Actor) (*ShipmentDTO, error)
	StartReceiving(ctx context.Context, id uuid.UUID, receiver *uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	CompleteReceiving(ctx context.Context, id uuid.UUID, input CompleteReceivingInput, actor *types.Actor) (*ShipmentDTO, error)
	MarkAsStored(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	Reject(ctx context.Context, id uuid.UUID, reason string, actor *types.Actor) (*ShipmentDTO, error)
	MarkDelayed(ctx context.Context, id uuid.UUID, reason string, actor *types.Actor) (*ShipmentDTO, error)
	Archive(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
	Unarchive(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error)
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxEmitter
	Logger  *logger.Logger
	Metrics *metrics.WorkflowMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("shipments repository required")
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

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	dto := FromModel(*shipment)
	return &dto, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*pagination.Page[ShipmentDTO], error) {
	cursor, err := pagination.ParseCursor(query.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListFilter{
		Status:          query.Status,
		Warehouse:       query.Warehouse,
		WeekNumber:      query.WeekNumber,
		IncludeArchived: query.IncludeArchived,
		Limit:           query.Limit,
		Cursor:          cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	page := pagination.BuildPage(rows, query.Limit,
		func(m models.Shipment) pagination.Cursor {
			return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
		},
		FromModel,
	)
	return &page, nil
}

// Apply runs one workflow operation. The status check, the conditional
// write, the re-read and the outbox event share one transaction; a write
// that loses a race reports CodeStaleState and changes nothing.
func (s *service) Apply(ctx context.Context, id uuid.UUID, op Operation, args Args) (*ShipmentDTO, error) {
	now := s.now().UTC()
	var (
		result  models.Shipment
		outcome Outcome
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}

		outcome, err = Transition(StateOf(*current), op, args, now)
		if err != nil {
			return err
		}

		rows, err := repo.UpdateIfStatus(ctx, id, outcome.From, outcome.Updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment status")
		}
		if rows == 0 {
			return s.staleOrMissing(ctx, repo, id, outcome)
		}

		updated, err := repo.FindByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentStatusChanged,
			AggregateType: enums.AggregateShipment,
			AggregateID:   id,
			Actor:         outbox.ActorFrom(args.Actor),
			OccurredAt:    now,
			Data: payloads.ShipmentStatusChangedEvent{
				ShipmentID:         id,
				OrderRef:           updated.OrderRef,
				Supplier:           updated.Supplier,
				ReceivingWarehouse: updated.ReceivingWarehouse,
				Operation:          string(op),
				FromStatus:         outcome.From,
				ToStatus:           outcome.To,
				Reason:             args.Reason,
				ChangedAt:          now,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit shipment event")
		}

		result = *updated
		return nil
	})
	if err != nil {
		s.metrics.IncTransition(string(op), transitionOutcome(err))
		return nil, err
	}

	s.metrics.IncTransition(string(op), metrics.OutcomeApplied)
	if s.logg != nil {
		logCtx := s.logg.WithShipmentID(ctx, id.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"operation":   op,
			"from_status": outcome.From,
			"to_status":   outcome.To,
		})
		s.logg.Info(logCtx, "shipment status changed")
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) staleOrMissing(ctx context.Context, repo Repository, id uuid.UUID, outcome Outcome) error {
	latest, err := repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err)
	}
	return pkgerrors.New(pkgerrors.CodeStaleState, "shipment status changed concurrently").
		WithDetails(map[string]any{
			"operation": outcome.Operation,
			"expected":  outcome.From,
			"actual":    latest.LatestStatus,
		})
}

func (s *service) StartUnloading(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpStartUnloading, Args{Actor: actor})
}

func (s *service) CompleteUnloading(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpCompleteUnloading, Args{Actor: actor})
}

func (s *service) StartInspection(ctx context.Context, id uuid.UUID, inspector *uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpStartInspection, Args{Inspector: inspector, Actor: actor})
}

func (s *service) CompleteInspection(ctx context.Context, id uuid.UUID, input CompleteInspectionInput, actor *types.Actor) (*ShipmentDTO, error) {
	passed := input.Passed
	return s.Apply(ctx, id, OpCompleteInspection, Args{
		Passed:    &passed,
		Notes:     input.Notes,
		Inspector: input.Inspector,
		Actor:     actor,
	})
}

func (s *service) StartReceiving(ctx context.Context, id uuid.UUID, receiver *uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpStartReceiving, Args{Receiver: receiver, Actor: actor})
}

func (s *service) CompleteReceiving(ctx context.Context, id uuid.UUID, input CompleteReceivingInput, actor *types.Actor) (*ShipmentDTO, error) {
	qty := input.ReceivedQty
	return s.Apply(ctx, id, OpCompleteReceiving, Args{
		ReceivedQty: &qty,
		Receiver:    input.Receiver,
		Actor:       actor,
	})
}

func (s *service) MarkAsStored(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpMarkAsStored, Args{Actor: actor})
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpReject, Args{Reason: reason, Actor: actor})
}

func (s *service) MarkDelayed(ctx context.Context, id uuid.UUID, reason string, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpMarkDelayed, Args{Reason: reason, Actor: actor})
}

func (s *service) Archive(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpArchive, Args{Actor: actor})
}

func (s *service) Unarchive(ctx context.Context, id uuid.UUID, actor *types.Actor) (*ShipmentDTO, error) {
	return s.Apply(ctx, id, OpUnarchive, Args{Actor: actor})
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
}

func transitionOutcome(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeStaleState):
		return metrics.OutcomeStale
	default:
		return metrics.OutcomeRejected
	}
}
