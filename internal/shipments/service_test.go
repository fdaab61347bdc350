package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/shiplogix/logistics-backend/pkg/db"
	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/outbox"
	"github.com/shiplogix/logistics-backend/pkg/outbox/payloads"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

type workflowFixture struct {
	conn   *gorm.DB
	client *dbpkg.Client
	repo   Repository
	svc    Service
}

func openShipmentsDB(t *testing.T) (*gorm.DB, *dbpkg.Client) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := dbpkg.NewFromGorm(conn)
	require.NoError(t, client.AutoMigrate(context.Background()))
	return conn, client
}

func newWorkflowFixture(t *testing.T, wrap func(Repository) Repository) *workflowFixture {
	t.Helper()
	conn, client := openShipmentsDB(t)
	repo := NewRepository(conn)
	svcRepo := repo
	if wrap != nil {
		svcRepo = wrap(repo)
	}
	svc, err := NewService(ServiceParams{
		Repo:   svcRepo,
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Now:    func() time.Time { return time.Date(2026, 4, 14, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &workflowFixture{conn: conn, client: client, repo: repo, svc: svc}
}

func (f *workflowFixture) seed(t *testing.T, status enums.ShipmentStatus) *models.Shipment {
	t.Helper()
	pallets := 4
	shipment := &models.Shipment{
		Supplier:           "Cape Fasteners",
		OrderRef:           "PO-" + uuid.NewString()[:8],
		LatestStatus:       status,
		WeekNumber:         16,
		Quantity:           480,
		PalletQty:          &pallets,
		ReceivingWarehouse: enums.WarehouseKlapmuts,
	}
	require.NoError(t, f.repo.Create(context.Background(), shipment))
	return shipment
}

func (f *workflowFixture) events(t *testing.T) []payloads.ShipmentStatusChangedEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventShipmentStatusChanged).Find(&rows).Error)
	out := make([]payloads.ShipmentStatusChangedEvent, 0, len(rows))
	for _, row := range rows {
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		var ev payloads.ShipmentStatusChangedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &ev))
		out = append(out, ev)
	}
	return out
}

func actorWithRole(role enums.MemberRole) *types.Actor {
	return &types.Actor{UserID: uuid.New(), Role: role}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestHappyPathToStored(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusArrivedKLM)
	operator := actorWithRole(enums.MemberRoleOperator)
	inspector := actorWithRole(enums.MemberRoleInspector)

	dto, err := fx.svc.StartUnloading(ctx, shipment.ID, operator)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusUnloading, dto.Status)
	require.NotNil(t, dto.UnloadingStartedAt)

	dto, err = fx.svc.CompleteUnloading(ctx, shipment.ID, operator)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusInspectionPending, dto.Status)

	dto, err = fx.svc.StartInspection(ctx, shipment.ID, nil, inspector)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusInspecting, dto.Status)
	require.NotNil(t, dto.InspectedBy)
	assert.Equal(t, inspector.UserID, *dto.InspectedBy)

	notes := "seals intact"
	dto, err = fx.svc.CompleteInspection(ctx, shipment.ID, CompleteInspectionInput{Passed: true, Notes: &notes}, inspector)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusInspectionPassed, dto.Status)
	require.NotNil(t, dto.InspectionStatus)
	assert.Equal(t, enums.InspectionStatusPassed, *dto.InspectionStatus)
	require.NotNil(t, dto.InspectionNotes)
	assert.Equal(t, notes, *dto.InspectionNotes)

	dto, err = fx.svc.StartReceiving(ctx, shipment.ID, nil, operator)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusReceiving, dto.Status)

	dto, err = fx.svc.CompleteReceiving(ctx, shipment.ID, CompleteReceivingInput{ReceivedQty: 478}, operator)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusReceived, dto.Status)
	require.NotNil(t, dto.ReceivedQuantity)
	assert.Equal(t, 478, *dto.ReceivedQuantity)
	require.NotNil(t, dto.ReceivedBy)
	assert.Equal(t, operator.UserID, *dto.ReceivedBy)

	dto, err = fx.svc.MarkAsStored(ctx, shipment.ID, operator)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusStored, dto.Status)
	require.NotNil(t, dto.UpdatedBy)
	assert.Equal(t, operator.UserID, *dto.UpdatedBy)

	events := fx.events(t)
	require.Len(t, events, 7)
	seen := map[string]bool{}
	for _, ev := range events {
		assert.Equal(t, shipment.ID, ev.ShipmentID)
		seen[ev.Operation] = true
	}
	assert.True(t, seen[string(OpMarkAsStored)])
}

func TestInvalidTransitionLeavesShipmentUntouched(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusMoored)

	_, err := fx.svc.MarkAsStored(ctx, shipment.ID, actorWithRole(enums.MemberRoleOperator))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	dto, err := fx.svc.Get(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusMoored, dto.Status)
	assert.Empty(t, fx.events(t))
}

func TestFailedInspectionThenReject(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusInspecting)
	inspector := actorWithRole(enums.MemberRoleInspector)

	dto, err := fx.svc.CompleteInspection(ctx, shipment.ID, CompleteInspectionInput{Passed: false}, inspector)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusInspectionFailed, dto.Status)

	_, err = fx.svc.StartReceiving(ctx, shipment.ID, nil, inspector)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	dto, err = fx.svc.Reject(ctx, shipment.ID, "crushed cartons", actorWithRole(enums.MemberRoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusCancelled, dto.Status)
	require.NotNil(t, dto.RejectionReason)
	assert.Equal(t, "crushed cartons", *dto.RejectionReason)

	_, err = fx.svc.Reject(ctx, shipment.ID, "again", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestRejectFromFailedInspectionNeedsNoReason(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	shipment := fx.seed(t, enums.ShipmentStatusInspectionFailed)

	dto, err := fx.svc.Apply(context.Background(), shipment.ID, OpReject, Args{Actor: actorWithRole(enums.MemberRoleOperator)})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusCancelled, dto.Status)
	assert.Nil(t, dto.RejectionReason)
}

func TestArchiveAndUnarchiveRestoresPriorStatus(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusStored)
	admin := actorWithRole(enums.MemberRoleAdmin)

	dto, err := fx.svc.Archive(ctx, shipment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusArchived, dto.Status)
	require.NotNil(t, dto.StatusBeforeArchive)
	assert.Equal(t, enums.ShipmentStatusStored, *dto.StatusBeforeArchive)

	_, err = fx.svc.Archive(ctx, shipment.ID, admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	dto, err = fx.svc.Unarchive(ctx, shipment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusStored, dto.Status)
	assert.Nil(t, dto.StatusBeforeArchive)
}

func TestUnarchiveWithoutRecordedStatus(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	shipment := fx.seed(t, enums.ShipmentStatusArchived)

	_, err := fx.svc.Unarchive(context.Background(), shipment.ID, actorWithRole(enums.MemberRoleAdmin))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestMissingShipmentIsNotFound(t *testing.T) {
	fx := newWorkflowFixture(t, nil)

	_, err := fx.svc.StartUnloading(context.Background(), uuid.New(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = fx.svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

// racingRepo moves the shipment to another status just before the
// conditional write, as a concurrent writer would.
type racingRepo struct {
	Repository
	raceTo enums.ShipmentStatus
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), raceTo: r.raceTo}
}

func (r *racingRepo) UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.ShipmentStatus, updates map[string]any) (int64, error) {
	if _, err := r.Repository.UpdateIfStatus(ctx, id, expected, map[string]any{"latest_status": r.raceTo}); err != nil {
		return 0, err
	}
	return r.Repository.UpdateIfStatus(ctx, id, expected, updates)
}

func TestConcurrentChangeIsStaleState(t *testing.T) {
	fx := newWorkflowFixture(t, func(repo Repository) Repository {
		return &racingRepo{Repository: repo, raceTo: enums.ShipmentStatusDelayed}
	})
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusArrivedPTA)

	_, err := fx.svc.StartUnloading(ctx, shipment.ID, actorWithRole(enums.MemberRoleOperator))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStaleState))

	// The whole transaction rolled back, including the racing write.
	stored, err := fx.repo.FindByID(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusArrivedPTA, stored.LatestStatus)
	assert.Nil(t, stored.UnloadingStartedAt)
	assert.Empty(t, fx.events(t))
}

func TestConditionalWriteRequiresExpectedStatus(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusUnloading)

	rows, err := fx.repo.UpdateIfStatus(ctx, shipment.ID, enums.ShipmentStatusArrivedPTA, map[string]any{
		"latest_status": enums.ShipmentStatusInspectionPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	rows, err = fx.repo.UpdateIfStatus(ctx, shipment.ID, enums.ShipmentStatusUnloading, map[string]any{
		"latest_status": enums.ShipmentStatusInspectionPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestMarkDelayedCarriesReasonOnEventOnly(t *testing.T) {
	fx := newWorkflowFixture(t, nil)
	ctx := context.Background()
	shipment := fx.seed(t, enums.ShipmentStatusBerthWorking)

	dto, err := fx.svc.MarkDelayed(ctx, shipment.ID, "port congestion", actorWithRole(enums.MemberRoleOperator))
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusDelayed, dto.Status)
	assert.Nil(t, dto.RejectionReason)

	events := fx.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "port congestion", events[0].Reason)
	assert.Equal(t, enums.ShipmentStatusBerthWorking, events[0].FromStatus)
	assert.Equal(t, enums.ShipmentStatusDelayed, events[0].ToStatus)
}
