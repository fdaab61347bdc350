package capacity

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
	"github.com/shiplogix/logistics-backend/pkg/types"
)

type ledgerFixture struct {
	conn  *gorm.DB
	svc   Service
	clock *time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
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

	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	fx := &ledgerFixture{conn: conn, clock: &clock}
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Now:    func() time.Time { return *fx.clock },
	})
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func (f *ledgerFixture) tick() {
	next := f.clock.Add(time.Minute)
	f.clock = &next
}

func (f *ledgerFixture) historyCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.WarehouseCapacityHistory{}).Count(&count).Error)
	return count
}

func operator() *types.Actor {
	return &types.Actor{UserID: uuid.New(), Role: enums.MemberRoleOperator}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestSetBinsUsedRecordsHistoryForExistingRow(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()
	actor := operator()

	_, err := fx.svc.SetBinsUsed(ctx, enums.WarehousePretoria, 50, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fx.historyCount(t), "first insert is not audited")

	fx.tick()
	balance, err := fx.svc.SetBinsUsed(ctx, enums.WarehousePretoria, 75, actor)
	require.NoError(t, err)
	assert.Equal(t, 75, balance.BinsUsed)
	require.NotNil(t, balance.UpdatedBy)
	assert.Equal(t, actor.UserID, *balance.UpdatedBy)

	history, err := fx.svc.GetHistory(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 75, history[0].BinsUsed)
	assert.Equal(t, 50, history[0].PreviousValue)
	require.NotNil(t, history[0].ChangedBy)
	assert.Equal(t, actor.UserID, *history[0].ChangedBy)
}

func TestSetBinsUsedWithoutActorSkipsHistory(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 10, operator())
	require.NoError(t, err)
	balance, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 12, nil)
	require.NoError(t, err)

	assert.Equal(t, 12, balance.BinsUsed)
	assert.Nil(t, balance.UpdatedBy)
	assert.Equal(t, int64(0), fx.historyCount(t))
}

func TestSetNegativeValueIsRejectedAndRowUnchanged(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseOffsite, 40, operator())
	require.NoError(t, err)

	setters := map[string]func() (*Balance, error){
		"bins_used": func() (*Balance, error) {
			return fx.svc.SetBinsUsed(ctx, enums.WarehouseOffsite, -1, operator())
		},
		"available_bins": func() (*Balance, error) {
			return fx.svc.SetAvailableBins(ctx, enums.WarehouseOffsite, -5, operator())
		},
		"total_capacity": func() (*Balance, error) {
			return fx.svc.SetTotalCapacity(ctx, enums.WarehouseOffsite, -384, nil)
		},
	}
	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			_, err := set()
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}

	all, err := fx.svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, all[enums.WarehouseOffsite].BinsUsed)
	assert.Equal(t, int64(0), fx.historyCount(t))
}

func TestFailedHistoryInsertRollsBackLedgerWrite(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 50, operator())
	require.NoError(t, err)
	var eventsBefore int64
	require.NoError(t, fx.conn.Model(&models.OutboxEvent{}).Count(&eventsBefore).Error)

	require.NoError(t, fx.conn.Migrator().DropTable(&models.WarehouseCapacityHistory{}))
	fx.tick()

	_, err = fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 70, operator())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	all, err := fx.svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, all[enums.WarehouseKlapmuts].BinsUsed)

	var eventsAfter int64
	require.NoError(t, fx.conn.Model(&models.OutboxEvent{}).Count(&eventsAfter).Error)
	assert.Equal(t, eventsBefore, eventsAfter)
}

func TestUnknownWarehouseIsNotFound(t *testing.T) {
	fx := newLedgerFixture(t)

	_, err := fx.svc.SetBinsUsed(context.Background(), enums.Warehouse("DURBAN"), 1, operator())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	unknown := enums.Warehouse("pretoria")
	_, err = fx.svc.GetHistory(context.Background(), HistoryQuery{Warehouse: &unknown})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFieldWritesAreIndependent(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()
	actor := operator()

	_, err := fx.svc.SetTotalCapacity(ctx, enums.WarehousePretoria, 650, actor)
	require.NoError(t, err)
	_, err = fx.svc.SetAvailableBins(ctx, enums.WarehousePretoria, 200, actor)
	require.NoError(t, err)
	balance, err := fx.svc.SetBinsUsed(ctx, enums.WarehousePretoria, 300, actor)
	require.NoError(t, err)

	assert.Equal(t, 650, balance.TotalCapacity)
	assert.Equal(t, 200, balance.AvailableBins)
	assert.Equal(t, 300, balance.BinsUsed)

	// Only the bins_used write on an existing row is audited.
	assert.Equal(t, int64(1), fx.historyCount(t))
}

func TestSetEmitsCapacityChangedEvent(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 20, operator())
	require.NoError(t, err)
	_, err = fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, 25, operator())
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, fx.conn.Find(&events).Error)
	require.Len(t, events, 2)

	var audited map[string]any
	for _, ev := range events {
		assert.Equal(t, enums.EventWarehouseCapacityChanged, ev.EventType)
		assert.Equal(t, enums.WarehouseKlapmuts.AggregateID(), ev.AggregateID)

		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(ev.Payload, &envelope))
		var data map[string]any
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		if data["audited"] == true {
			audited = data
		}
	}
	require.NotNil(t, audited, "expected the second write to be audited")
	assert.Equal(t, "bins_used", audited["field"])
	assert.EqualValues(t, 20, audited["previous_value"])
	assert.EqualValues(t, 25, audited["value"])
}

func TestGetHistoryNewestFirstWithFilterAndLimit(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()
	actor := operator()

	for _, v := range []int{1, 2, 3, 4} {
		_, err := fx.svc.SetBinsUsed(ctx, enums.WarehousePretoria, v, actor)
		require.NoError(t, err)
		fx.tick()
	}
	for _, v := range []int{7, 8} {
		_, err := fx.svc.SetBinsUsed(ctx, enums.WarehouseKlapmuts, v, actor)
		require.NoError(t, err)
		fx.tick()
	}

	pretoria := enums.WarehousePretoria
	history, err := fx.svc.GetHistory(ctx, HistoryQuery{Warehouse: &pretoria, Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].BinsUsed)
	assert.Equal(t, 3, history[0].PreviousValue)
	assert.Equal(t, 3, history[1].BinsUsed)

	all, err := fx.svc.GetHistory(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, enums.WarehouseKlapmuts, all[0].Warehouse)
}

func TestListFollowsSitePriority(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	for _, w := range []enums.Warehouse{enums.WarehouseOffsite, enums.WarehousePretoria, enums.WarehouseKlapmuts} {
		_, err := fx.svc.SetTotalCapacity(ctx, w, 100, nil)
		require.NoError(t, err)
	}

	list, err := fx.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, enums.WarehousePretoria, list[0].Warehouse)
	assert.Equal(t, enums.WarehouseKlapmuts, list[1].Warehouse)
	assert.Equal(t, enums.WarehouseOffsite, list[2].Warehouse)
}

func TestHistoryQueryLimitBounds(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, HistoryQuery{}.normalizedLimit())
	assert.Equal(t, MaxHistoryLimit, HistoryQuery{Limit: 10_000}.normalizedLimit())
	assert.Equal(t, 7, HistoryQuery{Limit: 7}.normalizedLimit())
}
