package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplogix/logistics-backend/internal/capacity"
	"github.com/shiplogix/logistics-backend/internal/forecast"
	"github.com/shiplogix/logistics-backend/internal/shipments"
	pkgAuth "github.com/shiplogix/logistics-backend/pkg/auth"
	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/metrics"
	"github.com/shiplogix/logistics-backend/pkg/pagination"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type applyCall struct {
	id   uuid.UUID
	op   shipments.Operation
	args shipments.Args
}

type stubShipments struct {
	shipments.Service
	calls     []applyCall
	lastQuery shipments.ListQuery
}

func (s *stubShipments) Get(_ context.Context, id uuid.UUID) (*shipments.ShipmentDTO, error) {
	return &shipments.ShipmentDTO{ID: id, Status: enums.ShipmentStatusInWarehouse}, nil
}

func (s *stubShipments) List(_ context.Context, query shipments.ListQuery) (*pagination.Page[shipments.ShipmentDTO], error) {
	s.lastQuery = query
	return &pagination.Page[shipments.ShipmentDTO]{Items: []shipments.ShipmentDTO{}}, nil
}

func (s *stubShipments) Apply(_ context.Context, id uuid.UUID, op shipments.Operation, args shipments.Args) (*shipments.ShipmentDTO, error) {
	s.calls = append(s.calls, applyCall{id: id, op: op, args: args})
	if op == shipments.OpCompleteUnloading {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "invalid state transition")
	}
	return &shipments.ShipmentDTO{ID: id, Status: enums.ShipmentStatusUnloading}, nil
}

type setCall struct {
	field     string
	warehouse enums.Warehouse
	value     int
	actor     *types.Actor
}

type stubCapacity struct {
	capacity.Service
	sets []setCall
}

func (s *stubCapacity) List(context.Context) ([]capacity.Balance, error) {
	return []capacity.Balance{{Warehouse: enums.WarehousePretoria, TotalCapacity: 650}}, nil
}

func (s *stubCapacity) GetHistory(_ context.Context, q capacity.HistoryQuery) ([]capacity.HistoryEntry, error) {
	return []capacity.HistoryEntry{}, nil
}

func (s *stubCapacity) record(field string, w enums.Warehouse, v int, actor *types.Actor) (*capacity.Balance, error) {
	s.sets = append(s.sets, setCall{field: field, warehouse: w, value: v, actor: actor})
	if v < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be non-negative")
	}
	return &capacity.Balance{Warehouse: w}, nil
}

func (s *stubCapacity) SetBinsUsed(_ context.Context, w enums.Warehouse, v int, actor *types.Actor) (*capacity.Balance, error) {
	return s.record("bins_used", w, v, actor)
}

func (s *stubCapacity) SetAvailableBins(_ context.Context, w enums.Warehouse, v int, actor *types.Actor) (*capacity.Balance, error) {
	return s.record("available_bins", w, v, actor)
}

func (s *stubCapacity) SetTotalCapacity(_ context.Context, w enums.Warehouse, v int, actor *types.Actor) (*capacity.Balance, error) {
	return s.record("total_capacity", w, v, actor)
}

type stubForecast struct{}

func (stubForecast) Generate(context.Context) (*forecast.Report, error) {
	return &forecast.Report{Year: 2026, CurrentWeek: 10, Entries: []forecast.Entry{}}, nil
}

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

type fixture struct {
	handler   http.Handler
	shipments *stubShipments
	capacity  *stubCapacity
	cfg       *config.Config
}

func newFixture(t *testing.T, dbErr error) *fixture {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "logistics", ExpirationMinutes: 60},
	}
	reg := prometheus.NewRegistry()
	metrics.NewWorkflowMetrics(reg).IncTransition("startUnloading", metrics.OutcomeApplied)

	f := &fixture{shipments: &stubShipments{}, capacity: &stubCapacity{}, cfg: cfg}
	f.handler = NewRouter(
		cfg,
		nil,
		stubPinger{err: dbErr},
		stubPinger{},
		&memoryStore{data: map[string]string{}},
		reg,
		f.shipments,
		f.capacity,
		stubForecast{},
	)
	return f
}

func (f *fixture) token(t *testing.T, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/ready", "", "").Code)

	down := newFixture(t, errors.New("db down"))
	rec := down.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeDependency), errorCode(t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logistics_shipments_transitions_total")
}

func TestListShipmentsParsesFilters(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/v1/shipments?status=stored&warehouse=klapmuts&week=12&include_archived=true&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := f.shipments.lastQuery
	require.NotNil(t, q.Status)
	assert.Equal(t, enums.ShipmentStatusStored, *q.Status)
	require.NotNil(t, q.Warehouse)
	assert.Equal(t, enums.WarehouseKlapmuts, *q.Warehouse)
	require.NotNil(t, q.WeekNumber)
	assert.Equal(t, 12, *q.WeekNumber)
	assert.True(t, q.IncludeArchived)
	assert.Equal(t, 10, q.Limit)

	rec = f.do(http.MethodGet, "/api/v1/shipments?status=teleported", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetShipmentRejectsBadID(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/shipments/not-a-uuid", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/shipments/"+uuid.NewString(), "", "").Code)
}

func TestShipmentOperationRequiresAuth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/start-unloading", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.shipments.calls)
}

func TestShipmentOperationPassesArgsAndActor(t *testing.T) {
	f := newFixture(t, nil)
	id := uuid.New()
	rec := f.do(http.MethodPost, "/api/v1/shipments/"+id.String()+"/complete-receiving", `{"receivedQty":42}`, f.token(t, enums.MemberRoleInspector))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.shipments.calls, 1)
	call := f.shipments.calls[0]
	assert.Equal(t, id, call.id)
	assert.Equal(t, shipments.OpCompleteReceiving, call.op)
	require.NotNil(t, call.args.ReceivedQty)
	assert.Equal(t, 42, *call.args.ReceivedQty)
	require.NotNil(t, call.args.Actor)
	assert.Equal(t, enums.MemberRoleInspector, call.args.Actor.Role)
}

func TestShipmentOperationMapsTransitionErrors(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/complete-unloading", "", f.token(t, enums.MemberRoleOperator))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidTransition), errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/teleport", "", f.token(t, enums.MemberRoleOperator))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrivilegedOperationsNeedAdminOrOperator(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/v1/shipments/" + uuid.NewString() + "/archive"

	rec := f.do(http.MethodPost, path, "", f.token(t, enums.MemberRoleViewer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.shipments.calls)

	rec = f.do(http.MethodPost, path, "", f.token(t, enums.MemberRoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.shipments.calls, 1)
	assert.Equal(t, shipments.OpArchive, f.shipments.calls[0].op)

	// Non-privileged operations stay open to any authenticated role.
	rec = f.do(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/start-unloading", "", f.token(t, enums.MemberRoleViewer))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShipmentOperationReplaysIdempotentRequest(t *testing.T) {
	f := newFixture(t, nil)
	token := f.token(t, enums.MemberRoleOperator)
	path := "/api/v1/shipments/" + uuid.NewString() + "/start-unloading"

	first := f.do(http.MethodPost, path, `{}`, token, "Idempotency-Key", "k-1")
	second := f.do(http.MethodPost, path, `{}`, token, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, f.shipments.calls, 1)
}

func TestCapacityWritesAllowAnonymous(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPut, "/api/v1/warehouse-capacity/PRETORIA/bins-used", `{"value":120}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.capacity.sets, 1)
	assert.Equal(t, "bins_used", f.capacity.sets[0].field)
	assert.Equal(t, 120, f.capacity.sets[0].value)
	assert.Nil(t, f.capacity.sets[0].actor)

	rec = f.do(http.MethodPut, "/api/v1/warehouse-capacity/offsite/total-capacity", `{"value":400}`, f.token(t, enums.MemberRoleOperator))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.capacity.sets, 2)
	assert.Equal(t, enums.WarehouseOffsite, f.capacity.sets[1].warehouse)
	assert.NotNil(t, f.capacity.sets[1].actor)
}

func TestCapacityWriteErrors(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPut, "/api/v1/warehouse-capacity/PRETORIA/available-bins", `{"value":-5}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/api/v1/warehouse-capacity/DURBAN/bins-used", `{"value":5}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPut, "/api/v1/warehouse-capacity/PRETORIA/pallets", `{"value":5}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPut, "/api/v1/warehouse-capacity/PRETORIA/bins-used", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityReadsAndForecast(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/warehouse-capacity", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/warehouse-capacity/history?warehouse=PRETORIA&limit=5", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/warehouse-capacity/history?limit=0", "", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/warehouse-capacity/history?warehouse=DURBAN", "", "").Code)

	rec := f.do(http.MethodGet, "/api/v1/capacity-forecast", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data forecast.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 10, payload.Data.CurrentWeek)
}

func TestInvalidBearerIsRejectedEvenOnReads(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/v1/warehouse-capacity", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
