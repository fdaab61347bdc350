package shipments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

var transitionNow = time.Date(2026, 4, 14, 10, 0, 0, 0, time.UTC)

type expectation struct {
	from   []enums.ShipmentStatus
	except []enums.ShipmentStatus
	to     enums.ShipmentStatus
}

func (e expectation) allows(status enums.ShipmentStatus) bool {
	if e.except != nil {
		return !containsStatus(e.except, status)
	}
	return containsStatus(e.from, status)
}

var expectedTable = map[Operation]expectation{
	OpStartUnloading: {
		from: []enums.ShipmentStatus{"arrived_pta", "arrived_klm", "arrived_offsite"},
		to:   "unloading",
	},
	OpCompleteUnloading:  {from: []enums.ShipmentStatus{"unloading"}, to: "inspection_pending"},
	OpStartInspection:    {from: []enums.ShipmentStatus{"inspection_pending"}, to: "inspecting"},
	OpCompleteInspection: {from: []enums.ShipmentStatus{"inspecting", "inspection_in_progress"}, to: "inspection_passed"},
	OpStartReceiving:     {from: []enums.ShipmentStatus{"inspection_passed"}, to: "receiving"},
	OpCompleteReceiving:  {from: []enums.ShipmentStatus{"receiving", "receiving_goods"}, to: "received"},
	OpMarkAsStored:       {from: []enums.ShipmentStatus{"received"}, to: "stored"},
	OpReject:             {except: []enums.ShipmentStatus{"stored", "cancelled", "archived"}, to: "cancelled"},
	OpMarkDelayed:        {except: []enums.ShipmentStatus{"stored", "cancelled", "archived", "delayed"}, to: "delayed"},
	OpArchive:            {except: []enums.ShipmentStatus{"archived"}, to: "archived"},
	OpUnarchive:          {from: []enums.ShipmentStatus{"archived"}, to: "in_warehouse"},
}

func validArgs() Args {
	passed := true
	qty := 12
	return Args{
		Passed:      &passed,
		ReceivedQty: &qty,
		Reason:      "water damage",
		Actor:       &types.Actor{UserID: uuid.New(), Role: enums.MemberRoleOperator},
	}
}

func TestTransitionGrid(t *testing.T) {
	require.Len(t, expectedTable, len(Operations))
	prior := enums.ShipmentStatusInWarehouse

	for _, op := range Operations {
		want := expectedTable[op]
		for _, status := range enums.ShipmentStatuses() {
			state := State{Status: status, StatusBeforeArchive: &prior}
			outcome, err := Transition(state, op, validArgs(), transitionNow)

			if !want.allows(status) {
				require.Error(t, err, "%s from %s should be rejected", op, status)
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "%s from %s: %v", op, status, err)
				assert.False(t, Allows(status, op))
				continue
			}
			require.NoError(t, err, "%s from %s", op, status)
			assert.True(t, Allows(status, op))
			assert.Equal(t, status, outcome.From)
			assert.Equal(t, want.to, outcome.To, "%s from %s", op, status)
			assert.Equal(t, want.to, outcome.Updates["latest_status"])
			assert.Equal(t, transitionNow, outcome.Updates["updated_at"])
		}
	}
}

func TestTransitionRecordsOperationFields(t *testing.T) {
	args := validArgs()
	inspector := uuid.New()
	notes := "  pallets intact "

	out, err := Transition(State{Status: enums.ShipmentStatusArrivedKLM}, OpStartUnloading, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, transitionNow, out.Updates["unloading_started_at"])

	out, err = Transition(State{Status: enums.ShipmentStatusUnloading}, OpCompleteUnloading, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, transitionNow, out.Updates["unloading_completed_at"])

	out, err = Transition(State{Status: enums.ShipmentStatusInspectionPending}, OpStartInspection, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, &args.Actor.UserID, out.Updates["inspected_by"], "falls back to the actor")

	args.Inspector = &inspector
	args.Notes = &notes
	out, err = Transition(State{Status: enums.ShipmentStatusInspectionInProgress}, OpCompleteInspection, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, enums.InspectionStatusPassed, out.Updates["inspection_status"])
	assert.Equal(t, "pallets intact", out.Updates["inspection_notes"])
	assert.Equal(t, &inspector, out.Updates["inspected_by"])
	assert.Equal(t, transitionNow, out.Updates["inspection_date"])

	out, err = Transition(State{Status: enums.ShipmentStatusReceivingGoods}, OpCompleteReceiving, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, 12, out.Updates["received_quantity"])
	assert.Equal(t, transitionNow, out.Updates["receiving_date"])

	out, err = Transition(State{Status: enums.ShipmentStatusMoored}, OpReject, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, "water damage", out.Updates["rejection_reason"])

	out, err = Transition(State{Status: enums.ShipmentStatusMoored}, OpMarkDelayed, args, transitionNow)
	require.NoError(t, err)
	_, touched := out.Updates["rejection_reason"]
	assert.False(t, touched, "delay keeps rejection_reason untouched")
}

func TestCompleteInspectionFailed(t *testing.T) {
	args := validArgs()
	failed := false
	args.Passed = &failed

	out, err := Transition(State{Status: enums.ShipmentStatusInspecting}, OpCompleteInspection, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusInspectionFailed, out.To)
	assert.Equal(t, enums.InspectionStatusFailed, out.Updates["inspection_status"])
}

func TestTransitionArgumentValidation(t *testing.T) {
	cases := []struct {
		name   string
		status enums.ShipmentStatus
		op     Operation
		mutate func(*Args)
	}{
		{"inspection without result", enums.ShipmentStatusInspecting, OpCompleteInspection, func(a *Args) { a.Passed = nil }},
		{"receiving without quantity", enums.ShipmentStatusReceiving, OpCompleteReceiving, func(a *Args) { a.ReceivedQty = nil }},
		{"negative quantity", enums.ShipmentStatusReceiving, OpCompleteReceiving, func(a *Args) { qty := -1; a.ReceivedQty = &qty }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := validArgs()
			tc.mutate(&args)
			_, err := Transition(State{Status: tc.status}, tc.op, args, transitionNow)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestRejectWithoutReasonCancels(t *testing.T) {
	args := validArgs()
	args.Reason = "  "

	out, err := Transition(State{Status: enums.ShipmentStatusInspectionFailed}, OpReject, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusCancelled, out.To)
	assert.NotContains(t, out.Updates, "rejection_reason")
}

func TestZeroReceivedQuantityIsAllowed(t *testing.T) {
	args := validArgs()
	zero := 0
	args.ReceivedQty = &zero

	out, err := Transition(State{Status: enums.ShipmentStatusReceiving}, OpCompleteReceiving, args, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Updates["received_quantity"])
}

func TestArchiveRoundTrip(t *testing.T) {
	out, err := Transition(State{Status: enums.ShipmentStatusStored}, OpArchive, Args{}, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusStored, out.Updates["status_before_archive"])

	prior := enums.ShipmentStatusStored
	out, err = Transition(State{Status: enums.ShipmentStatusArchived, StatusBeforeArchive: &prior}, OpUnarchive, Args{}, transitionNow)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusStored, out.To)
	v, ok := out.Updates["status_before_archive"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestUnarchiveWithoutPriorStatusConflicts(t *testing.T) {
	_, err := Transition(State{Status: enums.ShipmentStatusArchived}, OpUnarchive, Args{}, transitionNow)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUnknownOperation(t *testing.T) {
	_, err := Transition(State{Status: enums.ShipmentStatusMoored}, Operation("teleport"), Args{}, transitionNow)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestTransitionAnonymousActorClearsUpdatedBy(t *testing.T) {
	out, err := Transition(State{Status: enums.ShipmentStatusArrivedPTA}, OpStartUnloading, Args{}, transitionNow)
	require.NoError(t, err)
	assert.Nil(t, out.Updates["updated_by"])
	_, hasInspector := out.Updates["inspected_by"]
	assert.False(t, hasInspector)
}

func TestParseOperation(t *testing.T) {
	for segment, want := range operationSegments {
		got, ok := ParseOperation(segment)
		require.True(t, ok, segment)
		assert.Equal(t, want, got)
	}
	got, ok := ParseOperation(" Mark-Stored ")
	assert.True(t, ok)
	assert.Equal(t, OpMarkAsStored, got)
	_, ok = ParseOperation("explode")
	assert.False(t, ok)
	assert.Len(t, operationSegments, len(Operations))
}
