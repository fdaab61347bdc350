package shipments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/enums"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

// Operation names a post-arrival workflow step.
type Operation string

const (
	OpStartUnloading     Operation = "startUnloading"
	OpCompleteUnloading  Operation = "completeUnloading"
	OpStartInspection    Operation = "startInspection"
	OpCompleteInspection Operation = "completeInspection"
	OpStartReceiving     Operation = "startReceiving"
	OpCompleteReceiving  Operation = "completeReceiving"
	OpMarkAsStored       Operation = "markAsStored"
	OpReject             Operation = "rejectShipment"
	OpMarkDelayed        Operation = "markDelayed"
	OpArchive            Operation = "archive"
	OpUnarchive          Operation = "unarchive"
)

// Operations lists every workflow operation in pipeline order.
var Operations = []Operation{
	OpStartUnloading,
	OpCompleteUnloading,
	OpStartInspection,
	OpCompleteInspection,
	OpStartReceiving,
	OpCompleteReceiving,
	OpMarkAsStored,
	OpReject,
	OpMarkDelayed,
	OpArchive,
	OpUnarchive,
}

// Args carries the optional inputs of an operation. Fields an operation does
// not use are ignored.
type Args struct {
	Passed      *bool
	Notes       *string
	Inspector   *uuid.UUID
	Receiver    *uuid.UUID
	ReceivedQty *int
	Reason      string
	Actor       *types.Actor
}

// State is the part of a shipment the workflow decides on.
type State struct {
	Status              enums.ShipmentStatus
	StatusBeforeArchive *enums.ShipmentStatus
}

// Outcome is a decided transition: the expected current status, the next
// status and the column patch to write.
type Outcome struct {
	Operation Operation
	From      enums.ShipmentStatus
	To        enums.ShipmentStatus
	Updates   map[string]any
}

type transitionRule struct {
	// from is the predecessor set. When except is set, every status outside
	// except is a valid predecessor instead.
	from   []enums.ShipmentStatus
	except []enums.ShipmentStatus
	apply  func(state State, args Args, now time.Time, patch map[string]any) (enums.ShipmentStatus, error)
}

func (r transitionRule) permits(status enums.ShipmentStatus) bool {
	if r.except != nil {
		return !containsStatus(r.except, status)
	}
	return containsStatus(r.from, status)
}

var transitionRules = map[Operation]transitionRule{
	OpStartUnloading: {
		from: []enums.ShipmentStatus{
			enums.ShipmentStatusArrivedPTA,
			enums.ShipmentStatusArrivedKLM,
			enums.ShipmentStatusArrivedOffsite,
		},
		apply: func(_ State, _ Args, now time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			patch["unloading_started_at"] = now
			return enums.ShipmentStatusUnloading, nil
		},
	},
	OpCompleteUnloading: {
		from: []enums.ShipmentStatus{enums.ShipmentStatusUnloading},
		apply: func(_ State, _ Args, now time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			patch["unloading_completed_at"] = now
			return enums.ShipmentStatusInspectionPending, nil
		},
	},
	OpStartInspection: {
		from: []enums.ShipmentStatus{enums.ShipmentStatusInspectionPending},
		apply: func(_ State, args Args, _ time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			if who := personOrActor(args.Inspector, args.Actor); who != nil {
				patch["inspected_by"] = who
			}
			return enums.ShipmentStatusInspecting, nil
		},
	},
	OpCompleteInspection: {
		from: []enums.ShipmentStatus{
			enums.ShipmentStatusInspecting,
			enums.ShipmentStatusInspectionInProgress,
		},
		apply: func(_ State, args Args, now time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			if args.Passed == nil {
				return "", pkgerrors.New(pkgerrors.CodeValidation, "passed is required to complete an inspection")
			}
			result, next := enums.InspectionStatusFailed, enums.ShipmentStatusInspectionFailed
			if *args.Passed {
				result, next = enums.InspectionStatusPassed, enums.ShipmentStatusInspectionPassed
			}
			patch["inspection_date"] = now
			patch["inspection_status"] = result
			if args.Notes != nil {
				patch["inspection_notes"] = strings.TrimSpace(*args.Notes)
			}
			if who := personOrActor(args.Inspector, args.Actor); who != nil {
				patch["inspected_by"] = who
			}
			return next, nil
		},
	},
	OpStartReceiving: {
		from: []enums.ShipmentStatus{enums.ShipmentStatusInspectionPassed},
		apply: func(_ State, args Args, _ time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			if who := personOrActor(args.Receiver, args.Actor); who != nil {
				patch["received_by"] = who
			}
			return enums.ShipmentStatusReceiving, nil
		},
	},
	OpCompleteReceiving: {
		from: []enums.ShipmentStatus{
			enums.ShipmentStatusReceiving,
			enums.ShipmentStatusReceivingGoods,
		},
		apply: func(_ State, args Args, now time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			if args.ReceivedQty == nil || *args.ReceivedQty < 0 {
				return "", pkgerrors.New(pkgerrors.CodeValidation, "receivedQuantity must be a non-negative integer").
					WithDetails(map[string]any{"field": "receivedQuantity"})
			}
			patch["receiving_date"] = now
			patch["received_quantity"] = *args.ReceivedQty
			if who := personOrActor(args.Receiver, args.Actor); who != nil {
				patch["received_by"] = who
			}
			return enums.ShipmentStatusReceived, nil
		},
	},
	OpMarkAsStored: {
		from: []enums.ShipmentStatus{enums.ShipmentStatusReceived},
		apply: func(State, Args, time.Time, map[string]any) (enums.ShipmentStatus, error) {
			return enums.ShipmentStatusStored, nil
		},
	},
	OpReject: {
		except: []enums.ShipmentStatus{
			enums.ShipmentStatusStored,
			enums.ShipmentStatusCancelled,
			enums.ShipmentStatusArchived,
		},
		apply: func(_ State, args Args, _ time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			if reason := strings.TrimSpace(args.Reason); reason != "" {
				patch["rejection_reason"] = reason
			}
			return enums.ShipmentStatusCancelled, nil
		},
	},
	OpMarkDelayed: {
		except: []enums.ShipmentStatus{
			enums.ShipmentStatusStored,
			enums.ShipmentStatusCancelled,
			enums.ShipmentStatusArchived,
			enums.ShipmentStatusDelayed,
		},
		apply: func(State, Args, time.Time, map[string]any) (enums.ShipmentStatus, error) {
			return enums.ShipmentStatusDelayed, nil
		},
	},
	OpArchive: {
		except: []enums.ShipmentStatus{enums.ShipmentStatusArchived},
		apply: func(state State, _ Args, _ time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			patch["status_before_archive"] = state.Status
			return enums.ShipmentStatusArchived, nil
		},
	},
	OpUnarchive: {
		from: []enums.ShipmentStatus{enums.ShipmentStatusArchived},
		apply: func(state State, _ Args, _ time.Time, patch map[string]any) (enums.ShipmentStatus, error) {
			prior := state.StatusBeforeArchive
			if prior == nil || !prior.IsValid() || *prior == enums.ShipmentStatusArchived {
				return "", pkgerrors.New(pkgerrors.CodeStateConflict, "shipment has no recorded status to restore")
			}
			patch["status_before_archive"] = nil
			return *prior, nil
		},
	},
}

// Transition decides the effect of op on a shipment in state. It performs no
// I/O: the caller writes Outcome.Updates conditioned on Outcome.From.
func Transition(state State, op Operation, args Args, now time.Time) (Outcome, error) {
	rule, ok := transitionRules[op]
	if !ok {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown operation %q", op))
	}
	if !rule.permits(state.Status) {
		return Outcome{}, pkgerrors.New(
			pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot %s a shipment in status %s", op, state.Status),
		).WithDetails(map[string]any{
			"operation": op,
			"status":    state.Status,
		})
	}

	now = now.UTC()
	patch := map[string]any{}
	next, err := rule.apply(state, args, now, patch)
	if err != nil {
		return Outcome{}, err
	}
	patch["latest_status"] = next
	patch["updated_at"] = now
	patch["updated_by"] = args.Actor.UserIDPtr()

	return Outcome{
		Operation: op,
		From:      state.Status,
		To:        next,
		Updates:   patch,
	}, nil
}

// Allows reports whether op may run from status, ignoring argument checks.
func Allows(status enums.ShipmentStatus, op Operation) bool {
	rule, ok := transitionRules[op]
	return ok && rule.permits(status)
}

// ParseOperation maps the kebab-case route segment to an Operation.
func ParseOperation(segment string) (Operation, bool) {
	op, ok := operationSegments[strings.ToLower(strings.TrimSpace(segment))]
	return op, ok
}

var operationSegments = map[string]Operation{
	"start-unloading":     OpStartUnloading,
	"complete-unloading":  OpCompleteUnloading,
	"start-inspection":    OpStartInspection,
	"complete-inspection": OpCompleteInspection,
	"start-receiving":     OpStartReceiving,
	"complete-receiving":  OpCompleteReceiving,
	"mark-stored":         OpMarkAsStored,
	"reject":              OpReject,
	"delay":               OpMarkDelayed,
	"archive":             OpArchive,
	"unarchive":           OpUnarchive,
}

func personOrActor(person *uuid.UUID, actor *types.Actor) *uuid.UUID {
	if person != nil && *person != uuid.Nil {
		id := *person
		return &id
	}
	return actor.UserIDPtr()
}

func containsStatus(set []enums.ShipmentStatus, status enums.ShipmentStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
