package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Transition outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
)

// WorkflowMetrics covers shipment transitions, ledger writes and forecast output.
type WorkflowMetrics struct {
	transitions  *prometheus.CounterVec
	ledgerWrites *prometheus.CounterVec
	utilisation  *prometheus.GaugeVec
	alerts       *prometheus.CounterVec
}

// NewWorkflowMetrics registers the domain metrics. A nil registerer yields a
// no-op recorder.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "shipments",
		Name:      "transitions_total",
		Help:      "Shipment workflow operations by outcome.",
	}, []string{"operation", "outcome"})
	ledgerWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "capacity",
		Name:      "ledger_writes_total",
		Help:      "Capacity ledger field writes.",
	}, []string{"warehouse", "field"})
	utilisation := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "forecast",
		Name:      "projected_percent_used",
		Help:      "Projected bin utilisation per warehouse and week offset.",
	}, []string{"warehouse", "week_offset"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "forecast",
		Name:      "alerts_raised_total",
		Help:      "Capacity alerts queued for publication.",
	}, []string{"warehouse", "tier"})
	reg.MustRegister(transitions, ledgerWrites, utilisation, alerts)
	return &WorkflowMetrics{
		transitions:  transitions,
		ledgerWrites: ledgerWrites,
		utilisation:  utilisation,
		alerts:       alerts,
	}
}

func (m *WorkflowMetrics) IncTransition(operation, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *WorkflowMetrics) IncLedgerWrite(warehouse, field string) {
	if m == nil || m.ledgerWrites == nil {
		return
	}
	m.ledgerWrites.WithLabelValues(normalizeLabel(warehouse), normalizeLabel(field)).Inc()
}

func (m *WorkflowMetrics) SetProjectedPercent(warehouse string, weekOffset, percent int) {
	if m == nil || m.utilisation == nil {
		return
	}
	m.utilisation.WithLabelValues(normalizeLabel(warehouse), strconv.Itoa(weekOffset)).Set(float64(percent))
}

func (m *WorkflowMetrics) IncAlert(warehouse, tier string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(warehouse), normalizeLabel(tier)).Inc()
}
