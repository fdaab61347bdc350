package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/internal/forecast"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/metrics"
	"github.com/shiplogix/logistics-backend/pkg/outbox"
	"github.com/shiplogix/logistics-backend/pkg/outbox/payloads"
)

// CapacityAlertJobParams configure the forecast alert job.
type CapacityAlertJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Forecast forecast.Service
	Outbox   alertEmitter
	Metrics  *metrics.WorkflowMetrics
}

// NewCapacityAlertJob builds the job that refreshes forecast gauges and
// raises one capacity_alert_raised event per critical or overflow week.
func NewCapacityAlertJob(params CapacityAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Forecast == nil {
		return nil, fmt.Errorf("forecast service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &capacityAlertJob{
		logg:     params.Logger,
		db:       params.DB,
		forecast: params.Forecast,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
	}, nil
}

type capacityAlertJob struct {
	logg     *logger.Logger
	db       txRunner
	forecast forecast.Service
	outbox   alertEmitter
	metrics  *metrics.WorkflowMetrics
}

func (j *capacityAlertJob) Name() string { return "capacity-forecast-alert" }

func (j *capacityAlertJob) Run(ctx context.Context) error {
	report, err := j.forecast.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate forecast: %w", err)
	}

	for _, entry := range report.Entries {
		for _, p := range entry.Warehouses {
			j.metrics.SetProjectedPercent(p.Warehouse.String(), entry.WeekOffset, p.PercentUsed)
		}
	}

	alerts := forecast.ActionableAlerts(*report)
	var (
		errs    error
		emitted int
	)
	for _, alert := range alerts {
		created, err := j.emit(ctx, report, alert)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("emit alert %s week %d: %w", alert.Projection.Warehouse, alert.WeekNumber, err))
			continue
		}
		if created {
			emitted++
			j.metrics.IncAlert(alert.Projection.Warehouse.String(), string(alert.Projection.Alert))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"current_week": report.CurrentWeek,
		"actionable":   len(alerts),
		"emitted":      emitted,
	})
	j.logg.Info(logCtx, "capacity forecast alerts evaluated")
	return errs
}

func (j *capacityAlertJob) emit(ctx context.Context, report *forecast.Report, alert forecast.Alert) (bool, error) {
	p := alert.Projection
	data := payloads.CapacityAlertRaisedEvent{
		Warehouse:         p.Warehouse,
		Year:              alert.Year,
		WeekNumber:        alert.WeekNumber,
		WeekOffset:        alert.WeekOffset,
		Alert:             p.Alert,
		ProjectedBinsUsed: p.ProjectedBinsUsed,
		Capacity:          p.Capacity,
		PercentUsed:       p.PercentUsed,
		IncomingBins:      p.IncomingBins,
		GeneratedAt:       report.GeneratedAt,
	}
	if rec := alert.Recommendation; rec != nil && rec.Warehouse == p.Warehouse {
		data.Recommendation = rec.Message
	}

	var created bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCapacityAlertRaised,
			AggregateType: enums.AggregateCapacityWeek,
			AggregateID:   alert.AggregateID(),
			Version:       1,
			OccurredAt:    report.GeneratedAt.UTC(),
			Data:          data,
		})
		created = ok
		return err
	})
	return created, err
}
