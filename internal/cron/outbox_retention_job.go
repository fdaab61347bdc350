package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultTerminalAttempts    = 10
)

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetentionJobParams configure pruning of delivered and dead-lettered
// shipment/capacity events.
type OutboxRetentionJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Outbox outboxPruner
	// RetentionDays keeps rows younger than this many days.
	RetentionDays int
	// TerminalAttempts matches the publisher's max attempts so rows that were
	// moved to the DLQ are pruned alongside published ones.
	TerminalAttempts int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	attempts := params.TerminalAttempts
	if attempts <= 0 {
		attempts = defaultTerminalAttempts
	}
	return &outboxRetentionJob{
		logg:     params.Logger,
		db:       params.DB,
		outbox:   params.Outbox,
		days:     days,
		attempts: attempts,
		now:      time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg     *logger.Logger
	db       txRunner
	outbox   outboxPruner
	days     int
	attempts int
	now      func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)

	var pruned int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeletePublishedBefore(ctx, tx, cutoff, j.attempts)
		pruned = n
		return err
	}); err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":            cutoff,
		"retention_days":    j.days,
		"terminal_attempts": j.attempts,
		"pruned":            pruned,
	}), "outbox.pruned")
	return nil
}
