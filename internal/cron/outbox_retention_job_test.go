package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/logger"
)

func TestOutboxRetentionJobUsesDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	pruner := &fakeOutboxPruner{}
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{Outbox: pruner})
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, pruner.calls)
	require.True(t, pruner.cutoff.Equal(time.Date(2026, 2, 8, 6, 0, 0, 0, time.UTC)))
	require.Equal(t, defaultTerminalAttempts, pruner.attempts)
}

func TestOutboxRetentionJobHonoursConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakeOutboxPruner{}
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{Outbox: pruner, RetentionDays: 7, TerminalAttempts: 4})
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.True(t, pruner.cutoff.Equal(now.AddDate(0, 0, -7)))
	require.Equal(t, 4, pruner.attempts)
}

func TestOutboxRetentionJobWrapsError(t *testing.T) {
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{Outbox: &fakeOutboxPruner{err: errors.New("boom")}})

	err := job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "prune outbox: boom")
}

func TestNewOutboxRetentionJobRequiresDeps(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{DB: passthroughTx{}, Outbox: &fakeOutboxPruner{}})
	require.Error(t, err)

	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.New(logger.Options{ServiceName: "test"}), DB: passthroughTx{}})
	require.Error(t, err)
}

func newOutboxRetentionJob(t *testing.T, params OutboxRetentionJobParams) *outboxRetentionJob {
	t.Helper()
	params.Logger = logger.New(logger.Options{ServiceName: "test"})
	params.DB = passthroughTx{}
	job, err := NewOutboxRetentionJob(params)
	require.NoError(t, err)
	concrete, ok := job.(*outboxRetentionJob)
	require.True(t, ok)
	return concrete
}

type fakeOutboxPruner struct {
	cutoff   time.Time
	attempts int
	calls    int
	err      error
}

func (f *fakeOutboxPruner) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	f.attempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}
