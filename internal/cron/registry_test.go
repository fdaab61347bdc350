package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedJob string

func (j namedJob) Name() string              { return string(j) }
func (j namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	reg, err := NewRegistry(namedJob("capacity-forecast-alert"), namedJob("stored-shipment-archive"))
	require.NoError(t, err)
	require.NoError(t, reg.Register(namedJob("outbox-retention")))

	var names []string
	for _, job := range reg.Jobs() {
		names = append(names, job.Name())
	}
	require.Equal(t, []string{"capacity-forecast-alert", "stored-shipment-archive", "outbox-retention"}, names)

	jobs := reg.Jobs()
	jobs[0] = nil
	require.NotNil(t, reg.Jobs()[0])
}

func TestRegistryRejectsBadJobs(t *testing.T) {
	_, err := NewRegistry(namedJob("a"), namedJob("a"))
	require.ErrorContains(t, err, `"a" already registered`)

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.Error(t, reg.Register(nil))
	require.Error(t, reg.Register(namedJob("  ")))
}

func TestRegistrySelect(t *testing.T) {
	reg, err := NewRegistry(namedJob("a"), namedJob("b"), namedJob("c"))
	require.NoError(t, err)

	all, err := reg.Select()
	require.NoError(t, err)
	require.Len(t, all.Jobs(), 3)

	sub, err := reg.Select("c", " a ")
	require.NoError(t, err)
	jobs := sub.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "a", jobs[0].Name())
	require.Equal(t, "c", jobs[1].Name())

	_, err = reg.Select("missing")
	require.ErrorContains(t, err, "known: a, b, c")
}
