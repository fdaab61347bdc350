package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shiplogix/logistics-backend/internal/shipments"
	"github.com/shiplogix/logistics-backend/pkg/db/models"
	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

const defaultStoredArchiveBatch = 200

type storedShipmentReader interface {
	ListStoredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Shipment, error)
}

type shipmentApplier interface {
	Apply(ctx context.Context, id uuid.UUID, op shipments.Operation, args shipments.Args) (*shipments.ShipmentDTO, error)
}

// StoredArchiveJobParams configure the stored-shipment archiver. AfterDays of
// zero disables the job.
type StoredArchiveJobParams struct {
	Logger    *logger.Logger
	Reader    storedShipmentReader
	Shipments shipmentApplier
	AfterDays int
	BatchSize int
}

func NewStoredArchiveJob(params StoredArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("stored shipment reader required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipments service required")
	}
	if params.AfterDays < 0 {
		return nil, fmt.Errorf("archive window must be >= 0")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStoredArchiveBatch
	}
	return &storedArchiveJob{
		logg:      params.Logger,
		reader:    params.Reader,
		shipments: params.Shipments,
		afterDays: params.AfterDays,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type storedArchiveJob struct {
	logg      *logger.Logger
	reader    storedShipmentReader
	shipments shipmentApplier
	afterDays int
	batch     int
	now       func() time.Time
}

func (j *storedArchiveJob) Name() string { return "stored-shipment-archive" }

func (j *storedArchiveJob) Run(ctx context.Context) error {
	if j.afterDays == 0 {
		j.logg.Debug(ctx, "stored shipment archive disabled")
		return nil
	}
	cutoff := j.now().UTC().Add(-time.Duration(j.afterDays) * 24 * time.Hour)
	rows, err := j.reader.ListStoredBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stored shipments: %w", err)
	}

	var (
		errs     error
		archived int
		skipped  int
	)
	for _, row := range rows {
		_, err := j.shipments.Apply(ctx, row.ID, shipments.OpArchive, shipments.Args{Actor: types.SystemActor()})
		switch {
		case err == nil:
			archived++
		case pkgerrors.IsCode(err, pkgerrors.CodeStaleState), pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition):
			// Moved by someone else since the listing; leave it alone.
			skipped++
		default:
			errs = multierr.Append(errs, fmt.Errorf("archive shipment %s: %w", row.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"found":    len(rows),
		"archived": archived,
		"skipped":  skipped,
	})
	j.logg.Info(logCtx, "stored shipment archive complete")
	return errs
}
