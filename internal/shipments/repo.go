package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	"github.com/shiplogix/logistics-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns up to pagination.LimitWithBuffer(filter.Limit) rows, newest
// first, so callers can detect a following page.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Shipment, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{})
	if filter.Status != nil {
		query = query.Where("latest_status = ?", *filter.Status)
	} else if !filter.IncludeArchived {
		query = query.Where("latest_status <> ?", enums.ShipmentStatusArchived)
	}
	if filter.Warehouse != nil {
		query = query.Where("receiving_warehouse = ?", *filter.Warehouse)
	}
	if filter.WeekNumber != nil {
		query = query.Where("week_number = ?", *filter.WeekNumber)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var rows []models.Shipment
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListInMotion returns shipments still inbound for the inclusive week range.
func (r *repository) ListInMotion(ctx context.Context, fromWeek, toWeek int) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("latest_status IN ?", enums.InMotionStatuses).
		Where("week_number BETWEEN ? AND ?", fromWeek, toWeek).
		Order("week_number ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListStoredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("latest_status = ?", enums.ShipmentStatusStored).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.ShipmentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND latest_status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}
