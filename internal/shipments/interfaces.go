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

// Repository defines persistence operations for the shipments table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Shipment, error)
	ListInMotion(ctx context.Context, fromWeek, toWeek int) ([]models.Shipment, error)
	ListStoredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Shipment, error)
	// UpdateIfStatus applies updates only while latest_status still equals
	// expected and returns the number of rows written.
	UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.ShipmentStatus, updates map[string]any) (int64, error)
}

// ListFilter narrows a shipment listing. Archived shipments are hidden
// unless IncludeArchived is set or Status asks for them.
type ListFilter struct {
	Status          *enums.ShipmentStatus
	Warehouse       *enums.Warehouse
	WeekNumber      *int
	IncludeArchived bool
	Limit           int
	Cursor          *pagination.Cursor
}
