package capacity

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiplogix/logistics-backend/pkg/db/models"
	"github.com/shiplogix/logistics-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context) ([]models.WarehouseCapacity, error) {
	var rows []models.WarehouseCapacity
	if err := r.db.WithContext(ctx).Order("warehouse_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Find returns gorm.ErrRecordNotFound when the warehouse has no ledger row yet.
func (r *Repository) Find(ctx context.Context, warehouse enums.Warehouse) (*models.WarehouseCapacity, error) {
	var row models.WarehouseCapacity
	err := r.db.WithContext(ctx).
		Where("warehouse_name = ?", warehouse).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindForUpdate reads the row a write is about to replace. It must run inside
// the write's transaction. On Postgres it first takes a transaction-scoped
// advisory lock per warehouse, so writers that create the row queue up too,
// and then locks the row itself.
func (r *Repository) FindForUpdate(ctx context.Context, warehouse enums.Warehouse) (*models.WarehouseCapacity, error) {
	db := r.db.WithContext(ctx)
	if isPostgres(db) {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ledgerLockKey(warehouse)).Error; err != nil {
			return nil, err
		}
	}
	var row models.WarehouseCapacity
	if err := lockedLookup(db, warehouse).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func lockedLookup(db *gorm.DB, warehouse enums.Warehouse) *gorm.DB {
	q := db.Where("warehouse_name = ?", warehouse)
	if isPostgres(db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

func ledgerLockKey(warehouse enums.Warehouse) string {
	return "warehouse_capacity:" + warehouse.String()
}

// UpsertField inserts the row or overwrites only field plus the audit columns.
// Other columns on an existing row are left untouched.
func (r *Repository) UpsertField(ctx context.Context, row *models.WarehouseCapacity, field Field) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_name"}},
			DoUpdates: clause.AssignmentColumns([]string{string(field), "updated_by", "updated_at"}),
		}).
		Create(row).Error
}

func (r *Repository) AppendHistory(ctx context.Context, entry *models.WarehouseCapacityHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListHistory returns the newest rows first.
func (r *Repository) ListHistory(ctx context.Context, warehouse *enums.Warehouse, limit int) ([]models.WarehouseCapacityHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.WarehouseCapacityHistory{})
	if warehouse != nil {
		query = query.Where("warehouse_name = ?", *warehouse)
	}
	var rows []models.WarehouseCapacityHistory
	err := query.
		Order("changed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
