package repository

import (
	"context"

	"catalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatrixRepository interface {
	Upsert(ctx context.Context, entries []model.MatrixEntry) error
	ListByProduct(ctx context.Context, productCode string) ([]model.MatrixEntry, error)
	ListEnabledByPackage(ctx context.Context, productCode string, packageID uint) ([]model.MatrixEntry, error)
	Find(ctx context.Context, key model.MatrixKey) (*model.MatrixEntry, error)
}

type matrixRepository struct {
	db *gorm.DB
}

func NewMatrixRepository(db *gorm.DB) MatrixRepository {
	return &matrixRepository{db: db}
}

// Upsert writes cells keyed by (product_code, package_id, item_type, item_id), touching only enabled and updated_at.
// Callers must not pass the same key twice in one call.
func (r *matrixRepository) Upsert(ctx context.Context, entries []model.MatrixEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "product_code"}, {Name: "package_id"}, {Name: "item_type"}, {Name: "item_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).
		CreateInBatches(&entries, upsertBatchSize).Error
}

func (r *matrixRepository) ListByProduct(ctx context.Context, productCode string) ([]model.MatrixEntry, error) {
	var entries []model.MatrixEntry
	err := GetDB(ctx, r.db).
		Where("product_code = ?", productCode).
		Order("package_id asc, item_type asc, item_id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *matrixRepository) ListEnabledByPackage(ctx context.Context, productCode string, packageID uint) ([]model.MatrixEntry, error) {
	var entries []model.MatrixEntry
	err := GetDB(ctx, r.db).
		Where("product_code = ? AND package_id = ? AND enabled = ?", productCode, packageID, true).
		Order("item_type asc, item_id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *matrixRepository) Find(ctx context.Context, key model.MatrixKey) (*model.MatrixEntry, error) {
	var entry model.MatrixEntry
	err := GetDB(ctx, r.db).
		Where("product_code = ? AND package_id = ? AND item_type = ? AND item_id = ?",
			key.ProductCode, key.PackageID, key.ItemType, key.ItemID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
