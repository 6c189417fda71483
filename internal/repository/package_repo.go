package repository

import (
	"context"

	"catalog/internal/model"

	"gorm.io/gorm"
)

type PackageRepository interface {
	Create(ctx context.Context, pkg *model.Package) error
	ListByProduct(ctx context.Context, productCode string) ([]model.Package, error)
	OwnedIDs(ctx context.Context, productCode string, ids []uint) ([]uint, error)
	FindOwned(ctx context.Context, productCode string, id uint) (*model.Package, error)
}

type packageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) Create(ctx context.Context, pkg *model.Package) error {
	return GetDB(ctx, r.db).Create(pkg).Error
}

// ListByProduct returns every package of the product regardless of status.
func (r *packageRepository) ListByProduct(ctx context.Context, productCode string) ([]model.Package, error) {
	var packages []model.Package
	err := GetDB(ctx, r.db).
		Where("product_code = ?", productCode).
		Order("order_number asc, id asc").
		Find(&packages).Error
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// OwnedIDs returns the subset of ids that belong to productCode.
func (r *packageRepository) OwnedIDs(ctx context.Context, productCode string, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []uint
	err := GetDB(ctx, r.db).Model(&model.Package{}).
		Where("product_code = ? AND id IN ?", productCode, ids).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, err
	}
	return owned, nil
}

func (r *packageRepository) FindOwned(ctx context.Context, productCode string, id uint) (*model.Package, error) {
	var pkg model.Package
	if err := GetDB(ctx, r.db).First(&pkg, "id = ? AND product_code = ?", id, productCode).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}
