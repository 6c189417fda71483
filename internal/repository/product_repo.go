package repository

import (
	"context"
	"strings"

	"catalog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByCodeOrID(ctx context.Context, codeOrID string) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	product.Code = strings.ToUpper(strings.TrimSpace(product.Code))
	return GetDB(ctx, r.db).Create(product).Error
}

// FindByCodeOrID resolves a path parameter that is either the product UUID or its code.
func (r *productRepository) FindByCodeOrID(ctx context.Context, codeOrID string) (*model.Product, error) {
	if id, err := uuid.Parse(codeOrID); err == nil {
		var product model.Product
		if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &product, nil
	}
	return r.FindByCode(ctx, codeOrID)
}

func (r *productRepository) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	err := GetDB(ctx, r.db).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
