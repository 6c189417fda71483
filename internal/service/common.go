package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"catalog/internal/model"
	"catalog/internal/repository"

	"gorm.io/gorm"
)

// EventPublisher pushes committed-change notifications to connected admin screens.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// Cache stores serialized read-models. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

const (
	EventMatrixUpdated   = "matrix.updated"
	EventHierarchySynced = "hierarchy.synced"
)

// The aggregate is cached under a per-product version. Writers bump the version instead of
// deleting, so a reader that loaded from the DB before a write lands its payload under a
// version nobody reads anymore.
func matrixVersionKey(productCode string) string {
	return "matrix-version:" + productCode
}

func matrixCacheKey(productCode string, version int64) string {
	return fmt.Sprintf("matrix:%s:%d", productCode, version)
}

func matrixCacheVersion(ctx context.Context, c Cache, productCode string) (int64, error) {
	data, ok, err := c.Get(ctx, matrixVersionKey(productCode))
	if err != nil || !ok {
		return 0, err
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse matrix cache version %q: %w", data, err)
	}
	return v, nil
}

func invalidateMatrixCache(ctx context.Context, c Cache, productCode string) error {
	_, err := c.Incr(ctx, matrixVersionKey(productCode))
	return err
}

type ProductResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{ID: p.ID.String(), Code: p.Code, Name: p.Name}
}

func findProduct(ctx context.Context, repo repository.ProductRepository, codeOrID string) (*model.Product, error) {
	product, err := repo.FindByCodeOrID(ctx, codeOrID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product '" + codeOrID + "' not found")
		}
		return nil, internal("failed to load product", err)
	}
	return product, nil
}

// keyedMutex serializes work per key inside one process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func validKind(kind string) bool {
	return kind == model.KindMenu || kind == model.KindFeature
}
