// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"catalog/internal/database"
	"catalog/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
// A single connection keeps the in-memory database alive for the test's lifetime.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedProduct creates a product and one package per name, returning the packages in order.
func SeedProduct(t *testing.T, db *gorm.DB, code string, packageNames ...string) (model.Product, []model.Package) {
	t.Helper()

	product := model.Product{Code: code, Name: code + " product"}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", code, err)
	}

	packages := make([]model.Package, 0, len(packageNames))
	for i, name := range packageNames {
		pkg := model.Package{
			ProductCode: code,
			Name:        name,
			Status:      model.PackageStatusActive,
			OrderNumber: i + 1,
			Price:       decimal.NewFromInt(int64(100 * (i + 1))),
		}
		if err := db.Create(&pkg).Error; err != nil {
			t.Fatalf("seed package %s: %v", name, err)
		}
		packages = append(packages, pkg)
	}
	return product, packages
}

// SeedNodes writes mirror rows directly, bypassing the synchronizer.
func SeedNodes(t *testing.T, db *gorm.DB, scope, kind string, ids ...string) {
	t.Helper()

	for i, id := range ids {
		node := model.Node{
			ScopeCode:   scope,
			Kind:        kind,
			ID:          model.NodeID(id),
			Level:       1,
			Type:        kind,
			Title:       kind + " " + id,
			OrderNumber: i + 1,
			IsActive:    true,
		}
		if err := db.Create(&node).Error; err != nil {
			t.Fatalf("seed node %s: %v", id, err)
		}
	}
}
