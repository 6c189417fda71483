package main

import (
	"fmt"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/repository"
	"catalog/internal/service"
	"catalog/internal/upstream"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles what the subcommands need. The CLI runs without the read-model cache and the
// websocket hub, so open admin screens are not notified of CLI writes.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	hierarchy service.HierarchyService
	matrix    service.MatrixService
	products  repository.ProductRepository
	packages  repository.PackageRepository
	txManager repository.TransactionManager
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.GinMode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	db, err := database.NewConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	products := repository.NewProductRepository(db)
	packages := repository.NewPackageRepository(db)
	nodes := repository.NewNodeRepository(db)
	txManager := repository.NewTransactionManager(db)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		products:  products,
		packages:  packages,
		txManager: txManager,
		hierarchy: service.NewHierarchyService(service.HierarchyDeps{
			Products:  products,
			Nodes:     nodes,
			SyncRuns:  repository.NewSyncRunRepository(db),
			TxManager: txManager,
			Source:    upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout, log),
			MaxDepth:  cfg.MaxDepth,
			Logger:    log,
		}),
		matrix: service.NewMatrixService(service.MatrixDeps{
			Products:  products,
			Packages:  packages,
			Nodes:     nodes,
			Matrix:    repository.NewMatrixRepository(db),
			Audit:     repository.NewAuditRepository(db),
			TxManager: txManager,
			Logger:    log,
		}),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
