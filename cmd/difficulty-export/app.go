package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/difficulty-export/internal/config"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories/postgres"
	"github.com/SAP-F-2025/difficulty-export/internal/services"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
	"github.com/SAP-F-2025/difficulty-export/internal/validator"
	"github.com/SAP-F-2025/difficulty-export/pkg"
)

// app is the wired engine plus everything that must be closed with it.
type app struct {
	cfg     *config.Config
	logger  utils.Logger
	service services.DifficultyExportService
	runs    repositories.RunRepository
	closers []func() error
}

// openStore connects to the key-value store. Tests replace it.
var openStore = func(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", services.ErrStoreUnavailable, err)
	}
	rs := store.NewRedisStore(client, cfg.ScanCount)
	return rs, rs.Close, nil
}

// openRuns connects the audit repository when DATABASE_URL is set.
var openRuns = func(ctx context.Context, cfg *config.Config) (repositories.RunRepository, func() error, error) {
	if !cfg.AuditEnabled() {
		return repositories.NopRunRepository{}, nil, nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() error { return pkg.CloseDatabase(db) }

	repo := postgres.NewExportRunPostgreSQL(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to migrate export_runs: %w", err), closeDB())
	}
	return repo, closeDB, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger utils.Logger) (*app, error) {
	v := validator.New()
	if err := cfg.Validate(v); err != nil {
		return nil, err
	}

	policy, err := services.LoadMergePolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	slogger := utils.ToSlogLogger(logger)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	runs, closeRuns, err := openRuns(ctx, cfg)
	if err != nil {
		logger.LogError(err, "Run audit disabled")
		runs = repositories.NopRunRepository{}
	}
	if closeRuns != nil {
		a.closers = append(a.closers, closeRuns)
	}
	a.runs = runs

	a.service = services.NewDifficultyExportService(services.ExportDependencies{
		Store:     st,
		Keys:      store.NewKeys(cfg.Namespace),
		Exports:   repositories.NewExportFileRepository(cfg.ExportDir),
		Runs:      a.runs,
		Publisher: publisher,
		Policy:    policy,
		Validator: v,
		Logger:    slogger,
	})

	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
