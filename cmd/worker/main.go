package main

import (
	"context"
	"os/signal"
	"syscall"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/worker"
	"backend/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New("worker")

	db, err := database.NewConnection(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("object store initialization failed")
	}

	tenantRepo := repository.NewTenantRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	jobRepo := repository.NewJobRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	simulationRepo := repository.NewSimulationRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)

	auditService := service.NewAuditService(auditRepo)
	validationService := service.NewValidationService(taxRuleRepo, tenantRepo, store, auditService)
	simulationService := service.NewSimulationService(taxRuleRepo, simulationRepo, auditService)
	reconciliationService := service.NewReconciliationService(reconciliationRepo, store, auditService)

	// The worker process has no websocket clients of its own; job status
	// events reach dashboards through the api process polling endpoints.
	w := worker.New(jobRepo, nil, log, cfg.WorkerPollInterval, cfg.WorkerBatchSize)
	worker.RegisterHandlers(w, validationService, simulationService, reconciliationService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w.Run(ctx)
}
