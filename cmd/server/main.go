// Command server runs the evidence custody and retention lifecycle engine.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custos/internal/audit"
	"custos/internal/casedir"
	disposalhandler "custos/internal/disposal/handler"
	disposalservice "custos/internal/disposal/service"
	disposalstore "custos/internal/disposal/store"
	evidencehandler "custos/internal/evidence/handler"
	evidenceservice "custos/internal/evidence/service"
	evidencestore "custos/internal/evidence/store"
	holdhandler "custos/internal/legalhold/handler"
	holdservice "custos/internal/legalhold/service"
	holdstore "custos/internal/legalhold/store"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/kafka"
	"custos/internal/platform/logger"
	"custos/internal/platform/metrics"
	"custos/internal/platform/postgres"
	redisplat "custos/internal/platform/redis"
	"custos/internal/platform/token"
	retentionhandler "custos/internal/retention/handler"
	retentionmodels "custos/internal/retention/models"
	retentionservice "custos/internal/retention/service"
	retentionstore "custos/internal/retention/store"
	transporthttp "custos/internal/transport/http"
	id "custos/pkg/domain"
	"custos/pkg/requestcontext"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	healthChecks := map[string]transporthttp.HealthChecker{}

	// Stores: postgres when a DSN is configured, memory otherwise.
	var (
		evidenceSt  evidencestore.Store
		retentionSt retentionstore.Store
		holdSt      holdstore.Store
		disposalSt  disposalstore.Store
		auditSt     audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migration failed", "error", err.Error())
			os.Exit(1)
		}
		evidenceSt = evidencestore.NewPostgres(db)
		retentionSt = retentionstore.NewPostgres(db)
		holdSt = holdstore.NewPostgres(db)
		disposalSt = disposalstore.NewPostgres(db)
		auditSt = audit.NewPostgresStore(db)
		healthChecks["postgres"] = func() error { return db.PingContext(context.Background()) }
		log.Info("using postgres stores")
	} else {
		evidenceSt = evidencestore.NewInMemory()
		retentionSt = retentionstore.NewInMemory()
		holdSt = holdstore.NewInMemory()
		disposalSt = disposalstore.NewInMemory()
		auditSt = audit.NewInMemoryStore()
		log.Warn("no postgres DSN configured; using in-memory stores")
	}

	redisClient, err := redisplat.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
	if err != nil {
		log.Error("kafka producer setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer producer.Close()

	auditor := audit.NewPublisher(auditSt, producer, log)

	// The case directory is an external system; the in-process fake keeps the
	// engine runnable standalone until the directory adapter is deployed.
	cases := casedir.NewInMemory()

	evidenceSvc := evidenceservice.New(evidenceSt, auditor, log, m)
	retentionSvc := retentionservice.New(retentionSt, auditor, log)
	holdSvc := holdservice.New(holdSt, auditor, log, m)
	disposalSvc := disposalservice.New(
		disposalSt, cases, retentionSvc, holdSvc, evidenceSvc,
		auditor, log, m, redisClient, cfg.ScanLockTTL,
	)
	holdSvc.SetWorkflowNotifier(disposalSvc)

	if cfg.PostgresDSN == "" {
		seedDev(ctx, log, retentionSvc, cases)
	}

	router := transporthttp.New(transporthttp.Options{
		Logger:         log,
		Metrics:        m,
		TokenValidator: token.NewValidator(cfg.JWTSigningKey),
		RequestTimeout: 30 * time.Second,
		Handlers: []transporthttp.RouteRegistrar{
			evidencehandler.New(evidenceSvc, log),
			retentionhandler.New(retentionSvc, log),
			holdhandler.New(holdSvc, log),
			disposalhandler.New(disposalSvc, log),
		},
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

// seedDev loads a starter policy set and a few closed cases so the workflow
// is exercisable out of the box in memory mode.
func seedDev(ctx context.Context, log *slog.Logger, retentionSvc *retentionservice.Service, cases *casedir.InMemory) {
	ctx = requestcontext.WithActor(ctx, "system.seed")

	policies := []retentionservice.CreateRequest{
		{CaseType: id.CaseTypeFraud, RetentionYears: 7, DisposalMethod: retentionmodels.MethodSecureDelete},
		{CaseType: id.CaseTypeRansomware, RetentionYears: 10, DisposalMethod: retentionmodels.MethodCryptographicErasure, RequiresDualApproval: true},
		{CaseType: id.CaseTypePhishing, RetentionYears: 5, DisposalMethod: retentionmodels.MethodSecureDelete},
		{CaseType: id.CaseTypeIdentityTheft, RetentionYears: 7, DisposalMethod: retentionmodels.MethodSecureDelete},
		{CaseType: id.CaseTypeChildSafety, RetentionYears: 25, DisposalMethod: retentionmodels.MethodPhysicalDestruction, RequiresDualApproval: true},
		{CaseType: id.CaseTypeNetworkIntrusion, RetentionYears: 10, DisposalMethod: retentionmodels.MethodCryptographicErasure, RequiresDualApproval: true},
	}
	for _, p := range policies {
		if _, err := retentionSvc.Create(ctx, p); err != nil {
			log.Info("dev seed policy skipped", "case_type", string(p.CaseType), "error", err.Error())
		}
	}

	closedLongAgo := time.Now().AddDate(-12, 0, 0)
	closedRecently := time.Now().AddDate(-1, 0, 0)
	cases.Put(casedir.CaseInfo{
		ID: id.NewCaseID(), CaseType: id.CaseTypeFraud,
		Status: casedir.CaseStatusClosed, ClosedAt: &closedLongAgo,
	})
	cases.Put(casedir.CaseInfo{
		ID: id.NewCaseID(), CaseType: id.CaseTypeRansomware,
		Status: casedir.CaseStatusClosed, ClosedAt: &closedLongAgo,
	})
	cases.Put(casedir.CaseInfo{
		ID: id.NewCaseID(), CaseType: id.CaseTypePhishing,
		Status: casedir.CaseStatusClosed, ClosedAt: &closedRecently,
	})
	log.Info("dev seed loaded", "policies", len(policies))
}
