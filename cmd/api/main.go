// Command api runs the clinic records HTTP server.
//
//	@title						Clinic Records API
//	@version					1.0
//	@description				Identity, access control and encrypted medical records for a clinic backend.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mediciel/clinic-records/internal/api"
	"github.com/mediciel/clinic-records/internal/api/handler"
	"github.com/mediciel/clinic-records/internal/api/metrics"
	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
	"github.com/mediciel/clinic-records/internal/core/service"
	"github.com/mediciel/clinic-records/internal/infrastructure/audit"
	mongodb "github.com/mediciel/clinic-records/internal/infrastructure/db/mongo"
	pgdb "github.com/mediciel/clinic-records/internal/infrastructure/db/postgres"
	redisdb "github.com/mediciel/clinic-records/internal/infrastructure/db/redis"
	"github.com/mediciel/clinic-records/internal/pkg/config"
	"github.com/mediciel/clinic-records/pkg/logger"
	"github.com/mediciel/clinic-records/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "clinic-records",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Security primitives (fail fast on weak secrets) ---
	tokens, err := security.NewTokenService(cfg.Security.TokenSecret, security.WithIssuer(cfg.Security.TokenIssuer))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token secret")
	}
	cipher, err := security.NewFieldCipher(cfg.Security.FieldEncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid field encryption key")
	}

	// --- MongoDB (principals and records) ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "clinic-records",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create mongodb indexes")
	}

	checks := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
	}

	// --- Redis (optional session lock) ---
	var locker ports.SessionLocker
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		locker = redisdb.NewSessionLocker(rdb, cfg.Security.SessionLockTTL, log)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, session writes are not serialized across instances")
	}

	// --- Postgres (optional durable audit trail) ---
	var (
		auditRepo   ports.AuditRepository
		auditReader ports.AuditReader
	)
	if cfg.Postgres.DSN != "" {
		pg, err := pgdb.Connect(ctx, pgdb.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pg.Close()
		repo := pgdb.NewAuditRepository(pg)
		auditRepo = repo
		auditReader = repo
		checks["postgres"] = repo.Ping
	} else {
		log.Warn().Msg("POSTGRES_DSN not set, audit events are written to the log only")
	}

	sink := audit.NewSink(auditRepo, log, audit.Options{
		Workers: cfg.Audit.Workers,
		Dropped: metrics.AuditDroppedTotal,
	})
	// Workers outlive the signal context so queued events drain on shutdown.
	sink.Start(context.Background())
	metrics.RegisterAuditQueueDepth(sink.Pending)

	// --- Core ---
	storeOpts := service.StoreOptions{
		SessionTTL: cfg.Security.SessionTTL,
		RefreshTTL: cfg.Security.RefreshTTL,
		Locker:     locker,
	}
	admins := service.NewCredentialStore(domain.RoleAdmin, mongodb.NewAdminRepository(db), tokens, sink, log, storeOpts)
	doctors := service.NewCredentialStore(domain.RoleDoctor, mongodb.NewDoctorRepository(db), tokens, sink, log, storeOpts)
	guard := access.NewGuard(tokens)

	e := api.NewRouter(api.Dependencies{
		Admins:  service.NewAdminService(admins, doctors, guard),
		Doctors: service.NewDoctorService(doctors, admins, guard),
		Records: service.NewRecordService(mongodb.NewRecordRepository(db), doctors, guard, cipher, sink, log),
		Audit:   service.NewAuditService(admins, guard, auditReader, log),
		Tokens:  tokens,
		Checks:  checks,
		Log:     log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting clinic records api")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	sink.Close()
	log.Info().Msg("server exiting")
}
