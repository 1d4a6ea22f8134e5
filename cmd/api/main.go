package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"callcenter_backend/internal/activity"
	"callcenter_backend/internal/agents"
	"callcenter_backend/internal/auth"
	"callcenter_backend/internal/calls"
	"callcenter_backend/internal/customers"
	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/http/router"
	"callcenter_backend/internal/projects"
	"callcenter_backend/internal/relationships"
	"callcenter_backend/internal/searchgroups"
	"callcenter_backend/internal/telephony"
	"callcenter_backend/internal/webhook"
	"callcenter_backend/migrations"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/db"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Optional Redis client for webhook delivery dedup
	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	dedupGuard := webhook.NewGuard(rdb, cfg.GetWebhookDedupTTL())

	// Telephony provider client
	gateway := telephony.NewClient(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	edges := relationships.NewManager(pool, eventBus, log)

	// Activity module subscribes to domain events and serves the aggregate
	// to administrators.
	activityModule := activity.NewModule()
	activityModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, val, log)
	customersModule := customers.NewModule(pool, eventBus, val, log)
	projectsModule := projects.NewModule(pool, edges, val)
	searchGroupsModule := searchgroups.NewModule(pool, edges, customersModule.Service(), val, log)
	callsModule := calls.NewModule(pool, customersModule.Repository(), gateway, edges, eventBus, val, log)
	webhookModule := webhook.NewModule(pool, callsModule.Service(), dedupGuard, log)
	agentsModule := agents.NewModule(pool, gateway, val, log)

	// Periodic edge audit keeps the dual-sided membership arrays consistent.
	auditCron := cron.New()
	if _, err := auditCron.AddFunc(cfg.GetEdgeAuditSchedule(), func() {
		auditCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := edges.Audit(auditCtx, cfg.GetEdgeAuditRepair())
		if err != nil {
			log.Error("edge audit failed", "error", err)
			return
		}
		log.Info("edge audit complete",
			"scanned", report.Scanned,
			"dangling", report.Dangling,
			"asymmetric", report.Asymmetric,
			"repaired", report.Repaired,
		)
	}); err != nil {
		log.Error("invalid edge audit schedule", "schedule", cfg.GetEdgeAuditSchedule(), "error", err)
		panic("invalid edge audit schedule: " + err.Error())
	}
	auditCron.Start()
	defer auditCron.Stop()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			customersModule,
			projectsModule,
			searchGroupsModule,
			callsModule,
			webhookModule,
			agentsModule,
			activityModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; webhook dedup cache disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; webhook dedup cache disabled", "error", err)
		return nil
	}

	return redis.NewClient(opts)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
