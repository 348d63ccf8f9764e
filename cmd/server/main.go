// Command server runs the access ledger: an HTTP service that records which
// viewers may decrypt which records, with delegate registration, policy-gated
// grants, and a tamper-evident audit trail.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stow/internal/admin"
	"stow/internal/delegate"
	delegatehandler "stow/internal/delegate/handler"
	"stow/internal/guard"
	"stow/internal/jwtauth"
	"stow/internal/lifecycle"
	"stow/internal/permission"
	permissionhandler "stow/internal/permission/handler"
	permissionmetrics "stow/internal/permission/metrics"
	"stow/internal/permission/service"
	"stow/internal/platform/config"
	"stow/internal/platform/httpserver"
	"stow/internal/platform/logger"
	"stow/internal/platform/metrics"
	"stow/internal/platform/middleware"
	redisclient "stow/internal/platform/redis"
	"stow/internal/policy"
	"stow/internal/registry"
	"stow/pkg/platform/audit"
	"stow/pkg/platform/audit/relay"
	auditmemory "stow/pkg/platform/audit/store/memory"
	auditpostgres "stow/pkg/platform/audit/store/postgres"
	txcontext "stow/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence backend for permissions, delegates, and the audit trail.
	var (
		permStore     permission.Store
		delegateStore delegate.Store
		auditStore    audit.Store
		runner        txcontext.Runner = txcontext.NopRunner{}
		db            *sql.DB
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		permStore = permission.NewPostgresStore(db)
		delegateStore = delegate.NewPostgresStore(db)
		auditStore = auditpostgres.New(db)
		runner = &txcontext.SQLRunner{DB: db}
	case config.StoreBadger:
		bdb, err := permission.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return err
		}
		defer bdb.Close()
		permStore = permission.NewBadgerStore(bdb)
		delegateStore = delegate.NewBadgerStore(bdb)
		auditStore = auditmemory.NewInMemoryStore()
	case config.StoreMemory:
		permStore = permission.NewMemoryStore()
		delegateStore = delegate.NewMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	auditor := audit.NewPublisher(auditStore)

	// Pause gate: shared through Redis when configured, in-process otherwise.
	var gate lifecycle.Gate = lifecycle.NewMemoryGate()
	rdb, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		gate = lifecycle.NewRedisGate(rdb.Client)
		log.Info("pause gate backed by redis")
	}

	// Registries: external services in production, in-process for development.
	var (
		users   guard.UserRegistry
		records guard.RecordRegistry
	)
	if cfg.UserRegistryURL != "" && cfg.RecordRegistryURL != "" {
		users = registry.NewHTTPUserRegistry(cfg.UserRegistryURL, log)
		records = registry.NewHTTPRecordRegistry(cfg.RecordRegistryURL, log)
	} else {
		log.Warn("registry URLs not configured, using in-memory registries")
		users = registry.NewMemoryUserRegistry()
		records = registry.NewMemoryRecordRegistry()
	}

	ledgerMetrics := permissionmetrics.New()
	authz := guard.New(users, records, delegateStore)
	gateway := policy.NewGateway(auditor, log, policy.WithCheckCounter(ledgerMetrics.PolicyChecks))

	evaluators := make(map[string]policy.Evaluator, len(cfg.PolicyServices))
	for name, url := range cfg.PolicyServices {
		evaluators[name] = policy.NewHTTPEvaluator(name, url, log)
	}

	ledger := service.New(gate, authz, permStore, gateway, auditor, runner, ledgerMetrics, log)
	delegates := delegate.NewService(gate, authz, delegateStore, auditor, runner, log,
		delegate.WithRegistrationCounter(ledgerMetrics.Delegates))

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	processMetrics := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(processMetrics.Latency)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	permHandler := permissionhandler.New(ledger, evaluators, log)
	delHandler := delegatehandler.New(delegates, log)
	adminHandler := admin.New(gate, auditor, log)

	router.Route("/v1", func(r chi.Router) {
		permHandler.RegisterPublic(r)
		delHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireAuth(jwtService, log))
			var limiterRedis *redis.Client
			if rdb != nil {
				limiterRedis = rdb.Client
			}
			r.Use(middleware.RateLimit(limiterRedis, cfg.RateLimit, cfg.RateLimitWindow, log))
			permHandler.Register(r)
			delHandler.Register(r)
		})
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		adminHandler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting access ledger", "addr", cfg.Addr, "store", string(cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Outbox relay: exports audit events to Kafka when both the postgres
	// backend and brokers are configured.
	if db != nil && len(cfg.KafkaBrokers) > 0 {
		producer, err := relay.NewKafkaProducer(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}

		source := relay.NewOutboxSource(auditpostgres.New(db))
		auditRelay := relay.New(source, producer, log, relay.WithInterval(cfg.RelayInterval))
		group.Go(func() error {
			return auditRelay.Run(groupCtx)
		})
		log.Info("audit relay started", "topic", cfg.AuditTopic)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
