package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/menuguard/pkg/audit"
	"github.com/platinummonkey/menuguard/pkg/config"
	"github.com/platinummonkey/menuguard/pkg/httputil"
	"github.com/platinummonkey/menuguard/pkg/middleware"
	"github.com/platinummonkey/menuguard/pkg/observability"
	"github.com/platinummonkey/menuguard/pkg/permcache"
	"github.com/platinummonkey/menuguard/pkg/rbac"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Error("menuguard exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	db, dialect, err := rbac.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN, rbac.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}

	applied, err := rbac.Migrate(ctx, db, dialect)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.WithField("versions", applied).Info("Applied database migrations")
	}

	store := rbac.NewStore(db,
		rbac.WithLegacyNameFallback(cfg.RBAC.LegacyMenuNameFallback),
		rbac.WithStoreLogger(logger.WithField("component", "rbac-store")),
	)

	if cfg.RBAC.SeedOnStart {
		seeded, err := rbac.Seed(ctx, store, rbac.SeedOptions{})
		if err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
		if seeded.Menus > 0 {
			logger.WithFields(map[string]interface{}{
				"menus":  seeded.Menus,
				"roles":  seeded.Roles,
				"grants": seeded.Grants,
			}).Info("Seeded menu catalog")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = permcache.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return err
		}
	}

	var backend permcache.Backend
	switch cfg.Cache.Backend {
	case "memory":
		backend = permcache.NewMemoryBackend(cfg.Cache.Size, cfg.Cache.TTL)
	case "redis":
		backend = permcache.NewRedisBackend(redisClient, "menuguard:cache", cfg.Cache.TTL)
	}
	cache := permcache.New(backend, metrics, logger.WithField("component", "permcache"))

	engine := rbac.NewEngine(store, logger.WithField("component", "rbac-engine"), metrics)
	service := rbac.NewService(store, cache, logger.WithField("component", "rbac-service"))

	var archiver audit.Archiver
	if cfg.Audit.ArchiveEnabled {
		s3Archiver, err := audit.NewS3ArchiverFromEnv(ctx, cfg.Audit.ArchiveRegion, cfg.Audit.ArchiveBucket, cfg.Audit.ArchivePrefix)
		if err != nil {
			return fmt.Errorf("failed to create system log archiver: %w", err)
		}
		archiver = s3Archiver
	}
	recorder := audit.NewRecorder(audit.NewDBLogger(db), logger.WithField("component", "audit"), metrics, cfg.Audit.WriteTimeout)
	auditStore := audit.NewDBStore(db, archiver)

	routes := rbac.DefaultRouteTable()
	if cfg.RBAC.RouteTablePath != "" {
		routes, err = rbac.LoadRouteTable(cfg.RBAC.RouteTablePath)
		if err != nil {
			return err
		}
	}

	verifier := middleware.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	router := mux.NewRouter()
	router.Use(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware(logger),
		httputil.LoggingMiddleware,
		httputil.CORSMiddleware(cfg.Server.AllowedOrigins),
		observability.HTTPMetricsMiddleware(metrics),
	)

	observability.RegisterHealthRoutes(router, observability.NewHealthChecker(db, redisClient, version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(router, registry)
	}

	api := router.PathPrefix("/api").Subrouter()
	apiChain := []mux.MiddlewareFunc{
		middleware.NewAuthMiddleware(verifier, false).Handler,
	}
	if cfg.RateLimit.Enabled {
		limiterCfg := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.Window,
			BurstSize:         cfg.RateLimit.Burst,
		}
		var limiter middleware.Limiter
		if cfg.RateLimit.Distributed {
			limiter = middleware.NewDistributedRateLimiter(redisClient, limiterCfg, "")
		} else {
			memLimiter := middleware.NewRateLimiter(limiterCfg)
			memLimiter.StartCleanup(ctx)
			limiter = memLimiter
		}
		apiChain = append(apiChain, middleware.NewRateLimitMiddleware(limiter, logger.WithField("component", "ratelimit")).Handler)
	}
	apiChain = append(apiChain,
		mux.MiddlewareFunc(audit.Middleware(recorder)),
		rbac.NewGuard(engine, routes, recorder).Handler,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(1<<20),
	)
	api.Use(apiChain...)

	rbac.NewHandlers(service, engine).RegisterRoutes(api)
	audit.NewHandlers(auditStore, recorder, cfg.Audit.ArchiveEnabled).RegisterRoutes(api)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(router, "menuguard"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var scheduler *audit.PurgeScheduler
	if cfg.Audit.PurgeSchedule != "" {
		scheduler, err = audit.NewPurgeScheduler(auditStore, audit.RetentionPolicy{
			RetentionDays:  cfg.Audit.RetentionDays,
			ArchiveEnabled: cfg.Audit.ArchiveEnabled,
		}, cfg.Audit.PurgeSchedule, recorder, logger.WithField("component", "purge"), metrics)
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error { return db.Close() })
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error { return redisClient.Close() })
	}
	shutdown.RegisterShutdownFunc(recorder.Close)
	if tp != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}
	if scheduler != nil {
		shutdown.RegisterShutdownFunc(scheduler.Stop)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", server.Addr).Info("Starting menuguard API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.CollectDBStats(db)
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}
