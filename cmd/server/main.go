package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/dashboard"
	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/featureflags"
	"github.com/aryan0dhankhar/clientdesk/internal/handler"
	"github.com/aryan0dhankhar/clientdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/clientdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/clientdesk/internal/infrastructure/supabase"
	"github.com/aryan0dhankhar/clientdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/clientdesk/internal/repository"
	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"github.com/aryan0dhankhar/clientdesk/internal/security/ratelimit"
	"github.com/aryan0dhankhar/clientdesk/internal/service"
	"github.com/aryan0dhankhar/clientdesk/internal/worker"
	"github.com/aryan0dhankhar/clientdesk/pkg/config"
	"github.com/aryan0dhankhar/clientdesk/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting clientdesk server",
		slog.String("environment", cfg.Environment),
		slog.String("backend", cfg.Backend),
		slog.Any("flags", featureflags.Snapshot()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (export only when OTEL_EXPORTER_OTLP_ENDPOINT is set)
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Options{
		ServiceName: "clientdesk",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Data backend
	store, users, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeBackend()

	if featureflags.ChaosBackend.Enabled() {
		chaos := worker.NewChaosMonkey(store, log, time.Minute, 0.2)
		chaos.SetEnabled(true)
		store = chaos
		go chaos.Start(ctx)
	}

	// 5. Token revocation: Redis when configured, otherwise in-process
	checks := map[string]handler.Pinger{}
	var revocations auth.RevocationStore
	sweepTargets := map[string]worker.Sweepable{}
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		revocations = auth.NewRedisRevocationStore(redisClient)
		checks["redis"] = redisClient
	} else {
		memRevocations := auth.NewMemoryRevocationStore()
		revocations = memRevocations
		sweepTargets["revocations"] = worker.SweepFunc(memRevocations.Purge)
		checks["redis"] = nil
	}

	// 6. Services
	auditLogger := audit.NewLogger(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "clientdesk")
	authService := service.NewAuthService(
		users,
		tokenManager,
		revocations,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute,
		auditLogger,
		log,
	)
	clientService := service.NewClientService(store, auditLogger, log)
	checks["backend"] = clientService

	registry := dashboard.NewRegistry(clientService, time.Duration(cfg.SessionIdleMinutes)*time.Minute, log)
	sweepTargets["dashboards"] = registry

	// 7. HTTP surface
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	sweepTargets["rate_limits"] = rateLimiter
	surfaceErrors := featureflags.SurfaceBackendErrors.Enabled()

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService, registry, log),
		Dashboard:   handler.NewDashboardHandler(registry, surfaceErrors, log),
		Health:      handler.NewHealthHandler(checks, log),
		Resolver:    authService,
		Limiter:     rateLimiter,
		Audit:       auditLogger,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      log,
	})

	// 8. Start cleanup worker in background
	cleanupWorker := worker.NewCleanupWorker(
		sweepTargets,
		log,
		time.Duration(cfg.SweepIntervalMinutes)*time.Minute,
	)
	go cleanupWorker.Start(ctx)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
		slog.Bool("surface_backend_errors", surfaceErrors),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop cleanup worker
	log.Info("server stopped")
}

// openBackend selects the client store and the user repository for cfg.Backend
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.ClientStore, domain.UserRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		store, err := supabase.NewClient(supabase.Options{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseKey,
			Logger:  log,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		users, err := auth.NewUserStore(cfg.SeedUsers)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("using hosted backend",
			slog.String("url", cfg.SupabaseURL),
			slog.Int("seed_users", len(cfg.SeedUsers)),
		)
		return store, users, func() {}, nil

	case config.BackendPostgres, config.BackendSQLite:
		dbCfg := database.DefaultConfig()
		dbCfg.Driver = cfg.Backend
		dbCfg.Host = cfg.DBHost
		dbCfg.Port = cfg.DBPort
		dbCfg.User = cfg.DBUser
		dbCfg.Password = cfg.DBPassword
		dbCfg.Database = cfg.DBName
		dbCfg.SSLMode = cfg.DBSSLMode
		dbCfg.Path = cfg.SQLitePath

		pool, err := database.NewConnectionPool(ctx, dbCfg, log)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		closeFn := func() {
			if err := pool.Close(); err != nil {
				log.Error("failed to close database", slog.String("error", err.Error()))
			}
		}
		if cfg.Backend == config.BackendSQLite {
			return repository.NewSQLiteClientRepository(pool.GetDB(), log),
				repository.NewSQLiteUserRepository(pool.GetDB(), log), closeFn, nil
		}
		return repository.NewPostgresClientRepository(pool.GetDB(), log),
			repository.NewPostgresUserRepository(pool.GetDB(), log), closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}
