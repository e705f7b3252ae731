package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freelancehq/freelance-manager/internal/api"
	"github.com/freelancehq/freelance-manager/internal/api/handler"
	"github.com/freelancehq/freelance-manager/internal/api/middleware"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
	"github.com/freelancehq/freelance-manager/internal/core/ports"
	"github.com/freelancehq/freelance-manager/internal/core/service"
	mongodb "github.com/freelancehq/freelance-manager/internal/infrastructure/db/mongo"
	redisdb "github.com/freelancehq/freelance-manager/internal/infrastructure/db/redis"
	probes "github.com/freelancehq/freelance-manager/internal/infrastructure/http"
	"github.com/freelancehq/freelance-manager/internal/infrastructure/oauth"
	"github.com/freelancehq/freelance-manager/internal/infrastructure/queue"
	"github.com/freelancehq/freelance-manager/internal/pkg/config"
	"github.com/freelancehq/freelance-manager/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// @title                       Freelance Manager API
// @version                     1.0
// @description                 Projects, employees and revenue for a single freelancer account.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "freelance-manager",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	projectRepo := mongodb.NewProjectRepository(db)
	employeeRepo := mongodb.NewEmployeeRepository(db)
	revenueRepo := mongodb.NewRevenueRepository(db)
	accountRepo := mongodb.NewAccountRepository(db)
	for _, r := range []indexer{projectRepo, employeeRepo, revenueRepo, accountRepo} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	// --- Identity and migration ---
	var federated ports.FederatedProvider
	if cfg.OAuth.Enabled() {
		federated = oauth.NewGoogleProvider(oauth.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserInfoURL:  cfg.OAuth.UserInfoURL,
		})
	}
	authService := service.NewAuthService(accountRepo, redisdb.NewTokenDenylist(rdb), federated,
		cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	migrator := service.NewMigrationService(redisdb.NewLocalStorage(rdb, redisdb.DefaultLocalPrefix),
		redisdb.NewMigrationLedger(rdb), projectRepo, cfg.LegacyStorageKey, logger.Component("migration"))

	// --- Update notification bus ---
	local := bus.New()
	relay := redisdb.NewRelay(rdb, cfg.Bus.Channel, local, logger.Component("relay"))
	dispatcher := queue.NewDispatcher(cfg.Bus.Workers, relay, logger.Component("dispatcher"))

	// --- Record access, bound per request to the caller's session ---
	policy, err := cfg.DeletePolicy()
	if err != nil {
		return err
	}
	recordLog := logger.Component("records")
	projects := func(s ports.Session) ports.ProjectService {
		return service.NewProjectService(projectRepo, s, recordLog)
	}
	employees := func(s ports.Session) ports.EmployeeService {
		return service.NewEmployeeService(employeeRepo, projectRepo, policy, s, recordLog)
	}
	revenue := func(s ports.Session) ports.RevenueService {
		return service.NewRevenueService(revenueRepo, s, recordLog)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{PerMinute: cfg.AuthRatePerMinute}, logger.Component("ratelimit"))
	defer limiter.Stop()

	router := api.NewRouter(api.Deps{
		Auth:        handler.NewAuthHandler(authService, migrator, logger.Component("session")),
		Projects:    handler.NewProjectHandler(projects, dispatcher),
		Employees:   handler.NewEmployeeHandler(employees, dispatcher),
		Revenue:     handler.NewRevenueHandler(revenue, dispatcher),
		Dashboard:   handler.NewDashboardHandler(projects, employees, revenue, local, logger.Component("dashboard")),
		Streams:     handler.NewStreamHandler(local, logger.Component("stream")),
		Verifier:    authService,
		AuthLimiter: limiter,
		Probes:      func(e *echo.Echo) { probes.RegisterProbes(e, db, rdb) },
		Log:         log,
	})

	// Streams hold their request open, so there is no write timeout; the
	// base context ends them when shutdown starts.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	dispatcher.Start(gctx)

	g.Go(func() error {
		if err := relay.Run(gctx); err != nil && gctx.Err() == nil {
			log.Error().Err(err).Msg("bus relay stopped; updates stay local to this instance")
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("delete_policy", string(policy)).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	dispatcher.Wait()
	if err == nil {
		log.Info().Msg("API server stopped gracefully")
	}
	return err
}
