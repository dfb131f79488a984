package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/pharmakit/storefront/db"
	"github.com/pharmakit/storefront/internal/app"
	"github.com/pharmakit/storefront/internal/config"
	"github.com/pharmakit/storefront/pkg/auth"
	"github.com/pharmakit/storefront/pkg/bootstrap"
	"github.com/pharmakit/storefront/pkg/config/configloader"
	"github.com/pharmakit/storefront/pkg/geo"
	"github.com/pharmakit/storefront/pkg/messaging"
	"github.com/pharmakit/storefront/pkg/nats"
	"github.com/pharmakit/storefront/pkg/telemetry"
	"github.com/pharmakit/storefront/pkg/web"
)

const serviceName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, connects the backing services and
// starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create database connection pool: %w", err)
	}
	defer dbPool.Close()
	logger.Info("Successfully connected to the database")

	if cfg.Database.Migrate {
		if err := bootstrap.MigrateUp(cfg.Database.URL, db.Migrations); err != nil {
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		logger.Info("Database schema is up to date")
	}

	redisClient, err := setupRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		logger.Info("Cart mirror connected", slog.String("addr", cfg.Redis.Addr))
	} else {
		logger.Info("Cart mirror disabled; carts are local-only")
	}

	publisher, natsCleanup, err := setupNats(cfg)
	if err != nil {
		return err
	}
	if natsCleanup != nil {
		defer natsCleanup()
	}

	var geoClient *geo.Client
	if cfg.Geo.Enabled {
		geoClient = geo.NewClient(geo.Config{
			URL:          cfg.Geo.URL,
			Timeout:      cfg.Geo.Timeout,
			HighAccuracy: cfg.Geo.HighAccuracy,
		})
	}

	var verifier web.TokenVerifier
	if cfg.IdP.Enabled {
		v, err := auth.NewJWTVerifier(ctx, cfg.IdP)
		if err != nil {
			return fmt.Errorf("failed to initialize token verifier: %w", err)
		}
		verifier = v
	}

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down tracer provider", slog.String("error", err.Error()))
			}
		}()
	}

	deps := app.SetupDependencies(dbPool, redisClient, publisher, geoClient, verifier, cfg, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// setupRedis connects the cart mirror store when enabled.
func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := bootstrap.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// setupNats connects the broker and builds the stock event publisher
// when enabled.
func setupNats(cfg *config.Config) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		return nil, nil, nil
	}
	nc, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nats.NewNatsPublisher(js), nc.Close, nil
}
