package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/mvaleed/privatedetails/internal/auth"
	"github.com/mvaleed/privatedetails/internal/config"
	"github.com/mvaleed/privatedetails/internal/event"
	"github.com/mvaleed/privatedetails/internal/form"
	"github.com/mvaleed/privatedetails/internal/metrics"
	"github.com/mvaleed/privatedetails/internal/service"
	"github.com/mvaleed/privatedetails/internal/storage"
	"github.com/mvaleed/privatedetails/internal/storage/memory"
	"github.com/mvaleed/privatedetails/internal/storage/postgres"
	"github.com/mvaleed/privatedetails/internal/store"
	grpcTransport "github.com/mvaleed/privatedetails/internal/transport/grpc"
	httpTransport "github.com/mvaleed/privatedetails/internal/transport/http"
	"github.com/mvaleed/privatedetails/internal/transport/request"
	"github.com/mvaleed/privatedetails/internal/validation"
	"github.com/mvaleed/privatedetails/migrations"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Run the application
	if err := run(cfg, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	// Development defaults to debug unless a level was asked for.
	if cfg.IsDevelopment() && os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]httpTransport.HealthCheck{}

	// Storage
	var (
		repo storage.PersonalDetailsRepository
		tx   storage.Transactor
	)
	if cfg.DatabaseURL != "" {
		logger.Info("connecting to database")
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return err
		}
		logger.Info("database connected")

		repo = db.Repositories().PersonalDetails
		tx = db
		checks["database"] = db.Health
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		mem := memory.New()
		repo = mem.Repositories().PersonalDetails
		tx = mem
	}

	records := store.New(repo, logger)

	// Cross-instance change notifications
	var notifier store.Notifier = store.NoopNotifier{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}

		bridge := store.NewRedisBridge(client, records, uuid.New(), logger)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("change notification bridge stopped", "error", err)
			}
		}()
		notifier = bridge
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	// Initialize event publisher
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := event.NewKafkaPublisher(event.KafkaConfig{
			Brokers:         cfg.KafkaBrokers,
			Topic:           cfg.KafkaTopic,
			DeliveryTimeout: 10 * time.Second,
		}, logger)
		if err != nil {
			return err
		}
		publisher = kp
		checks["kafka"] = kp.Healthy
	} else {
		publisher = event.NewLoggingPublisher(logger)
	}
	defer publisher.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	names, err := validation.NewLegalNameValidator(cfg.LegalNamePattern)
	if err != nil {
		return err
	}
	validators := form.Validators{
		Date:      validation.NewDateValidator(cfg.DOBMinAge, cfg.DOBMaxAge),
		LegalName: names,
		Now:       time.Now,
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:      cfg.JWTSecretKey,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       []string{cfg.JWTIssuer},
	})

	details := service.NewPersonalDetailsService(repo, tx, records, notifier, publisher, m, logger)
	sessions := form.NewSessions(records, details, validators, m)
	inputs := request.NewValidator(cfg.LegalNameMaxLength)

	errChan := make(chan error, 2)

	httpServer := httpTransport.NewServer(httpTransport.Dependencies{
		Details:  details,
		Sessions: sessions,
		Inputs:   inputs,
		Dates:    validators.Date,
		JWT:      jwtManager,
		Checks:   checks,
	}, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	// Start gRPC server
	grpcServer := grpcTransport.NewServer(grpcTransport.Dependencies{
		Details:  details,
		Sessions: sessions,
		Inputs:   inputs,
		JWT:      jwtManager,
	}, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.GRPCPort)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen: %w", err)
			return
		}
		logger.Info("starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	grpcServer.GracefulStop()

	cancel()

	logger.Info("shutdown complete")
	return nil
}
