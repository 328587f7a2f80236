package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/community-hub/internal/application/notification"
	"github.com/community-hub/internal/application/request"
	"github.com/community-hub/internal/application/summary"
	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/infrastructure/dynamo"
	jwtinfra "github.com/community-hub/internal/infrastructure/jwt"
	"github.com/community-hub/internal/infrastructure/memory"
	s3infra "github.com/community-hub/internal/infrastructure/s3"
	"github.com/community-hub/internal/infrastructure/smtp"
	"github.com/community-hub/internal/infrastructure/sns"
	"github.com/community-hub/internal/infrastructure/ws"
	"github.com/community-hub/internal/seed"
	transporthttp "github.com/community-hub/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const dispatchTimeout = 20 * time.Second

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg aws.Config
	if cfg.StorageBackend == config.BackendDynamo || cfg.SnapshotBucket != "" || cfg.SNSTopicARN != "" {
		var err error
		if awsCfg, err = dynamo.LoadAWSConfig(ctx, cfg); err != nil {
			return err
		}
	}

	reqDeps := request.ServiceDeps{ProviderRepo: memory.NewProviderRepo(seed.Providers()...), Logger: log}
	notifDeps := notification.ServiceDeps{Logger: log}
	var sumDeps summary.ServiceDeps
	// persist saves the memory backend on shutdown; it stays nil for DynamoDB.
	var persist func(context.Context) error

	switch cfg.StorageBackend {
	case config.BackendDynamo:
		client := dynamo.NewClient(awsCfg, cfg)
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log)
		requests := dynamo.NewRequestRepo(client, cfg.DynamoTables.Requests)
		reqDeps.RequestRepo = requests
		sumDeps.RequestRepo = requests
		notifDeps.NotificationRepo = dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications)
	case config.BackendMemory:
		requests := memory.NewRequestRepo()
		notifications := memory.NewNotificationRepo()
		reqDeps.RequestRepo = requests
		sumDeps.RequestRepo = requests
		notifDeps.NotificationRepo = notifications
		if cfg.SnapshotBucket != "" {
			store := s3infra.NewSnapshotStore(s3infra.NewClient(awsCfg, cfg), cfg.SnapshotBucket, cfg.SnapshotKey)
			snap, err := store.Load(ctx)
			if err != nil {
				return err
			}
			if snap != nil {
				memory.Restore(*snap, requests, notifications)
				log.Info("memory store restored from snapshot",
					zap.Int("requests", len(snap.Requests)),
					zap.Int("notifications", len(snap.Notifications)),
				)
			}
			persist = func(ctx context.Context) error {
				return store.Save(ctx, memory.TakeSnapshot(requests, notifications))
			}
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.SeedDemo {
		if err := seed.Load(ctx, seed.Deps{Requests: reqDeps, Notifications: notifDeps, Logger: log}, time.Now().UTC()); err != nil {
			return err
		}
	}

	hub := ws.NewHub(cfg.AllowedOrigins, log)
	go hub.Run(ctx)
	notifDeps.Dispatchers = append(notifDeps.Dispatchers, hub)
	// Remote deliveries run in the background so a slow SNS or SMTP server
	// never holds up the request that added the notification.
	var background []*notification.Background
	remote := func(d notification.Dispatcher) {
		bg := notification.NewBackground(d, dispatchTimeout, log)
		background = append(background, bg)
		notifDeps.Dispatchers = append(notifDeps.Dispatchers, bg)
	}
	if cfg.SNSTopicARN != "" {
		remote(sns.NewTopicPublisher(sns.NewClient(awsCfg, cfg), cfg.SNSTopicARN))
	}
	if cfg.SMTPHost != "" {
		remote(smtp.NewMailer(cfg))
	}

	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else if cfg.IsProduction() {
		return fmt.Errorf("JWT provider: %w", err)
	} else {
		log.Warn("JWT provider not available", zap.Error(err))
	}

	notifSvc := notification.NewService(notifDeps)
	sumDeps.NotificationService = notifSvc
	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		RequestService:      request.NewService(reqDeps),
		NotificationService: notifSvc,
		SummaryService:      summary.NewService(sumDeps),
		Hub:                 hub,
		JWTProvider:         jwtProvider,
		Logger:              log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("backend", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	for _, bg := range background {
		bg.Wait()
	}
	if persist != nil {
		if err := persist(shutdownCtx); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		log.Info("memory store saved to snapshot")
	}
	log.Info("server stopped")
	return nil
}
