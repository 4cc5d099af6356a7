package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/liftlog/internal/api"
	"github.com/your-org/liftlog/internal/api/handlers"
	"github.com/your-org/liftlog/internal/api/ws"
	"github.com/your-org/liftlog/internal/config"
	"github.com/your-org/liftlog/internal/observability"
	"github.com/your-org/liftlog/internal/queue"
	"github.com/your-org/liftlog/internal/ranking"
	"github.com/your-org/liftlog/internal/storage"
	"github.com/your-org/liftlog/internal/submission"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("API server stopped")
}

func run(cfg *config.Config) error {
	slog.Info("starting LiftLog API service", "port", cfg.Server.Port, "storage", cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	checks := map[string]handlers.Check{"store": store.Ping}

	// Object storage for upload URLs
	var presigner handlers.Presigner
	if cfg.MinIO.Endpoint != "" {
		minioStore, err := storage.NewMinIOStore(cfg.MinIO, cfg.Upload.URLTTL)
		if err != nil {
			return fmt.Errorf("connect to minio: %w", err)
		}
		if err := minioStore.EnsureBuckets(ctx); err != nil {
			slog.Warn("ensure minio buckets", "error", err)
		}
		presigner = minioStore
		checks["minio"] = minioStore.Ping
	} else {
		slog.Warn("minio endpoint not configured, upload URLs are disabled")
	}

	hub := ws.NewHub()

	var publisher submission.Publisher
	if cfg.NATS.URL != "" {
		producer, consumer, err := startQueue(ctx, cfg.NATS.URL, store, hub)
		if err != nil {
			return err
		}
		defer producer.Close()
		defer consumer.Close()
		publisher = producer
		checks["nats"] = func(context.Context) error { return producer.Ping() }
	} else {
		slog.Warn("nats url not configured, personal bests are broadcast in-process only")
		publisher = queue.NewLocalPublisher(hub.BroadcastPersonalBest)
	}

	aggregator := ranking.NewAggregator(store, ranking.WithMaxAttempts(cfg.Ranking.MaxAttempts))
	projector := ranking.NewProjector(store, ranking.WithTopN(cfg.Leaderboard.DefaultTopN, cfg.Leaderboard.MaxTopN))

	router := api.NewRouter(api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.Issuer,
		UploadPassword: cfg.Upload.Password,
		Store:          store,
		Presigner:      presigner,
		Submissions:    submission.NewService(store, aggregator, publisher),
		Projector:      projector,
		Hub:            hub,
		Checks:         checks,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Backend == config.StorageBackendMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	db, err := storage.NewPostgresStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		slog.Info("database schema applied")
	}
	return db, nil
}

// startQueue wires JetStream: transcoder status and identity events are
// work-queued across instances, personal bests fan out to every instance's
// WebSocket clients.
func startQueue(ctx context.Context, url string, store storage.Store, hub *ws.Hub) (*queue.Producer, *queue.Consumer, error) {
	producer, err := queue.NewProducer(url)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	consumer, err := queue.NewConsumer(url)
	if err != nil {
		producer.Close()
		return nil, nil, err
	}

	if err := consumer.ConsumeWork(ctx, queue.VideosStreamName, "api-video-status",
		queue.VideoProcessedSubject+".>", queue.HandleVideoProcessed(store), 2); err != nil {
		slog.Warn("start video status consumer", "error", err)
	}
	if err := consumer.ConsumeWork(ctx, queue.IdentityStreamName, "api-identity",
		queue.UserCreatedSubject, queue.HandleUserCreated(store), 1); err != nil {
		slog.Warn("start identity consumer", "error", err)
	}
	if err := consumer.ConsumeBroadcast(ctx, queue.LeaderboardStreamName, "api-leaderboard",
		queue.PersonalBestSubjectBase+".>", queue.HandlePersonalBest(hub.BroadcastPersonalBest)); err != nil {
		slog.Warn("start leaderboard consumer", "error", err)
	}

	return producer, consumer, nil
}
