// main package for the voice-generator service
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"

	"github.com/autovid/voice-generator/internal/config"
	"github.com/autovid/voice-generator/internal/job"
	"github.com/autovid/voice-generator/internal/notify"
	"github.com/autovid/voice-generator/internal/objectstore"
	"github.com/autovid/voice-generator/internal/queue"
	"github.com/autovid/voice-generator/internal/server"
	"github.com/autovid/voice-generator/internal/store"
	"github.com/autovid/voice-generator/internal/subscription"
	"github.com/autovid/voice-generator/internal/synth"
	"github.com/autovid/voice-generator/internal/tts"
)

const (
	dbPingTimeout       = 5 * time.Second
	httpShutdownTimeout = 5 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voice-generator.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return runService(cfg, finalLog)
}

func runService(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	audioStore, err := objectstore.New(
		jetstreamContext,
		cfg.NATS.AudioBucket,
		cfg.HTTP.PublicBaseURL+"/audio",
	)
	if err != nil {
		return fmt.Errorf("failed to initialize audio store: %w", err)
	}

	repo, db, err := setupRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close()
		if closeErr != nil {
			log.Warn("Failed to close database: %v", closeErr)
		}
	}()

	provider := tts.NewGoogleClient(
		cfg.TTS.Endpoint,
		cfg.TTS.Token,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	synthesizer := synth.New(
		provider, audioStore, repo,
		cfg.TTS.SpeakingRate, cfg.TTS.Pitch,
		log,
	)

	registry := subscription.NewRegistry(log)
	notifier := notify.NewPushNotifier(registry, log)
	processor := job.NewProcessor(synthesizer, notifier, cfg.Worker.SegmentWorkers, log)

	consumer, err := queue.NewConsumer(
		jetstreamContext,
		queue.Options{
			StreamName:   cfg.NATS.JobsStreamName,
			Subject:      cfg.NATS.JobsSubject,
			ConsumerName: cfg.NATS.JobsConsumerName,
			MaxInFlight:  cfg.Worker.MaxInFlight,
			JobTimeout:   time.Duration(cfg.Worker.JobTimeoutSeconds) * time.Second,
			AckWait:      time.Duration(cfg.Worker.AckWaitSeconds) * time.Second,
		},
		processor,
		queue.BackoffPolicy{
			MaxAttempts: cfg.Worker.RetryMaxAttempts,
			BaseDelay:   time.Duration(cfg.Worker.RetryBaseDelayMS) * time.Millisecond,
		},
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create queue consumer: %w", err)
	}

	err = consumer.EnsureStream()
	if err != nil {
		return fmt.Errorf("failed to ensure jobs stream: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           server.New(registry, synthesizer, audioStore, log).Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		serveErr := httpServer.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("HTTP server failed: %v", serveErr)
			stop()
		}
	}()

	log.System("Voice-generator initialized. Consuming jobs on subject: %s", cfg.NATS.JobsSubject)

	runErr := consumer.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Warn("HTTP server shutdown failed: %v", shutdownErr)
	}

	if runErr != nil {
		return fmt.Errorf("consumer stopped with error: %w", runErr)
	}

	return nil
}

func setupRepository(ctx context.Context, cfg *config.Config) (*store.PostgresVoiceRepository, *sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	err = db.PingContext(pingCtx)
	if err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := store.NewPostgresVoiceRepository(db)

	err = repo.EnsureSchema(ctx)
	if err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("failed to ensure voices schema: %w", err)
	}

	return repo, db, nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
