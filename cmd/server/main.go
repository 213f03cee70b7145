package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/config"
	"github.com/maruf7705/80MCQ/internal/handler"
	"github.com/maruf7705/80MCQ/internal/logger"
	"github.com/maruf7705/80MCQ/internal/router"
	"github.com/maruf7705/80MCQ/internal/service"
	"github.com/maruf7705/80MCQ/internal/storage"
	"github.com/maruf7705/80MCQ/internal/store"
	"github.com/maruf7705/80MCQ/internal/validator"
	"github.com/maruf7705/80MCQ/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("backend", cfg.StorageBackend).
		Msg("Starting MCQ exam backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Select Storage Backend ────────────────────────────────────────
	records, questions, cleanup, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to initialize storage")
	}
	defer cleanup()

	// ─── Initialize Stores ─────────────────────────────────────────────
	answersStore := store.NewAnswers(records, log)
	pendingStore := store.NewPending(records, cfg.PendingStaleAfter, log)
	examConfigStore := store.NewExamConfig(records, log)

	// ─── Initialize Services ──────────────────────────────────────────
	questionService := service.NewQuestionService(questions, examConfigStore, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Submission: handler.NewSubmissionHandler(answersStore, log),
		Pending:    handler.NewPendingHandler(pendingStore, log),
		Question:   handler.NewQuestionHandler(questionService, log),
		Monitor:    handler.NewMonitorHandler(pendingStore, 5*time.Second, cfg.AllowedOrigins, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	reaper := worker.NewPendingReaper(pendingStore, cfg.ReaperInterval, log)
	go reaper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()
	log.Info().Msg("Shutdown complete")
}

// buildStorage returns the record adapter, the question file store and a
// cleanup hook for the selected backend. Questions stay on the local
// filesystem unless the github backend is selected; the redis backend only
// covers record collections.
func buildStorage(ctx context.Context, cfg *config.Config) (storage.Adapter, service.QuestionStore, func(), error) {
	noop := func() {}

	questionsLocal := func() (service.QuestionStore, error) {
		return storage.NewLocal(cfg.QuestionsDir)
	}

	switch cfg.StorageBackend {
	case config.BackendGitHub:
		records, err := storage.NewGitHub(storage.GitHubConfig{
			APIBase: cfg.GitHubAPIBase,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Token:   cfg.GitHubToken,
			Timeout: cfg.StorageTimeout,
		})
		if err != nil {
			return nil, nil, noop, err
		}
		questions, err := storage.NewGitHub(storage.GitHubConfig{
			APIBase:    cfg.GitHubAPIBase,
			Owner:      cfg.GitHubOwner,
			Repo:       cfg.GitHubRepo,
			Branch:     cfg.GitHubBranch,
			Token:      cfg.GitHubToken,
			PathPrefix: cfg.GitHubQuestionsPath,
			Timeout:    cfg.StorageTimeout,
		})
		if err != nil {
			return nil, nil, noop, err
		}
		return records, questions, noop, nil

	case config.BackendRedis:
		rdb, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, noop, err
		}
		questions, err := questionsLocal()
		if err != nil {
			rdb.Close()
			return nil, nil, noop, err
		}
		return storage.NewRedis(rdb, "mcq:"), questions, func() { rdb.Close() }, nil

	default:
		records, err := storage.NewLocal(cfg.DataDir)
		if err != nil {
			return nil, nil, noop, err
		}
		questions, err := questionsLocal()
		if err != nil {
			return nil, nil, noop, err
		}
		return records, questions, noop, nil
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
