// sync-queue drains a persisted submission queue against the exam server.
// It is the headless counterpart of the browser's reconnect sync: run it
// after a crash or outage to deliver results that never reached the server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/client"
	"github.com/maruf7705/80MCQ/internal/config"
	"github.com/maruf7705/80MCQ/internal/logger"
	"github.com/maruf7705/80MCQ/internal/queue"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "exam server base URL")
		queuePath = flag.String("queue", "submission-queue.json", "path to the persisted queue file")
		watch     = flag.Bool("watch", false, "keep running and re-sync whenever the server comes back")
		interval  = flag.Duration("interval", 30*time.Second, "health poll interval in watch mode")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	qlog, err := queue.OpenLog(*queuePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *queuePath).Msg("Failed to open queue")
	}

	entries, err := qlog.Entries()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read queue")
	}
	if len(entries) == 0 && !*watch {
		log.Info().Msg("Queue is empty, nothing to sync")
		return
	}

	api := client.New(*serverURL, cfg.StorageTimeout)
	manager := queue.NewManager(qlog, api, log)

	progress := func(p queue.Progress) {
		switch p.Status {
		case queue.StatusSuccess:
			log.Info().Msg("submission delivered")
		case queue.StatusRetrying:
			log.Warn().
				Int("retry", p.RetryCount).
				Dur("next_in", p.NextRetryIn).
				Str("error", p.Err).
				Msg("delivery failed, will retry")
		case queue.StatusFailed:
			log.Error().Int("retries", p.RetryCount).Str("error", p.Err).Msg("submission gave up")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*watch {
		manager.Drain(ctx, progress)
		report(qlog, log)
		return
	}

	watcher := queue.NewWatcher(api.Health, *interval, log)
	go watcher.Run(ctx)

	done := make(chan struct{})
	go func() {
		manager.StartBackgroundSync(ctx, watcher.Online(), progress)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	<-done
	report(qlog, log)
}

// report logs what is still sitting in the queue after a sync pass.
func report(qlog *queue.Log, log zerolog.Logger) {
	entries, err := qlog.Entries()
	if err != nil {
		log.Error().Err(err).Msg("Failed to re-read queue")
		return
	}
	if len(entries) == 0 {
		log.Info().Msg("Queue fully drained")
		return
	}
	for _, e := range entries {
		log.Warn().
			Str("id", e.ID).
			Str("status", string(e.Status)).
			Int("retries", e.RetryCount).
			Str("last_error", e.LastError).
			Msg("still queued")
	}
}
