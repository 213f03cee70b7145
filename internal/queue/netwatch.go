package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Watcher polls a health probe and signals offline→online transitions, the
// headless counterpart of the browser's "online" event. Signals are dropped
// when the receiver is still busy with the previous drain.
type Watcher struct {
	probe    func(ctx context.Context) error
	interval time.Duration
	online   chan struct{}
	log      zerolog.Logger
}

// NewWatcher creates a connectivity watcher around probe (typically
// client.Health).
func NewWatcher(probe func(ctx context.Context) error, interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		probe:    probe,
		interval: interval,
		online:   make(chan struct{}, 1),
		log:      log.With().Str("component", "net_watcher").Logger(),
	}
}

// Online delivers one signal per offline→online transition.
func (w *Watcher) Online() <-chan struct{} {
	return w.online
}

// Run polls until ctx is cancelled. Call in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	wasOnline := w.probe(ctx) == nil

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			isOnline := w.probe(ctx) == nil
			if isOnline && !wasOnline {
				w.log.Info().Msg("server reachable again")
				select {
				case w.online <- struct{}{}:
				default:
				}
			}
			wasOnline = isOnline
		}
	}
}
