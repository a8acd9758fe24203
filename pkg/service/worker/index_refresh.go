package worker

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/utils/logging"
)

// RefreshFunc performs one step of a refresh cycle
type RefreshFunc func(ctx context.Context) error

// IndexRefreshWorker keeps the retrieval index in sync with the content
// source. It rebuilds when the watched content file changes and, if an
// interval is set, periodically.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A failed cycle keeps the previous index; the next trigger retries
type IndexRefreshWorker struct {
	rebuild   RefreshFunc
	reload    RefreshFunc
	watchPath string
	interval  time.Duration
	debounce  time.Duration

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

type Option func(*IndexRefreshWorker)

// WithWatchFile rebuilds whenever path changes. reload runs before each
// rebuild to load the new content; a reload failure skips the rebuild.
func WithWatchFile(path string, reload RefreshFunc) Option {
	return func(w *IndexRefreshWorker) {
		w.watchPath = filepath.Clean(path)
		w.reload = reload
	}
}

// WithInterval rebuilds every d. Zero disables periodic rebuilds.
func WithInterval(d time.Duration) Option {
	return func(w *IndexRefreshWorker) {
		w.interval = d
	}
}

// WithDebounce sets how long file events are coalesced before a rebuild
func WithDebounce(d time.Duration) Option {
	return func(w *IndexRefreshWorker) {
		w.debounce = d
	}
}

// NewIndexRefreshWorker creates a worker calling rebuild on every trigger
func NewIndexRefreshWorker(rebuild RefreshFunc, opts ...Option) *IndexRefreshWorker {
	w := &IndexRefreshWorker{
		rebuild:  rebuild,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background loop. It does not run an initial rebuild;
// the caller builds the index before serving.
func (w *IndexRefreshWorker) Start(ctx context.Context) error {
	if w.watchPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return goerr.Wrap(err, "failed to create file watcher")
		}
		// Watch the directory: editors and deploy tools often replace the
		// file instead of writing it in place.
		if err := watcher.Add(filepath.Dir(w.watchPath)); err != nil {
			_ = watcher.Close()
			return goerr.Wrap(err, "failed to watch content directory", goerr.V("path", w.watchPath))
		}
		w.watcher = watcher
	}

	logging.Default().Info("Index refresh worker starting",
		"watch", w.watchPath,
		"interval", w.interval.String(),
	)

	w.started.Store(true)
	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion. It is a no-op
// for a worker that was never started.
func (w *IndexRefreshWorker) Stop() {
	if !w.started.Load() {
		return
	}
	w.stopOnce.Do(func() {
		logging.Default().Info("Index refresh worker stopping")
		close(w.stopCh)
		<-w.doneCh
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		logging.Default().Info("Index refresh worker stopped")
	})
}

func (w *IndexRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	var tickC <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.watcher != nil {
		events = w.watcher.Events
		errs = w.watcher.Errors
	}

	var debounceC <-chan time.Time
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-tickC:
			w.refresh(ctx, "interval")

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.isContentEvent(event) {
				continue
			}
			logging.Default().Debug("Content file changed", "path", event.Name, "op", event.Op.String())
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(w.debounce)
			} else {
				debounceTimer.Reset(w.debounce)
			}
			debounceC = debounceTimer.C

		case <-debounceC:
			debounceC = nil
			w.refresh(ctx, "content changed")

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.Default().Warn("File watcher error", "error", err.Error())

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Index refresh worker context cancelled")
			return
		}
	}
}

func (w *IndexRefreshWorker) isContentEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.watchPath {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// refresh performs a single cycle. Errors are logged; the previous index
// stays in place.
func (w *IndexRefreshWorker) refresh(ctx context.Context, reason string) {
	startTime := time.Now()
	logger := logging.Default()
	logger.Info("Starting index refresh", "reason", reason)

	if w.reload != nil {
		if err := w.reload(ctx); err != nil {
			logger.Error("Content reload failed, keeping previous index", "error", err.Error())
			return
		}
	}

	if err := w.rebuild(ctx); err != nil {
		logger.Error("Index refresh failed (will retry on next trigger)", "error", err.Error())
		return
	}

	logger.Info("Index refresh completed", "duration", time.Since(startTime).String())
}
