package intent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RulesWatcher watches a rules file for changes and reloads the classifier.
// It debounces rapid write sequences (editors often write a file several
// times in quick succession) so a save triggers one reload.
type RulesWatcher struct {
	path       string
	classifier *Classifier
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewRulesWatcher creates a watcher for the given rules file.
func NewRulesWatcher(path string, classifier *Classifier, logger *slog.Logger) (*RulesWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("rules file path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &RulesWatcher{
		path:       path,
		classifier: classifier,
		watcher:    watcher,
		debounce:   100 * time.Millisecond,
		logger:     logger.With("component", "intent.watcher"),
		stopCh:     make(chan struct{}),
	}, nil
}

// Watch starts watching for changes and blocks until the context is
// cancelled or Stop is called. Reload failures are logged and the previous
// rules stay active.
func (w *RulesWatcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	// Watch the directory rather than the file: editors that rename-replace
	// would otherwise detach the watch.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("rules watcher started", "path", w.path)

	var timer *time.Timer
	var timerCh <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rules watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("rules watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Stop terminates the watch loop and releases the fsnotify watcher.
func (w *RulesWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		close(w.stopCh)
	}
	return w.watcher.Close()
}

// reload parses the rules file and swaps it into the classifier.
func (w *RulesWatcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.logger.Error("rules reload failed, keeping previous rules",
			"path", w.path,
			"error", err,
		)
		return
	}
	w.classifier.ReplaceRules(rules)
	w.logger.Info("rules reloaded", "path", w.path)
}
