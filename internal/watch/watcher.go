package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

var (
	ErrNoPaths        = errors.New("watch: no paths to watch")
	ErrRebuildMissing = errors.New("watch: rebuild callback is required")
	ErrAlreadyRunning = errors.New("watch: watcher already running")
)

// RebuildFunc receives the sorted set of paths that changed during one
// debounce window.
type RebuildFunc func(ctx context.Context, changed []string) error

// Config lists what to watch. Directories are watched recursively; files are
// watched through their parent directory. Paths under Ignore never trigger a
// rebuild, which keeps the output directory from feeding back into the loop.
type Config struct {
	Paths    []string
	Ignore   []string
	Debounce time.Duration
}

// Watcher rebuilds the site when sources change.
type Watcher struct {
	cfg     Config
	rebuild RebuildFunc
	logger  interfaces.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	files   map[string]struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for watch events.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New validates cfg and returns an idle watcher.
func New(cfg Config, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, ErrRebuildMissing
	}
	var paths []string
	for _, p := range cfg.Paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paths = append(paths, filepath.Clean(p))
	}
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	cfg.Paths = paths
	ignore := make([]string, 0, len(cfg.Ignore))
	for _, p := range cfg.Ignore {
		if strings.TrimSpace(p) != "" {
			ignore = append(ignore, filepath.Clean(p))
		}
	}
	cfg.Ignore = ignore
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:     cfg,
		rebuild: rebuild,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the watches and begins the event loop in the background.
// Missing paths are skipped so a site without, say, a static directory can
// still be watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrAlreadyRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	w.fsw = fsw
	w.files = map[string]struct{}{}

	watched := 0
	for _, p := range w.cfg.Paths {
		info, err := os.Stat(p)
		if err != nil {
			w.logger.Debug("watch.path.skipped", "path", p, "error", err)
			continue
		}
		if !info.IsDir() {
			w.files[p] = struct{}{}
			if err := fsw.Add(filepath.Dir(p)); err != nil {
				fsw.Close()
				return fmt.Errorf("watch: add %s: %w", p, err)
			}
			watched++
			continue
		}
		n, err := w.addTree(p)
		if err != nil {
			fsw.Close()
			return err
		}
		watched += n
	}
	if watched == 0 {
		fsw.Close()
		return ErrNoPaths
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	w.logger.Info("watch.started", "paths", len(w.cfg.Paths), "watches", watched, "debounce", w.cfg.Debounce)

	go w.run(ctx, fsw, w.stopCh, w.doneCh)
	return nil
}

// Stop ends the event loop and waits for an in-flight rebuild to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fsw := w.stopCh, w.doneCh, w.fsw
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fsw.Close(); err != nil {
		w.logger.Error("watch.close.failed", "error", err)
	}
	w.logger.Info("watch.stopped")
}

func (w *Watcher) addTree(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("watch: add %s: %w", root, err)
	}
	return count, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.mu.Lock()
					if _, err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch.add.failed", "path", event.Name, "error", err)
					}
					w.mu.Unlock()
				}
			}
			w.logger.Debug("watch.event", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch.error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)

			start := time.Now()
			if err := w.rebuild(ctx, changed); err != nil {
				w.logger.Error("watch.rebuild.failed", "changed", len(changed), "error", err)
				continue
			}
			w.logger.Info("watch.rebuild.completed", "changed", len(changed), "duration", time.Since(start))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.ignored(name) {
		return false
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if _, ok := w.files[name]; ok {
		return true
	}
	return w.underTree(name)
}

// underTree reports whether p lives inside one of the watched directories.
func (w *Watcher) underTree(p string) bool {
	for _, root := range w.cfg.Paths {
		if _, isFile := w.files[root]; isFile {
			continue
		}
		if within(root, p) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(p string) bool {
	for _, ignore := range w.cfg.Ignore {
		if within(ignore, p) {
			return true
		}
	}
	return false
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
