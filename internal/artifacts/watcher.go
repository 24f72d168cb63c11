// internal/artifacts/watcher.go
package artifacts

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

const defaultSettleDelay = 500 * time.Millisecond

// Watcher observes a directory tree for newly created files, classifies
// them, correlates them to a session, and persists them as artifacts. It
// is a caller-owned handle: Start returns once the initial scan has been
// dispatched, Stop detaches the filesystem observers. Per-file failures
// are logged and skipped; they never terminate the watcher.
type Watcher struct {
	logger    *zap.Logger
	store     schemas.ArtifactStore
	dir       string
	sessionID string
	settle    time.Duration

	fsw  *fsnotify.Watcher
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
	done chan struct{}

	stopOnce sync.Once

	// seen suppresses double-handling of paths observed by both the
	// initial scan and a create event.
	mu   sync.Mutex
	seen map[string]struct{}
}

// Option tweaks watcher construction.
type Option func(*Watcher)

// WithSettleDelay overrides the delay between observing a file and
// reading it.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithMaxConcurrent bounds the number of files handled at once.
func WithMaxConcurrent(n int64) Option {
	return func(w *Watcher) { w.sem = semaphore.NewWeighted(n) }
}

// NewWatcher builds a watcher over dir. An empty sessionID is replaced by
// a timestamp-derived one so pre-workflow captures are still attributable.
func NewWatcher(logger *zap.Logger, store schemas.ArtifactStore, dir, sessionID string, opts ...Option) *Watcher {
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%d", time.Now().UnixMilli())
	}
	w := &Watcher{
		logger:    logger.Named("artifact_watcher").With(zap.String("session_id", sessionID)),
		store:     store,
		dir:       dir,
		sessionID: sessionID,
		settle:    defaultSettleDelay,
		sem:       semaphore.NewWeighted(8),
		done:      make(chan struct{}),
		seen:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SessionID returns the session this watcher attributes artifacts to.
func (w *Watcher) SessionID() string { return w.sessionID }

// Start creates the directory if absent, attaches recursive filesystem
// observers, dispatches handling of pre-existing files, and begins
// consuming creation events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.watchRecursive(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}

	w.logger.Info("Starting artifact watcher", zap.String("dir", w.dir))

	w.wg.Add(1)
	go w.eventLoop(ctx)

	w.scanExisting(ctx)
	return nil
}

// Stop detaches the filesystem observers and waits for in-flight file
// handling to finish. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
		w.wg.Wait()
		w.logger.Info("Stopped artifact watcher")
	})
}

// watchRecursive attaches an observer to dir and every subdirectory.
func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if werr := w.fsw.Add(path); werr != nil {
				return fmt.Errorf("failed to watch %s: %w", path, werr)
			}
		}
		return nil
	})
}

// scanExisting captures files written before the watcher attached.
func (w *Watcher) scanExisting(ctx context.Context) {
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Error scanning existing files", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			w.dispatch(ctx, path)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("Initial artifact scan aborted", zap.Error(err))
	}
}

// eventLoop consumes filesystem notifications until Stop or context
// cancellation. New subdirectories are added to the watch set; new files
// are dispatched for capture.
func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Platforms signal file arrival as Create or Rename; treat
			// both as "file observed".
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil {
				// Deleted or not yet visible; skip.
				w.logger.Debug("Observed path not accessible", zap.String("path", ev.Name), zap.Error(err))
				continue
			}
			if info.IsDir() {
				if err := w.watchRecursive(ev.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
				}
				continue
			}
			w.dispatch(ctx, ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Filesystem watcher error", zap.Error(err))
		}
	}
}

// dispatch hands a path to a bounded handler goroutine, once per path.
// The semaphore is acquired inside the goroutine so a burst of files never
// stalls the event loop behind in-flight settle delays.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.mu.Lock()
	if _, dup := w.seen[path]; dup {
		w.mu.Unlock()
		return
	}
	w.seen[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer w.sem.Release(1)
		w.handleFile(ctx, path)
	}()
}

// handleFile waits for the file to settle, reads it whole, classifies it,
// and persists it. Every failure is isolated to this file.
func (w *Watcher) handleFile(ctx context.Context, path string) {
	select {
	case <-time.After(w.settle):
	case <-w.done:
		// Shutting down; abandoning an unread file leaves storage intact.
		return
	case <-ctx.Done():
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Failed to read observed file, skipping", zap.String("path", path), zap.Error(err))
		return
	}

	fileName := filepath.Base(path)
	traceID, threadID := ExtractIDs(fileName)

	artifact := &schemas.Artifact{
		SessionID: w.sessionID,
		FileName:  fileName,
		FileType:  DetectFileType(fileName),
		MimeType:  MimeType(fileName),
		Size:      int64(len(content)),
		Content:   content,
		Metadata: map[string]string{
			"original_path": path,
			"watched_at":    time.Now().UTC().Format(time.RFC3339),
			"directory":     w.dir,
		},
		TraceID:  traceID,
		ThreadID: threadID,
	}

	id, err := w.store.Insert(ctx, artifact)
	if err != nil {
		w.logger.Error("Failed to persist artifact, skipping", zap.String("file", fileName), zap.Error(err))
		return
	}

	w.logger.Info("Stored artifact",
		zap.String("artifact_id", id),
		zap.String("file", fileName),
		zap.String("file_type", string(artifact.FileType)),
		zap.Int64("size", artifact.Size),
	)
}
