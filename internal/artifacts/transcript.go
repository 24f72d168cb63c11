// internal/artifacts/transcript.go
package artifacts

import (
	"sync"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"
)

// Follower tails a live session transcript file, counting entries and
// surfacing any trace/thread correlation ids that appear in its lines.
// It is a progress aid for interactive callers; losing the tail is never
// fatal to the run.
type Follower struct {
	logger *zap.Logger
	path   string
	poll   bool

	t *tail.Tail

	mu       sync.Mutex
	lines    int
	traceIDs map[string]struct{}
	stopped  bool
}

// NewFollower prepares a follower for the transcript at path. Polling
// mode is used by tests where inotify delivery is too slow to rely on.
func NewFollower(logger *zap.Logger, path string, poll bool) *Follower {
	return &Follower{
		logger:   logger.Named("transcript"),
		path:     path,
		poll:     poll,
		traceIDs: make(map[string]struct{}),
	}
}

// Start begins tailing. The transcript may not exist yet; tail waits for
// it to appear.
func (f *Follower) Start() error {
	t, err := tail.TailFile(f.path, tail.Config{
		Follow: true,
		ReOpen: true,
		Poll:   f.poll,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}
	f.t = t

	go f.consume()
	return nil
}

func (f *Follower) consume() {
	for line := range f.t.Lines {
		if line.Err != nil {
			f.logger.Debug("Transcript read error", zap.Error(line.Err))
			continue
		}
		f.observe(line.Text)
	}
}

func (f *Follower) observe(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines++
	if m := traceIDRegex.FindStringSubmatch(text); len(m) > 1 {
		if _, known := f.traceIDs[m[1]]; !known {
			f.traceIDs[m[1]] = struct{}{}
			f.logger.Info("Transcript referenced trace", zap.String("trace_id", m[1]))
		}
	}
}

// Lines reports how many transcript entries have been observed.
func (f *Follower) Lines() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines
}

// TraceIDs returns the distinct trace ids seen so far.
func (f *Follower) TraceIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.traceIDs))
	for id := range f.traceIDs {
		ids = append(ids, id)
	}
	return ids
}

// Stop detaches from the transcript file. Idempotent.
func (f *Follower) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	f.mu.Unlock()

	if f.t != nil {
		_ = f.t.Stop()
		f.t.Cleanup()
	}
}
