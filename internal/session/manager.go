// internal/session/manager.go
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// Info is a snapshot of a session's naming state.
type Info struct {
	SessionID       string
	ScreenshotCount int
	StartTime       time.Time
}

// state is the live, mutable record behind a session. The counter is the
// only shared mutated state in the capture subsystem; it is guarded by a
// per-session mutex so two concurrent GenerateFilename calls can never
// observe the same pre-increment value.
type state struct {
	mu    sync.Mutex
	id    string
	count int
	start time.Time
}

// Manager hands out collision-free, ordered screenshot filenames scoped
// to a session. It is owned by the caller; there is no package-level
// instance.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*state
	logger   *zap.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*state),
		logger:   logger.Named("session_manager"),
	}
}

// CreateSession generates a fresh random session id with its counter at 0.
func (m *Manager) CreateSession() string {
	buf := make([]byte, 4)
	// rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[id] = &state{id: id, start: time.Now()}
	m.mu.Unlock()

	m.logger.Debug("Created screenshot session", zap.String("session_id", id))
	return id
}

// GenerateFilename increments the session's counter and returns a name of
// the form [context-]<session>-NNN-<unix-ms>.png. The counter is strictly
// increasing per session; the millisecond timestamp guards against counter
// reuse across process restarts.
func (m *Manager) GenerateFilename(sessionID, context string) (string, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return "", &schemas.NotFoundError{Kind: "session", ID: sessionID}
	}

	s.mu.Lock()
	s.count++
	n := s.count
	s.mu.Unlock()

	prefix := ""
	if context != "" {
		prefix = context + "-"
	}
	return fmt.Sprintf("%s%s-%03d-%d.png", prefix, sessionID, n, time.Now().UnixMilli()), nil
}

// SessionInfo returns a snapshot of a live session, or an error for an
// unknown id.
func (m *Manager) SessionInfo(sessionID string) (Info, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return Info{}, &schemas.NotFoundError{Kind: "session", ID: sessionID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{SessionID: s.id, ScreenshotCount: s.count, StartTime: s.start}, nil
}

// ListScreenshots returns the ordinal name stems issued so far for a
// session, oldest first. Unknown sessions yield an empty list.
func (m *Manager) ListScreenshots(sessionID string) []string {
	info, err := m.SessionInfo(sessionID)
	if err != nil {
		return nil
	}
	names := make([]string, 0, info.ScreenshotCount)
	for i := 1; i <= info.ScreenshotCount; i++ {
		names = append(names, fmt.Sprintf("%s-%03d", sessionID, i))
	}
	return names
}

// Cleanup discards the in-memory state for a session. Subsequent
// GenerateFilename calls for the id fail with NotFoundError.
func (m *Manager) Cleanup(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
