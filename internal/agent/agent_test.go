package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/artifacts"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/session"
)

// scriptedLLM returns canned completions in order.
type scriptedLLM struct {
	replies []string
	calls   int
	prompts []string
}

func (s *scriptedLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	s.prompts = append(s.prompts, req.UserPrompt)
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return reply, nil
}

func (s *scriptedLLM) Close() error { return nil }

func newTestAgent(t *testing.T, llm schemas.LLMClient, bs schemas.BrowserSession) *WebAgent {
	t.Helper()
	return NewWebAgent(
		zap.NewNop(),
		config.AgentConfig{MaxToolCalls: 5},
		llm,
		bs,
		session.NewManager(zap.NewNop()),
		t.TempDir(),
	)
}

func TestWebAgentToolLoop(t *testing.T) {
	t.Run("executes tools until done", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{
			`{"tool": "navigate", "args": {"url": "https://example.com/login"}}`,
			`{"tool": "click", "args": {"target": "Sign in"}}`,
			`{"tool": "done", "args": {"summary": "Signed in via the main button."}}`,
		}}
		bs := &fakeBrowser{pageHTML: loginPage}
		ag := newTestAgent(t, llm, bs)

		reply, err := ag.Invoke(context.Background(), []schemas.Message{
			{Role: "user", Content: "Log in to the site."},
		})
		require.NoError(t, err)
		assert.Equal(t, "Signed in via the main button.", reply)
		assert.Equal(t, []string{"https://example.com/login"}, bs.navigated)
		assert.Equal(t, []string{"Sign in"}, bs.clicked)
	})

	t.Run("plain text reply ends the loop", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{"The page is a login form with two options."}}
		ag := newTestAgent(t, llm, &fakeBrowser{})

		reply, err := ag.Invoke(context.Background(), []schemas.Message{
			{Role: "user", Content: "Describe the page."},
		})
		require.NoError(t, err)
		assert.Equal(t, "The page is a login form with two options.", reply)
		assert.Equal(t, 1, llm.calls)
	})

	t.Run("tool failures are fed back as observations", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{
			`{"tool": "click", "args": {}}`,
			`{"tool": "done", "args": {"summary": "Could not click anything."}}`,
		}}
		ag := newTestAgent(t, llm, &fakeBrowser{})

		reply, err := ag.Invoke(context.Background(), []schemas.Message{
			{Role: "user", Content: "Click the button."},
		})
		require.NoError(t, err)
		assert.Equal(t, "Could not click anything.", reply)
		// The error observation must be in the follow-up prompt.
		assert.Contains(t, llm.prompts[1], "click requires a target")
	})

	t.Run("screenshots use session filenames", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{
			`{"tool": "screenshot", "args": {}}`,
			`{"tool": "done", "args": {"summary": "captured"}}`,
		}}
		bs := &fakeBrowser{}
		ag := newTestAgent(t, llm, bs)

		_, err := ag.Invoke(context.Background(), []schemas.Message{{Role: "user", Content: "Take a screenshot."}})
		require.NoError(t, err)
		assert.Regexp(t, `^`+ag.SessionID()+`-001-\d+\.png$`, bs.screenshot)
	})

	t.Run("exhausting the tool budget is an error", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{`{"tool": "read_page", "args": {}}`}}
		ag := newTestAgent(t, llm, &fakeBrowser{pageHTML: loginPage})

		_, err := ag.Invoke(context.Background(), []schemas.Message{{Role: "user", Content: "Loop forever."}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tool budget")
		assert.Equal(t, 5, llm.calls)
	})

	t.Run("writes a transcript artifact", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{
			`{"tool": "navigate", "args": {"url": "https://example.com"}}`,
			`{"tool": "done", "args": {"summary": "done"}}`,
		}}
		dir := t.TempDir()
		ag := NewWebAgent(zap.NewNop(), config.AgentConfig{MaxToolCalls: 5}, llm, &fakeBrowser{},
			session.NewManager(zap.NewNop()), dir)

		_, err := ag.Invoke(context.Background(), []schemas.Message{{Role: "user", Content: "go"}})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "session_"+ag.SessionID()+"_transcript.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "navigated to https://example.com")
	})

	t.Run("transcript path feeds a live follower", func(t *testing.T) {
		llm := &scriptedLLM{replies: []string{
			`{"tool": "done", "args": {"summary": "done"}}`,
		}}
		dir := t.TempDir()
		ag := NewWebAgent(zap.NewNop(), config.AgentConfig{MaxToolCalls: 5}, llm, &fakeBrowser{},
			session.NewManager(zap.NewNop()), dir)

		require.Equal(t, filepath.Join(dir, "session_"+ag.SessionID()+"_transcript.md"), ag.TranscriptPath())

		follower := artifacts.NewFollower(zap.NewNop(), ag.TranscriptPath(), true)
		require.NoError(t, follower.Start())
		defer follower.Stop()

		_, err := ag.Invoke(context.Background(), []schemas.Message{{Role: "user", Content: "go"}})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return follower.Lines() > 0
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("no transcript path without an artifact directory", func(t *testing.T) {
		ag := NewWebAgent(zap.NewNop(), config.AgentConfig{MaxToolCalls: 5}, &scriptedLLM{replies: []string{"x"}},
			&fakeBrowser{}, session.NewManager(zap.NewNop()), "")
		assert.Empty(t, ag.TranscriptPath())
	})
}
