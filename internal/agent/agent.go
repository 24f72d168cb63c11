// File: internal/agent/agent.go
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/llmutil"
	"github.com/xkilldash9x/webpilot-cli/internal/session"
)

// toolSystemPrompt drives the tool-calling loop. The model either emits a
// single JSON tool call or, when it has gathered enough, plain text.
const toolSystemPrompt = `You are a web automation agent controlling a real browser.
To act, reply with exactly one JSON object and nothing else:
  {"tool": "navigate", "args": {"url": "<absolute url>"}}
  {"tool": "click", "args": {"target": "<css selector or visible text>"}}
  {"tool": "type", "args": {"selector": "<css selector>", "text": "<text>"}}
  {"tool": "read_page", "args": {}}
  {"tool": "screenshot", "args": {}}
  {"tool": "done", "args": {"summary": "<what you accomplished and observed>"}}
When you are finished, use the "done" tool. Do not invent page content; read it first.`

// toolCall is the JSON shape the model emits to drive the browser.
type toolCall struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args"`
}

// WebAgent runs an LLM tool-calling loop against a live browser session.
// Each Invoke is one task: the model is handed the conversation, acts
// through browser tools, and finishes with a text answer. Exchanges are
// appended to a markdown transcript in the artifact directory so the
// watcher captures them alongside screenshots.
type WebAgent struct {
	llm       schemas.LLMClient
	browser   schemas.BrowserSession
	sessions  *session.Manager
	sessionID string

	maxToolCalls  int
	artifactDir   string
	transcriptLog string

	logger *zap.Logger
}

var _ schemas.Agent = (*WebAgent)(nil)

// NewWebAgent wires the agent to its browser, model, and naming session.
func NewWebAgent(
	logger *zap.Logger,
	cfg config.AgentConfig,
	llm schemas.LLMClient,
	browserSession schemas.BrowserSession,
	sessions *session.Manager,
	artifactDir string,
) *WebAgent {
	maxCalls := cfg.MaxToolCalls
	if maxCalls <= 0 {
		maxCalls = 8
	}

	sessionID := sessions.CreateSession()
	return &WebAgent{
		llm:           llm,
		browser:       browserSession,
		sessions:      sessions,
		sessionID:     sessionID,
		maxToolCalls:  maxCalls,
		artifactDir:   artifactDir,
		transcriptLog: fmt.Sprintf("session_%s_transcript.md", sessionID),
		logger:        logger.Named("web_agent").With(zap.String("session_id", sessionID)),
	}
}

// SessionID exposes the screenshot-naming session this agent writes under.
func (a *WebAgent) SessionID() string {
	return a.sessionID
}

// TranscriptPath returns where this agent's session transcript is written,
// or "" when no artifact directory is configured.
func (a *WebAgent) TranscriptPath() string {
	if a.artifactDir == "" {
		return ""
	}
	return filepath.Join(a.artifactDir, a.transcriptLog)
}

// Invoke runs the tool loop for one task and returns the model's final
// text reply.
func (a *WebAgent) Invoke(ctx context.Context, messages []schemas.Message) (string, error) {
	var convo strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&convo, "[%s]\n%s\n\n", msg.Role, msg.Content)
	}

	for i := 0; i < a.maxToolCalls; i++ {
		reply, err := a.llm.Generate(ctx, schemas.GenerationRequest{
			SystemPrompt: toolSystemPrompt,
			UserPrompt:   convo.String(),
			Tier:         schemas.TierPowerful,
		})
		if err != nil {
			return "", fmt.Errorf("llm generation failed: %w", err)
		}
		a.appendTranscript("agent", reply)

		call, parseErr := llmutil.ParseJSONResponse[toolCall](reply)
		if parseErr != nil || call.Tool == "" {
			// Plain text means the model is answering rather than acting.
			return llmutil.CleanTextOutput(reply), nil
		}

		if call.Tool == "done" {
			if summary := call.Args["summary"]; summary != "" {
				return summary, nil
			}
			return llmutil.CleanTextOutput(reply), nil
		}

		observation := a.executeTool(ctx, call)
		a.appendTranscript("tool:"+call.Tool, observation)
		fmt.Fprintf(&convo, "[agent]\n%s\n\n[tool:%s]\n%s\n\n", reply, call.Tool, observation)
	}

	return "", fmt.Errorf("tool budget of %d calls exhausted without a final answer", a.maxToolCalls)
}

// executeTool dispatches one tool call against the browser. Failures come
// back as observations so the model can correct course instead of killing
// the run.
func (a *WebAgent) executeTool(ctx context.Context, call *toolCall) string {
	a.logger.Debug("Executing tool", zap.String("tool", call.Tool), zap.Any("args", call.Args))

	switch call.Tool {
	case "navigate":
		url := call.Args["url"]
		if url == "" {
			return "error: navigate requires a url argument"
		}
		if err := a.browser.Navigate(ctx, url); err != nil {
			return fmt.Sprintf("error: navigation failed: %v", err)
		}
		return "navigated to " + url

	case "click":
		target := call.Args["target"]
		if target == "" {
			return "error: click requires a target argument"
		}
		if err := a.browser.Click(ctx, target); err != nil {
			return fmt.Sprintf("error: click failed: %v", err)
		}
		return "clicked " + target

	case "type":
		selector, text := call.Args["selector"], call.Args["text"]
		if selector == "" {
			return "error: type requires a selector argument"
		}
		if err := a.browser.Type(ctx, selector, text); err != nil {
			return fmt.Sprintf("error: typing failed: %v", err)
		}
		return fmt.Sprintf("typed %d characters into %s", len(text), selector)

	case "read_page":
		html, err := a.browser.PageHTML(ctx)
		if err != nil {
			return fmt.Sprintf("error: failed to read page: %v", err)
		}
		return browser.VisibleText(html, 8000)

	case "screenshot":
		fileName, err := a.sessions.GenerateFilename(a.sessionID, "")
		if err != nil {
			return fmt.Sprintf("error: failed to name screenshot: %v", err)
		}
		path, err := a.browser.CaptureScreenshot(ctx, fileName)
		if err != nil {
			return fmt.Sprintf("error: screenshot failed: %v", err)
		}
		return "screenshot saved to " + path

	default:
		return fmt.Sprintf("error: unknown tool %q", call.Tool)
	}
}

// appendTranscript records one exchange in the session transcript. Write
// failures are logged and swallowed; the transcript is an artifact, not a
// dependency of the run.
func (a *WebAgent) appendTranscript(role, content string) {
	if a.artifactDir == "" {
		return
	}
	if err := os.MkdirAll(a.artifactDir, 0o755); err != nil {
		a.logger.Warn("Failed to create artifact directory for transcript", zap.Error(err))
		return
	}

	path := filepath.Join(a.artifactDir, a.transcriptLog)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		a.logger.Warn("Failed to open transcript", zap.Error(err))
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "## %s [%s]\n\n%s\n\n", time.Now().UTC().Format(time.RFC3339), role, content)
}
