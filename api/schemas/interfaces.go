package schemas

import "context"

// -- Artifact Store --

// ArtifactStore is the durable backing store for captured artifacts. Any
// relational or document store with atomic single-row inserts satisfies
// it; inserts from concurrent watcher goroutines need no external locking.
type ArtifactStore interface {
	// Insert persists a new artifact and returns its storage-assigned id.
	Insert(ctx context.Context, a *Artifact) (string, error)
	// GetByID retrieves a full artifact, including content bytes.
	GetByID(ctx context.Context, id string) (*Artifact, error)
	// ListBySessionID returns all artifacts for a session, newest first.
	ListBySessionID(ctx context.Context, sessionID string) ([]Artifact, error)
	// List returns a page of artifact summaries plus the total match count.
	List(ctx context.Context, f ArtifactFilter) ([]ArtifactSummary, int, error)
	// DeleteByID removes one artifact; false if no such row existed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	// DeleteBySessionID removes a session's artifacts and returns the count.
	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
}

// -- Agent --

// Message is a single role-tagged entry in an agent conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Agent is the opaque text producer that workflow steps talk to. An
// implementation may perform browser automation as a side effect of an
// invocation, writing screenshots and traces to the artifact directory.
type Agent interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// -- LLM Client --

// ModelTier selects a large language model by a speed/capability tradeoff.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierPowerful ModelTier = "powerful"
)

// GenerationOptions tunes a single LLM generation.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
}

// GenerationRequest is a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient abstracts the model provider (Gemini in this repository).
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Close() error
}

// -- Browser --

// BrowserSession controls a single browser tab used by the agent.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	PageHTML(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	// CaptureScreenshot writes a full-page screenshot under the given file
	// name inside the artifact directory and returns the absolute path.
	CaptureScreenshot(ctx context.Context, fileName string) (string, error)
	Close(ctx context.Context) error
}
