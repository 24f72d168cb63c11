package schemas

import "time"

// FileType is the coarse classification of a captured artifact, derived
// deterministically from its filename.
type FileType string

const (
	FileTypeScreenshot FileType = "screenshot"
	FileTypeTrace      FileType = "trace"
	FileTypeSession    FileType = "session"
	FileTypeOther      FileType = "other"
)

// Artifact is a captured file with its correlation metadata. Records are
// immutable after insert; TraceID and ThreadID are best-effort and may be
// nil without blocking storage.
type Artifact struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId"`
	FileName  string            `json:"fileName"`
	FileType  FileType          `json:"fileType"`
	MimeType  string            `json:"mimeType"`
	Size      int64             `json:"size"`
	Content   []byte            `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	TraceID   *string           `json:"traceId"`
	ThreadID  *string           `json:"threadId"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ArtifactSummary is an Artifact without its content bytes, used for
// listings where pulling BYTEA columns would be wasteful.
type ArtifactSummary struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId"`
	FileName  string            `json:"fileName"`
	FileType  FileType          `json:"fileType"`
	MimeType  string            `json:"mimeType"`
	Size      int64             `json:"size"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	TraceID   *string           `json:"traceId"`
	ThreadID  *string           `json:"threadId"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ArtifactFilter selects artifacts for List queries. Zero values mean
// "no constraint"; Limit defaults to 50 when unset.
type ArtifactFilter struct {
	SessionID string
	FileType  FileType
	Limit     int
	Offset    int
}
