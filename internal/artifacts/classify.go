// internal/artifacts/classify.go
package artifacts

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// -- Regex Definitions --
// Correlation ids are recovered from filename patterns produced by the
// browser tooling, e.g. trace-123abc.zip, session_thread_abc123.md.
var (
	traceIDRegex        = regexp.MustCompile(`(?i)trace[-_]?([a-fA-F0-9]{6,})`)
	threadIDRegex       = regexp.MustCompile(`(?i)thread[-_]?([a-fA-F0-9]{6,})`)
	sessionTraceIDRegex = regexp.MustCompile(`(?i)session_[^_]+_trace_([a-fA-F0-9]+)`)
)

// mimeTypes maps file extensions to MIME types. Unknown extensions fall
// back to application/octet-stream.
var mimeTypes = map[string]string{
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".json":  "application/json",
	".yml":   "text/yaml",
	".yaml":  "text/yaml",
	".md":    "text/markdown",
	".txt":   "text/plain",
	".zip":   "application/zip",
	".trace": "application/octet-stream",
}

// DetectFileType classifies a filename into the coarse artifact types.
// The heuristics are substring- and extension-based: screenshots carry a
// "screenshot" or "page-" marker plus an image extension, traces match
// "trace"/.trace/.zip, session logs match "session"/.md/.yml/.yaml.
func DetectFileType(fileName string) schemas.FileType {
	name := strings.ToLower(fileName)

	isImage := strings.HasSuffix(name, ".png") ||
		strings.HasSuffix(name, ".jpg") ||
		strings.HasSuffix(name, ".jpeg")
	if strings.Contains(name, "screenshot") || (strings.Contains(name, "page-") && isImage) {
		return schemas.FileTypeScreenshot
	}

	if strings.Contains(name, "trace") ||
		strings.HasSuffix(name, ".trace") ||
		strings.HasSuffix(name, ".zip") {
		return schemas.FileTypeTrace
	}

	if strings.Contains(name, "session") ||
		strings.HasSuffix(name, ".md") ||
		strings.HasSuffix(name, ".yml") ||
		strings.HasSuffix(name, ".yaml") {
		return schemas.FileTypeSession
	}

	return schemas.FileTypeOther
}

// MimeType resolves a filename's MIME type from its extension.
func MimeType(fileName string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// ExtractIDs recovers best-effort trace and thread correlation ids from a
// filename. Either return value may be nil; absence never blocks storage.
func ExtractIDs(fileName string) (traceID, threadID *string) {
	if m := traceIDRegex.FindStringSubmatch(fileName); len(m) > 1 {
		traceID = &m[1]
	}
	if m := threadIDRegex.FindStringSubmatch(fileName); len(m) > 1 {
		threadID = &m[1]
	}
	// Fallback for combined session_<x>_trace_<hex> names.
	if traceID == nil {
		if m := sessionTraceIDRegex.FindStringSubmatch(fileName); len(m) > 1 {
			traceID = &m[1]
		}
	}
	return traceID, threadID
}
