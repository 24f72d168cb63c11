package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

func TestDetectFileType(t *testing.T) {
	cases := []struct {
		name     string
		expected schemas.FileType
	}{
		{"screenshot-001.png", schemas.FileTypeScreenshot},
		{"checkout-a1b2c3d4-002-1735689600000.png", schemas.FileTypeOther},
		{"page-3.jpeg", schemas.FileTypeScreenshot},
		{"SCREENSHOT_final.jpg", schemas.FileTypeScreenshot},
		{"trace-abc123def.zip", schemas.FileTypeTrace},
		{"run.trace", schemas.FileTypeTrace},
		{"bundle.zip", schemas.FileTypeTrace},
		{"session_12ab_transcript.md", schemas.FileTypeSession},
		{"notes.md", schemas.FileTypeSession},
		{"config.yaml", schemas.FileTypeSession},
		{"report.json", schemas.FileTypeOther},
		{"dump.bin", schemas.FileTypeOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectFileType(tc.name))
		})
	}
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/png", MimeType("screenshot-001.png"))
	assert.Equal(t, "image/jpeg", MimeType("page.JPG"))
	assert.Equal(t, "application/json", MimeType("report.json"))
	assert.Equal(t, "text/markdown", MimeType("session.md"))
	assert.Equal(t, "application/zip", MimeType("trace-abc123def.zip"))
	assert.Equal(t, "application/octet-stream", MimeType("run.trace"))
	assert.Equal(t, "application/octet-stream", MimeType("unknown.xyz"))
	assert.Equal(t, "application/octet-stream", MimeType("noextension"))
}

func TestExtractIDs(t *testing.T) {
	t.Run("trace id from trace filename", func(t *testing.T) {
		traceID, threadID := ExtractIDs("trace-abc123def.zip")
		require.NotNil(t, traceID)
		assert.Equal(t, "abc123def", *traceID)
		assert.Nil(t, threadID)
	})

	t.Run("thread id", func(t *testing.T) {
		traceID, threadID := ExtractIDs("thread-789abc.json")
		assert.Nil(t, traceID)
		require.NotNil(t, threadID)
		assert.Equal(t, "789abc", *threadID)
	})

	t.Run("combined session pattern", func(t *testing.T) {
		traceID, _ := ExtractIDs("session_123_trace_456def.zip")
		require.NotNil(t, traceID)
		assert.Equal(t, "456def", *traceID)
	})

	t.Run("underscore separators", func(t *testing.T) {
		traceID, threadID := ExtractIDs("trace_456def0.trace")
		require.NotNil(t, traceID)
		assert.Equal(t, "456def0", *traceID)
		assert.Nil(t, threadID)
	})

	t.Run("no recognizable ids", func(t *testing.T) {
		traceID, threadID := ExtractIDs("report.json")
		assert.Nil(t, traceID)
		assert.Nil(t, threadID)
	})

	t.Run("short hex is not an id", func(t *testing.T) {
		traceID, _ := ExtractIDs("trace-ab12.zip")
		assert.Nil(t, traceID)
	})
}
