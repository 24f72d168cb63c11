package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

type stubClient struct {
	reply  string
	calls  int
	closed bool
}

func (s *stubClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	s.calls++
	return s.reply, nil
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

func TestRouter(t *testing.T) {
	t.Run("routes to the client for the requested tier", func(t *testing.T) {
		fast := &stubClient{reply: "fast"}
		powerful := &stubClient{reply: "powerful"}
		r, err := NewRouter(zap.NewNop(), fast, powerful)
		require.NoError(t, err)

		got, err := r.Generate(context.Background(), schemas.GenerationRequest{Tier: schemas.TierFast})
		require.NoError(t, err)
		assert.Equal(t, "fast", got)
		assert.Equal(t, 1, fast.calls)
		assert.Equal(t, 0, powerful.calls)
	})

	t.Run("defaults to the powerful tier", func(t *testing.T) {
		fast := &stubClient{reply: "fast"}
		powerful := &stubClient{reply: "powerful"}
		r, err := NewRouter(zap.NewNop(), fast, powerful)
		require.NoError(t, err)

		got, err := r.Generate(context.Background(), schemas.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, "powerful", got)
	})

	t.Run("rejects nil clients", func(t *testing.T) {
		_, err := NewRouter(zap.NewNop(), nil, &stubClient{})
		assert.Error(t, err)
		_, err = NewRouter(zap.NewNop(), &stubClient{}, nil)
		assert.Error(t, err)
	})

	t.Run("Close closes each distinct client once", func(t *testing.T) {
		shared := &stubClient{}
		r, err := NewRouter(zap.NewNop(), shared, shared)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.True(t, shared.closed)
	})
}
