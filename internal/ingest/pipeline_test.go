package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"qarag/internal/chunker"
	"qarag/internal/config"
	"qarag/internal/domain"
	"qarag/internal/loader"
	"qarag/internal/vectorstore/memory"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func qaServer(t *testing.T) (*httptest.Server, int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections" {
			_, _ = w.Write([]byte(`{"result":{"collections":[]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return srv, port
}

func TestConnectFallsBackToLocalhost(t *testing.T) {
	_, port := qaServer(t)

	core, logs := observer.New(zap.InfoLevel)
	store, err := Connect(context.Background(), config.QdrantConfig{
		Host:        "qdrant.invalid",
		Port:        port,
		Collection:  "qa",
		TimeoutSecs: 2,
	}, zap.New(core))
	require.NoError(t, err)
	require.NotNil(t, store)

	assert.NotEmpty(t, logs.FilterMessage("connected to qdrant via fallback address").All())
	assert.NotEmpty(t, logs.FilterMessage("failed to connect to qdrant").All())
}

func TestConnectExhaustsAllAddresses(t *testing.T) {
	_, err := Connect(context.Background(), config.QdrantConfig{
		Host:        "qdrant.invalid",
		Port:        1, // nothing listens here
		Collection:  "qa",
		TimeoutSecs: 1,
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to qdrant")
}

func TestRunIndexesValidRowsAndSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	valid := `{"document_name":"vendor-a.json","data":[` +
		`{"question":"Do you encrypt data at rest?","answer":"Yes","product":"WidgetCloud"},` +
		`{"question":"Is MFA enforced?","answer":"Yes, everywhere","product":"WidgetCloud"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(valid), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{broken"), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	store := memory.NewStore()
	pipeline := NewPipeline(
		loader.New(log),
		chunker.NewSentenceChunker(2048, 256),
		staticEmbedder{},
		store,
		log,
	)

	summary, err := pipeline.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 2, summary.Indexed)
	assert.Len(t, logs.FilterMessage("skipping invalid qa file").All(), 1)

	hits, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, hit := range hits {
		node := domain.SourceNodeFromPoint(hit)
		assert.Equal(t, "vendor-a.json", node.DocumentName)
		assert.Equal(t, "WidgetCloud", node.Product)
		assert.NotEmpty(t, hit.Payload[domain.PayloadKeyNodeContent])
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	valid := `{"document_name":"vendor-a.json","data":[` +
		`{"question":"Do you encrypt data at rest?","answer":"Yes","product":"WidgetCloud"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(valid), 0o644))

	store := memory.NewStore()
	pipeline := NewPipeline(loader.New(nil), chunker.NewSentenceChunker(2048, 256), staticEmbedder{}, store, nil)

	_, err := pipeline.Run(context.Background(), dir)
	require.NoError(t, err)
	_, err = pipeline.Run(context.Background(), dir)
	require.NoError(t, err)

	hits, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestPointIDIsDeterministic(t *testing.T) {
	chunk := domain.Chunk{
		DocumentID: "abc123",
		Index:      0,
		Metadata:   map[string]any{domain.MetadataKeyDocumentName: "vendor-a.json"},
	}
	assert.Equal(t, PointID(chunk), PointID(chunk))

	other := chunk
	other.Index = 1
	assert.NotEqual(t, PointID(chunk), PointID(other))
}
