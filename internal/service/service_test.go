package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"qarag/internal/config"
	"qarag/internal/domain"
	"qarag/internal/vectorstore/memory"
)

// Fakes for the external capabilities. The store is the real in-memory
// implementation; search behavior is what the pipelines depend on.

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

// fakeReranker keeps the incoming order and assigns decreasing scores,
// unless explicit scores are set.
type fakeReranker struct {
	scores []float64
	calls  int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]domain.RankedDocument, error) {
	f.calls++
	ranked := make([]domain.RankedDocument, len(documents))
	for i := range documents {
		score := 1.0 - 0.05*float64(i)
		if i < len(f.scores) {
			score = f.scores[i]
		}
		ranked[i] = domain.RankedDocument{Index: i, Score: score}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

type fakeLLM struct {
	output  string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.output, f.err
}

// recordingStore captures the filter and topK each search receives.
type recordingStore struct {
	domain.VectorStore
	lastFilter *domain.Filter
	lastTopK   int
}

func (r *recordingStore) Search(ctx context.Context, vector []float32, filter *domain.Filter, topK int) ([]domain.ScoredPoint, error) {
	r.lastFilter = filter
	r.lastTopK = topK
	return r.VectorStore.Search(ctx, vector, filter, topK)
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		SearchTopK:         7,
		SearchRerankTopN:   3,
		QuestionTopK:       25,
		QuestionRerankTopN: 7,
		ScoreCutoff:        0.45,
	}
}

// seedPoint writes one stored chunk with the nested node content blob
// plus the top-level mirror fields, the same shape ingestion produces.
func seedPoint(t *testing.T, store *memory.Store, id, question, answer, product string, vector []float32) {
	t.Helper()
	metadata := map[string]any{
		domain.MetadataKeyDocumentName: "vendor-a.json",
		domain.MetadataKeyAnswer:       answer,
		domain.MetadataKeyProduct:      product,
	}
	blob, err := domain.EncodeNodeContent(domain.NodeContent{Text: question, Metadata: metadata})
	require.NoError(t, err)
	payload := map[string]any{
		domain.MetadataKeyDocumentName: "vendor-a.json",
		domain.MetadataKeyAnswer:       answer,
		domain.MetadataKeyProduct:      product,
		domain.PayloadKeyNodeContent:   blob,
	}
	require.NoError(t, store.Upsert(context.Background(), []domain.Point{{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}}))
}
