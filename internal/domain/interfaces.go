package domain

import "context"

// Embedder converts free text into a fixed-dimension numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reranker rescores candidate documents against a query and returns at
// most topN of them, best first.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}

// VectorStore persists embedded chunks and supports filtered similarity
// search, point retrieval and payload rewrite.
type VectorStore interface {
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, filter *Filter, topK int) ([]ScoredPoint, error)
	Retrieve(ctx context.Context, id string) (*Point, error)
	SetPayload(ctx context.Context, id string, payload map[string]any) error
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}
