// Package service contains the retrieval-and-synthesis pipelines and
// the document update service.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"qarag/internal/domain"
)

// retriever bundles the capabilities shared by both query pipelines:
// embed the query, similarity-search with an optional filter, prune by
// score cutoff, then rerank.
type retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	reranker domain.Reranker
	cutoff   float64
	log      *zap.Logger
}

// retrieve returns at most topN candidates in rerank order, each
// carrying its rerank score. Candidates below the similarity cutoff
// never reach the reranker.
func (r *retriever) retrieve(ctx context.Context, query string, filter *domain.Filter, topK, topN int) ([]domain.ScoredPoint, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, vector, filter, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	pruned := hits[:0]
	for _, hit := range hits {
		if hit.Score >= r.cutoff {
			pruned = append(pruned, hit)
		}
	}
	if len(pruned) == 0 {
		r.log.Info("no candidates above cutoff", zap.String("query", query), zap.Int("hits", len(hits)))
		return nil, nil
	}

	documents := make([]string, len(pruned))
	for i, hit := range pruned {
		documents[i] = contextEntry(hit)
	}
	ranked, err := r.reranker.Rerank(ctx, query, documents, topN)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	out := make([]domain.ScoredPoint, 0, len(ranked))
	for _, doc := range ranked {
		if doc.Index < 0 || doc.Index >= len(pruned) {
			continue
		}
		candidate := pruned[doc.Index]
		candidate.Score = doc.Score
		out = append(out, candidate)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// contextEntry formats a stored chunk for the reranker and the
// synthesis context: metadata key-values first, then the question text.
func contextEntry(point domain.ScoredPoint) string {
	node := domain.SourceNodeFromPoint(point)
	var b strings.Builder
	b.WriteString("document_name: " + node.DocumentName + "\n")
	b.WriteString("product: " + node.Product + "\n")
	b.WriteString("answer: " + node.Answer + "\n\n")
	b.WriteString(node.Question)
	return b.String()
}

func sourceNodes(points []domain.ScoredPoint) []domain.SourceNode {
	nodes := make([]domain.SourceNode, len(points))
	for i, point := range points {
		nodes[i] = domain.SourceNodeFromPoint(point)
	}
	return nodes
}
