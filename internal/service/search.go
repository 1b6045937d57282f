package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"qarag/internal/config"
	"qarag/internal/domain"
	"qarag/internal/prompt"
)

// Search is the correction-suggestion pipeline: retrieve prior answers
// for an existing questionnaire entry, optionally filtered by product,
// and synthesize an improved answer in a strict JSON envelope.
type Search struct {
	retriever retriever
	llm       domain.Generator
	prompts   *prompt.Library
	topK      int
	rerankN   int
	log       *zap.Logger
}

func NewSearch(store domain.VectorStore, embedder domain.Embedder, reranker domain.Reranker, llm domain.Generator, prompts *prompt.Library, cfg config.RetrievalConfig, log *zap.Logger) *Search {
	if log == nil {
		log = zap.NewNop()
	}
	return &Search{
		retriever: retriever{
			embedder: embedder,
			store:    store,
			reranker: reranker,
			cutoff:   cfg.ScoreCutoff,
			log:      log,
		},
		llm:     llm,
		prompts: prompts,
		topK:    cfg.SearchTopK,
		rerankN: cfg.SearchRerankTopN,
		log:     log,
	}
}

// QueryRAG answers a correction-suggestion query. product equal to the
// "all" sentinel (or empty) disables filtering.
func (s *Search) QueryRAG(ctx context.Context, query, product string) (*domain.QueryResponse, error) {
	filter := domain.ProductFilter(product)
	candidates, err := s.retriever.retrieve(ctx, query, filter, s.topK, s.rerankN)
	if err != nil {
		s.log.Error("rag query failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if len(candidates) == 0 {
		return &domain.QueryResponse{SourceNodes: []domain.SourceNode{}}, nil
	}

	contexts := make([]string, len(candidates))
	for i, candidate := range candidates {
		contexts[i] = contextEntry(candidate)
	}
	rendered := s.prompts.Improvement(strings.Join(contexts, "\n\n"), query)
	raw, err := s.llm.Generate(ctx, rendered)
	if err != nil {
		s.log.Error("synthesis failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &domain.QueryResponse{
		SuggestedAnswer: s.parseSuggestedAnswer(raw),
		SourceNodes:     sourceNodes(candidates),
	}, nil
}

// parseSuggestedAnswer extracts the suggested_answer field from the
// model's JSON envelope. A malformed envelope degrades to a sentinel
// string instead of failing the request; the source nodes are still
// worth returning.
func (s *Search) parseSuggestedAnswer(raw string) *string {
	var envelope struct {
		SuggestedAnswer *string `json:"suggested_answer"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &envelope); err != nil {
		s.log.Error("failed to parse synthesis output as JSON", zap.String("raw", raw))
		failed := prompt.SuggestedAnswerFailed
		return &failed
	}
	return envelope.SuggestedAnswer
}
