package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"qarag/internal/config"
	"qarag/internal/domain"
	"qarag/internal/prompt"
)

// treeBatchSize is how many context passages feed one summarization
// call during hierarchical synthesis.
const treeBatchSize = 5

// Question is the general question answering pipeline: broad retrieval
// with no product filter, then hierarchical summarization across the
// surviving passages.
type Question struct {
	retriever retriever
	llm       domain.Generator
	prompts   *prompt.Library
	topK      int
	rerankN   int
	log       *zap.Logger
}

func NewQuestion(store domain.VectorStore, embedder domain.Embedder, reranker domain.Reranker, llm domain.Generator, prompts *prompt.Library, cfg config.RetrievalConfig, log *zap.Logger) *Question {
	if log == nil {
		log = zap.NewNop()
	}
	return &Question{
		retriever: retriever{
			embedder: embedder,
			store:    store,
			reranker: reranker,
			cutoff:   cfg.ScoreCutoff,
			log:      log,
		},
		llm:     llm,
		prompts: prompts,
		topK:    cfg.QuestionTopK,
		rerankN: cfg.QuestionRerankTopN,
		log:     log,
	}
}

// Ask answers an open question across all products. The model's
// free-text output is the answer; no envelope parsing happens here.
func (q *Question) Ask(ctx context.Context, query string) (*domain.QuestionResponse, error) {
	candidates, err := q.retriever.retrieve(ctx, query, nil, q.topK, q.rerankN)
	if err != nil {
		q.log.Error("question query failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	contexts := make([]string, len(candidates))
	for i, candidate := range candidates {
		contexts[i] = contextEntry(candidate)
	}
	answer, err := q.synthesize(ctx, query, contexts)
	if err != nil {
		q.log.Error("synthesis failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &domain.QuestionResponse{
		Answer:      answer,
		SourceNodes: sourceNodes(candidates),
	}, nil
}

// synthesize runs tree-style summarization: passages are summarized in
// groups, and the intermediate answers are summarized again until one
// answer remains. With an empty context the prompt instructs the model
// to disclaim the missing information.
func (q *Question) synthesize(ctx context.Context, query string, contexts []string) (string, error) {
	for len(contexts) > treeBatchSize {
		var next []string
		for i := 0; i < len(contexts); i += treeBatchSize {
			end := i + treeBatchSize
			if end > len(contexts) {
				end = len(contexts)
			}
			rendered := q.prompts.General(strings.Join(contexts[i:end], "\n\n"), query)
			intermediate, err := q.llm.Generate(ctx, rendered)
			if err != nil {
				return "", err
			}
			next = append(next, intermediate)
		}
		contexts = next
	}
	rendered := q.prompts.General(strings.Join(contexts, "\n\n"), query)
	return q.llm.Generate(ctx, rendered)
}
