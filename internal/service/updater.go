package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"qarag/internal/domain"
)

// Updater corrects a previously stored answer in place, keyed by the
// vector store point ID.
type Updater struct {
	store domain.VectorStore
	log   *zap.Logger
}

func NewUpdater(store domain.VectorStore, log *zap.Logger) *Updater {
	if log == nil {
		log = zap.NewNop()
	}
	return &Updater{store: store, log: log}
}

// UpdateAnswer rewrites the answer both inside the nested node content
// blob and in the top-level mirror field. Retrieval reads the nested
// copy, so updating the mirror alone would silently lose the change.
func (u *Updater) UpdateAnswer(ctx context.Context, nodeID, answer string) (*domain.UpdateResult, error) {
	point, err := u.store.Retrieve(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("point with node_id %s: %w", nodeID, err)
	}

	content, err := domain.DecodeNodeContent(point.Payload)
	if err != nil {
		return nil, fmt.Errorf("point %s: %w", nodeID, err)
	}
	content.Metadata[domain.MetadataKeyAnswer] = answer
	blob, err := domain.EncodeNodeContent(*content)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		domain.PayloadKeyNodeContent: blob,
		domain.MetadataKeyAnswer:     answer,
	}
	if err := u.store.SetPayload(ctx, nodeID, payload); err != nil {
		return nil, fmt.Errorf("update point %s: %w", nodeID, err)
	}

	u.log.Info("answer updated", zap.String("node_id", nodeID))
	return &domain.UpdateResult{NodeID: nodeID, UpdatedAnswer: answer}, nil
}
