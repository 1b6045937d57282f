// Package ingest populates the vector store from QA JSON files.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qarag/internal/config"
	"qarag/internal/domain"
	"qarag/internal/loader"
	"qarag/internal/vectorstore/qdrant"
)

// Store is the vector store surface ingestion needs: everything the
// pipelines use plus collection bootstrap.
type Store interface {
	domain.VectorStore
	EnsureCollection(ctx context.Context, dimension int) error
}

// Connect tries the configured Qdrant address, then localhost, then the
// loopback IP, stopping at the first address that answers a
// list-collections probe. All three failing is fatal for ingestion.
func Connect(ctx context.Context, cfg config.QdrantConfig, log *zap.Logger) (*qdrant.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	hosts := []string{cfg.Host, "localhost", "127.0.0.1"}
	var lastErr error
	for i, host := range hosts {
		store := qdrant.NewStore(qdrant.Config{
			URL:        fmt.Sprintf("http://%s:%d", host, cfg.Port),
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		}, log)
		if _, err := store.ListCollections(ctx); err != nil {
			lastErr = err
			log.Warn("failed to connect to qdrant", zap.String("host", host), zap.Int("port", cfg.Port), zap.Error(err))
			continue
		}
		if i > 0 {
			log.Info("connected to qdrant via fallback address", zap.String("host", host), zap.Int("port", cfg.Port))
		} else {
			log.Info("connected to qdrant", zap.String("host", host), zap.Int("port", cfg.Port))
		}
		return store, nil
	}
	return nil, fmt.Errorf("could not connect to qdrant with any configuration: %w", lastErr)
}

// Summary reports what one ingestion run accomplished.
type Summary struct {
	Records   int
	Documents int
	Chunks    int
	Indexed   int
}

// Pipeline orchestrates loader, chunker, embedder and store.
type Pipeline struct {
	loader    *loader.Loader
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     Store
	batchSize int
	log       *zap.Logger
}

func NewPipeline(ld *loader.Loader, chunker domain.Chunker, embedder domain.Embedder, store Store, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		loader:    ld,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: 64,
		log:       log,
	}
}

// Run loads the QA directory, chunks and embeds every document and
// upserts the chunks in batches. A batch failure is logged and does not
// roll back batches already written; point IDs are deterministic so a
// re-run overwrites instead of duplicating.
func (p *Pipeline) Run(ctx context.Context, qaDirectory string) (*Summary, error) {
	records, err := p.loader.LoadDirectory(qaDirectory)
	if err != nil {
		return nil, fmt.Errorf("load qa directory: %w", err)
	}
	documents := p.loader.BuildDocuments(records)
	summary := &Summary{Records: len(records), Documents: len(documents)}
	if len(documents) == 0 {
		p.log.Warn("nothing to ingest", zap.String("dir", qaDirectory))
		return summary, nil
	}

	var chunks []domain.Chunk
	for _, document := range documents {
		split, err := p.chunker.Chunk(document)
		if err != nil {
			p.log.Warn("skipping unchunkable document", zap.String("document", document.ID), zap.Error(err))
			continue
		}
		chunks = append(chunks, split...)
	}
	summary.Chunks = len(chunks)

	collectionReady := false
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		points, err := p.embedBatch(ctx, chunks[start:end])
		if err != nil {
			p.log.Error("failed to embed batch", zap.Int("start", start), zap.Error(err))
			continue
		}
		if !collectionReady {
			if err := p.store.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
				return summary, fmt.Errorf("ensure collection: %w", err)
			}
			collectionReady = true
		}
		if err := p.store.Upsert(ctx, points); err != nil {
			p.log.Error("failed to write batch to vector db", zap.Int("start", start), zap.Error(err))
			continue
		}
		summary.Indexed += len(points)
	}

	p.log.Info("ingestion finished",
		zap.Int("records", summary.Records),
		zap.Int("documents", summary.Documents),
		zap.Int("chunks", summary.Chunks),
		zap.Int("indexed", summary.Indexed))
	return summary, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, chunks []domain.Chunk) ([]domain.Point, error) {
	points := make([]domain.Point, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
		}
		payload, err := chunkPayload(chunk)
		if err != nil {
			return nil, err
		}
		points = append(points, domain.Point{
			ID:      PointID(chunk),
			Vector:  vector,
			Payload: payload,
		})
	}
	return points, nil
}

// PointID derives a stable UUID for a chunk so repeated ingestion runs
// overwrite instead of duplicating.
func PointID(chunk domain.Chunk) string {
	name, _ := chunk.Metadata[domain.MetadataKeyDocumentName].(string)
	seed := fmt.Sprintf("%s|%s|%d", name, chunk.DocumentID, chunk.Index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// chunkPayload builds a point payload with top-level metadata fields
// plus the serialized node content blob retrieval reads from.
func chunkPayload(chunk domain.Chunk) (map[string]any, error) {
	blob, err := domain.EncodeNodeContent(domain.NodeContent{
		Text:     chunk.Text,
		Metadata: chunk.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chunk %s: %w", chunk.ID, err)
	}
	payload := make(map[string]any, len(chunk.Metadata)+1)
	for key, value := range chunk.Metadata {
		payload[key] = value
	}
	payload[domain.PayloadKeyNodeContent] = blob
	return payload, nil
}
