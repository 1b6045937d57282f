package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qarag/internal/chunker"
	"qarag/internal/config"
	"qarag/internal/embedding/openai"
	"qarag/internal/ingest"
	"qarag/internal/loader"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, qaDir string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.StringVar(&qaDir, "qa-dir", "", "Directory containing Question and Answer JSON files (defaults to the configured qa_directory)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if qaDir == "" {
		qaDir = cfg.QADirectory
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, err := ingest.Connect(ctx, cfg.Qdrant, logger)
	if err != nil {
		logger.Fatal("qdrant unavailable", zap.Error(err))
	}

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.OpenAI.EmbeddingModel,
		Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatal("embedding client init failed", zap.Error(err))
	}

	pipeline := ingest.NewPipeline(
		loader.New(logger),
		chunker.NewSentenceChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		embedder,
		store,
		logger,
	)

	summary, err := pipeline.Run(ctx, qaDir)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}
	logger.Info("done",
		zap.Int("records", summary.Records),
		zap.Int("documents", summary.Documents),
		zap.Int("indexed", summary.Indexed))
}
