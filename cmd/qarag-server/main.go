package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qarag/internal/config"
	"qarag/internal/embedding/openai"
	"qarag/internal/ingest"
	llmopenai "qarag/internal/llm/openai"
	"qarag/internal/prompt"
	"qarag/internal/rerank/cohere"
	"qarag/internal/server"
	"qarag/internal/service"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := ingest.Connect(ctx, cfg.Qdrant, logger)
	cancel()
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

	llm, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
		Model:       cfg.OpenAI.LLMModel,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatal("llm client init failed", zap.Error(err))
	}

	reranker, err := cohere.NewClient(cohere.Config{
		BaseURL:   cfg.Cohere.BaseURL,
		APIKeyEnv: cfg.Cohere.APIKeyEnv,
		Model:     cfg.Cohere.Model,
		Timeout:   time.Duration(cfg.Cohere.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatal("rerank client init failed", zap.Error(err))
	}

	prompts := prompt.NewLibrary(cfg.CompanyName)
	search := service.NewSearch(store, embedder, reranker, llm, prompts, cfg.Retrieval, logger)
	question := service.NewQuestion(store, embedder, reranker, llm, prompts, cfg.Retrieval, logger)
	updater := service.NewUpdater(store, logger)

	handler := server.NewHandler(search, question, updater, logger)
	router := server.NewRouter(handler)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := router.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
