package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// QdrantConfig contains connection details for the Qdrant vector store.
type QdrantConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIConfig configures the embedding and language model clients.
type OpenAIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	LLMModel       string  `yaml:"llm_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSecs    int     `yaml:"timeout_secs"`
}

// CohereConfig configures the rerank client.
type CohereConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig holds the retrieval policy knobs. The defaults were
// tuned against the deployed collection; changing the cutoff may need
// recalibration per embedding model.
type RetrievalConfig struct {
	SearchTopK         int     `yaml:"search_top_k"`
	SearchRerankTopN   int     `yaml:"search_rerank_top_n"`
	QuestionTopK       int     `yaml:"question_top_k"`
	QuestionRerankTopN int     `yaml:"question_rerank_top_n"`
	ScoreCutoff        float64 `yaml:"score_cutoff"`
}

// ChunkingConfig configures how documents are split before indexing.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Qdrant      QdrantConfig    `yaml:"qdrant"`
	OpenAI      OpenAIConfig    `yaml:"openai"`
	Cohere      CohereConfig    `yaml:"cohere"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Chunking    ChunkingConfig  `yaml:"chunking"`
	Server      ServerConfig    `yaml:"server"`
	CompanyName string          `yaml:"company_name"`
	QADirectory string          `yaml:"qa_directory"`
}

// Load reads a config from the given path. A missing file yields the
// defaults so the service can run on env vars alone.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

// applyConfigDefaults fills every zero-valued setting. A zero in the
// file is treated as unset, so knobs where zero is meaningful
// (chunk_overlap, temperature, score_cutoff) cannot be zeroed from the
// file; the SCORE_CUTOFF, CHUNK_OVERLAP and TEMPERATURE env overrides
// are applied after defaults and do accept zero.
func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6333
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "questions_and_answers_rag_vector"
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.LLMModel == "" {
		cfg.OpenAI.LLMModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-large"
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.2
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 60
	}
	if cfg.Cohere.BaseURL == "" {
		cfg.Cohere.BaseURL = "https://api.cohere.com"
	}
	if cfg.Cohere.APIKeyEnv == "" {
		cfg.Cohere.APIKeyEnv = "COHERE_API_KEY"
	}
	if cfg.Cohere.Model == "" {
		cfg.Cohere.Model = "rerank-english-v3.0"
	}
	if cfg.Cohere.TimeoutSecs == 0 {
		cfg.Cohere.TimeoutSecs = 30
	}
	if cfg.Retrieval.SearchTopK == 0 {
		cfg.Retrieval.SearchTopK = 7
	}
	if cfg.Retrieval.SearchRerankTopN == 0 {
		cfg.Retrieval.SearchRerankTopN = 3
	}
	if cfg.Retrieval.QuestionTopK == 0 {
		cfg.Retrieval.QuestionTopK = 25
	}
	if cfg.Retrieval.QuestionRerankTopN == 0 {
		cfg.Retrieval.QuestionRerankTopN = 7
	}
	if cfg.Retrieval.ScoreCutoff == 0 {
		cfg.Retrieval.ScoreCutoff = 0.45
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 2048
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 256
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "ACME Corp"
	}
	if cfg.QADirectory == "" {
		cfg.QADirectory = "./data/questions_and_answers"
	}
}

// applyEnvOverrides lets deployment env vars win over the file values.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("QDRANT_SERVER"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Qdrant.Port = port
		}
	}
	if v := os.Getenv("QDRANT_VECTOR_COLLECTION"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := os.Getenv("OPENAI_LLM_MODEL"); v != "" {
		cfg.OpenAI.LLMModel = v
	}
	if v := os.Getenv("OPENAI_EMBEDDING_MODEL"); v != "" {
		cfg.OpenAI.EmbeddingModel = v
	}
	if v := os.Getenv("TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.OpenAI.Temperature = t
		}
	}
	if v := os.Getenv("SCORE_CUTOFF"); v != "" {
		if cutoff, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retrieval.ScoreCutoff = cutoff
		}
	}
	if v := os.Getenv("CHUNK_OVERLAP"); v != "" {
		if overlap, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.ChunkOverlap = overlap
		}
	}
	if v := os.Getenv("COMPANY_NAME"); v != "" {
		cfg.CompanyName = v
	}
	if v := os.Getenv("QA_DIRECTORY_PATH"); v != "" {
		cfg.QADirectory = v
	}
}
