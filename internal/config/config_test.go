package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6333, cfg.Qdrant.Port)
	assert.Equal(t, "questions_and_answers_rag_vector", cfg.Qdrant.Collection)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.LLMModel)
	assert.Equal(t, "text-embedding-3-large", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
	assert.Equal(t, "rerank-english-v3.0", cfg.Cohere.Model)
	assert.Equal(t, 7, cfg.Retrieval.SearchTopK)
	assert.Equal(t, 3, cfg.Retrieval.SearchRerankTopN)
	assert.Equal(t, 25, cfg.Retrieval.QuestionTopK)
	assert.Equal(t, 7, cfg.Retrieval.QuestionRerankTopN)
	assert.Equal(t, 0.45, cfg.Retrieval.ScoreCutoff)
	assert.Equal(t, 2048, cfg.Chunking.ChunkSize)
	assert.Equal(t, 256, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "ACME Corp", cfg.CompanyName)
}

func TestLoadFileFillsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
qdrant:
  host: vector.internal
  port: 7443
retrieval:
  score_cutoff: 0.6
company_name: Initech
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vector.internal", cfg.Qdrant.Host)
	assert.Equal(t, 7443, cfg.Qdrant.Port)
	assert.Equal(t, 0.6, cfg.Retrieval.ScoreCutoff)
	assert.Equal(t, "Initech", cfg.CompanyName)
	// unset fields still get defaults
	assert.Equal(t, "questions_and_answers_rag_vector", cfg.Qdrant.Collection)
	assert.Equal(t, 7, cfg.Retrieval.SearchTopK)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qdrant: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qdrant:\n  host: file-host\n"), 0o644))

	t.Setenv("QDRANT_SERVER", "env-host")
	t.Setenv("QDRANT_PORT", "9999")
	t.Setenv("QDRANT_VECTOR_COLLECTION", "env_collection")
	t.Setenv("OPENAI_LLM_MODEL", "gpt-4o")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("COMPANY_NAME", "Globex")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Qdrant.Host)
	assert.Equal(t, 9999, cfg.Qdrant.Port)
	assert.Equal(t, "env_collection", cfg.Qdrant.Collection)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.LLMModel)
	assert.Equal(t, 0.7, cfg.OpenAI.Temperature)
	assert.Equal(t, "Globex", cfg.CompanyName)
}

func TestZeroFileValuesFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
openai:
  temperature: 0
retrieval:
  score_cutoff: 0
chunking:
  chunk_overlap: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Zero in the file is indistinguishable from unset.
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
	assert.Equal(t, 0.45, cfg.Retrieval.ScoreCutoff)
	assert.Equal(t, 256, cfg.Chunking.ChunkOverlap)
}

func TestEnvOverridesAcceptZero(t *testing.T) {
	t.Setenv("TEMPERATURE", "0")
	t.Setenv("SCORE_CUTOFF", "0")
	t.Setenv("CHUNK_OVERLAP", "0")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.OpenAI.Temperature)
	assert.Equal(t, 0.0, cfg.Retrieval.ScoreCutoff)
	assert.Equal(t, 0, cfg.Chunking.ChunkOverlap)
}

func TestEnvOverrideIgnoresBadNumbers(t *testing.T) {
	t.Setenv("QDRANT_PORT", "not-a-port")
	t.Setenv("TEMPERATURE", "warm")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 6333, cfg.Qdrant.Port)
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
}
