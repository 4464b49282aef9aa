package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, "sentence", cfg.Chunking.Strategy)
	assert.True(t, filepath.IsAbs(cfg.Storage.VectorDBPath))

	info, err := os.Stat(cfg.Storage.VectorDBPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("KNOWLEDGE_MCP__PORT", "3100")
	t.Setenv("KNOWLEDGE_CHUNKING__CHUNK_SIZE", "600")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3100, cfg.MCP.Port)
	assert.Equal(t, 600, cfg.Chunking.ChunkSize)
}

func TestValidate_OverlapMustBeLessThanChunkSize(t *testing.T) {
	cfg := &Config{
		Embedding:  EmbeddingConfig{BatchSize: 32, Device: "cpu"},
		Chunking:   ChunkingConfig{ChunkSize: 100, ChunkOverlap: 100, Strategy: "fixed"},
		Processing: ProcessingConfig{MaxConcurrentTasks: 2, OCRConfidenceThreshold: 0.5, MaxFileSizeMB: 10},
		MCP:        MCPConfig{Port: 3100, Transport: "stdio"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := &Config{
		Embedding:  EmbeddingConfig{BatchSize: 32, Device: "cpu"},
		Chunking:   ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50, Strategy: "tree"},
		Processing: ProcessingConfig{MaxConcurrentTasks: 2, OCRConfidenceThreshold: 0.5, MaxFileSizeMB: 10},
		MCP:        MCPConfig{Port: 3100, Transport: "stdio"},
	}
	assert.Error(t, cfg.Validate())
}
