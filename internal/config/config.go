// Package config loads server configuration from ./config.yaml (falling
// back to built-in defaults): viper defaults, a mapstructure-tagged
// struct, then a Validate pass. Environment variables with
// prefix KNOWLEDGE_ override any field; nested keys use __ as the
// delimiter (KNOWLEDGE_MCP__PORT=3100).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// Config is the root configuration object.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Processing ProcessingConfig `mapstructure:"processing"`
	MCP        MCPConfig        `mapstructure:"mcp"`
	OCR        OCRConfig        `mapstructure:"ocr"`
}

type StorageConfig struct {
	DocumentsPath  string `mapstructure:"documents_path"`
	VectorDBPath   string `mapstructure:"vector_db_path"`
	ModelCachePath string `mapstructure:"model_cache_path"`
}

type EmbeddingConfig struct {
	ModelName string `mapstructure:"model_name"`
	BatchSize int    `mapstructure:"batch_size"`
	Device    string `mapstructure:"device"`
	Dimension int    `mapstructure:"dimension"`
}

type ChunkingConfig struct {
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	Strategy     string `mapstructure:"strategy"`
}

type ProcessingConfig struct {
	MaxConcurrentTasks     int     `mapstructure:"max_concurrent_tasks"`
	OCRConfidenceThreshold float64 `mapstructure:"ocr_confidence_threshold"`
	MaxFileSizeMB          int     `mapstructure:"max_file_size_mb"`
	OCRWorkerPoolSize      int     `mapstructure:"ocr_worker_pool_size"`
}

type MCPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Transport      string `mapstructure:"transport"`
	StrictSessions bool   `mapstructure:"strict_sessions"`
}

type OCRConfig struct {
	Language string `mapstructure:"language"`
	ForceOCR bool   `mapstructure:"force_ocr"`
}

// Load reads configuration from configPath if it is non-empty (a
// missing file there is an error), otherwise from ./config.yaml if it
// exists, with built-in defaults for every unset field and
// KNOWLEDGE_-prefixed environment overrides on top.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("KNOWLEDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: reading config file: %v", domain.ErrConfigurationError, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling config: %v", domain.ErrConfigurationError, err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.documents_path", "./data/documents")
	v.SetDefault("storage.vector_db_path", "./data/vectors")
	v.SetDefault("storage.model_cache_path", "./data/models")

	v.SetDefault("embedding.model_name", "all-MiniLM-L6-v2")
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.device", "cpu")
	v.SetDefault("embedding.dimension", 384)

	v.SetDefault("chunking.chunk_size", 500)
	v.SetDefault("chunking.chunk_overlap", 50)
	v.SetDefault("chunking.strategy", "sentence")

	v.SetDefault("processing.max_concurrent_tasks", 3)
	v.SetDefault("processing.ocr_confidence_threshold", 0.6)
	v.SetDefault("processing.max_file_size_mb", 100)
	v.SetDefault("processing.ocr_worker_pool_size", 2)

	v.SetDefault("mcp.host", "127.0.0.1")
	v.SetDefault("mcp.port", 3100)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.strict_sessions", false)

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.force_ocr", false)
}

// expandPaths makes every storage path absolute and creates the
// directory if it does not yet exist.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Storage.DocumentsPath, &c.Storage.VectorDBPath, &c.Storage.ModelCachePath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("%w: resolving path %q: %v", domain.ErrConfigurationError, *p, err)
		}
		*p = abs
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("%w: creating directory %q: %v", domain.ErrConfigurationError, abs, err)
		}
	}
	return nil
}

// Validate enforces the configured bounds for every field.
func (c *Config) Validate() error {
	if c.Embedding.BatchSize < 1 || c.Embedding.BatchSize > 128 {
		return fmt.Errorf("%w: embedding.batch_size must be in [1,128]", domain.ErrConfigurationError)
	}
	if c.Embedding.Device != "cpu" && c.Embedding.Device != "cuda" {
		return fmt.Errorf("%w: embedding.device must be cpu or cuda", domain.ErrConfigurationError)
	}
	if c.Chunking.ChunkSize < 100 || c.Chunking.ChunkSize > 2000 {
		return fmt.Errorf("%w: chunking.chunk_size must be in [100,2000]", domain.ErrConfigurationError)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap > 500 {
		return fmt.Errorf("%w: chunking.chunk_overlap must be in [0,500]", domain.ErrConfigurationError)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunking.chunk_overlap must be < chunk_size", domain.ErrConfigurationError)
	}
	switch c.Chunking.Strategy {
	case "sentence", "paragraph", "fixed":
	default:
		return fmt.Errorf("%w: chunking.strategy must be sentence, paragraph or fixed", domain.ErrConfigurationError)
	}
	if c.Processing.MaxConcurrentTasks < 1 || c.Processing.MaxConcurrentTasks > 10 {
		return fmt.Errorf("%w: processing.max_concurrent_tasks must be in [1,10]", domain.ErrConfigurationError)
	}
	if c.Processing.OCRConfidenceThreshold < 0 || c.Processing.OCRConfidenceThreshold > 1 {
		return fmt.Errorf("%w: processing.ocr_confidence_threshold must be in [0,1]", domain.ErrConfigurationError)
	}
	if c.Processing.MaxFileSizeMB < 1 || c.Processing.MaxFileSizeMB > 1000 {
		return fmt.Errorf("%w: processing.max_file_size_mb must be in [1,1000]", domain.ErrConfigurationError)
	}
	if c.MCP.Port < 1024 || c.MCP.Port > 65535 {
		return fmt.Errorf("%w: mcp.port must be in [1024,65535]", domain.ErrConfigurationError)
	}
	switch c.MCP.Transport {
	case "http", "websocket", "http-streamable", "stdio":
	default:
		return fmt.Errorf("%w: mcp.transport must be one of http, websocket, http-streamable, stdio", domain.ErrConfigurationError)
	}
	return nil
}

// MaxFileSizeBytes is the max_file_size_mb bound converted to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Processing.MaxFileSizeMB) * 1024 * 1024
}
