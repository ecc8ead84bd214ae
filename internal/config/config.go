// Package config loads application configuration from a YAML file with
// defaults, resolving API keys from the environment so secrets never
// live in the file.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DocumentsConfig configures the ingestion source directory.
type DocumentsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// StoreConfig configures the persistent vector index.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig configures the embedding service. The model identifier
// and dimension together define the embedding space the index binds to.
type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// ChatConfig configures the reasoning/synthesis model.
type ChatConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkingConfig configures how documents are split. Overlap is a
// pointer so an explicit 0 in the file is distinguishable from unset.
type ChunkingConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap"`
}

// RetrievalConfig configures similarity search and the answer floor.
// ConfidenceFloor is a pointer for the same reason as ChunkingConfig's
// Overlap: 0 disables the floor and must survive loading.
type RetrievalConfig struct {
	TopK            int      `yaml:"top_k"`
	ConfidenceFloor *float64 `yaml:"confidence_floor"`
}

// LoopConfig configures the orchestration loop.
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// WebSearchConfig configures the web-search tool.
type WebSearchConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxResults  int    `yaml:"max_results"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Loop      LoopConfig      `yaml:"loop"`
	WebSearch WebSearchConfig `yaml:"web_search"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// EmbeddingAPIKey resolves the embedding service key from the environment.
func (c *Config) EmbeddingAPIKey() string {
	return os.Getenv(c.Embedding.APIKeyEnv)
}

// ChatAPIKey resolves the generation service key from the environment.
func (c *Config) ChatAPIKey() string {
	return os.Getenv(c.Chat.APIKeyEnv)
}

// WebSearchAPIKey resolves the search service key from the environment.
func (c *Config) WebSearchAPIKey() string {
	return os.Getenv(c.WebSearch.APIKeyEnv)
}

func defaultConfig() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080"},
		Documents: DocumentsConfig{Dir: "./data", Watch: true},
		Store:     StoreConfig{Path: "./vector_store"},
		Embedding: EmbeddingConfig{
			Model:       "models/embedding-001",
			Dimension:   768,
			APIKeyEnv:   "GEMINI_API_KEY",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},
		Chat: ChatConfig{
			Model:       "models/gemini-1.5-flash",
			APIKeyEnv:   "GEMINI_API_KEY",
			TimeoutSecs: 60,
		},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: intPtr(200)},
		Retrieval: RetrievalConfig{TopK: 3, ConfidenceFloor: floatPtr(0.35)},
		Loop:      LoopConfig{MaxIterations: 5},
		WebSearch: WebSearchConfig{
			APIKeyEnv:   "TAVILY_API_KEY",
			MaxResults:  3,
			TimeoutSecs: 15,
		},
	}
}

// applyDefaults fills fields a partial config file left zero.
func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = def.Documents.Dir
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = def.Embedding.Dimension
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = def.Embedding.APIKeyEnv
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = def.Embedding.TimeoutSecs
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = def.Embedding.MaxRetries
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = def.Chat.Model
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = def.Chat.APIKeyEnv
	}
	if cfg.Chat.TimeoutSecs == 0 {
		cfg.Chat.TimeoutSecs = def.Chat.TimeoutSecs
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = def.Chunking.Size
	}
	if cfg.Chunking.Overlap == nil {
		cfg.Chunking.Overlap = def.Chunking.Overlap
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.ConfidenceFloor == nil {
		cfg.Retrieval.ConfidenceFloor = def.Retrieval.ConfidenceFloor
	}
	if cfg.Loop.MaxIterations == 0 {
		cfg.Loop.MaxIterations = def.Loop.MaxIterations
	}
	if cfg.WebSearch.APIKeyEnv == "" {
		cfg.WebSearch.APIKeyEnv = def.WebSearch.APIKeyEnv
	}
	if cfg.WebSearch.MaxResults == 0 {
		cfg.WebSearch.MaxResults = def.WebSearch.MaxResults
	}
	if cfg.WebSearch.TimeoutSecs == 0 {
		cfg.WebSearch.TimeoutSecs = def.WebSearch.TimeoutSecs
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
