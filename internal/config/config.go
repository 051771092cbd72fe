package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the remote embedding provider.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig configures the text-generation model.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig holds indexing-run tunables.
type IndexConfig struct {
	Term            string   `yaml:"term"`
	Subjects        []string `yaml:"subjects"`
	BatchSize       int      `yaml:"batch_size"`
	MaxBatchRetries int      `yaml:"max_batch_retries"`
	DataDir         string   `yaml:"data_dir"`
	CatalogBaseURL  string   `yaml:"catalog_base_url"`
}

// WeightsConfig sets how many times each field repeats in the embedded text.
type WeightsConfig struct {
	Description   int `yaml:"description"`
	Title         int `yaml:"title"`
	Prerequisites int `yaml:"prerequisites"`
	Subject       int `yaml:"subject"`
	Cluster       int `yaml:"cluster"`
}

// ClusterConfig is one curated grouping of related courses.
type ClusterConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Courses     []string `yaml:"courses"`
}

// ReviewsConfig tunes the instructor-name fuzzy matcher.
type ReviewsConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig contains connection details for a Redis session store.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// ChatConfig tunes the chat retrieval budget.
type ChatConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Index       IndexConfig       `yaml:"index"`
	Weights     WeightsConfig     `yaml:"weights"`
	Clusters    []ClusterConfig   `yaml:"clusters"`
	Reviews     ReviewsConfig     `yaml:"reviews"`
	Session     SessionConfig     `yaml:"session"`
	Chat        ChatConfig        `yaml:"chat"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/courserag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "courserag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{},
		Generator:   GeneratorConfig{},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Session:     SessionConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "gemini-embedding-001"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 3072
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.0-flash"
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.7
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Index.Term == "" {
		cfg.Index.Term = "1262"
	}
	if len(cfg.Index.Subjects) == 0 {
		cfg.Index.Subjects = []string{"CS", "DS", "STAT", "MATH", "STS"}
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 50
	}
	if cfg.Index.MaxBatchRetries == 0 {
		cfg.Index.MaxBatchRetries = 2
	}
	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = "data"
	}
	if cfg.Weights == (WeightsConfig{}) {
		cfg.Weights = WeightsConfig{Description: 3, Title: 2, Prerequisites: 2, Subject: 1, Cluster: 2}
	}
	if cfg.Reviews.MatchThreshold == 0 {
		cfg.Reviews.MatchThreshold = 0.72
	}
	if cfg.Session.Type == "" {
		cfg.Session.Type = "memory"
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 10
	}
}
