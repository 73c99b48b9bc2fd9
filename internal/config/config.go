// Package config provides application configuration loaded from a YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Environment variable names
	EnvConfigPath = "VIDEORAG_CONFIG"
	EnvDatabase   = "VIDEORAG_DATABASE_URL"
	EnvOllamaURL  = "VIDEORAG_OLLAMA_URL"
	EnvVideosDir  = "VIDEORAG_VIDEOS_DIR"
	EnvPort       = "VIDEORAG_PORT"
	EnvLogLevel   = "VIDEORAG_LOG_LEVEL"
)

// Config holds application configuration.
type Config struct {
	Database struct {
		// ConnectionString for the pgvector-backed store. Empty selects the
		// in-memory store, which does not survive restarts.
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL        string `yaml:"base_url"`
		EmbeddingModel string `yaml:"embedding_model"`
		VisionModel    string `yaml:"vision_model"`
		EmbeddingDim   int    `yaml:"embedding_dim"`
	} `yaml:"ollama"`
	Videos struct {
		Dir                  string `yaml:"dir"`
		FrameIntervalSeconds int    `yaml:"frame_interval_seconds"`
		KeepVideoFile        bool   `yaml:"keep_video_file"`
	} `yaml:"videos"`
	Indexing struct {
		BatchSize int `yaml:"batch_size"`
		Workers   int `yaml:"workers"`
	} `yaml:"indexing"`
	Jobs struct {
		RetentionSeconds       int `yaml:"retention_seconds"`
		DownloadTimeoutSeconds int `yaml:"download_timeout_seconds"`
		ExtractTimeoutSeconds  int `yaml:"extract_timeout_seconds"`
	} `yaml:"jobs"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.EmbeddingModel = "nomic-embed-vision"
	cfg.Ollama.VisionModel = "llama3.2-vision:11b"
	cfg.Ollama.EmbeddingDim = 512
	cfg.Videos.Dir = "video-downloads"
	cfg.Videos.FrameIntervalSeconds = 5
	cfg.Indexing.BatchSize = 32
	cfg.Indexing.Workers = 4
	cfg.Jobs.RetentionSeconds = 300
	cfg.Jobs.DownloadTimeoutSeconds = 900
	cfg.Jobs.ExtractTimeoutSeconds = 600
	cfg.Server.Port = 7777
	cfg.LogLevel = "info"

	return cfg
}

// Load loads configuration from the given path, falling back to
// $VIDEORAG_CONFIG and then ~/.videorag/config.yaml. A missing file yields
// the defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".videorag", "config.yaml")
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv(EnvOllamaURL); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv(EnvVideosDir); v != "" {
		cfg.Videos.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}

	return cfg, nil
}

// Save writes the configuration to ~/.videorag/config.yaml.
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".videorag")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// JobRetention returns the retention window for terminal job entries.
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.Jobs.RetentionSeconds) * time.Second
}

// DownloadTimeout bounds the media acquisition step of a job.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Jobs.DownloadTimeoutSeconds) * time.Second
}

// ExtractTimeout bounds the frame sampling step of a job.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Jobs.ExtractTimeoutSeconds) * time.Second
}
