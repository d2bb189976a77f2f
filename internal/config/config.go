package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	IndexPath string           `json:"index_path"`
	LogConfig logger.LogConfig `json:"log_config"`
	AI        AIConfig         `json:"ai"`
	Ingest    IngestConfig     `json:"ingest"`
	Session   SessionConfig    `json:"session"`
	FileStore *FileStoreConfig `json:"file_store"`
	Backup    BackupConfig     `json:"backup"`
}

type AIConfig struct {
	Provider             string `json:"provider"`
	ChatModel            string `json:"chat_model"`
	EmbedModel           string `json:"embed_model"`
	Timeout              int    `json:"timeout"`
	TopK                 int    `json:"top_k"`
	MaxIterations        int    `json:"max_iterations"`
	EmbedCacheSize       int    `json:"embed_cache_size"`
	EmbedCacheTTLMinutes int    `json:"embed_cache_ttl_minutes"`
}

type IngestConfig struct {
	ChunkSize int `json:"chunk_size"`
}

type SessionConfig struct {
	MaxSessions int `json:"max_sessions"`
	TTLMinutes  int `json:"ttl_minutes"`
}

// FileStoreConfig selects the optional archive backend for raw uploads
// and index backups ("local" or "s3").
type FileStoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type BackupConfig struct {
	Enable bool   `json:"enable"`
	Cron   string `json:"cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("index_path is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gemini-2.5-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-001"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 120
	}
	if cfg.AI.TopK == 0 {
		cfg.AI.TopK = 4
	}
	if cfg.AI.MaxIterations == 0 {
		cfg.AI.MaxIterations = 8
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 2048
	}
	if cfg.AI.EmbedCacheTTLMinutes == 0 {
		cfg.AI.EmbedCacheTTLMinutes = 120
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 4096
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 720
	}
	if cfg.Backup.Enable {
		if cfg.FileStore == nil {
			return nil, fmt.Errorf("backup requires file_store to be configured")
		}
		if cfg.Backup.Cron == "" {
			cfg.Backup.Cron = "0 * * * *"
		}
	}
	return &cfg, nil
}
