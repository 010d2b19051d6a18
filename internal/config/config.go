package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/finsight/filingrag/internal/chunker"
)

type Config struct {
	Database  DatabaseConfig   `json:"database"`
	AI        AIConfig         `json:"ai"`
	Chunker   chunker.Config   `json:"chunker"`
	Retrieval RetrievalConfig  `json:"retrieval"`
	Schedule  ScheduleConfig   `json:"schedule"`
	LogConfig logger.LogConfig `json:"log_config"`
	Archive   FileStoreConfig  `json:"archive"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// ProviderConfig selects one registered AI provider. Data carries
// provider-specific settings (api key, endpoint, ...) passed through to the
// provider factory untouched.
type ProviderConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type AIConfig struct {
	Generate ProviderConfig `json:"generate"`
	// GenerateFallbacks are tried in order when the primary generator fails.
	GenerateFallbacks []ProviderConfig `json:"generate_fallbacks"`
	Embed ProviderConfig `json:"embed"`
	// EmbedFallbacks must serve the same embedding model as Embed; vectors
	// from different models are not comparable.
	EmbedFallbacks []ProviderConfig `json:"embed_fallbacks"`
	EmbedCacheLRU  int              `json:"embed_cache_lru"`
}

type RetrievalConfig struct {
	TopK            int     `json:"top_k"`
	SectionBoost    float64 `json:"section_boost"`
	MaxContextChars int     `json:"max_context_chars"`
	MaxChunkChars   int     `json:"max_chunk_chars"`
}

type ScheduleConfig struct {
	CacheCleanupCron string `json:"cache_cleanup_cron"`
	CacheKeepDays    int    `json:"cache_keep_days"`
}

type FileStoreConfig struct {
	Type      string   `json:"type"`
	Dir       string   `json:"dir"`
	PublicURL string   `json:"public_url"`
	S3        S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
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
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.DBName == "" {
			return nil, fmt.Errorf("database.db_name is required")
		}
	}
	if cfg.AI.Generate.Provider == "" {
		return nil, fmt.Errorf("ai.generate.provider is required")
	}
	if cfg.AI.Generate.Model == "" {
		return nil, fmt.Errorf("ai.generate.model is required")
	}
	if cfg.AI.Embed.Provider == "" {
		return nil, fmt.Errorf("ai.embed.provider is required")
	}
	if cfg.AI.Embed.Model == "" {
		return nil, fmt.Errorf("ai.embed.model is required")
	}
	for _, fb := range cfg.AI.GenerateFallbacks {
		if fb.Provider == "" || fb.Model == "" {
			return nil, fmt.Errorf("ai.generate_fallbacks entries need provider and model")
		}
	}
	for _, fb := range cfg.AI.EmbedFallbacks {
		if fb.Provider == "" {
			return nil, fmt.Errorf("ai.embed_fallbacks entries need a provider")
		}
		if fb.Model != cfg.AI.Embed.Model {
			return nil, fmt.Errorf("ai.embed_fallbacks must use the same model as ai.embed")
		}
	}
	if cfg.AI.EmbedCacheLRU == 0 {
		cfg.AI.EmbedCacheLRU = 10000
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SectionBoost == 0 {
		cfg.Retrieval.SectionBoost = 0.1
	}
	if cfg.Schedule.CacheCleanupCron == "" {
		cfg.Schedule.CacheCleanupCron = "0 3 * * *"
	}
	if cfg.Schedule.CacheKeepDays == 0 {
		cfg.Schedule.CacheKeepDays = 30
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	switch cfg.Archive.Type {
	case "":
		// Archiving is optional.
	case "local":
		if cfg.Archive.Dir == "" {
			return nil, fmt.Errorf("archive.dir is required for local store")
		}
	case "s3":
		if cfg.Archive.S3.Endpoint == "" || cfg.Archive.S3.Bucket == "" || cfg.Archive.S3.SecretID == "" || cfg.Archive.S3.SecretKey == "" {
			return nil, fmt.Errorf("archive.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if cfg.Archive.S3.Region == "" {
			cfg.Archive.S3.Region = "us-east-1"
		}
	default:
		return nil, fmt.Errorf("archive.type must be local or s3")
	}
	return &cfg, nil
}
