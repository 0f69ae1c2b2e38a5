package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	ChatModel      string `json:"chat_model"`
	ASRModel       string `json:"asr_model"`
	EmbeddingModel string `json:"embedding_model"`

	SessionStore string `json:"session_store"` // "memory", "redis", "postgres"
	PostgresURL  string `json:"postgres_url"`
	RedisAddr    string `json:"redis_addr"`

	VectorStore string `json:"vector_store"` // "memory", "pgvector", "milvus"
	MilvusAddr  string `json:"milvus_addr"`

	YtDlpBin string `json:"ytdlp_bin"`
	DataDir  string `json:"data_dir"`

	DownloadTimeoutSec   int `json:"download_timeout_sec"`
	TranscribeTimeoutSec int `json:"transcribe_timeout_sec"`
	GenerateTimeoutSec   int `json:"generate_timeout_sec"`
}

var globalConfig *Config

// LoadConfig reads config.json if present, applies environment variable
// overrides, and caches the result for the life of the process.
func LoadConfig() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	config := defaultConfig()
	if data, err := os.ReadFile("config.json"); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config.json: %w", err)
		}
	}
	applyEnvOverrides(config)
	fillDefaults(config)

	globalConfig = config
	return globalConfig, nil
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:              "https://api.openai.com/v1",
		ChatModel:            "gpt-4o-mini",
		ASRModel:             "whisper-1",
		EmbeddingModel:       "text-embedding-3-small",
		SessionStore:         "memory",
		VectorStore:          "memory",
		YtDlpBin:             "yt-dlp",
		DataDir:              "data",
		DownloadTimeoutSec:   300,
		TranscribeTimeoutSec: 300,
		GenerateTimeoutSec:   120,
	}
}

func applyEnvOverrides(config *Config) {
	overrides := map[string]*string{
		"API_KEY":         &config.APIKey,
		"BASE_URL":        &config.BaseURL,
		"CHAT_MODEL":      &config.ChatModel,
		"ASR_MODEL":       &config.ASRModel,
		"EMBEDDING_MODEL": &config.EmbeddingModel,
		"SESSION_STORE":   &config.SessionStore,
		"POSTGRES_URL":    &config.PostgresURL,
		"REDIS_ADDR":      &config.RedisAddr,
		"VECTOR_STORE":    &config.VectorStore,
		"MILVUS_ADDR":     &config.MilvusAddr,
		"YTDLP_BIN":       &config.YtDlpBin,
		"DATA_DIR":        &config.DataDir,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	timeouts := map[string]*int{
		"DOWNLOAD_TIMEOUT_SEC":   &config.DownloadTimeoutSec,
		"TRANSCRIBE_TIMEOUT_SEC": &config.TranscribeTimeoutSec,
		"GENERATE_TIMEOUT_SEC":   &config.GenerateTimeoutSec,
	}
	for key, field := range timeouts {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*field = n
			}
		}
	}
}

func fillDefaults(config *Config) {
	def := defaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.ChatModel == "" {
		config.ChatModel = def.ChatModel
	}
	if config.ASRModel == "" {
		config.ASRModel = def.ASRModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = def.EmbeddingModel
	}
	if config.SessionStore == "" {
		config.SessionStore = def.SessionStore
	}
	if config.VectorStore == "" {
		config.VectorStore = def.VectorStore
	}
	if config.YtDlpBin == "" {
		config.YtDlpBin = def.YtDlpBin
	}
	if config.DataDir == "" {
		config.DataDir = def.DataDir
	}
	if config.DownloadTimeoutSec <= 0 {
		config.DownloadTimeoutSec = def.DownloadTimeoutSec
	}
	if config.TranscribeTimeoutSec <= 0 {
		config.TranscribeTimeoutSec = def.TranscribeTimeoutSec
	}
	if config.GenerateTimeoutSec <= 0 {
		config.GenerateTimeoutSec = def.GenerateTimeoutSec
	}
}

func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.BaseURL) == "" {
		errors = append(errors, "Base URL is required")
	}
	if strings.TrimSpace(c.ChatModel) == "" {
		errors = append(errors, "Chat model is required")
	}
	if strings.TrimSpace(c.ASRModel) == "" {
		errors = append(errors, "ASR model is required")
	}
	switch strings.ToLower(c.SessionStore) {
	case "memory", "redis", "postgres":
	default:
		errors = append(errors, fmt.Sprintf("unknown session store %q", c.SessionStore))
	}
	switch strings.ToLower(c.VectorStore) {
	case "memory", "pgvector", "milvus":
	default:
		errors = append(errors, fmt.Sprintf("unknown vector store %q", c.VectorStore))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// HasValidAPI reports whether upstream API credentials are configured. When
// false the service runs with mock providers.
func (c *Config) HasValidAPI() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.BaseURL) != ""
}
