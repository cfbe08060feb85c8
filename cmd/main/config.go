package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"

	"github.com/cloudbrowse/cloudbrowse/pkg/templating"
)

// ServerConfig holds the configuration for the HTTP server and the storage
// backend behind it. Every field can also be supplied through the
// environment, which wins over the config file.
type ServerConfig struct {
	ServerAddr          string `json:"server_addr" env:"CLOUDBROWSE_ADDR"`
	LogLevel            string `json:"log_level" env:"CLOUDBROWSE_LOG_LEVEL"`
	DataDir             string `json:"data_dir" env:"CLOUDBROWSE_DATA_DIR"`
	SessionDatabasePath string `json:"session_database_path" env:"CLOUDBROWSE_SESSION_DB"`
	FlashMaxAgeHours    int    `json:"flash_max_age_hours" env:"CLOUDBROWSE_FLASH_MAX_AGE_HOURS"`

	// StorageBackend selects what the browser browses: "local" or "s3".
	StorageBackend   string `json:"storage_backend" env:"CLOUDBROWSE_STORAGE_BACKEND"`
	LocalStorageRoot string `json:"local_storage_root" env:"CLOUDBROWSE_LOCAL_ROOT"`
	S3Region         string `json:"s3_region" env:"CLOUDBROWSE_S3_REGION"`
	S3AccessKeyID    string `json:"s3_access_key_id" env:"CLOUDBROWSE_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `json:"s3_secret_key" env:"CLOUDBROWSE_S3_SECRET_KEY"`
	S3Endpoint       string `json:"s3_endpoint" env:"CLOUDBROWSE_S3_ENDPOINT"`
	S3ForcePathStyle bool   `json:"s3_force_path_style" env:"CLOUDBROWSE_S3_FORCE_PATH_STYLE"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:          ":7380",
		LogLevel:            "info",
		DataDir:             "./data",
		// Kept free of driver-specific query parameters so both sqlite
		// drivers accept it unchanged.
		SessionDatabasePath: "./data/cloudbrowse_sessions.db",
		FlashMaxAgeHours:    24,
		StorageBackend:      "local",
		LocalStorageRoot:    "./data/containers",
	}
}

// LoadConfig reads the configuration from a JSON file at the given path and
// then applies environment overrides. If the file doesn't exist, it creates
// one with default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Server:    DefaultServerConfig(),
		Templates: templating.DefaultConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, applyEnvOverrides(config)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, applyEnvOverrides(config)
}

func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config.Server); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// ConfigManager handles thread-safe access to configuration and persistence
// of updates.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	tm         *templating.TemplateManager
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetTemplateManager registers the template manager to receive config updates.
func (cm *ConfigManager) SetTemplateManager(tm *templating.TemplateManager) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tm = tm
	if tm != nil {
		tm.SetConfig(cm.config.Templates)
	}
}

// SetLogger sets the logger. That's about it.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Update updates the configuration, applies it to the template manager, and
// saves it to disk. A template configuration the manager rejects rolls back.
func (cm *ConfigManager) Update(newConfig Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.tm != nil {
		oldTmplConfig := cm.config.Templates

		cm.tm.SetConfig(newConfig.Templates)
		if err := cm.tm.Refresh(); err != nil {
			cm.tm.SetConfig(oldTmplConfig)
			_ = cm.tm.Refresh()
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}

	*cm.config = newConfig

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
