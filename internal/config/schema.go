package config

import "time"

// Target backends.
const (
	BackendNotion = "notion"
	BackendDefra  = "defra"
)

// Config holds marginalia configuration.
// Stored at: ~/.marginalia/config.yaml
type Config struct {
	WeRead  WeReadConfig  `mapstructure:"weread" yaml:"weread"`
	Target  TargetConfig  `mapstructure:"target" yaml:"target"`
	Notion  NotionConfig  `mapstructure:"notion" yaml:"notion"`
	Defra   DefraConfig   `mapstructure:"defra" yaml:"defra"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// WeReadConfig configures the reading-service client.
type WeReadConfig struct {
	Cookie      string        `mapstructure:"cookie" yaml:"cookie"` // Raw Cookie header (supports ${ENV_VAR} syntax)
	WebURL      string        `mapstructure:"web_url" yaml:"web_url"`
	APIURL      string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts uint          `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// TargetConfig selects where book pages are written.
type TargetConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "notion" or "defra"
}

// NotionConfig configures the Notion database target.
type NotionConfig struct {
	Token      string `mapstructure:"token" yaml:"token"`             // Integration token (supports ${ENV_VAR} syntax)
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"` // Target database (supports ${ENV_VAR} syntax)
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Version    string `mapstructure:"version" yaml:"version"`
}

// DefraConfig holds DefraDB connection and container configuration.
type DefraConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// ContainerName is the Docker container name (default: marginalia-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// SyncConfig controls a sync run.
type SyncConfig struct {
	BookDelay time.Duration `mapstructure:"book_delay" yaml:"book_delay"`
	Full      bool          `mapstructure:"full" yaml:"full"`
	DryRun    bool          `mapstructure:"dry_run" yaml:"dry_run"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"` // 0 runs once
}

// HistoryConfig controls recording of per-book sync events in DefraDB.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // Empty logs to ~/.marginalia/logs/marginalia.log
}
