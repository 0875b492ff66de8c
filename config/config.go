package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Bus        BusConfig        `yaml:"bus"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Broadcast  BroadcastConfig  `yaml:"broadcast"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	Seed                   bool   `yaml:"seed"`
}

// BusConfig holds the connection settings for the external event bus.
type BusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the push alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// SchedulingConfig holds the order scheduling parameters.
type SchedulingConfig struct {
	// Every scheduled order occupies its equipment for this fixed window.
	SlotMinutes int           `yaml:"slot_minutes"`
	Slot        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// BroadcastConfig bounds the best-effort real-time delivery step.
type BroadcastConfig struct {
	TimeoutMillis int           `yaml:"timeout_millis"`
	Timeout       time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}

	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Bus.Exchange == "" {
		cfg.Bus.Exchange = "equipment-tracker"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Scheduling.SlotMinutes <= 0 {
		cfg.Scheduling.SlotMinutes = 120
	}
	cfg.Scheduling.Slot = time.Duration(cfg.Scheduling.SlotMinutes) * time.Minute

	if cfg.Broadcast.TimeoutMillis <= 0 {
		cfg.Broadcast.TimeoutMillis = 500
	}
	cfg.Broadcast.Timeout = time.Duration(cfg.Broadcast.TimeoutMillis) * time.Millisecond

	return &cfg, nil
}
