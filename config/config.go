package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	// UserID identifies the device owner; the sync coordinator is a no-op
	// while it is unset.
	UserID       string             `yaml:"user_id"`
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Sync         SyncConfig         `yaml:"sync"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Scanner      ScannerConfig      `yaml:"scanner"`
	DrugDB       DrugDBConfig       `yaml:"drugdb"`
	Push         PushConfig         `yaml:"push"`
	Reminder     ReminderConfig     `yaml:"reminder"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the local database connection configuration.
// The default driver is sqlite because the pending-dose queue is local
// durable storage; postgres remains selectable for shared deployments.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// SyncConfig holds the sync coordinator configuration.
type SyncConfig struct {
	IntervalSeconds    int           `yaml:"interval_seconds"`
	Interval           time.Duration `yaml:"-"` // Ignored by YAML parser
	SettleDelaySeconds int           `yaml:"settle_delay_seconds"`
	SettleDelay        time.Duration `yaml:"-"`
	Remote             RemoteConfig  `yaml:"remote"`
}

// RemoteConfig describes the hosted remote dose store.
type RemoteConfig struct {
	BaseURL        string            `yaml:"base_url"`
	APIKey         string            `yaml:"api_key"`
	Table          string            `yaml:"table"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// ConnectivityConfig holds the network probe configuration.
type ConnectivityConfig struct {
	ProbeURL             string        `yaml:"probe_url"`
	ProbeIntervalSeconds int           `yaml:"probe_interval_seconds"`
	ProbeInterval        time.Duration `yaml:"-"`
	ProbeTimeoutSeconds  int           `yaml:"probe_timeout_seconds"`
}

// ScannerConfig holds the scanner lifecycle controller configuration.
type ScannerConfig struct {
	DebounceMillis  int           `yaml:"debounce_millis"`
	Debounce        time.Duration `yaml:"-"`
	FrameRate       int           `yaml:"frame_rate"`
	ScanBoxPx       int           `yaml:"scan_box_px"`
	LowEndFrameRate int           `yaml:"low_end_frame_rate"`
	LowEndScanBoxPx int           `yaml:"low_end_scan_box_px"`
}

// DrugDBConfig holds the external drug database client configuration.
type DrugDBConfig struct {
	LookupURL       string `yaml:"lookup_url"`
	InteractionURL  string `yaml:"interaction_url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ReminderConfig holds the reminder scheduler configuration.
type ReminderConfig struct {
	Enabled              bool          `yaml:"enabled"`
	CheckIntervalSeconds int           `yaml:"check_interval_seconds"`
	CheckInterval        time.Duration `yaml:"-"`
	Timezone             string        `yaml:"timezone"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
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

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "vigil.db"
	}

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 60
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second

	if cfg.Sync.SettleDelaySeconds <= 0 {
		cfg.Sync.SettleDelaySeconds = 2
	}
	cfg.Sync.SettleDelay = time.Duration(cfg.Sync.SettleDelaySeconds) * time.Second

	if cfg.Sync.Remote.Table == "" {
		cfg.Sync.Remote.Table = "dose_logs"
	}
	if cfg.Sync.Remote.TimeoutSeconds <= 0 {
		cfg.Sync.Remote.TimeoutSeconds = 15
	}

	if cfg.Connectivity.ProbeIntervalSeconds <= 0 {
		cfg.Connectivity.ProbeIntervalSeconds = 10
	}
	cfg.Connectivity.ProbeInterval = time.Duration(cfg.Connectivity.ProbeIntervalSeconds) * time.Second
	if cfg.Connectivity.ProbeTimeoutSeconds <= 0 {
		cfg.Connectivity.ProbeTimeoutSeconds = 5
	}

	if cfg.Scanner.DebounceMillis <= 0 {
		cfg.Scanner.DebounceMillis = 3000
	}
	cfg.Scanner.Debounce = time.Duration(cfg.Scanner.DebounceMillis) * time.Millisecond
	if cfg.Scanner.FrameRate <= 0 {
		cfg.Scanner.FrameRate = 10
	}
	if cfg.Scanner.ScanBoxPx <= 0 {
		cfg.Scanner.ScanBoxPx = 280
	}
	if cfg.Scanner.LowEndFrameRate <= 0 {
		cfg.Scanner.LowEndFrameRate = 5
	}
	if cfg.Scanner.LowEndScanBoxPx <= 0 {
		cfg.Scanner.LowEndScanBoxPx = 200
	}

	if cfg.DrugDB.CacheTTLSeconds <= 0 {
		cfg.DrugDB.CacheTTLSeconds = 3600
	}
	if cfg.DrugDB.TimeoutSeconds <= 0 {
		cfg.DrugDB.TimeoutSeconds = 10
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Reminder.CheckIntervalSeconds <= 0 {
		cfg.Reminder.CheckIntervalSeconds = 60
	}
	cfg.Reminder.CheckInterval = time.Duration(cfg.Reminder.CheckIntervalSeconds) * time.Second
	if cfg.Reminder.Timezone == "" {
		cfg.Reminder.Timezone = "UTC"
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
