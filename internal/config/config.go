package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Network   NetworkConfig   `toml:"network"`
	Equipment EquipmentConfig `toml:"equipment"`
	Storage   StorageConfig   `toml:"storage"`
	Database  DatabaseConfig  `toml:"database"`
	Data      DataConfig      `toml:"data"`
	Journal   JournalConfig   `toml:"journal"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name" env:"ARMORY_SERVER_NAME"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address" env:"ARMORY_BIND_ADDRESS"`
	TickRate          time.Duration `toml:"tick_rate" env:"ARMORY_TICK_RATE"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
	AllowedOrigins    []string      `toml:"allowed_origins" env:"ARMORY_ALLOWED_ORIGINS" envSeparator:","`
}

type EquipmentConfig struct {
	MaxSlots int `toml:"max_slots" env:"ARMORY_MAX_SLOTS"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Capacity          int    `toml:"capacity" env:"ARMORY_STORAGE_CAPACITY"`
	Backend           string `toml:"backend" env:"ARMORY_STORAGE_BACKEND"`
	SaveIntervalTicks int    `toml:"save_interval_ticks"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"ARMORY_DATABASE_DSN"`
	SQLitePath      string        `toml:"sqlite_path" env:"ARMORY_SQLITE_PATH"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type DataConfig struct {
	ItemsPath   string `toml:"items_path" env:"ARMORY_ITEMS_PATH"`
	EffectsPath string `toml:"effects_path" env:"ARMORY_EFFECTS_PATH"`
	ScriptsDir  string `toml:"scripts_dir" env:"ARMORY_SCRIPTS_DIR"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled" env:"ARMORY_JOURNAL_ENABLED"`
	Dir     string `toml:"dir" env:"ARMORY_JOURNAL_DIR"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"ARMORY_LOG_LEVEL"`
	Format string `toml:"format" env:"ARMORY_LOG_FORMAT"` // "json" or "console"
}

// Load reads the TOML file at path over the defaults and applies ARMORY_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate clamps out-of-range values and rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.Equipment.MaxSlots < 1 {
		c.Equipment.MaxSlots = 1
	}
	if c.Equipment.MaxSlots > 10 {
		c.Equipment.MaxSlots = 10
	}
	if c.Storage.Capacity <= 0 {
		c.Storage.Capacity = 180
	}
	if c.Storage.SaveIntervalTicks <= 0 {
		c.Storage.SaveIntervalTicks = 1
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("storage backend %q needs database.dsn", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive, got %s", c.Network.TickRate)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "armory",
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7100",
			TickRate:          100 * time.Millisecond,
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       60 * time.Second,
		},
		Equipment: EquipmentConfig{
			MaxSlots: 3,
		},
		Storage: StorageConfig{
			Capacity:          180,
			Backend:           BackendSQLite,
			SaveIntervalTicks: 50,
		},
		Database: DatabaseConfig{
			DSN:             "",
			SQLitePath:      "data/armory.sqlite",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Data: DataConfig{
			ItemsPath:   "data/yaml/items.yaml",
			EffectsPath: "data/yaml/effects.yaml",
			ScriptsDir:  "scripts",
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     "data/journal",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
