package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig groups the network listeners.
type ServerConfig struct {
	HTTP            HTTPConfig      `mapstructure:"http"`
	GRPC            GRPCConfig      `mapstructure:"grpc"`
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// StorageConfig selects where games are persisted.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds engine defaults for new games.
type GameConfig struct {
	WinningPoints    int    `mapstructure:"winning_points"`
	DiscardLimit     int    `mapstructure:"discard_limit"`
	RandomSeed       int64  `mapstructure:"random_seed"`
	AllowForcedRolls bool   `mapstructure:"allow_forced_rolls"`
	ReplayDir        string `mapstructure:"replay_dir"`
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.address", ":8080")
	v.SetDefault("server.http.mode", "release")
	v.SetDefault("server.grpc.address", ":9090")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8081")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.winning_points", 10)
	v.SetDefault("game.discard_limit", 7)
}

// Load reads the configuration file at path. Every key can be overridden by
// an environment variable, e.g. CATAN_DATABASE_URL for database.url. A
// missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CATAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// AutomaticEnv only covers keys viper already knows about
	for _, key := range []string{"database.url", "game.random_seed", "game.allow_forced_rolls", "game.replay_dir"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the server cannot start without.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the %s storage driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Game.WinningPoints < 3 {
		return fmt.Errorf("game.winning_points must be at least 3, got %d", c.Game.WinningPoints)
	}
	if c.Game.DiscardLimit < 1 {
		return fmt.Errorf("game.discard_limit must be positive, got %d", c.Game.DiscardLimit)
	}
	if c.Server.GRPC.MaxConcurrentStreams <= 0 {
		return fmt.Errorf("server.grpc.max_concurrent_streams must be positive")
	}
	return nil
}
