package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageTypeFile   = "file"
	StorageTypeBadger = "badger"
	StorageTypeRedis  = "redis"
	StorageTypeMemory = "memory"
)

// Config is the full daemon configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Misc    MiscConfig    `mapstructure:"misc"`
}

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutDownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
}

// APIConfig points at the WordPress REST namespace serving festival content.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	SchedulePath      string        `mapstructure:"schedule_path"`
	ChangesPath       string        `mapstructure:"changes_path"`
	AnnouncementsPath string        `mapstructure:"announcements_path"`
	VenuesPath        string        `mapstructure:"venues_path"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	FilePath      string `mapstructure:"file_path"`
	Watch         bool   `mapstructure:"watch"`
	BadgerDir     string `mapstructure:"badger_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

type SyncConfig struct {
	PollInterval              time.Duration `mapstructure:"poll_interval"`
	ConnectivityProbeURL      string        `mapstructure:"connectivity_probe_url"`
	ConnectivityInterval      time.Duration `mapstructure:"connectivity_interval"`
	TimeLocation              string        `mapstructure:"time_location"`
	ChronologicalTimeSections bool          `mapstructure:"chronological_time_sections"`
}

type MiscConfig struct {
	GinMode   string `mapstructure:"gin_mode"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// LoadConfig reads config.yaml from FESTSYNC_CONFIG_PATH (default ./config).
func LoadConfig() (*Config, error) {
	confPath := os.Getenv("FESTSYNC_CONFIG_PATH")
	if confPath == "" {
		confPath = "./config"
	}
	return LoadConfigFrom(confPath)
}

// LoadConfigFrom reads config.yaml from confPath, then applies .env and FESTSYNC_* overrides.
func LoadConfigFrom(confPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(confPath)
	setDefaults(v)

	// Environment variables like FESTSYNC_SERVER_PORT override server.port
	v.SetEnvPrefix("FESTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("api.base_url", "https://example.com/wp-json")
	v.SetDefault("api.schedule_path", "/bumbershoot/v1/events")
	v.SetDefault("api.changes_path", "/bumbershoot/v1/changes")
	v.SetDefault("api.announcements_path", "/bumbershoot/v1/announcements")
	v.SetDefault("api.venues_path", "/bumbershoot/v1/venues")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("storage.type", StorageTypeFile)
	v.SetDefault("storage.file_path", "./data/store.json")
	v.SetDefault("storage.watch", true)
	v.SetDefault("storage.badger_dir", "./data/badger")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "festsync:")

	v.SetDefault("sync.poll_interval", time.Minute)
	v.SetDefault("sync.connectivity_probe_url", "https://example.com/wp-json")
	v.SetDefault("sync.connectivity_interval", 30*time.Second)
	v.SetDefault("sync.time_location", "Local")
	v.SetDefault("sync.chronological_time_sections", false)

	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.log_format", "text")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout < 0 {
		return errors.New("server request timeout cannot be negative")
	}

	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api base url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}

	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.FilePath == "" {
			return errors.New("storage file path is required for file storage")
		}
	case StorageTypeBadger:
		if c.Storage.BadgerDir == "" {
			return errors.New("storage badger dir is required for badger storage")
		}
	case StorageTypeRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage redis addr is required for redis storage")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unknown storage type: %s (supported: %s, %s, %s, %s)",
			c.Storage.Type, StorageTypeFile, StorageTypeBadger, StorageTypeRedis, StorageTypeMemory)
	}

	if c.Sync.PollInterval <= 0 {
		return errors.New("sync poll interval must be positive")
	}
	if c.Sync.ConnectivityInterval <= 0 {
		return errors.New("sync connectivity interval must be positive")
	}
	if _, err := c.Sync.Location(); err != nil {
		return fmt.Errorf("invalid sync time location: %w", err)
	}

	return nil
}

// Location resolves the time-bucket location; "" and "Local" map to time.Local.
func (s SyncConfig) Location() (*time.Location, error) {
	if s.TimeLocation == "" || s.TimeLocation == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.TimeLocation)
}
