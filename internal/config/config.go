package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/claude/wodlog/internal/training"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Backup    BackupConfig    `yaml:"backup"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Tuning    TuningConfig    `yaml:"tuning"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	Path     string         `yaml:"path"`   // sqlite database file
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type BackupConfig struct {
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"` // cron expression; empty disables scheduled snapshots
	Keep     int    `yaml:"keep"`
}

type CatalogConfig struct {
	Name string `yaml:"name"` // v1 or v2
	Path string `yaml:"path"` // external YAML catalog, overrides Name
}

// TuningConfig holds the improvement-detection thresholds and ranking size.
type TuningConfig struct {
	ImprovementMinKg           float64 `yaml:"improvement_min_kg"`
	ImprovementMinRatio        float64 `yaml:"improvement_min_ratio"`
	ImprovementMinPercentOfMax float64 `yaml:"improvement_min_percent_of_max"`
	ImprovementMaxReps         int     `yaml:"improvement_max_reps"`
	TopN                       int     `yaml:"top_n"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Rule returns the improvement rule described by the tuning section.
func (t TuningConfig) Rule() training.ImprovementRule {
	r := training.DefaultImprovementRule()
	r.MinGainKg = t.ImprovementMinKg
	r.MinGainRatio = t.ImprovementMinRatio
	r.MinPercentOfMax = t.ImprovementMinPercentOfMax
	r.MaxReps = t.ImprovementMaxReps
	return r
}

func defaults() *Config {
	rule := training.DefaultImprovementRule()
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage: StorageConfig{Driver: "sqlite", Path: "data/wodlog.db"},
		Log:     LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
		Backup:  BackupConfig{Dir: "data/backups", Keep: 14},
		Catalog: CatalogConfig{Name: "v1"},
		Tuning: TuningConfig{
			ImprovementMinKg:           rule.MinGainKg,
			ImprovementMinRatio:        rule.MinGainRatio,
			ImprovementMinPercentOfMax: rule.MinPercentOfMax,
			ImprovementMaxReps:         rule.MaxReps,
			TopN:                       10,
		},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file next to the config file, if present, is loaded into the
// environment first; variables that are already set win.
// Env vars use the prefix WODLOG_ and underscore-separated paths:
//
//	WODLOG_SERVER_HOST, WODLOG_SERVER_PORT,
//	WODLOG_STORAGE_DRIVER, WODLOG_STORAGE_PATH,
//	WODLOG_DB_HOST, WODLOG_DB_PORT, WODLOG_DB_NAME,
//	WODLOG_DB_USER, WODLOG_DB_PASSWORD, WODLOG_DB_SSLMODE,
//	WODLOG_AUTH_API_KEY, WODLOG_TAILSCALE_ENABLED,
//	WODLOG_LOG_LEVEL, WODLOG_LOG_FILE,
//	WODLOG_BACKUP_DIR, WODLOG_BACKUP_SCHEDULE, WODLOG_CATALOG_NAME
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("WODLOG_SERVER_HOST", &cfg.Server.Host)
	setInt("WODLOG_SERVER_PORT", &cfg.Server.Port)
	setString("WODLOG_STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("WODLOG_STORAGE_PATH", &cfg.Storage.Path)
	setString("WODLOG_DB_HOST", &cfg.Storage.Database.Host)
	setInt("WODLOG_DB_PORT", &cfg.Storage.Database.Port)
	setString("WODLOG_DB_NAME", &cfg.Storage.Database.Name)
	setString("WODLOG_DB_USER", &cfg.Storage.Database.User)
	setString("WODLOG_DB_PASSWORD", &cfg.Storage.Database.Password)
	setString("WODLOG_DB_SSLMODE", &cfg.Storage.Database.SSLMode)
	setString("WODLOG_AUTH_API_KEY", &cfg.Auth.APIKey)
	if v := os.Getenv("WODLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("WODLOG_LOG_LEVEL", &cfg.Log.Level)
	setString("WODLOG_LOG_FILE", &cfg.Log.File)
	setString("WODLOG_BACKUP_DIR", &cfg.Backup.Dir)
	setString("WODLOG_BACKUP_SCHEDULE", &cfg.Backup.Schedule)
	setString("WODLOG_CATALOG_NAME", &cfg.Catalog.Name)
}

func (c *Config) validate() error {
	if !c.Tailscale.Enabled && c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		d := c.Storage.Database
		if d.Host == "" {
			return fmt.Errorf("storage.database.host is required")
		}
		if d.Port == 0 {
			return fmt.Errorf("storage.database.port is required")
		}
		if d.Name == "" {
			return fmt.Errorf("storage.database.name is required")
		}
		if d.User == "" {
			return fmt.Errorf("storage.database.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.Backup.Schedule != "" && c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required when backup.schedule is set")
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}

	if c.Catalog.Path == "" && c.Catalog.Name != "v1" && c.Catalog.Name != "v2" {
		return fmt.Errorf("catalog.name must be v1 or v2, got %q", c.Catalog.Name)
	}

	t := c.Tuning
	if t.ImprovementMinKg < 0 || t.ImprovementMinRatio < 0 || t.ImprovementMinPercentOfMax < 0 {
		return fmt.Errorf("tuning thresholds must not be negative")
	}
	if t.ImprovementMaxReps < 1 {
		return fmt.Errorf("tuning.improvement_max_reps must be at least 1")
	}
	if t.TopN < 1 {
		return fmt.Errorf("tuning.top_n must be at least 1")
	}
	return nil
}
