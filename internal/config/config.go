package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Storage     StorageConfig     `yaml:"storage"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Auth        AuthConfig        `yaml:"auth"`
	Upload      UploadConfig      `yaml:"upload"`
	Ranking     RankingConfig     `yaml:"ranking"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// APIKey guards the identity provider hook.
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
	// Migrate applies the embedded schema on startup.
	Migrate bool `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKey       string `yaml:"access_key"`
	SecretKey       string `yaml:"secret_key"`
	VideoBucket     string `yaml:"video_bucket"`
	ThumbnailBucket string `yaml:"thumbnail_bucket"`
	UseSSL          bool   `yaml:"use_ssl"`
	Region          string `yaml:"region"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type UploadConfig struct {
	// Password gates upload URL issuance. Empty disables the check.
	Password string        `yaml:"password"`
	URLTTL   time.Duration `yaml:"url_ttl"`
}

type RankingConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type LeaderboardConfig struct {
	DefaultTopN int `yaml:"default_top_n"`
	MaxTopN     int `yaml:"max_top_n"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env files, the YAML config at path (optional when path is
// empty) and applies LIFTLOG_* environment overrides on top.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(path); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case StorageBackendPostgres, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Leaderboard.DefaultTopN > c.Leaderboard.MaxTopN {
		return errors.New("leaderboard default_top_n exceeds max_top_n")
	}
	return nil
}

// loadEnvFiles loads .env next to the config file and in the working
// directory. Variables already set in the environment win.
func loadEnvFiles(path string) error {
	var files []string
	seen := map[string]struct{}{}
	for _, dir := range []string{filepath.Dir(path), "."} {
		fp := filepath.Clean(filepath.Join(dir, ".env"))
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		if _, err := os.Stat(fp); err != nil {
			continue
		}
		files = append(files, fp)
	}
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendPostgres
	}
	if cfg.MinIO.VideoBucket == "" {
		cfg.MinIO.VideoBucket = "liftlog-raw-videos"
	}
	if cfg.MinIO.ThumbnailBucket == "" {
		cfg.MinIO.ThumbnailBucket = "liftlog-thumbnails"
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = "us-east-1"
	}
	if cfg.Upload.URLTTL == 0 {
		cfg.Upload.URLTTL = 15 * time.Minute
	}
	if cfg.Ranking.MaxAttempts == 0 {
		cfg.Ranking.MaxAttempts = 5
	}
	if cfg.Leaderboard.DefaultTopN == 0 {
		cfg.Leaderboard.DefaultTopN = 100
	}
	if cfg.Leaderboard.MaxTopN == 0 {
		cfg.Leaderboard.MaxTopN = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LIFTLOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTLOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTLOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTLOG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTLOG_DB_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Migrate = b
		}
	}
	if v := os.Getenv("LIFTLOG_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LIFTLOG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("LIFTLOG_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("LIFTLOG_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("LIFTLOG_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("LIFTLOG_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LIFTLOG_UPLOAD_PASSWORD"); v != "" {
		cfg.Upload.Password = v
	}
	if v := os.Getenv("LIFTLOG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
