package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Build  BuildConfig  `yaml:"build"`
	Mirror MirrorConfig `yaml:"mirror"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type BuildConfig struct {
	// WorkspaceRoot holds the per-build scratch directories.
	WorkspaceRoot string `yaml:"workspace_root"`
	// ArtifactDir holds finished artifacts.
	ArtifactDir string `yaml:"artifact_dir"`
	// StageTimeout bounds each toolchain stage.
	StageTimeout time.Duration `yaml:"stage_timeout"`
	// MaxConcurrent bounds simultaneous builds; 0 means unbounded.
	MaxConcurrent int64 `yaml:"max_concurrent"`
}

// MirrorConfig configures the optional object storage mirror for
// finished artifacts.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "appforge.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Build: BuildConfig{
			WorkspaceRoot: "workspaces",
			ArtifactDir:   "artifacts",
			StageTimeout:  10 * time.Minute,
			MaxConcurrent: 2,
		},
		Mirror: MirrorConfig{
			Bucket: "appforge-artifacts",
		},
	}

	if path := os.Getenv("APPFORGE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("APPFORGE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("APPFORGE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APPFORGE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("APPFORGE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("APPFORGE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if root := os.Getenv("APPFORGE_WORKSPACE_ROOT"); root != "" {
		cfg.Build.WorkspaceRoot = root
	}
	if dir := os.Getenv("APPFORGE_ARTIFACT_DIR"); dir != "" {
		cfg.Build.ArtifactDir = dir
	}
	if timeoutStr := os.Getenv("APPFORGE_STAGE_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APPFORGE_STAGE_TIMEOUT: %w", err)
		}
		cfg.Build.StageTimeout = timeout
	}
	if maxStr := os.Getenv("APPFORGE_MAX_CONCURRENT_BUILDS"); maxStr != "" {
		max, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APPFORGE_MAX_CONCURRENT_BUILDS: %w", err)
		}
		cfg.Build.MaxConcurrent = max
	}
	if endpoint := os.Getenv("APPFORGE_MIRROR_ENDPOINT"); endpoint != "" {
		cfg.Mirror.Enabled = true
		cfg.Mirror.Endpoint = endpoint
	}
	if key := os.Getenv("APPFORGE_MIRROR_ACCESS_KEY"); key != "" {
		cfg.Mirror.AccessKey = key
	}
	if secret := os.Getenv("APPFORGE_MIRROR_SECRET_KEY"); secret != "" {
		cfg.Mirror.SecretKey = secret
	}
	if bucket := os.Getenv("APPFORGE_MIRROR_BUCKET"); bucket != "" {
		cfg.Mirror.Bucket = bucket
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
