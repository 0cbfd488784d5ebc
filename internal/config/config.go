// Package config loads workbench settings from defaults, an optional YAML
// file and WORKBENCH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// PathEnvVar overrides the config file search.
const PathEnvVar = "WORKBENCH_CONFIG"

const envPrefix = "WORKBENCH_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Storage  StorageConfig  `koanf:"storage"`
	Secret   SecretConfig   `koanf:"secret"`
	Notes    NotesConfig    `koanf:"notes"`
	SQL      SQLConfig      `koanf:"sql"`
	Requests RequestsConfig `koanf:"requests"`
	Backup   BackupConfig   `koanf:"backup"`
	MCP      MCPConfig      `koanf:"mcp"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig selects where flat documents (notes, saved queries, ...) live.
// Backend "json" writes one file per document into DataDir.
type StorageConfig struct {
	Backend string `koanf:"backend"`
	DataDir string `koanf:"data_dir"`
}

// SecretConfig supplies the master secret for the encrypted connection store.
// When Key is empty the key is read from KeyFile, which is created on first use.
type SecretConfig struct {
	Key     string `koanf:"key"`
	KeyFile string `koanf:"key_file"`
}

type NotesConfig struct {
	Root  string `koanf:"root"`
	Watch bool   `koanf:"watch"`
}

// SQLConfig bounds query execution. Zero means unbounded.
type SQLConfig struct {
	QueryTimeout time.Duration `koanf:"query_timeout"`
	MaxRows      int           `koanf:"max_rows"`
}

type RequestsConfig struct {
	CurlPath string        `koanf:"curl_path"`
	Timeout  time.Duration `koanf:"timeout"`
}

type BackupConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
	Dir      string `koanf:"dir"`
	Keep     int    `koanf:"keep"`
}

type MCPConfig struct {
	Name string `koanf:"name"`
}

// Default returns the built-in configuration. Data lives in the working
// directory, matching where the flat JSON files were always written.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Backend: "json",
			DataDir: ".",
		},
		Secret: SecretConfig{
			KeyFile: ".workbench.key",
		},
		Notes: NotesConfig{
			Root:  "notes",
			Watch: true,
		},
		Requests: RequestsConfig{
			CurlPath: "curl",
		},
		Backup: BackupConfig{
			Enabled:  false,
			Schedule: "@daily",
			Dir:      "backups",
			Keep:     7,
		},
		MCP: MCPConfig{
			Name: "workbench",
		},
	}
}

// DefaultPaths are searched in order when PathEnvVar is unset.
func DefaultPaths() []string {
	paths := []string{"workbench.yaml", "workbench.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "workbench", "config.yaml"))
	}
	return paths
}

// Load builds the configuration from all layers and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sections lists the top-level keys; env names split after the section
// prefix so WORKBENCH_SQL_QUERY_TIMEOUT maps to sql.query_timeout.
var sections = []string{"server", "logging", "storage", "secret", "notes", "sql", "requests", "backup", "mcp"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if key == "config" {
		return ""
	}
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// Validate checks enumerated values and the backup schedule.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "json", "badger", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be json, badger or sqlite, got %q", c.Storage.Backend))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.SQL.MaxRows < 0 {
		errs = append(errs, errors.New("sql.max_rows cannot be negative"))
	}
	if c.Backup.Enabled {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("backup.schedule: %w", err))
		}
		if c.Backup.Keep < 1 {
			errs = append(errs, errors.New("backup.keep must be at least 1"))
		}
	}
	return errors.Join(errs...)
}

// DataPath resolves name inside the storage data directory.
func (c *Config) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Storage.DataDir, name)
}
