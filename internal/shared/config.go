package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	CatalogMemory = "memory"
	CatalogSQLite = "sqlite"

	StorageLocal  = "local"
	StorageGitHub = "github"

	IndexBestEffort = "best-effort"
	IndexStrict     = "strict"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Intake   IntakeConfig   `toml:"intake"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	PublicURL    string   `toml:"public_url"`
	MaxUploadMB  int64    `toml:"max_upload_mb"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	UploadRate   float64  `toml:"upload_rate"`
	UploadBurst  int      `toml:"upload_burst"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes returns the upload body limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// CatalogConfig selects the catalog backend and its seed entries.
type CatalogConfig struct {
	Backend string       `toml:"backend"`
	Seed    []SeedConfig `toml:"seed"`
}

// SeedConfig is a song added to the catalog at startup.
type SeedConfig struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig contains settings for where uploaded bytes are written.
type StorageConfig struct {
	Backend     string       `toml:"backend"`
	Dir         string       `toml:"dir"`
	BaseURL     string       `toml:"base_url"`
	MaxAttempts int          `toml:"max_attempts"`
	RetryDelay  Duration     `toml:"retry_delay"`
	GitHub      GitHubConfig `toml:"github"`
}

// GitHubConfig contains repository coordinates for the GitHub storage backend.
type GitHubConfig struct {
	Owner  string `toml:"owner"`
	Repo   string `toml:"repo"`
	Branch string `toml:"branch"`
	Path   string `toml:"path"`
	Token  string `toml:"token"`
	APIURL string `toml:"api_url"`
}

// IntakeConfig contains upload pipeline settings.
type IntakeConfig struct {
	IndexPolicy string `toml:"index_policy"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "500ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Catalog.Seed = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from SONGDROP_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SONGDROP_PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("SONGDROP_BASE_URL"); v != "" {
		c.Storage.BaseURL = v
	}
	if v := os.Getenv("SONGDROP_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("SONGDROP_GITHUB_TOKEN"); v != "" {
		c.Storage.GitHub.Token = v
	}
	if v := os.Getenv("SONGDROP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// MediaBaseURL returns the URL prefix for stored files.
//
// Defaults to the public server URL + "/media/" for the local backend.
func (c *Config) MediaBaseURL() string {
	if c.Storage.BaseURL != "" {
		return withSlash(c.Storage.BaseURL)
	}
	return withSlash(c.Server.PublicURL) + "media/"
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case CatalogMemory, CatalogSQLite:
	default:
		return fmt.Errorf("%w: unknown catalog backend %q", ErrInvalidConfig, c.Catalog.Backend)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageGitHub:
		if c.Storage.GitHub.Owner == "" || c.Storage.GitHub.Repo == "" {
			return fmt.Errorf("%w: github storage requires owner and repo", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	switch c.Intake.IndexPolicy {
	case IndexBestEffort, IndexStrict:
	default:
		return fmt.Errorf("%w: unknown index policy %q", ErrInvalidConfig, c.Intake.IndexPolicy)
	}

	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
