package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"leftasrain/internal/leftasrain"
)

// Config contains the program configuration
type Config struct {
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	DBFile       string        `yaml:"db_file" validate:"required"`
	RemoteURLs   bool          `yaml:"remote_urls"`
	NextTrackURL string        `yaml:"next_track_url" validate:"required,url"`
	SongURL      string        `yaml:"song_url" validate:"required,url"`
	CoverURL     string        `yaml:"cover_url" validate:"required,contains=%s"`
	ListenAddr   string        `yaml:"listen_addr" validate:"required,hostname_port"`
	SaveEvery    int           `yaml:"save_every" validate:"gte=0"`
	Verbose      bool          `yaml:"verbose"`
	Log          Log           `yaml:"log"`
}

// Log configures logging output
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json logfmt"`
	File   string `yaml:"file"`
}

// Environment variables overriding the config file.
const (
	EnvTimeout    = "LEFTASRAIN_TIMEOUT"
	EnvDBFile     = "LEFTASRAIN_DB_FILE"
	EnvRemoteURLs = "LEFTASRAIN_REMOTE_URLS"
	EnvListenAddr = "LEFTASRAIN_LISTEN_ADDR"
	EnvLogLevel   = "LEFTASRAIN_LOG_LEVEL"
)

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		DBFile:       filepath.Join(GetDefaultDataPath(), "leftasrain.json"),
		NextTrackURL: leftasrain.DefaultNextTrackURL,
		SongURL:      leftasrain.DefaultSongURL,
		CoverURL:     leftasrain.DefaultCoverURL,
		ListenAddr:   ":8080",
		SaveEvery:    25,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile loads configuration from a YAML file and applies environment
// overrides, including those from a .env file next to the working directory.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}

	if path == "" {
		path = FindConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.DBFile = ExpandHome(cfg.DBFile)
	cfg.Log.File = ExpandHome(cfg.Log.File)

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file. A missing file is not an error.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with LEFTASRAIN_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvDBFile); v != "" {
		cfg.DBFile = v
	}
	if v := os.Getenv(EnvRemoteURLs); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRemoteURLs, v, err)
		}
		cfg.RemoteURLs = b
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./leftasrain.yaml",
		"./leftasrain.yml",
		filepath.Join(home, ".config", "leftasrain", "config.yaml"),
		filepath.Join(home, ".config", "leftasrain", "config.yml"),
		filepath.Join(home, ".leftasrain.yaml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "leftasrain", "config.yaml")
}

// GetDefaultDataPath returns the directory holding the song cache
func GetDefaultDataPath() string {
	return filepath.Join(homeDir(), ".local", "share", "leftasrain")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(GetDefaultDataPath(), "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// ClientConfig returns the settings of the catalog client
func (c *Config) ClientConfig() leftasrain.Config {
	return leftasrain.Config{
		Timeout: c.Timeout,
		DBFile:  c.DBFile,
		URLs: leftasrain.URLs{
			NextTrackURL: c.NextTrackURL,
			SongURL:      c.SongURL,
			CoverURL:     c.CoverURL,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Timeout > 5*time.Minute {
		return fmt.Errorf("timeout cannot exceed 5m, got %s", c.Timeout)
	}
	if !strings.HasPrefix(c.NextTrackURL, "http://") && !strings.HasPrefix(c.NextTrackURL, "https://") {
		return fmt.Errorf("next_track_url must start with http:// or https://")
	}
	if !strings.HasSuffix(c.SongURL, "/") {
		return fmt.Errorf("song_url must end with a slash, got %q", c.SongURL)
	}

	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s cannot be empty", yamlName(fe.StructField()))
	case "contains":
		return fmt.Errorf("%s must contain %q", yamlName(fe.StructField()), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", yamlName(fe.StructField()), fe.Param(), fe.Value())
	}
	return fmt.Errorf("invalid %s: %v (%s)", yamlName(fe.StructField()), fe.Value(), fe.Tag())
}

var yamlNames = map[string]string{
	"Timeout":      "timeout",
	"DBFile":       "db_file",
	"NextTrackURL": "next_track_url",
	"SongURL":      "song_url",
	"CoverURL":     "cover_url",
	"ListenAddr":   "listen_addr",
	"SaveEvery":    "save_every",
	"Level":        "log.level",
	"Format":       "log.format",
}

func yamlName(field string) string {
	if name, ok := yamlNames[field]; ok {
		return name
	}
	return field
}
