package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config contains the program configuration. Precedence: defaults, then the
// YAML file, then environment variables.
type Config struct {
	Port    int    `yaml:"port" env:"WHENDROPPED_PORT"`
	Verbose bool   `yaml:"verbose" env:"WHENDROPPED_VERBOSE"`
	LogDir  string `yaml:"log_dir" env:"WHENDROPPED_LOG_DIR"`

	// UserAgent identifies us to MusicBrainz, which requires one.
	UserAgent string `yaml:"user_agent" env:"WHENDROPPED_USER_AGENT"`

	// Provider endpoints; empty means each client's public default.
	MusicBrainzURL string `yaml:"musicbrainz_url" env:"WHENDROPPED_MUSICBRAINZ_URL"`
	WikipediaURL   string `yaml:"wikipedia_url" env:"WHENDROPPED_WIKIPEDIA_URL"`
	TVMazeURL      string `yaml:"tvmaze_url" env:"WHENDROPPED_TVMAZE_URL"`
	TMDBURL        string `yaml:"tmdb_url" env:"WHENDROPPED_TMDB_URL"`

	// TMDBToken is the API read access token. Without it the film panel
	// is always empty.
	TMDBToken string `yaml:"tmdb_token" env:"WHENDROPPED_TMDB_TOKEN"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Port:      8080,
		UserAgent: "whendropped/1.0 ( https://github.com/whendropped/whendropped )",
	}
}

// Load builds the configuration: defaults, overlaid with the YAML file at
// path (or the first standard location when path is empty; a missing file
// is not an error), overlaid with environment variables.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches standard locations for a config file
func findConfigFile() string {
	locations := []string{
		"./whendropped.yaml",
		"./whendropped.yml",
		filepath.Join(homeDir(), ".config", "whendropped", "config.yaml"),
		filepath.Join(homeDir(), ".config", "whendropped", "config.yml"),
	}
	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultLogPath returns the default log directory
func DefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "whendropped", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty: MusicBrainz rejects unidentified clients")
	}
	return nil
}
