package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Paths     PathsConfig  `yaml:"paths"`
	Audio     AudioConfig  `yaml:"audio"`
	Server    ServerConfig `yaml:"server"`
	LogLevel  string       `yaml:"log_level"`
	LogPretty bool         `yaml:"log_pretty"`
}

// PathsConfig holds the on-disk layout of the recorder.
type PathsConfig struct {
	BaseDir       string `yaml:"base_dir"`
	RecordingsDir string `yaml:"recordings_dir"`
	ModelsDir     string `yaml:"models_dir"`
	ExportsDir    string `yaml:"exports_dir"`
	DatabasePath  string `yaml:"database_path"`
}

// AudioConfig holds capture and mixing settings.
type AudioConfig struct {
	SampleRate   int     `yaml:"sample_rate"`
	ChunkSeconds int     `yaml:"chunk_seconds"` // realtime chunk length in seconds
	MicGain      float32 `yaml:"mic_gain"`
	SystemGain   float32 `yaml:"system_gain"`
}

// ServerConfig holds the command-surface HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "meeting-notes", "config.yaml")
}

// Default returns a Config with sensible default values. The on-disk
// layout lives under ~/Documents/MeetingRecorder.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, "Documents", "MeetingRecorder")
	recordings := filepath.Join(base, "MeetingRecordings")

	return &Config{
		Paths: PathsConfig{
			BaseDir:       base,
			RecordingsDir: recordings,
			ModelsDir:     filepath.Join(recordings, "models"),
			ExportsDir:    filepath.Join(base, "exports"),
			DatabasePath:  filepath.Join(base, "meetings.db"),
		},
		Audio: AudioConfig{
			SampleRate:   16000,
			ChunkSeconds: 5,
			MicGain:      1.0,
			SystemGain:   1.0,
		},
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8990,
		},
		LogLevel:  "info",
		LogPretty: false,
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home
// directory. A .env file in the working directory is loaded as well so
// provider keys can live next to the binary.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Paths.BaseDir = expandTilde(cfg.Paths.BaseDir)
	cfg.Paths.RecordingsDir = expandTilde(cfg.Paths.RecordingsDir)
	cfg.Paths.ModelsDir = expandTilde(cfg.Paths.ModelsDir)
	cfg.Paths.ExportsDir = expandTilde(cfg.Paths.ExportsDir)
	cfg.Paths.DatabasePath = expandTilde(cfg.Paths.DatabasePath)

	return cfg, nil
}

// LoadOrDefault loads the config from path when given, from the default
// location when present, or returns defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	defaultPath := DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return Load(defaultPath)
	}
	_ = godotenv.Load()
	return Default(), nil
}

// ChunkSizeSamples returns the realtime chunk threshold in samples.
func (c *Config) ChunkSizeSamples() int {
	return c.Audio.SampleRate * c.Audio.ChunkSeconds
}

// EnsureDirs creates the recordings, models, and exports directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.ModelsDir, c.Paths.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Paths.RecordingsDir == "" {
		return fmt.Errorf("paths.recordings_dir must not be empty")
	}

	if c.Paths.DatabasePath == "" {
		return fmt.Errorf("paths.database_path must not be empty")
	}

	if c.Audio.SampleRate != 16000 {
		return fmt.Errorf("audio.sample_rate must be 16000 for the speech pipeline, got %d", c.Audio.SampleRate)
	}

	if c.Audio.ChunkSeconds < 1 {
		return fmt.Errorf("audio.chunk_seconds must be >= 1, got %d", c.Audio.ChunkSeconds)
	}

	if c.Audio.MicGain < 0 || c.Audio.MicGain > 10 {
		return fmt.Errorf("audio.mic_gain must be within [0.0, 10.0], got %g", c.Audio.MicGain)
	}

	if c.Audio.SystemGain < 0 || c.Audio.SystemGain > 10 {
		return fmt.Errorf("audio.system_gain must be within [0.0, 10.0], got %g", c.Audio.SystemGain)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
