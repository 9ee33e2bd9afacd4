package inkpress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default config file name looked up in the working
// directory.
const ConfigFileName = "inkpress.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errContentDirEmpty    = errors.New("content_dir cannot be empty")
	errDataDirEmpty       = errors.New("data_dir cannot be empty")
)

// Config holds all engine configuration. The config file is JSON with
// comments allowed (JSONC).
type Config struct {
	// ContentDir is the base directory for content files. Allow-listed in
	// the path resolver.
	ContentDir string `json:"content_dir"`

	// DataDir is the base directory for the per-concern SQLite files.
	DataDir string `json:"data_dir"`

	// ContentIndexFile is the content-index database file name, relative
	// to DataDir.
	ContentIndexFile string `json:"content_index_file,omitempty"`

	// AccountsFile is the account database file name, relative to DataDir.
	AccountsFile string `json:"accounts_file,omitempty"`

	// AuditFile is the audit database file name, relative to DataDir.
	AuditFile string `json:"audit_file,omitempty"`

	// LogPath is an optional log file; empty logs to stderr.
	LogPath string `json:"log_path,omitempty"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ContentDir:       "content",
		DataDir:          "data",
		ContentIndexFile: "content-index.db",
		AccountsFile:     "accounts.db",
		AuditFile:        "audit.db",
		LogLevel:         "info",
	}
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, then the config file. The file is workDir/inkpress.json
// unless configPath overrides it; an explicitly given path must exist.
func LoadConfig(workDir, configPath string) (Config, error) {
	cfg := DefaultConfig()

	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			if !mustExist {
				return cfg, nil
			}

			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, cfgFile)
		}

		return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
	}

	fileCfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	cfg = mergeConfig(cfg, fileCfg)

	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.ContentDir != "" {
		base.ContentDir = overlay.ContentDir
	}

	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.ContentIndexFile != "" {
		base.ContentIndexFile = overlay.ContentIndexFile
	}

	if overlay.AccountsFile != "" {
		base.AccountsFile = overlay.AccountsFile
	}

	if overlay.AuditFile != "" {
		base.AuditFile = overlay.AuditFile
	}

	if overlay.LogPath != "" {
		base.LogPath = overlay.LogPath
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.ContentDir == "" {
		return errContentDirEmpty
	}

	if cfg.DataDir == "" {
		return errDataDirEmpty
	}

	return nil
}

// FormatConfig returns the config as formatted JSON, for scaffolding.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data) + "\n", nil
}
