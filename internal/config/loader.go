package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".labelscan.yaml"

// xdgConfigFileName is the file name used inside ConfigDir.
const xdgConfigFileName = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// EnhancementSettings configures the optional model-backed analysis.
type EnhancementSettings struct {
	// Enabled turns enhancement off when set to false. Unset means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	Endpoint   string        `yaml:"endpoint,omitempty"`
	Model      string        `yaml:"model,omitempty"`
	APIKeyEnv  string        `yaml:"api_key_env,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxRetries *int          `yaml:"max_retries,omitempty"`

	// Proxy is a SOCKS5 host:port used for enhancement requests.
	Proxy string `yaml:"proxy,omitempty"`
}

// OCRSettings configures the image recognizer.
type OCRSettings struct {
	Command string        `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StorageSettings configures scan persistence.
type StorageSettings struct {
	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty"`
}

// ReportSettings configures the default output format.
type ReportSettings struct {
	// Format is one of "text", "json" or "markdown".
	Format string `yaml:"format,omitempty"`
}

// BatchSettings configures multi-label runs.
type BatchSettings struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// File represents the structure of the .labelscan.yaml configuration file.
type File struct {
	Enhancement EnhancementSettings `yaml:"enhancement,omitempty"`
	OCR         OCRSettings         `yaml:"ocr,omitempty"`
	Storage     StorageSettings     `yaml:"storage,omitempty"`
	Report      ReportSettings      `yaml:"report,omitempty"`
	Batch       BatchSettings       `yaml:"batch,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies file settings into cfg. Only fields that still hold their
// NewConfig default are overwritten, so explicit flags keep precedence.
func (cf *File) Apply(cfg *Config) {
	e := cf.Enhancement
	if e.Enabled != nil && !*e.Enabled {
		cfg.Offline = true
	}
	if e.Endpoint != "" && cfg.Endpoint == DefaultEndpoint {
		cfg.Endpoint = e.Endpoint
	}
	if e.Model != "" && cfg.Model == DefaultModel {
		cfg.Model = e.Model
	}
	if e.APIKeyEnv != "" && cfg.APIKeyEnv == DefaultAPIKeyEnv {
		cfg.APIKeyEnv = e.APIKeyEnv
	}
	if e.Timeout > 0 && cfg.Timeout == DefaultTimeout {
		cfg.Timeout = e.Timeout
	}
	if e.MaxRetries != nil && cfg.MaxRetries == DefaultMaxRetries {
		cfg.MaxRetries = *e.MaxRetries
	}
	if e.Proxy != "" && cfg.ProxyAddress == "" {
		cfg.ProxyAddress = e.Proxy
	}

	if cf.OCR.Command != "" && cfg.OCRCommand == DefaultOCRCommand {
		cfg.OCRCommand = cf.OCR.Command
	}
	if cf.OCR.Timeout > 0 && cfg.OCRTimeout == DefaultOCRTimeout {
		cfg.OCRTimeout = cf.OCR.Timeout
	}

	if cf.Storage.Path != "" && cfg.DBPath == "" {
		cfg.DBPath = cf.Storage.Path
	}

	if !cfg.JSONReport && !cfg.MarkdownReport {
		switch cf.Report.Format {
		case "json":
			cfg.JSONReport = true
		case "markdown":
			cfg.MarkdownReport = true
		}
	}

	if cf.Batch.Concurrency > 0 && cfg.Concurrency == DefaultConcurrency {
		cfg.Concurrency = cf.Batch.Concurrency
	}
}

// FindConfigFile returns the configuration file to load, or "" when none
// exists. An explicit configPath is used as is. Otherwise the search order is
// ./.labelscan.yaml, $XDG_CONFIG_HOME/labelscan/config.yaml, ~/.labelscan.yaml.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	for _, candidate := range searchPaths() {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// searchPaths lists the implicit configuration locations in priority order.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, XDGConfigFile())
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
