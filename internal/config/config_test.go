package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default endpoint is the OpenAI chat completions URL", func(t *testing.T) {
		t.Parallel()
		if cfg.Endpoint != "https://api.openai.com/v1/chat/completions" {
			t.Errorf("unexpected Endpoint %q", cfg.Endpoint)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default APIKeyEnv is OPENAI_API_KEY", func(t *testing.T) {
		t.Parallel()
		if cfg.APIKeyEnv != "OPENAI_API_KEY" {
			t.Errorf("unexpected APIKeyEnv %q", cfg.APIKeyEnv)
		}
	})

	t.Run("default OCR command runs tesseract", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.OCRCommand, "tesseract ") || !strings.Contains(cfg.OCRCommand, "{image}") {
			t.Errorf("unexpected OCRCommand %q", cfg.OCRCommand)
		}
	})

	t.Run("default Concurrency is positive", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency <= 0 {
			t.Errorf("expected positive Concurrency, got %d", cfg.Concurrency)
		}
	})

	t.Run("storage is enabled and offline is off", func(t *testing.T) {
		t.Parallel()
		if cfg.NoStore || cfg.Offline || cfg.Save {
			t.Errorf("unexpected flags: NoStore=%v Offline=%v Save=%v", cfg.NoStore, cfg.Offline, cfg.Save)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Inputs = []string{"Sugar, Salt"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"image only is valid", func(c *Config) { c.Inputs = nil; c.ImagePaths = []string{"label.png"} }, nil},
		{"proxy host:port is valid", func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }, nil},
		{"local http endpoint is valid", func(c *Config) { c.Endpoint = "http://localhost:11434/v1/chat/completions" }, nil},
		{"no input", func(c *Config) { c.Inputs = nil }, ErrEmptyInput},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative OCR timeout", func(c *Config) { c.OCRTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"relative endpoint", func(c *Config) { c.Endpoint = "/v1/chat" }, ErrInvalidEndpoint},
		{"ftp endpoint", func(c *Config) { c.Endpoint = "ftp://example.com/x" }, ErrInvalidEndpoint},
		{"proxy without port", func(c *Config) { c.ProxyAddress = "localhost" }, ErrInvalidProxy},
		{"proxy port out of range", func(c *Config) { c.ProxyAddress = "localhost:70000" }, ErrInvalidProxy},
		{"save with no-store", func(c *Config) { c.Save = true; c.NoStore = true }, ErrConflictingSave},
		{"json and markdown", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("settings validation ignores missing input", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ValidateSettings(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestResolveCredential tests credential precedence.
func TestResolveCredential(t *testing.T) {
	t.Parallel()

	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	tests := []struct {
		name   string
		cfg    Config
		getenv func(string) string
		want   string
	}{
		{
			name:   "flag wins over environment",
			cfg:    Config{Credential: "sk-flag", APIKeyEnv: "OPENAI_API_KEY"},
			getenv: env(map[string]string{"OPENAI_API_KEY": "sk-env"}),
			want:   "sk-flag",
		},
		{
			name:   "environment used when flag empty",
			cfg:    Config{APIKeyEnv: "OPENAI_API_KEY"},
			getenv: env(map[string]string{"OPENAI_API_KEY": " sk-env "}),
			want:   "sk-env",
		},
		{
			name:   "custom variable name",
			cfg:    Config{APIKeyEnv: "LABELSCAN_KEY"},
			getenv: env(map[string]string{"LABELSCAN_KEY": "k", "OPENAI_API_KEY": "other"}),
			want:   "k",
		},
		{
			name:   "offline ignores everything",
			cfg:    Config{Offline: true, Credential: "sk-flag", APIKeyEnv: "OPENAI_API_KEY"},
			getenv: env(map[string]string{"OPENAI_API_KEY": "sk-env"}),
			want:   "",
		},
		{
			name:   "whitespace credential counts as empty",
			cfg:    Config{Credential: "   "},
			getenv: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.cfg.ResolveCredential(tt.getenv); got != tt.want {
				t.Errorf("ResolveCredential() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.labelscan.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `enhancement:
  enabled: true
  endpoint: http://localhost:8080/v1/chat/completions
  model: local-model
  api_key_env: LABELSCAN_KEY
  timeout: 10s
  max_retries: 0
  proxy: 127.0.0.1:9050
ocr:
  command: "ocrtool --in {image}"
  timeout: 5s
storage:
  path: /tmp/labels.db
report:
  format: markdown
batch:
  concurrency: 8
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Enhancement.Enabled == nil || !*cf.Enhancement.Enabled {
			t.Error("expected enhancement enabled")
		}
		if cf.Enhancement.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", cf.Enhancement.Timeout)
		}
		if cf.Enhancement.MaxRetries == nil || *cf.Enhancement.MaxRetries != 0 {
			t.Errorf("expected explicit zero retries, got %v", cf.Enhancement.MaxRetries)
		}
		if cf.OCR.Command != "ocrtool --in {image}" {
			t.Errorf("unexpected OCR command %q", cf.OCR.Command)
		}
		if cf.Storage.Path != "/tmp/labels.db" {
			t.Errorf("unexpected storage path %q", cf.Storage.Path)
		}
		if cf.Batch.Concurrency != 8 {
			t.Errorf("expected concurrency 8, got %d", cf.Batch.Concurrency)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFileApply tests merging file settings into a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	disabled := false
	retries := 5
	cf := &File{
		Enhancement: EnhancementSettings{
			Enabled:    &disabled,
			Endpoint:   "http://localhost:9000/v1/chat/completions",
			Model:      "file-model",
			Timeout:    time.Minute,
			MaxRetries: &retries,
			Proxy:      "127.0.0.1:1080",
		},
		OCR:     OCRSettings{Command: "ocr {image}"},
		Storage: StorageSettings{Path: "/data/scans.db"},
		Report:  ReportSettings{Format: "json"},
		Batch:   BatchSettings{Concurrency: 2},
	}

	t.Run("fills defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cf.Apply(cfg)

		if !cfg.Offline {
			t.Error("expected enabled=false to force offline")
		}
		if cfg.Endpoint != "http://localhost:9000/v1/chat/completions" || cfg.Model != "file-model" {
			t.Errorf("unexpected endpoint/model %q %q", cfg.Endpoint, cfg.Model)
		}
		if cfg.Timeout != time.Minute || cfg.MaxRetries != 5 {
			t.Errorf("unexpected timeout/retries %v %d", cfg.Timeout, cfg.MaxRetries)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" || cfg.OCRCommand != "ocr {image}" {
			t.Errorf("unexpected proxy/ocr %q %q", cfg.ProxyAddress, cfg.OCRCommand)
		}
		if cfg.DatabasePath() != "/data/scans.db" {
			t.Errorf("unexpected db path %q", cfg.DatabasePath())
		}
		if !cfg.JSONReport || cfg.Concurrency != 2 {
			t.Errorf("unexpected report/concurrency %v %d", cfg.JSONReport, cfg.Concurrency)
		}
	})

	t.Run("flags keep precedence", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Model = "flag-model"
		cfg.DBPath = "/flag.db"
		cfg.MarkdownReport = true
		cfg.Concurrency = 16
		cf.Apply(cfg)

		if cfg.Model != "flag-model" || cfg.DBPath != "/flag.db" || cfg.Concurrency != 16 {
			t.Errorf("flag values overwritten: %+v", cfg)
		}
		if cfg.JSONReport {
			t.Error("file format must not override an explicit --markdown")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("batch: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestFindConfigFileSearchOrder runs without t.Parallel because it changes
// the environment and reloads the xdg package state.
func TestFindConfigFileSearchOrder(t *testing.T) {
	t.Cleanup(xdg.Reload)

	home := t.TempDir()
	configHome := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", configHome)
	xdg.Reload()

	write := func(path string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("batch: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
	}

	if got := FindConfigFile(""); got != "" {
		t.Fatalf("expected no config, got %q", got)
	}

	homeConfig := filepath.Join(home, DefaultConfigFile)
	write(homeConfig)
	if got := FindConfigFile(""); got != homeConfig {
		t.Errorf("expected home config %q, got %q", homeConfig, got)
	}

	xdgConfig := filepath.Join(configHome, AppName, "config.yaml")
	write(xdgConfig)
	if XDGConfigFile() != xdgConfig {
		t.Errorf("XDGConfigFile() = %q, want %q", XDGConfigFile(), xdgConfig)
	}
	if got := FindConfigFile(""); got != xdgConfig {
		t.Errorf("expected XDG config %q to win over home, got %q", xdgConfig, got)
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := DataDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected data dir ending in %q, got %q", AppName, dir)
	}
	if dir := ConfigDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected config dir ending in %q, got %q", AppName, dir)
	}

	cfg := NewConfig()
	if got := cfg.DatabasePath(); got != filepath.Join(DataDir(), DefaultDBFile) {
		t.Errorf("unexpected default database path %q", got)
	}
}
