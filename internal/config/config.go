package config

import (
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "labelscan"

	// DefaultEndpoint is the OpenAI-compatible chat-completions URL.
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultModel is the model requested from the enhancement endpoint.
	DefaultModel = "gpt-4o-mini"

	// DefaultAPIKeyEnv is the environment variable read for the credential
	// when --api-key is not given.
	DefaultAPIKeyEnv = "OPENAI_API_KEY"

	// DefaultTimeout bounds one enhancement call including retries.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a retryable failure.
	DefaultMaxRetries = 2

	// DefaultOCRCommand is run for image inputs. {image} is replaced by the path.
	DefaultOCRCommand = "tesseract {image} stdout"

	// DefaultOCRTimeout bounds one OCR run.
	DefaultOCRTimeout = 60 * time.Second

	// DefaultConcurrency is the number of labels analyzed at once in a batch.
	DefaultConcurrency = 4

	// DefaultDBFile is the SQLite file name inside the data directory.
	DefaultDBFile = "labelscan.db"
)

// Config holds all runtime options for one labelscan invocation.
// It is populated from CLI flags, then from the config file for
// anything the flags left unset.
type Config struct {
	// Inputs are raw ingredient texts, one per label.
	Inputs []string

	// ImagePaths are label photos to run through OCR.
	ImagePaths []string

	// Credential is the enhancement API key. Empty selects deterministic mode.
	Credential string

	// APIKeyEnv names the environment variable read when Credential is empty.
	APIKeyEnv string

	// Offline forces deterministic mode even if a credential is available.
	Offline bool

	// Endpoint is the enhancement chat-completions URL.
	Endpoint string

	// Model is the enhancement model name.
	Model string

	// Timeout bounds one enhancement call including retries.
	Timeout time.Duration

	// MaxRetries is the number of enhancement retries.
	MaxRetries int

	// ProxyAddress routes enhancement requests through a SOCKS5 proxy.
	ProxyAddress string

	// OCRCommand is the recognizer command line.
	OCRCommand string

	// OCRTimeout bounds one OCR run.
	OCRTimeout time.Duration

	// Concurrency is the number of labels analyzed at once.
	Concurrency int

	// DBPath is the SQLite database file. Empty means DataDir()/labelscan.db.
	DBPath string

	// NoStore skips persisting scans.
	NoStore bool

	// Save marks new scans as saved so they survive cleanup.
	Save bool

	// Notes are attached to saved scans.
	Notes string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .labelscan.yaml is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIKeyEnv:   DefaultAPIKeyEnv,
		Endpoint:    DefaultEndpoint,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		OCRCommand:  DefaultOCRCommand,
		OCRTimeout:  DefaultOCRTimeout,
		Concurrency: DefaultConcurrency,
	}
}

// DataDir returns the XDG data directory for labelscan.
// On Linux: ~/.local/share/labelscan
// On macOS: ~/Library/Application Support/labelscan
// On Windows: %LOCALAPPDATA%\labelscan
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the XDG config directory for labelscan.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGConfigFile returns the configuration file path inside ConfigDir.
func XDGConfigFile() string {
	return filepath.Join(ConfigDir(), xdgConfigFileName)
}

// DatabasePath returns DBPath, or the default file in DataDir when unset.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(DataDir(), DefaultDBFile)
}

// ResolveCredential returns the credential to use for enhancement.
// Offline mode always yields an empty credential. Otherwise Credential
// wins over the environment variable named by APIKeyEnv.
func (c *Config) ResolveCredential(getenv func(string) string) string {
	if c.Offline {
		return ""
	}
	if cred := strings.TrimSpace(c.Credential); cred != "" {
		return cred
	}
	if c.APIKeyEnv == "" || getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(c.APIKeyEnv))
}

// Validate checks if the configuration is valid for a scan.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 && len(c.ImagePaths) == 0 {
		return ErrEmptyInput
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except the presence of inputs.
// It is used by commands that do not scan, such as serve.
func (c *Config) ValidateSettings() error {
	if c.Timeout <= 0 || c.OCRTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if !isValidEndpoint(c.Endpoint) {
		return ErrInvalidEndpoint
	}

	if c.ProxyAddress != "" && !isValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxy
	}

	if c.Save && c.NoStore {
		return ErrConflictingSave
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

func isValidEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	p, err := strconv.Atoi(port)
	return err == nil && p > 0 && p <= 65535
}
