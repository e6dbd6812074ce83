// ABOUTME: Configuration loading and parsing for docex-gateway
// ABOUTME: Supports YAML/TOML files with env var expansion, .env files, and env-only fallback

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the environment variables of the original demo deployment.
const (
	DefaultHTTPAddr         = "0.0.0.0:5000"
	DefaultDocumentURL      = "http://localhost:8001"
	DefaultSummarizationURL = "http://localhost:8002"
	DefaultUpstreamTimeout  = 30 * time.Second
	DefaultMaxRetries       = 2
	DefaultAzureAPIVersion  = "2024-02-15-preview"
	DefaultAccessCodes      = "DOC001,SECRETKEY123,SUMMARY_ACCESS_777"
)

// Mock modes.
const (
	MockAuto = "auto"
	MockOn   = "on"
	MockOff  = "off"
)

// Config represents the complete docex-gateway configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Tailscale   TailscaleConfig   `yaml:"tailscale" toml:"tailscale"`
	Upstream    UpstreamConfig    `yaml:"upstream" toml:"upstream"`
	AzureOpenAI AzureOpenAIConfig `yaml:"azure_openai" toml:"azure_openai"`
	Access      AccessConfig      `yaml:"access" toml:"access"`
	Mock        MockConfig        `yaml:"mock" toml:"mock"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	WebUI       WebUIConfig       `yaml:"webui" toml:"webui"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// GRPCAddr enables the gRPC health service when set.
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// UpstreamConfig holds the two external services the gateway forwards to.
type UpstreamConfig struct {
	Document      ServiceConfig `yaml:"document" toml:"document"`
	Summarization ServiceConfig `yaml:"summarization" toml:"summarization"`
}

// ServiceConfig describes one upstream tool server.
type ServiceConfig struct {
	URL string `yaml:"url" toml:"url"`

	// MaxRetries is the number of retries after a failed call; 0 selects the
	// default and a negative value disables retries.
	MaxRetries int `yaml:"max_retries" toml:"max_retries"`

	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for YAML/TOML unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// AzureOpenAIConfig holds credentials for the Azure OpenAI summarization backend.
type AzureOpenAIConfig struct {
	APIKey     string `yaml:"api_key" toml:"api_key"`
	Endpoint   string `yaml:"endpoint" toml:"endpoint"`
	Deployment string `yaml:"deployment" toml:"deployment"`
	APIVersion string `yaml:"api_version" toml:"api_version"`
}

// Missing returns the environment variable names of unset Azure settings.
func (a AzureOpenAIConfig) Missing() []string {
	missing := []string{}
	if a.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_KEY")
	}
	if a.Endpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if a.Deployment == "" {
		missing = append(missing, "AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	return missing
}

// Configured reports whether every required Azure setting is present.
func (a AzureOpenAIConfig) Configured() bool {
	return len(a.Missing()) == 0
}

// AccessConfig holds the access code allow-list used by mock clients.
// Entries may be plain codes or bcrypt hashes; an entry containing commas
// is split, so "${VALID_ACCESS_KEYS}" works as a single item.
type AccessConfig struct {
	Codes []string `yaml:"codes" toml:"codes"`
}

// MockConfig controls mock-response mode.
type MockConfig struct {
	// Mode is auto, on or off. Auto enables mocks when Azure OpenAI is not configured.
	Mode string `yaml:"mode" toml:"mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// WebUIConfig holds browser UI settings.
type WebUIConfig struct {
	Title string `yaml:"title" toml:"title"`
}

// MockEnabled reports whether the gateway should answer with mock clients.
func (c *Config) MockEnabled() bool {
	switch c.Mock.Mode {
	case MockOn:
		return true
	case MockOff:
		return false
	default:
		return !c.AzureOpenAI.Configured()
	}
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments it loads ./.env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(&cfg)
}

// LoadFromEnv builds a Config from environment variables alone, using the
// variable names of the original deployment (WEB_UI_PORT, DOCUMENT_SERVER_HOST,
// AZURE_OPENAI_KEY, VALID_ACCESS_KEYS, ...).
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr: net.JoinHostPort(getenv("WEB_UI_HOST", "0.0.0.0"), getenv("WEB_UI_PORT", "5000")),
			GRPCAddr: os.Getenv("DOCEX_GRPC_ADDR"),
		},
		Upstream: UpstreamConfig{
			Document: ServiceConfig{
				URL: "http://" + net.JoinHostPort(getenv("DOCUMENT_SERVER_HOST", "localhost"), getenv("DOCUMENT_SERVER_PORT", "8001")),
			},
			Summarization: ServiceConfig{
				URL: "http://" + net.JoinHostPort(getenv("SUMMARIZATION_SERVER_HOST", "localhost"), getenv("SUMMARIZATION_SERVER_PORT", "8002")),
			},
		},
		AzureOpenAI: AzureOpenAIConfig{
			APIKey:     os.Getenv("AZURE_OPENAI_KEY"),
			Endpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			Deployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
			APIVersion: os.Getenv("AZURE_OPENAI_API_VERSION"),
		},
		Access: AccessConfig{
			Codes: []string{getenv("VALID_ACCESS_KEYS", DefaultAccessCodes)},
		},
		Mock: MockConfig{
			Mode: os.Getenv("DOCEX_MOCK"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(os.Getenv("LOG_LEVEL")),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}
	if authKey := os.Getenv("TS_AUTHKEY"); authKey != "" {
		cfg.Tailscale.AuthKey = authKey
	}
	return finish(cfg)
}

// finish applies defaults, parses durations and validates.
func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" && !cfg.Tailscale.Enabled {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Upstream.Document.URL == "" {
		cfg.Upstream.Document.URL = DefaultDocumentURL
	}
	if cfg.Upstream.Summarization.URL == "" {
		cfg.Upstream.Summarization.URL = DefaultSummarizationURL
	}
	for _, svc := range []*ServiceConfig{&cfg.Upstream.Document, &cfg.Upstream.Summarization} {
		if svc.TimeoutRaw == "" {
			svc.Timeout = DefaultUpstreamTimeout
		}
		if svc.MaxRetries == 0 {
			svc.MaxRetries = DefaultMaxRetries
		}
	}
	if cfg.AzureOpenAI.APIVersion == "" {
		cfg.AzureOpenAI.APIVersion = DefaultAzureAPIVersion
	}
	cfg.Access.Codes = splitCodes(cfg.Access.Codes)
	if len(cfg.Access.Codes) == 0 {
		cfg.Access.Codes = splitCodes([]string{DefaultAccessCodes})
	}
	if cfg.Mock.Mode == "" {
		cfg.Mock.Mode = MockAuto
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.WebUI.Title == "" {
		cfg.WebUI.Title = "Document Exchange"
	}
}

// splitCodes flattens comma-separated entries and drops blanks.
func splitCodes(entries []string) []string {
	var codes []string
	for _, e := range entries {
		for _, c := range strings.Split(e, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
	}
	return codes
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// Server address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if err := validateURL("upstream.document.url", c.Upstream.Document.URL); err != nil {
		return err
	}
	if err := validateURL("upstream.summarization.url", c.Upstream.Summarization.URL); err != nil {
		return err
	}
	if c.AzureOpenAI.Endpoint != "" {
		if err := validateURL("azure_openai.endpoint", c.AzureOpenAI.Endpoint); err != nil {
			return err
		}
	}

	switch c.Mock.Mode {
	case MockAuto, MockOn, MockOff:
	default:
		return fmt.Errorf("mock.mode must be auto, on or off, got %q", c.Mock.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	services := []struct {
		name string
		svc  *ServiceConfig
	}{
		{"upstream.document.timeout", &cfg.Upstream.Document},
		{"upstream.summarization.timeout", &cfg.Upstream.Summarization},
	}

	for _, s := range services {
		if s.svc.TimeoutRaw == "" {
			continue
		}
		d, err := time.ParseDuration(s.svc.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", s.name, s.svc.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %q", s.name, s.svc.TimeoutRaw)
		}
		s.svc.Timeout = d
	}

	return nil
}
