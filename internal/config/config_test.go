// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, env var expansion, .env files, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so the developer's
// environment cannot leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WEB_UI_HOST", "WEB_UI_PORT", "DOCEX_GRPC_ADDR",
		"DOCUMENT_SERVER_HOST", "DOCUMENT_SERVER_PORT",
		"SUMMARIZATION_SERVER_HOST", "SUMMARIZATION_SERVER_PORT",
		"AZURE_OPENAI_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT_NAME", "AZURE_OPENAI_API_VERSION",
		"VALID_ACCESS_KEYS", "DOCEX_MOCK", "LOG_LEVEL", "LOG_FORMAT", "TS_AUTHKEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "127.0.0.1:8080"
  grpc_addr: "127.0.0.1:50051"

upstream:
  document:
    url: "http://docs.internal:9001"
    timeout: "5s"
    max_retries: 4
  summarization:
    url: "https://summaries.internal"

azure_openai:
  api_key: "key"
  endpoint: "https://example.openai.azure.com"
  deployment: "gpt-4o"

access:
  codes:
    - "DOC001"
    - "SECRET"

mock:
  mode: "off"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:8080")
	}
	if cfg.Server.GRPCAddr != "127.0.0.1:50051" {
		t.Errorf("Server.GRPCAddr = %q, want %q", cfg.Server.GRPCAddr, "127.0.0.1:50051")
	}
	if cfg.Upstream.Document.URL != "http://docs.internal:9001" {
		t.Errorf("Upstream.Document.URL = %q", cfg.Upstream.Document.URL)
	}
	if cfg.Upstream.Document.Timeout != 5*time.Second {
		t.Errorf("Upstream.Document.Timeout = %v, want %v", cfg.Upstream.Document.Timeout, 5*time.Second)
	}
	if cfg.Upstream.Document.MaxRetries != 4 {
		t.Errorf("Upstream.Document.MaxRetries = %d, want 4", cfg.Upstream.Document.MaxRetries)
	}

	// Unset values fall back to defaults
	assert.Equal(t, DefaultUpstreamTimeout, cfg.Upstream.Summarization.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.Upstream.Summarization.MaxRetries)
	assert.Equal(t, DefaultAzureAPIVersion, cfg.AzureOpenAI.APIVersion)

	assert.Equal(t, []string{"DOC001", "SECRET"}, cfg.Access.Codes)
	assert.True(t, cfg.AzureOpenAI.Configured())
	assert.False(t, cfg.MockEnabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "gateway.toml", `
[server]
http_addr = "localhost:7000"

[upstream.document]
url = "http://localhost:9100"
timeout = "1m30s"

[access]
codes = ["A", "B"]

[mock]
mode = "on"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "localhost:7000", cfg.Server.HTTPAddr)
	assert.Equal(t, "http://localhost:9100", cfg.Upstream.Document.URL)
	assert.Equal(t, 90*time.Second, cfg.Upstream.Document.Timeout)
	assert.Equal(t, []string{"A", "B"}, cfg.Access.Codes)
	assert.True(t, cfg.MockEnabled())
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_AZURE_KEY", "secret-from-env")
	t.Setenv("TEST_ACCESS_KEYS", "ONE, TWO ,THREE")

	configPath := writeConfig(t, "config.yaml", `
azure_openai:
  api_key: "${TEST_AZURE_KEY}"
access:
  codes: ["${TEST_ACCESS_KEYS}"]
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AzureOpenAI.APIKey != "secret-from-env" {
		t.Errorf("AzureOpenAI.APIKey = %q, want %q", cfg.AzureOpenAI.APIKey, "secret-from-env")
	}
	assert.Equal(t, []string{"ONE", "TWO", "THREE"}, cfg.Access.Codes)
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "{}\n")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultDocumentURL, cfg.Upstream.Document.URL)
	assert.Equal(t, DefaultSummarizationURL, cfg.Upstream.Summarization.URL)
	assert.Equal(t, []string{"DOC001", "SECRETKEY123", "SUMMARY_ACCESS_777"}, cfg.Access.Codes)
	assert.Equal(t, MockAuto, cfg.Mock.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	// Auto mock mode turns on when Azure OpenAI is not configured
	assert.True(t, cfg.MockEnabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr "missing colon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
upstream:
  document:
    timeout: "invalid-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "upstream.document.timeout") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad mock mode",
			mutate:  func(c *Config) { c.Mock.Mode = "sometimes" },
			wantErr: "mock.mode",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "non-http upstream",
			mutate:  func(c *Config) { c.Upstream.Document.URL = "ftp://docs" },
			wantErr: "upstream.document.url",
		},
		{
			name:    "upstream without host",
			mutate:  func(c *Config) { c.Upstream.Summarization.URL = "http://" },
			wantErr: "upstream.summarization.url",
		},
		{
			name:    "missing http addr",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "" },
			wantErr: "server.http_addr",
		},
		{
			name: "tailscale without hostname",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Server.HTTPAddr = ""
			},
			wantErr: "tailscale.hostname",
		},
		{
			name: "tailscale with hostname",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = "docex"
				c.Server.HTTPAddr = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEB_UI_PORT", "5050")
	t.Setenv("DOCUMENT_SERVER_HOST", "docs")
	t.Setenv("DOCUMENT_SERVER_PORT", "9001")
	t.Setenv("VALID_ACCESS_KEYS", "K1,K2")
	t.Setenv("AZURE_OPENAI_KEY", "k")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5050", cfg.Server.HTTPAddr)
	assert.Equal(t, "http://docs:9001", cfg.Upstream.Document.URL)
	assert.Equal(t, "http://localhost:8002", cfg.Upstream.Summarization.URL)
	assert.Equal(t, []string{"K1", "K2"}, cfg.Access.Codes)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.MockEnabled())
}

func TestLoadFromEnv_MissingAzureEnablesMock(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.MockEnabled())
	assert.Equal(t, []string{"AZURE_OPENAI_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT_NAME"}, cfg.AzureOpenAI.Missing())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOCEX_TEST_DOTENV=from-file\nDOCEX_TEST_PRESET=from-file\n"), 0600))

	t.Setenv("DOCEX_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("DOCEX_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envPath))

	assert.Equal(t, "from-file", os.Getenv("DOCEX_TEST_DOTENV"))
	// Existing variables are not overridden
	assert.Equal(t, "from-env", os.Getenv("DOCEX_TEST_PRESET"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCEX_TEST_VAR", "value")

	tests := []struct {
		input    string
		expected string
	}{
		{"${DOCEX_TEST_VAR}", "value"},
		{"prefix-${DOCEX_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"${DOCEX_TEST_UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.input); got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
