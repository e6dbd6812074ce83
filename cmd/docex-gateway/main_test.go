// ABOUTME: Tests for config path resolution, the init template, health probes, and the log handler

package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/2389/docex-gateway/internal/config"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("DOCEX_CONFIG", "/etc/docex.yaml")
	assert.Equal(t, "/etc/docex.yaml", getConfigPath())

	t.Setenv("DOCEX_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "docex", "gateway.yaml"), getConfigPath())
}

func TestRenderConfig_LoadsBack(t *testing.T) {
	t.Setenv("VALID_ACCESS_KEYS", "A,B")
	out := renderConfig(initAnswers{
		HTTPAddr:         "127.0.0.1:5000",
		GRPCAddr:         "127.0.0.1:50051",
		MockMode:         "on",
		DocumentURL:      "http://docs:8001",
		SummarizationURL: "http://sum:8002",
		AccessCodes:      "${VALID_ACCESS_KEYS}",
		LogLevel:         "debug",
		LogFormat:        "json",
	})

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &raw))

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:50051", cfg.Server.GRPCAddr)
	assert.Equal(t, config.MockOn, cfg.Mock.Mode)
	assert.Equal(t, "http://docs:8001", cfg.Upstream.Document.URL)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Summarization.Timeout)
	assert.Equal(t, []string{"A", "B"}, cfg.Access.Codes)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestDialAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:5000", dialAddr("0.0.0.0:5000"))
	assert.Equal(t, "127.0.0.1:5000", dialAddr(":5000"))
	assert.Equal(t, "10.0.0.2:5000", dialAddr("10.0.0.2:5000"))
	assert.Equal(t, "nonsense", dialAddr("nonsense"))
}

func TestHTTPHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","clients":{"document_client":true,"summarization_client":true},"timestamp":"t"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := httpHealth(context.Background(), strings.TrimPrefix(srv.URL, "http://"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"document_client": true`)
}

func TestHTTPHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","error":"no clients configured"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := httpHealth(context.Background(), strings.TrimPrefix(srv.URL, "http://"), &out)
	assert.ErrorContains(t, err, "503")
}

func TestGRPCHealth_NotConfigured(t *testing.T) {
	err := grpcHealth(context.Background(), "", "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "grpc_addr")
}

func TestRunHashCode(t *testing.T) {
	assert.Error(t, runHashCode([]string{"  "}))
	assert.Error(t, runHashCode([]string{"a", "b"}))
	assert.NoError(t, runHashCode([]string{"DOC001"}))
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newColorHandler(&buf, slog.LevelInfo)).With("component", "gateway")

	logger.Debug("hidden")
	logger.Info("request served", "status", 200)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "request served")
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "200")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
