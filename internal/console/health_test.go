// ABOUTME: Tests for the health monitor's indicator derivation and polling loop
// ABOUTME: The gateway is an httptest server returning canned health bodies

package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHealthMonitor_Check(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		want       Indicators
		wantLogged int
	}{
		{
			name:   "all online",
			status: http.StatusOK,
			body:   `{"status":"healthy","clients":{"document_client":true,"summarization_client":true}}`,
			want:   Indicators{Document: true, Summarization: true, Connection: true},
		},
		{
			name:   "summarization missing",
			status: http.StatusOK,
			body:   `{"status":"healthy","clients":{"document_client":true,"summarization_client":false}}`,
			want:   Indicators{Document: true},
		},
		{
			name:       "unhealthy status",
			status:     http.StatusOK,
			body:       `{"status":"unhealthy","error":"boom"}`,
			wantLogged: 1,
		},
		{
			name:       "server error",
			status:     http.StatusServiceUnavailable,
			body:       `{"status":"unhealthy"}`,
			wantLogged: 1,
		},
		{
			name:       "garbage",
			status:     http.StatusOK,
			body:       `nope`,
			wantLogged: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := healthServer(t, tt.status, tt.body)
			log := NewLogStore(0)
			var seen []Indicators
			h, err := NewHealthMonitor(HealthConfig{
				BaseURL:  srv.URL,
				Log:      log,
				OnChange: func(i Indicators) { seen = append(seen, i) },
			})
			require.NoError(t, err)

			got := h.Check(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, h.Last())
			assert.Equal(t, []Indicators{tt.want}, seen)
			assert.Equal(t, tt.wantLogged, log.Len())
			if tt.wantLogged > 0 {
				assert.Equal(t, KindError, log.Entries()[0].Kind)
			}
		})
	}
}

func TestHealthMonitor_UnreachableIsDegraded(t *testing.T) {
	srv, _ := healthServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	log := NewLogStore(0)
	h, err := NewHealthMonitor(HealthConfig{BaseURL: url, Log: log, Timeout: time.Second})
	require.NoError(t, err)

	assert.Equal(t, Indicators{}, h.Check(context.Background()))
	assert.Equal(t, 1, log.Len())
}

func TestHealthMonitor_RunPollsUntilCanceled(t *testing.T) {
	srv, calls := healthServer(t, http.StatusOK,
		`{"status":"healthy","clients":{"document_client":true,"summarization_client":true}}`)

	h, err := NewHealthMonitor(HealthConfig{BaseURL: srv.URL, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, h.Last().Connection)
}

func TestHealthMonitor_RecoversOnChangePanic(t *testing.T) {
	srv, calls := healthServer(t, http.StatusOK,
		`{"status":"healthy","clients":{"document_client":true,"summarization_client":true}}`)

	h, err := NewHealthMonitor(HealthConfig{
		BaseURL:  srv.URL,
		Interval: 10 * time.Millisecond,
		OnChange: func(Indicators) { panic("render failed") },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestNewHealthMonitor_Defaults(t *testing.T) {
	_, err := NewHealthMonitor(HealthConfig{})
	assert.Error(t, err)

	h, err := NewHealthMonitor(HealthConfig{BaseURL: "http://x/"})
	require.NoError(t, err)
	assert.Equal(t, DefaultHealthInterval, h.interval)
	assert.Equal(t, "http://x", h.baseURL)
}
