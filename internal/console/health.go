// ABOUTME: Polls the gateway health endpoint and derives the three status indicators
// ABOUTME: A failed poll marks everything degraded and logs one error entry

package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/2389/docex-gateway/internal/api"
)

// DefaultHealthInterval is the polling period.
const DefaultHealthInterval = time.Minute

// DefaultHealthTimeout bounds one health poll.
const DefaultHealthTimeout = 10 * time.Second

// Indicators are the online flags shown by a front end.
type Indicators struct {
	Document      bool
	Summarization bool
	Connection    bool
}

// HealthConfig configures a HealthMonitor.
type HealthConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Interval   time.Duration
	// Log receives one error entry per failed poll. Optional.
	Log *LogStore
	// OnChange is called after every poll with the new indicators. Optional.
	OnChange func(Indicators)
	Logger   *slog.Logger
}

// HealthMonitor tracks upstream availability through the gateway.
type HealthMonitor struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	interval time.Duration
	log      *LogStore
	onChange func(Indicators)
	logger   *slog.Logger

	mu   sync.RWMutex
	last Indicators
}

// NewHealthMonitor creates a HealthMonitor.
func NewHealthMonitor(cfg HealthConfig) (*HealthMonitor, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultHealthInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &HealthMonitor{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   cfg.HTTPClient,
		timeout:  cfg.Timeout,
		interval: cfg.Interval,
		log:      cfg.Log,
		onChange: cfg.OnChange,
		logger:   cfg.Logger.With("component", "health"),
	}, nil
}

// Check polls the health endpoint once and returns the derived indicators.
func (h *HealthMonitor) Check(ctx context.Context) Indicators {
	var ind Indicators
	status, err := h.fetch(ctx)
	if err != nil {
		h.logger.Warn("health check failed", "error", err)
		if h.log != nil {
			h.log.Append(SourceSystem, KindError, "Health check failed: "+err.Error())
		}
	} else {
		ind = Indicators{
			Document:      status.Clients.DocumentClient,
			Summarization: status.Clients.SummarizationClient,
		}
		ind.Connection = ind.Document && ind.Summarization
	}

	h.mu.Lock()
	h.last = ind
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(ind)
	}
	return ind
}

// Last returns the indicators from the most recent poll.
func (h *HealthMonitor) Last() Indicators {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Run checks immediately and then every interval until ctx is done.
func (h *HealthMonitor) Run(ctx context.Context) error {
	h.safeCheck(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.safeCheck(ctx)
		}
	}
}

func (h *HealthMonitor) safeCheck(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("health check panicked", "panic", r)
		}
	}()
	if ctx.Err() != nil {
		return
	}
	h.Check(ctx)
}

func (h *HealthMonitor) fetch(ctx context.Context) (*api.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+api.PathHealth, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{After: h.timeout}
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: statusText(resp.Status)}
	}

	var status api.HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxEnvelopeSize)).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding health: %w", err)
	}
	if status.Status != api.StatusHealthy {
		msg := status.Error
		if msg == "" {
			msg = string(status.Status)
		}
		return nil, fmt.Errorf("gateway unhealthy: %s", msg)
	}
	return &status, nil
}
