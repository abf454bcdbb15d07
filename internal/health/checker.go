// Package health runs the periodic storage readiness probe behind /healthz
// and the gRPC health service.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe checks one dependency, typically a cheap store query.
type Probe func(ctx context.Context) error

// StatusFunc is called on every healthy/degraded transition.
type StatusFunc func(healthy bool)

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Checker runs a probe periodically and reports degraded after
// FailThreshold consecutive failures. It starts out healthy.
type Checker struct {
	probe     Probe
	cfg       Config
	mu        sync.Mutex
	failCount int
	healthy   bool
	lastErr   error
	onStatus  StatusFunc
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a new Checker.
func New(probe Probe, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	return &Checker{
		probe:   probe,
		cfg:     cfg,
		healthy: true,
		logger:  logger,
	}
}

// SetStatusFunc configures the transition callback.
func (h *Checker) SetStatusFunc(fn StatusFunc) {
	h.onStatus = fn
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is cancelled.
func (h *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckOnce runs the probe once and returns the resulting health.
func (h *Checker) CheckOnce(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
	err := h.probe(pctx)
	cancel()

	if h.onMetrics != nil {
		h.onMetrics(err == nil)
	}

	h.mu.Lock()
	was := h.healthy
	h.lastErr = err
	if err == nil {
		h.failCount = 0
		h.healthy = true
	} else {
		h.failCount++
		if h.failCount >= h.cfg.FailThreshold {
			h.healthy = false
		}
	}
	now, count := h.healthy, h.failCount
	h.mu.Unlock()

	switch {
	case was && !now:
		h.logger.Warn("health: degraded", zap.Int("fail_count", count), zap.Error(err))
	case !was && now:
		h.logger.Info("health: recovered")
	case err != nil:
		h.logger.Debug("health: probe failed", zap.Int("fail_count", count), zap.Error(err))
	}
	if was != now && h.onStatus != nil {
		h.onStatus(now)
	}
	return now
}

// Healthy reports the current status and the last probe error, if any.
func (h *Checker) Healthy() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.healthy, h.lastErr
}
