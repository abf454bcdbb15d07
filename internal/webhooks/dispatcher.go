// Package webhooks delivers Anchored notifications to configured HTTP
// receivers. Each request body is the JSON event, signed with the target's
// secret in the X-Anchor-Signature header ("sha256=<hex>").
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/anchorledger/internal/notify"
	"go.uber.org/zap"
)

// MetricsRecorder is an optional callback for recording delivery outcomes.
type MetricsRecorder func(success bool)

// DeliveryRecorder is an optional callback receiving every attempt.
type DeliveryRecorder func(d Delivery)

// Dispatcher is a notify.Sink that POSTs events to every target.
type Dispatcher struct {
	targets    []Target
	httpClient *http.Client
	delays     []time.Duration // delay before attempt i; len = max attempts
	onMetrics  MetricsRecorder
	onDelivery DeliveryRecorder
	logger     *zap.Logger
}

// NewDispatcher creates a Dispatcher for targets with the default retry
// schedule: immediately, then after 1s and 5s.
func NewDispatcher(targets []Target, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		targets:    targets,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		delays:     []time.Duration{0, 1 * time.Second, 5 * time.Second},
		logger:     logger,
	}
}

// SetRetryDelays replaces the retry schedule. The number of delays is the
// maximum number of attempts; the first delay is normally zero.
func (d *Dispatcher) SetRetryDelays(delays []time.Duration) {
	if len(delays) == 0 {
		delays = []time.Duration{0}
	}
	d.delays = delays
}

// SetHTTPClient overrides the client used for deliveries.
func (d *Dispatcher) SetHTTPClient(c *http.Client) {
	d.httpClient = c
}

// SetMetricsRecorder configures the metrics callback.
func (d *Dispatcher) SetMetricsRecorder(fn MetricsRecorder) {
	d.onMetrics = fn
}

// SetDeliveryRecorder configures the per-attempt callback.
func (d *Dispatcher) SetDeliveryRecorder(fn DeliveryRecorder) {
	d.onDelivery = fn
}

// Name implements notify.Sink.
func (d *Dispatcher) Name() string { return "webhooks" }

// Handle implements notify.Sink. Targets are served concurrently; Handle
// returns once every target has succeeded or exhausted its attempts, so each
// target sees events in publish order.
func (d *Dispatcher) Handle(ctx context.Context, ev notify.Event) {
	if len(d.targets) == 0 {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("webhook: marshal event", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, t := range d.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			d.deliver(ctx, t, ev, body)
		}(t)
	}
	wg.Wait()
}

// deliver sends the event to a single target with retries.
func (d *Dispatcher) deliver(ctx context.Context, t Target, ev notify.Event, body []byte) {
	signature := SignPayload(body, t.Secret)

	for i, delay := range d.delays {
		attempt := i + 1
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}

		success, statusCode, errMsg := d.doDelivery(ctx, t.URL, ev.Type, body, signature)

		if d.onDelivery != nil {
			d.onDelivery(Delivery{
				ID:           uuid.New(),
				EventID:      ev.ID,
				URL:          t.URL,
				StatusCode:   statusCode,
				Attempt:      attempt,
				Success:      success,
				ErrorMessage: errMsg,
				DeliveredAt:  time.Now().UTC(),
			})
		}
		if d.onMetrics != nil {
			d.onMetrics(success)
		}

		if success {
			return
		}

		d.logger.Warn("webhook: delivery failed",
			zap.String("url", t.URL),
			zap.String("event_id", ev.ID.String()),
			zap.Int("attempt", attempt),
			zap.String("error", errMsg),
		)
	}
}

// doDelivery performs a single HTTP POST delivery.
func (d *Dispatcher) doDelivery(ctx context.Context, url, eventType string, body []byte, signature string) (bool, int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, eventType)
	req.Header.Set(SignatureHeader, signature)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, 0, err.Error()
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	errMsg := ""
	if !success {
		errMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return success, resp.StatusCode, errMsg
}

// SignPayload computes the signature header value for body.
func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
// Receivers use it to authenticate deliveries.
func VerifySignature(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(SignPayload(body, secret)), []byte(signature))
}
