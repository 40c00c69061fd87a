// Package webhook notifies an external endpoint when a scrape run finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/fingerprint"
	"github.com/Maclenn77/ticha/models"
)

// Event types.
const (
	EventCompleted = "scrape.completed"
	EventFailed    = "scrape.failed"
)

// Event is the payload sent to the webhook endpoint.
type Event struct {
	Type      string      `json:"type"` // "scrape.completed" or "scrape.failed"
	RunID     string      `json:"run_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// CompletedData describes a successful table scrape.
type CompletedData struct {
	SourceURL   string          `json:"source_url"`
	Engine      string          `json:"engine"`
	Count       int             `json:"count"`
	Fingerprint string          `json:"fingerprint"`
	DurationMs  int64           `json:"duration_ms"`
	Citation    models.Citation `json:"citation"`
}

// FailedData describes a failed run.
type FailedData struct {
	SourceURL string              `json:"source_url"`
	Error     *models.ErrorDetail `json:"error"`
}

// Completed builds the event for a successful run.
func Completed(runID string, res *models.ResultSet, cit models.Citation) *Event {
	return &Event{
		Type:      EventCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data: CompletedData{
			SourceURL:   res.SourceURL,
			Engine:      res.Engine,
			Count:       len(res.Records),
			Fingerprint: fingerprint.Hex(res.Fingerprint),
			DurationMs:  res.Duration.Milliseconds(),
			Citation:    cit,
		},
	}
}

// Failed builds the event for a failed run.
func Failed(runID, sourceURL string, serr *models.ScrapeError) *Event {
	return &Event{
		Type:      EventFailed,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data: FailedData{
			SourceURL: sourceURL,
			Error:     serr.ToDetail(),
		},
	}
}

// Deliver posts one event to the configured URL and waits for the answer.
// When a secret is set, the body is signed with HMAC-SHA256 and the hex
// digest travels in X-Ticha-Signature as "sha256=<hex>".
func Deliver(ctx context.Context, cfg config.WebhookConfig, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ticha-Webhook/1.0")

	if cfg.Secret != "" {
		mac := hmac.New(sha256.New, []byte(cfg.Secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Ticha-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func DeliverAsync(cfg config.WebhookConfig, event *Event) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			err := Deliver(ctx, cfg, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", cfg.URL,
					"event", event.Type,
					"run_id", event.RunID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", cfg.URL,
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", cfg.URL,
			"event", event.Type,
			"run_id", event.RunID,
		)
	}()
}
