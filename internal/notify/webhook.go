package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// userAgent identifies backup/restore notifications to receiving
// endpoints and their access logs.
const userAgent = "mongokit"

type webhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewWebhook(url string, headers map[string]string) (Notifier, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("config.url is required")
	}

	// Copied so a shared config map cannot mutate under the notifier.
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}

	return &webhookNotifier{
		url:     url,
		headers: h,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Notify posts the run event as JSON. On a non-2xx response the start of
// the response body is folded into the error so the dispatcher log shows
// what the endpoint complained about.
func (w *webhookNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s event: %w", event.Operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if snippet := bodySnippet(resp.Body); snippet != "" {
			return fmt.Errorf("%s event rejected: %s: %s", event.Operation, resp.Status, snippet)
		}
		return fmt.Errorf("%s event rejected: %s", event.Operation, resp.Status)
	}
	return nil
}

// bodySnippet reads at most the first 256 bytes of a rejection body.
func bodySnippet(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
