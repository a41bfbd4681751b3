package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Delivery posts JSON bodies to a webhook with linear backoff between attempts.
type Delivery struct {
	Name       string
	Client     *http.Client
	RetryLimit int
	// Backoff is the base delay; attempt n waits n*Backoff. Defaults to 200ms.
	Backoff time.Duration
}

// NewHTTPClient returns a client with the given timeout, defaulting to 5s.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON sends body to url, retrying up to RetryLimit times on transport or non-2xx errors.
func (d Delivery) PostJSON(ctx context.Context, url string, body []byte) error {
	backoff := d.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := max(d.RetryLimit, 0) + 1

	var lastErr error
	for attempt := range attempts {
		if lastErr = d.post(ctx, url, body); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}

func (d Delivery) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", d.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = NewHTTPClient(0)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", d.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if readErr != nil {
		return fmt.Errorf("read %s error response: %w", d.Name, readErr)
	}
	return fmt.Errorf("%s %s: %s", d.Name, resp.Status, strings.TrimSpace(string(msg)))
}

// Fallback returns fallback when value is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
