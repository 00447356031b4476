package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docfields/internal/common"
)

// HTTPStatusError is returned by PostJSON for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the provider asked us to come back later.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// JSONRequest describes one provider call.
type JSONRequest struct {
	URL     string
	Body    any
	Headers map[string]string
	// Retries is the number of extra attempts after a 429 or 5xx.
	Retries int
	// Backoff is the wait before the first retry; it doubles per attempt.
	Backoff time.Duration
}

// PostJSON posts req.Body as JSON and returns the raw response body. The
// request id from ctx is forwarded as X-Request-ID, or a fresh one is minted.
func PostJSON(ctx context.Context, client *http.Client, req JSONRequest, logger *slog.Logger) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	logger = common.LoggerFrom(common.WithRequestID(ctx, reqID), logger)

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	wait := req.Backoff
	for attempt := 0; ; attempt++ {
		raw, err := postOnce(ctx, client, req, payload, reqID, logger)
		statusErr, ok := err.(*HTTPStatusError)
		if err == nil || !ok || !statusErr.Retryable() || attempt >= req.Retries {
			return raw, err
		}
		logger.Warn("llm.http.retry", "attempt", attempt+1, "status", statusErr.StatusCode, "wait_ms", wait.Milliseconds())
		select {
		case <-ctx.Done():
			return raw, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func postOnce(ctx context.Context, client *http.Client, req JSONRequest, payload []byte, reqID string, logger *slog.Logger) ([]byte, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "url", req.URL, "content_length", len(payload))
	resp, err := client.Do(httpReq)
	if err != nil {
		logger.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("llm.http.close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("llm.http.response", "status", resp.StatusCode, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return raw, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
