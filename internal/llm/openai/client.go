package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends prompt as a single user message and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, prompt string, opts llm.CompleteOptions) (string, error) {
	logger := common.LoggerFrom(ctx, c.logger)
	start := time.Now()

	logger.Info("llm.complete.start",
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", opts.Temperature,
		"max_tokens", opts.MaxOutputTokens,
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": opts.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if opts.MaxOutputTokens > 0 {
		body["max_tokens"] = opts.MaxOutputTokens
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := llm.PostJSON(ctx, c.http, llm.JSONRequest{
		URL:     endpoint,
		Body:    body,
		Headers: c.headers(),
		Retries: c.cfg.Retries,
		Backoff: c.cfg.RetryBackoff,
	}, logger)
	if err != nil {
		logger.Error("llm.complete.http_error",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var statusErr *llm.HTTPStatusError
		if errors.As(err, &statusErr) {
			return "", fmt.Errorf("openai status %d: %w", statusErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai http error: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		logger.Error("llm.complete.decode_error",
			"error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		logger.Error("llm.complete.no_choices",
			"raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", errors.New("no choices in openai response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	logger.Info("llm.complete.ok",
		"provider", "openai",
		"finish_reason", cc.Choices[0].FinishReason,
		"prompt_tokens", cc.Usage.PromptTokens,
		"completion_tokens", cc.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
