package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 45 * time.Second
	defaultBackoff = 500 * time.Millisecond
)

// Config for the OpenAI client. BaseURL may point at any server speaking the
// chat/completions protocol (Azure, vLLM, LM Studio).
type Config struct {
	APIKey       string // falls back to OPENAI_API_KEY
	BaseURL      string
	Model        string
	Organization string // sent as OpenAI-Organization when set
	Timeout      time.Duration
	// Retries on 429 and 5xx. Zero disables retrying.
	Retries      int
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultBackoff
	}
	return c
}

// Client calls the chat/completions endpoint of any OpenAI-compatible server.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Identity() string {
	return "openai/" + c.cfg.Model
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if c.cfg.Organization != "" {
		h["OpenAI-Organization"] = c.cfg.Organization
	}
	return h
}
