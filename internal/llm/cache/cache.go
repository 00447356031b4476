package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

const keyPrefix = "docfields:completion:"

// Store is the key/value surface the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Completer serves repeated (model, prompt, options) calls from a Store.
// Prompts are deterministic, so identical inputs map to the same key. Store
// failures are logged and bypassed. Replies the consumer could not use are
// dropped again through Forget.
type Completer struct {
	next     llm.Completer
	identity string
	store    Store
	ttl      time.Duration
	logger   *slog.Logger
}

var (
	_ llm.Completer = (*Completer)(nil)
	_ llm.Forgetter = (*Completer)(nil)
)

func New(next llm.Completer, store Store, ttl time.Duration, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Completer{next: next, identity: llm.IdentityOf(next), store: store, ttl: ttl, logger: logger}
}

// Identity passes through the wrapped model's identity.
func (c *Completer) Identity() string {
	return c.identity
}

// Key derives the cache key for a call to the model named identity.
func Key(identity, prompt string, opts llm.CompleteOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.3f|%d|", identity, opts.Temperature, opts.MaxOutputTokens)
	h.Write([]byte(prompt))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Completer) Complete(ctx context.Context, prompt string, opts llm.CompleteOptions) (string, error) {
	logger := common.LoggerFrom(ctx, c.logger)
	key := Key(c.identity, prompt, opts)

	if v, ok, err := c.store.Get(ctx, key); err != nil {
		logger.Warn("llm.cache.get_error", "error", err)
	} else if ok {
		logger.Debug("llm.cache.hit", "key", key)
		return v, nil
	}

	out, err := c.next.Complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	if err := c.store.Set(ctx, key, out, c.ttl); err != nil {
		logger.Warn("llm.cache.set_error", "error", err)
	}
	return out, nil
}

// Forget removes the stored reply for (prompt, opts).
func (c *Completer) Forget(ctx context.Context, prompt string, opts llm.CompleteOptions) {
	key := Key(c.identity, prompt, opts)
	if err := c.store.Delete(ctx, key); err != nil {
		common.LoggerFrom(ctx, c.logger).Warn("llm.cache.delete_error", "error", err)
		return
	}
	common.LoggerFrom(ctx, c.logger).Debug("llm.cache.forget", "key", key)
}
