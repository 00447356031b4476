package llm

import "context"

// CompleteOptions bound a single model call.
type CompleteOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

// Budgets used by the engine. Classification and extraction run cold; discovery
// gets a little more room to propose fields.
var (
	ValidationOptions = CompleteOptions{Temperature: 0.1, MaxOutputTokens: 200}
	ExtractionOptions = CompleteOptions{Temperature: 0.1, MaxOutputTokens: 1000}
	DiscoveryOptions  = CompleteOptions{Temperature: 0.2, MaxOutputTokens: 2000}
)

// Completer is the model capability the engine depends on: prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Identifier is implemented by completers that can name the backend model,
// as "provider/model".
type Identifier interface {
	Identity() string
}

// IdentityOf returns c's identity, or "" when c doesn't expose one.
func IdentityOf(c Completer) string {
	if id, ok := c.(Identifier); ok {
		return id.Identity()
	}
	return ""
}

// Forgetter is implemented by completers that remember replies. Consumers call
// Forget when a reply turned out to be unusable so the next identical call
// reaches the model again.
type Forgetter interface {
	Forget(ctx context.Context, prompt string, opts CompleteOptions)
}

// Forget drops a remembered reply for (prompt, opts) when c keeps any.
func Forget(ctx context.Context, c Completer, prompt string, opts CompleteOptions) {
	if f, ok := c.(Forgetter); ok {
		f.Forget(ctx, prompt, opts)
	}
}
