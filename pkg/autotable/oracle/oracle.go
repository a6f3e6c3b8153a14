// Package oracle talks to the text-generation service that maps slot context
// and knowledge to fill values.
//
// Every provider satisfies the same small contract: given role-tagged
// messages and a temperature, return the reply text verbatim. Callers parse
// the text themselves.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/config"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Minimal error classes for callers that want to react to a failure kind.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrResponseInvalid = errors.New("response invalid")
	ErrInvalidInput    = errors.New("invalid input")
)

// Message is one role-tagged prompt part.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client completes a conversation. Implementations must honour ctx and return
// the reply text unmodified.
type Client interface {
	Complete(ctx context.Context, msgs []Message, temperature float64) (string, error)
}

// Func adapts a plain function to Client.
type Func func(ctx context.Context, msgs []Message, temperature float64) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	return f(ctx, msgs, temperature)
}

// New builds the client selected by cfg.LLM.Provider.
func New(cfg *config.Config) (Client, error) {
	timeout := cfg.GetLLMTimeout()

	// The api defaults describe an OpenAI endpoint; other hosted providers
	// fall back to their own endpoint and model unless configured.
	def := config.DefaultConfig().LLM
	model, baseURL := cfg.LLM.Model, cfg.LLM.BaseURL
	if model == def.Model {
		model = ""
	}
	if baseURL == def.BaseURL {
		baseURL = ""
	}

	var (
		c   Client
		err error
	)
	switch cfg.LLM.Provider {
	case config.ProviderAPI:
		c, err = NewOpenAI(OpenAIOptions{
			BaseURL:      cfg.LLM.BaseURL,
			APIKey:       cfg.LLM.APIKey,
			Model:        cfg.LLM.Model,
			Timeout:      timeout,
			MaxTokens:    cfg.LLM.MaxTokens,
			ExtraHeaders: cfg.LLM.ExtraHeaders,
		})
	case config.ProviderOllama:
		c = NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, timeout)
	case config.ProviderGemini:
		c, err = NewGemini(context.Background(), cfg.LLM.APIKey, model)
	case config.ProviderAnthropic:
		c, err = NewAnthropic(cfg.LLM.APIKey, model, baseURL, cfg.LLM.MaxTokens, timeout)
	default:
		return nil, fmt.Errorf("oracle: %w: unknown provider %q", ErrInvalidInput, cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// WithLogging wraps c so every call logs its latency and reply size.
func WithLogging(c Client, log *zap.Logger) Client {
	return Func(func(ctx context.Context, msgs []Message, temperature float64) (string, error) {
		start := time.Now()
		out, err := c.Complete(ctx, msgs, temperature)
		fields := []zap.Field{
			zap.Int("messages", len(msgs)),
			zap.Float64("temperature", temperature),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			log.Warn("oracle call failed", append(fields, zap.Error(err))...)
			return "", err
		}
		log.Debug("oracle call", append(fields, zap.Int("reply_bytes", len(out)))...)
		return out, nil
	})
}

// upstreamError carries an HTTP status the caller may retry on.
type upstreamError struct {
	provider string
	status   int
	msg      string
}

func (e upstreamError) Error() string {
	return fmt.Sprintf("%s upstream %d: %s", e.provider, e.status, e.msg)
}

func (e upstreamError) Timeout() bool   { return e.status == http.StatusRequestTimeout }
func (e upstreamError) Temporary() bool { return e.status/100 == 5 }

// UpstreamStatus returns the HTTP status code.
func (e upstreamError) UpstreamStatus() int { return e.status }

// statusError classifies a non-2xx response.
func statusError(provider string, status int, msg string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	case status == http.StatusRequestTimeout || status/100 == 5:
		return upstreamError{provider: provider, status: status, msg: msg}
	default:
		return fmt.Errorf("%s upstream %d: %s: %w", provider, status, msg, ErrInvalidInput)
	}
}
