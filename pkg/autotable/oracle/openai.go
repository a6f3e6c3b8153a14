package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIOptions configures an OpenAI-compatible chat completions endpoint.
type OpenAIOptions struct {
	BaseURL string // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration

	// MaxTokens caps the reply length; zero leaves it to the server.
	MaxTokens int

	// EndpointPath overrides /chat/completions; a full URL is used as is.
	EndpointPath string

	// DisableAuth suppresses the Authorization: Bearer header for gateways
	// that authenticate through ExtraHeaders.
	DisableAuth  bool
	ExtraHeaders map[string]string
}

func (o *OpenAIOptions) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.Model == "" {
		o.Model = "gpt-4o-mini"
	}
	if o.EndpointPath == "" {
		o.EndpointPath = "/chat/completions"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
}

// OpenAI is a client for OpenAI-compatible /chat/completions services.
type OpenAI struct {
	hc          *http.Client
	url         string
	apiKey      string
	model       string
	maxTokens   int
	extraH      map[string]string
	disableAuth bool
}

// NewOpenAI builds an OpenAI-compatible client.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	opts.defaults()
	if opts.APIKey == "" && !opts.DisableAuth {
		return nil, fmt.Errorf("openai: %w: missing api key", ErrInvalidInput)
	}
	fullURL := opts.EndpointPath
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = strings.TrimRight(opts.BaseURL, "/") + "/" + strings.TrimLeft(opts.EndpointPath, "/")
	}
	return &OpenAI{
		hc:          &http.Client{Timeout: opts.Timeout},
		url:         fullURL,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		extraH:      opts.ExtraHeaders,
		disableAuth: opts.DisableAuth,
	}, nil
}

type oaReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type oaResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request.
func (c *OpenAI) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("openai: %w: no messages", ErrInvalidInput)
	}
	body, err := json.Marshal(oaReq{Model: c.model, Messages: msgs, Temperature: temperature, MaxTokens: c.maxTokens})
	if err != nil {
		return "", fmt.Errorf("encode: %v: %w", err, ErrInvalidInput)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %v: %w", err, ErrInvalidInput)
	}
	if !c.disableAuth {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.extraH {
		if k != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", statusError("openai", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	var or oaResp
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", fmt.Errorf("decode: %w", ErrResponseInvalid)
	}
	if len(or.Choices) == 0 || or.Choices[0].Message.Content == "" {
		return "", ErrResponseInvalid
	}
	return or.Choices[0].Message.Content, nil
}
