package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini completes conversations through Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: missing api key", ErrInvalidInput)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete sends system messages as the system instruction and the rest as
// user content.
func (g *Gemini) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	system, contents := splitGemini(msgs)
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: %w: no user message", ErrInvalidInput)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrResponseInvalid
	}
	return text, nil
}

// splitGemini separates system instructions from conversation turns.
// Gemini only knows the user and model roles.
func splitGemini(msgs []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range msgs {
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case RoleSystem:
			system = append(system, m.Content)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
