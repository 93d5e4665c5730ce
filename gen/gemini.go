package gen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini produces stage content through the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// GeminiOption configures a Gemini generator.
type GeminiOption func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GeminiOption {
	return func(g *Gemini) { g.temperature = t }
}

// NewGemini creates a Gemini generator. An empty apiKey falls back to the
// GEMINI_API_KEY environment variable via the client config.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gen: creating gemini client: %w", err)
	}

	g := &Gemini{
		client:      client,
		model:       DefaultGeminiModel,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if req.Role != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Role, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Instructions), cfg)
	if err != nil {
		return "", fmt.Errorf("gen: gemini generate (stage %s): %w", req.Stage, err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gen: gemini returned empty response")
	}
	return text, nil
}
