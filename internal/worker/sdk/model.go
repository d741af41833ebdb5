// Package sdk wires the honeypot to its language-model collaborators.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrNoModel is returned by model-backed collaborators that were built without a model.
	ErrNoModel = errors.New("sdk: no model configured")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("sdk: empty model response")
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// GenerateRequest is a single prompt for a model.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
	// JSON asks the model for an application/json response.
	JSON bool
}

// Model generates text for a prompt.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req GenerateRequest) (string, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

// GeminiModel generates text using Google's Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiModel{client: client, model: model}, nil
}

// Name returns the configured model name.
func (g *GeminiModel) Name() string {
	return g.model
}

// Generate sends one prompt and returns the response text.
func (g *GeminiModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = req.MaxTokens
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
