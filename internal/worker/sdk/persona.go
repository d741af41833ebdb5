package sdk

import (
	"context"
	"fmt"
)

// PersonaGenerator writes the persona's next reply. Its output is untrusted free text.
type PersonaGenerator interface {
	Generate(ctx context.Context, req PersonaRequest) (string, error)
}

// LLMPersona generates persona replies with a model.
type LLMPersona struct {
	Model         Model
	HistoryWindow int
	TokenBudget   int
}

// Generate builds the persona prompt and returns the raw model text.
func (p *LLMPersona) Generate(ctx context.Context, req PersonaRequest) (string, error) {
	if p == nil || p.Model == nil {
		return "", ErrNoModel
	}
	text, err := p.Model.Generate(ctx, GenerateRequest{
		System:      PersonaSystemPrompt,
		Prompt:      BuildPersonaPrompt(req, p.HistoryWindow, p.TokenBudget),
		Temperature: 0.9,
		MaxTokens:   160,
	})
	if err != nil {
		return "", fmt.Errorf("persona: %w", err)
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
