package sdk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/internal/intel"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// Extractor pulls raw intelligence out of scammer-authored text.
// Results are un-normalized; the session store normalizes on merge.
type Extractor interface {
	Extract(ctx context.Context, texts []string) (models.Intelligence, error)
}

// RegexExtractor is the deterministic pattern extractor.
type RegexExtractor struct{}

// Extract runs the pattern catalog over texts.
func (RegexExtractor) Extract(_ context.Context, texts []string) (models.Intelligence, error) {
	return intel.Extract(texts...), nil
}

// LLMExtractor asks a model for intelligence and maps its loosely named keys onto fields.
type LLMExtractor struct {
	Model Model
}

// Extract sends the extractor prompt and parses the response.
func (l *LLMExtractor) Extract(ctx context.Context, texts []string) (models.Intelligence, error) {
	if l == nil || l.Model == nil {
		return models.Intelligence{}, ErrNoModel
	}
	raw, err := l.Model.Generate(ctx, GenerateRequest{
		System:      extractorSystemPrompt,
		Prompt:      BuildExtractorPrompt(texts),
		Temperature: 0,
		MaxTokens:   600,
		JSON:        true,
	})
	if err != nil {
		return models.Intelligence{}, fmt.Errorf("extract: %w", err)
	}
	result, ok := ParseExtraction(raw)
	if !ok {
		return models.Intelligence{}, fmt.Errorf("extract: response is not a JSON object")
	}
	return result, nil
}

// HybridExtractor unions the pattern extractor with an optional model extractor.
type HybridExtractor struct {
	LLM   Extractor
	Regex RegexExtractor
}

// Extract always returns the pattern matches, plus whatever the model found when it answers.
func (h *HybridExtractor) Extract(ctx context.Context, texts []string) (models.Intelligence, error) {
	result, _ := h.Regex.Extract(ctx, texts)
	if h.LLM == nil {
		return result, nil
	}

	fromModel, err := h.LLM.Extract(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Msg("Model extractor failed, using pattern matches only")
		return result, nil
	}
	for _, f := range models.Fields {
		*result.Values(f) = append(*result.Values(f), fromModel.Get(f)...)
	}
	return result, nil
}
