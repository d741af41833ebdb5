package sdk

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// perMessageOverhead approximates the role and formatting tokens around each history line.
const perMessageOverhead = 4

// TokenCounter counts prompt tokens with the cl100k_base encoding.
type TokenCounter struct {
	codec tokenizer.Codec
	err   error
	once  sync.Once
}

var defaultCounter = &TokenCounter{}

// CountTokens returns the number of tokens in text using the shared counter.
func CountTokens(text string) int {
	return defaultCounter.Count(text)
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	c.init()
	if c.err != nil || c.codec == nil {
		// Fallback: rough estimate (4 chars per token)
		return (len(text) + 3) / 4
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}

func (c *TokenCounter) init() {
	c.once.Do(func() {
		c.codec, c.err = tokenizer.Get(tokenizer.Cl100kBase)
	})
}

// TrimHistory keeps the most recent messages that fit both the window and the token budget.
// The result is in chronological order. A non-positive window or budget disables that limit.
func TrimHistory(history []models.Message, window, budget int) []models.Message {
	start := 0
	if window > 0 && len(history) > window {
		start = len(history) - window
	}
	recent := history[start:]
	if budget <= 0 {
		return recent
	}

	used := 0
	keep := len(recent)
	for i := len(recent) - 1; i >= 0; i-- {
		cost := CountTokens(recent[i].Text) + perMessageOverhead
		if used+cost > budget {
			break
		}
		used += cost
		keep = i
	}
	if used == 0 {
		return nil
	}
	return recent[keep:]
}
