package sdk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexExtractorOTPThreatHasNoIntelligence(t *testing.T) {
	got, err := RegexExtractor{}.Extract(context.Background(), []string{"URGENT: your account will be blocked, share OTP now"})
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestHybridExtractorUnion(t *testing.T) {
	llm := &LLMExtractor{Model: staticModel(`{"upi_ids": ["ramesh.kumar52@okaxis"], "organisations": ["SBI Head Office"]}`, nil)}
	h := &HybridExtractor{LLM: llm}

	got, err := h.Extract(context.Background(), []string{
		"Pay to ramesh.kumar52@okaxis or call 9876543210",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ramesh.kumar52@okaxis", "ramesh.kumar52@okaxis"}, got.UPIIDs, "duplicates are left for the merger")
	assert.Contains(t, got.PhoneNumbers, "9876543210")
	assert.Contains(t, got.Organizations, "SBI Head Office")
	assert.Empty(t, got.EmailAddresses)
}

func TestHybridExtractorModelFailure(t *testing.T) {
	texts := []string{"visit https://bit.ly/abc123 now"}
	regexOnly, _ := RegexExtractor{}.Extract(context.Background(), texts)

	for _, llm := range []Extractor{
		&LLMExtractor{Model: staticModel("", errors.New("boom"))},
		&LLMExtractor{Model: staticModel("not json", nil)},
		&LLMExtractor{},
	} {
		got, err := (&HybridExtractor{LLM: llm}).Extract(context.Background(), texts)
		require.NoError(t, err)
		assert.Equal(t, regexOnly, got)
	}
	assert.Equal(t, []string{"https://bit.ly/abc123"}, regexOnly.PhishingLinks)
}

func TestLLMExtractorErrors(t *testing.T) {
	_, err := (&LLMExtractor{}).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoModel)

	_, err = (&LLMExtractor{Model: staticModel("[]", nil)}).Extract(context.Background(), []string{"x"})
	assert.Error(t, err)
}
