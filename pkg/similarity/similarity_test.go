package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	terms := Terms("The OTP is 4521, please share it with the bank officer!")

	assert.True(t, terms["otp"])
	assert.True(t, terms["4521"])
	assert.True(t, terms["bank"])
	assert.True(t, terms["officer"])
	assert.False(t, terms["the"], "stop words are dropped")
	assert.False(t, terms["is"], "short words are dropped")
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		set1     map[string]bool
		set2     map[string]bool
		expected float64
	}{
		{"both empty", map[string]bool{}, map[string]bool{}, 1.0},
		{"one empty", map[string]bool{"a": true}, map[string]bool{}, 0.0},
		{"identical", map[string]bool{"bank": true, "otp": true}, map[string]bool{"bank": true, "otp": true}, 1.0},
		{"half overlap", map[string]bool{"bank": true, "otp": true}, map[string]bool{"bank": true, "pin": true}, 1.0 / 3.0},
		{"disjoint", map[string]bool{"bank": true}, map[string]bool{"lottery": true}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, JaccardSimilarity(tt.set1, tt.set2), 0.0001)
		})
	}
}

func TestIsSimilarToAny(t *testing.T) {
	previous := []string{
		"Oh no, which bank account are you talking about sir?",
		"My grandson usually handles the phone, can you wait?",
	}

	assert.True(t, IsSimilarToAny("Which bank account are you talking about, sir?", previous, 0.8))
	assert.False(t, IsSimilarToAny("Should I send the money to this UPI id then?", previous, 0.8))
	assert.False(t, IsSimilarToAny("ok", previous, 0.8), "text without terms is never similar")
	assert.False(t, IsSimilarToAny("Which bank account?", nil, 0.8))
}
