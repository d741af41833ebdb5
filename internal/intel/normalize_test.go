package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare ten digits", "9876543210", "+919876543210"},
		{"country coded", "+919876543210", "+919876543210"},
		{"country code with space", "91 9876543210", "+919876543210"},
		{"dashed", "+91-98765-43210", "+919876543210"},
		{"trunk prefix", "09876543210", "+919876543210"},
		{"grouped", "98765 43210", "+919876543210"},
		{"parenthesised", "(+91) 98765 43210", "+919876543210"},
		{"foreign with plus", "+1 415 555 0123", "+14155550123"},
		{"landline without plus passes through", "022 2345 6789", "022 2345 6789"},
		{"text passes through", "call me", "call me"},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizePhoneEquivalence(t *testing.T) {
	inputs := []string{"9876543210", "+919876543210", "91 9876543210"}
	canonical := NormalizePhone(inputs[0])
	for _, in := range inputs[1:] {
		assert.Equal(t, canonical, NormalizePhone(in), "input %q", in)
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normal", "https://bit.ly/abc123", "https://bit.ly/abc123"},
		{"upper host and scheme", "HTTPS://Bit.LY/abc123", "https://bit.ly/abc123"},
		{"trailing punctuation", "https://bit.ly/abc123.", "https://bit.ly/abc123"},
		{"wrapped in parens", "(http://sbi-kyc.in/verify)", "http://sbi-kyc.in/verify"},
		{"path case kept", "http://EXAMPLE.com/PayNow?ID=AbC", "http://example.com/PayNow?ID=AbC"},
		{"no scheme", "WWW.Fake-Bank.com/Login!", "www.fake-bank.com/Login"},
		{"only punctuation", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLink(tt.input))
		})
	}
}

func TestNormalizeByField(t *testing.T) {
	assert.Equal(t, "fraud.desk@gmail.com", Normalize(models.FieldEmailAddresses, "  Fraud.Desk@Gmail.com "))
	assert.Equal(t, "Ramesh.Kumar@okaxis", Normalize(models.FieldUPIIDs, " Ramesh.Kumar@okaxis "))
	assert.Equal(t, "OTP", Normalize(models.FieldSuspiciousKeywords, " OTP "))
	assert.Equal(t, "", Normalize(models.FieldBankAccounts, "\t\n"))
}
