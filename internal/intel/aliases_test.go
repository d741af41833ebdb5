package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

func TestFieldForKey(t *testing.T) {
	tests := []struct {
		key      string
		expected models.Field
		ok       bool
	}{
		{"phoneNumbers", models.FieldPhoneNumbers, true},
		{"phone_numbers", models.FieldPhoneNumbers, true},
		{"Mobile-Numbers", models.FieldPhoneNumbers, true},
		{"upi_ids", models.FieldUPIIDs, true},
		{"payment handles", models.FieldUPIIDs, true},
		{"accountNumbers", models.FieldBankAccounts, true},
		{"routing_codes", models.FieldIFSCCodes, true},
		{"URLs", models.FieldPhishingLinks, true},
		{"emails", models.FieldEmailAddresses, true},
		{"impersonated_organisations", models.FieldOrganizations, true},
		{"keywords", models.FieldSuspiciousKeywords, true},
		{"confidence", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, ok := FieldForKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFromLoose(t *testing.T) {
	raw := map[string]any{
		"phone_numbers":  []any{"9876543210", 42, nil, "  "},
		"upi":            "ramesh@okaxis",
		"links":          []any{"https://bit.ly/abc123"},
		"bankAccounts":   map[string]any{"nested": "ignored"},
		"scamType":       "bank_fraud",
		"emails":         []string{"a@b.com"},
		"organisations":  []any{"SBI"},
		"not_a_real_key": []any{"x"},
	}

	got := FromLoose(raw)

	assert.Equal(t, []string{"9876543210"}, got.PhoneNumbers)
	assert.Equal(t, []string{"ramesh@okaxis"}, got.UPIIDs)
	assert.Equal(t, []string{"https://bit.ly/abc123"}, got.PhishingLinks)
	assert.Empty(t, got.BankAccounts)
	assert.Equal(t, []string{"a@b.com"}, got.EmailAddresses)
	assert.Equal(t, []string{"SBI"}, got.Organizations)
}
