package models

import "slices"

// Field names one category of actionable intelligence.
type Field string

const (
	FieldPhoneNumbers       Field = "phoneNumbers"
	FieldUPIIDs             Field = "upiIds"
	FieldBankAccounts       Field = "bankAccounts"
	FieldIFSCCodes          Field = "ifscCodes"
	FieldPhishingLinks      Field = "phishingLinks"
	FieldEmailAddresses     Field = "emailAddresses"
	FieldOrganizations      Field = "impersonatedOrganizations"
	FieldSuspiciousKeywords Field = "suspiciousKeywords"
)

// Fields lists every intelligence field in report order.
var Fields = []Field{
	FieldPhoneNumbers,
	FieldUPIIDs,
	FieldBankAccounts,
	FieldIFSCCodes,
	FieldPhishingLinks,
	FieldEmailAddresses,
	FieldOrganizations,
	FieldSuspiciousKeywords,
}

// Label is a human readable name used in report notes.
func (f Field) Label() string {
	switch f {
	case FieldPhoneNumbers:
		return "Phone numbers"
	case FieldUPIIDs:
		return "UPI / payment handles"
	case FieldBankAccounts:
		return "Bank accounts"
	case FieldIFSCCodes:
		return "IFSC codes"
	case FieldPhishingLinks:
		return "Phishing links"
	case FieldEmailAddresses:
		return "Email addresses"
	case FieldOrganizations:
		return "Impersonated organizations"
	case FieldSuspiciousKeywords:
		return "Suspicious keywords"
	}
	return string(f)
}

// Intelligence holds the categorized values extracted from scammer text.
// Inside a session every slice is a set of normalized values; extraction results
// use the same shape before normalization.
type Intelligence struct {
	PhoneNumbers       []string `json:"phoneNumbers"`
	UPIIDs             []string `json:"upiIds"`
	BankAccounts       []string `json:"bankAccounts"`
	IFSCCodes          []string `json:"ifscCodes"`
	PhishingLinks      []string `json:"phishingLinks"`
	EmailAddresses     []string `json:"emailAddresses"`
	Organizations      []string `json:"impersonatedOrganizations"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Values returns a pointer to the slice backing the given field, or nil for an unknown field.
func (i *Intelligence) Values(f Field) *[]string {
	switch f {
	case FieldPhoneNumbers:
		return &i.PhoneNumbers
	case FieldUPIIDs:
		return &i.UPIIDs
	case FieldBankAccounts:
		return &i.BankAccounts
	case FieldIFSCCodes:
		return &i.IFSCCodes
	case FieldPhishingLinks:
		return &i.PhishingLinks
	case FieldEmailAddresses:
		return &i.EmailAddresses
	case FieldOrganizations:
		return &i.Organizations
	case FieldSuspiciousKeywords:
		return &i.SuspiciousKeywords
	}
	return nil
}

// Get returns the values of a field.
func (i *Intelligence) Get(f Field) []string {
	if v := i.Values(f); v != nil {
		return *v
	}
	return nil
}

// Count returns the total number of values across all fields.
func (i *Intelligence) Count() int {
	n := 0
	for _, f := range Fields {
		n += len(i.Get(f))
	}
	return n
}

// IsEmpty reports whether no field holds a value.
func (i *Intelligence) IsEmpty() bool {
	return i.Count() == 0
}

// Clone returns a deep copy with every field non-nil, so JSON renders empty arrays.
func (i *Intelligence) Clone() Intelligence {
	var c Intelligence
	for _, f := range Fields {
		src := i.Get(f)
		dst := c.Values(f)
		*dst = slices.Clone(src)
		if *dst == nil {
			*dst = []string{}
		}
	}
	return c
}
