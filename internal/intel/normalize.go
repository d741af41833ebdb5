// Package intel normalizes, deduplicates and extracts scam intelligence.
package intel

import (
	"strings"
	"unicode"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// trailingPunct is stripped from the end of links; scammers often end a sentence right after a URL.
const trailingPunct = `.,;:!?)]}>'"`

// Normalize canonicalizes a candidate value for the given field.
// An empty result means the candidate must be discarded.
func Normalize(f models.Field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch f {
	case models.FieldPhoneNumbers:
		return NormalizePhone(value)
	case models.FieldPhishingLinks:
		return NormalizeLink(value)
	case models.FieldEmailAddresses:
		return NormalizeEmail(value)
	}
	return value
}

// NormalizePhone canonicalizes Indian mobile numbers and explicitly country-coded numbers to
// "+<country><subscriber>". Anything else is returned trimmed but otherwise unchanged.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	var digits strings.Builder
	plus := false
	for i, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' && digits.Len() == 0 && i == strings.IndexRune(value, '+'):
			plus = true
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == '(' || r == ')' || r == '/':
			// separator
		default:
			return value
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10 && isIndianMobile(d):
		return "+91" + d
	case len(d) == 11 && d[0] == '0' && isIndianMobile(d[1:]):
		return "+91" + d[1:]
	case len(d) == 12 && strings.HasPrefix(d, "91") && isIndianMobile(d[2:]):
		return "+" + d
	case len(d) == 13 && strings.HasPrefix(d, "091") && isIndianMobile(d[3:]):
		return "+" + d[1:]
	case plus && len(d) >= 8 && len(d) <= 15:
		return "+" + d
	}
	return value
}

func isIndianMobile(d string) bool {
	return len(d) == 10 && d[0] >= '6' && d[0] <= '9'
}

// NormalizeLink trims trailing punctuation and lowercases the scheme and host.
// The path and query keep their case since shortener slugs are case-sensitive.
func NormalizeLink(value string) string {
	value = strings.TrimRight(strings.TrimSpace(value), trailingPunct)
	value = strings.TrimLeft(value, `(<["'`)
	if value == "" {
		return ""
	}

	rest := value
	scheme := ""
	if i := strings.Index(value, "://"); i > 0 {
		scheme = strings.ToLower(value[:i]) + "://"
		rest = value[i+3:]
	}
	host, path := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host, path = rest[:i], rest[i:]
	}
	if host == "" {
		return ""
	}
	return scheme + strings.ToLower(host) + path
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(value), trailingPunct))
}
