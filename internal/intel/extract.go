package intel

import (
	"regexp"
	"strings"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

var (
	urlRegex       = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"'` + "`" + `]+`)
	shortLinkRegex = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|t\.co|goo\.gl|rb\.gy|is\.gd|cutt\.ly|shorturl\.at|tiny\.cc)/[^\s<>"']+`)
	handleRegex    = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9._-]{1,255}@[a-zA-Z][a-zA-Z0-9.-]{1,64}`)
	digitRunRegex  = regexp.MustCompile(`\+?\d(?:[ -]?\d){8,17}`)
	ifscRegex      = regexp.MustCompile(`(?i)\b[a-z]{4}0[a-z0-9]{6}\b`)
)

// upiProviders are handle suffixes issued by UPI apps and banks. A domain in this list is a payment
// handle even when the rest of the value looks like an email.
var upiProviders = map[string]bool{
	"okaxis": true, "oksbi": true, "okhdfcbank": true, "okicici": true, "ybl": true, "ibl": true,
	"axl": true, "paytm": true, "upi": true, "apl": true, "yapl": true, "ptyes": true, "ptaxis": true,
	"pthdfc": true, "ptsbi": true, "fbl": true, "airtel": true, "jio": true, "freecharge": true,
	"ikwik": true, "waaxis": true, "wahdfcbank": true, "icici": true, "sbi": true, "hdfcbank": true,
	"axisbank": true, "kotak": true, "barodampay": true, "unionbank": true, "pnb": true, "boi": true,
	"cnrb": true, "idfcbank": true, "indus": true, "federal": true, "rbl": true, "abfspay": true,
	"yesbank": true, "axisb": true,
}

type orgPattern struct {
	name  string
	regex *regexp.Regexp
}

var orgPatterns = []orgPattern{
	{"State Bank of India", regexp.MustCompile(`(?i)\b(?:sbi|state bank of india)\b`)},
	{"HDFC Bank", regexp.MustCompile(`(?i)\bhdfc\b`)},
	{"ICICI Bank", regexp.MustCompile(`(?i)\bicici\b`)},
	{"Axis Bank", regexp.MustCompile(`(?i)\baxis bank\b`)},
	{"Punjab National Bank", regexp.MustCompile(`(?i)\b(?:pnb|punjab national bank)\b`)},
	{"Kotak Mahindra Bank", regexp.MustCompile(`(?i)\bkotak\b`)},
	{"Bank of Baroda", regexp.MustCompile(`(?i)\bbank of baroda\b`)},
	{"Reserve Bank of India", regexp.MustCompile(`(?i)\b(?:rbi|reserve bank)\b`)},
	{"Paytm", regexp.MustCompile(`(?i)\bpaytm\b`)},
	{"PhonePe", regexp.MustCompile(`(?i)\bphone ?pe\b`)},
	{"Google Pay", regexp.MustCompile(`(?i)\b(?:google pay|gpay)\b`)},
	{"Amazon", regexp.MustCompile(`(?i)\bamazon\b`)},
	{"Flipkart", regexp.MustCompile(`(?i)\bflipkart\b`)},
	{"Income Tax Department", regexp.MustCompile(`(?i)\bincome ?tax\b`)},
	{"Customs", regexp.MustCompile(`(?i)\bcustoms\b`)},
	{"Police", regexp.MustCompile(`(?i)\b(?:police|cyber ?cell|cyber ?crime)\b`)},
	{"CBI", regexp.MustCompile(`(?i)\bcbi\b`)},
	{"TRAI", regexp.MustCompile(`(?i)\btrai\b`)},
	{"UIDAI", regexp.MustCompile(`(?i)\buidai\b`)},
	{"FedEx", regexp.MustCompile(`(?i)\bfedex\b`)},
	{"DHL", regexp.MustCompile(`(?i)\bdhl\b`)},
	{"Microsoft", regexp.MustCompile(`(?i)\bmicrosoft\b`)},
	{"Electricity Board", regexp.MustCompile(`(?i)\belectricity (?:board|department|office)\b`)},
}

// Extract runs the deterministic pattern catalog over scammer text.
// The result is raw: values still go through Merge for normalization and dedup.
func Extract(texts ...string) models.Intelligence {
	var out models.Intelligence
	text := strings.Join(texts, "\n")
	if strings.TrimSpace(text) == "" {
		return out
	}

	// Links are pulled first and masked so their digits and '@' cannot leak into other fields.
	masked := text
	for _, loc := range urlRegex.FindAllStringIndex(masked, -1) {
		out.PhishingLinks = append(out.PhishingLinks, masked[loc[0]:loc[1]])
	}
	masked = mask(masked, urlRegex)
	for _, loc := range shortLinkRegex.FindAllStringIndex(masked, -1) {
		out.PhishingLinks = append(out.PhishingLinks, masked[loc[0]:loc[1]])
	}
	masked = mask(masked, shortLinkRegex)

	for _, m := range handleRegex.FindAllString(masked, -1) {
		m = strings.TrimRight(m, ".-")
		if IsPaymentHandle(m) {
			out.UPIIDs = append(out.UPIIDs, m)
		} else {
			out.EmailAddresses = append(out.EmailAddresses, m)
		}
	}
	masked = mask(masked, handleRegex)

	for _, m := range ifscRegex.FindAllString(masked, -1) {
		out.IFSCCodes = append(out.IFSCCodes, strings.ToUpper(m))
	}
	masked = mask(masked, ifscRegex)

	for _, loc := range digitRunRegex.FindAllStringIndex(masked, -1) {
		if !standalone(masked, loc[0], loc[1]) {
			continue
		}
		run := masked[loc[0]:loc[1]]
		switch classifyDigits(run) {
		case models.FieldPhoneNumbers:
			out.PhoneNumbers = append(out.PhoneNumbers, run)
		case models.FieldBankAccounts:
			out.BankAccounts = append(out.BankAccounts, stripSeparators(run))
		}
	}

	for _, p := range orgPatterns {
		if p.regex.MatchString(masked) {
			out.Organizations = append(out.Organizations, p.name)
		}
	}

	return out
}

// IsPaymentHandle reports whether local@domain is a UPI style payment address rather than an email.
func IsPaymentHandle(value string) bool {
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := strings.ToLower(value[at+1:])
	if upiProviders[domain] {
		return true
	}
	return !strings.Contains(domain, ".")
}

func classifyDigits(run string) models.Field {
	digits := stripSeparators(run)
	if strings.HasPrefix(digits, "+") {
		return models.FieldPhoneNumbers
	}
	if NormalizePhone(run) != run || NormalizePhone(digits) != digits {
		return models.FieldPhoneNumbers
	}
	if len(digits) >= 9 && len(digits) <= 18 {
		return models.FieldBankAccounts
	}
	return ""
}

func stripSeparators(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// standalone rejects digit runs glued to letters, such as order ids or reference codes.
func standalone(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func mask(s string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}
