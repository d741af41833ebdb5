package sdk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Mayank-Dandane/honeypot-api/internal/engagement"
	"github.com/Mayank-Dandane/honeypot-api/internal/privacy"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// PersonaSystemPrompt defines the character the persona generator plays.
const PersonaSystemPrompt = `You are Kamala Iyer, a 62 year old retired school teacher living alone in Pune.
You are polite, a little anxious and not comfortable with technology. You are chatting with someone
who is trying to scam you, but you must never show that you suspect it.

Rules:
- Never say or hint that you are an AI, a bot or a honeypot.
- Never share a real OTP, PIN, password, card number or Aadhaar number, and never actually send money.
- Keep the scammer talking and get them to reveal their phone numbers, UPI IDs, bank accounts, links and names.
- Reply in one or two short sentences, in the same language the scammer uses.
- Output only the reply text, without quotes, labels or explanations.`

const classifierSystemPrompt = `You are a fraud analyst. You read messages sent to a potential victim and decide whether
they are part of a scam. You answer with a single JSON object and nothing else.`

const extractorSystemPrompt = `You extract actionable fraud intelligence from scam messages. You answer with a single
JSON object and nothing else. Never invent values that do not appear in the text.`

// PersonaRequest carries everything the persona generator may use for one reply.
type PersonaRequest struct {
	ScamType models.ScamType
	Phase    engagement.Phase
	Message  string
	History  []models.Message
	Known    models.Intelligence
	Turn     int
}

// requestedFields are the fields the persona should try to obtain, in priority order.
var requestedFields = []models.Field{
	models.FieldUPIIDs,
	models.FieldBankAccounts,
	models.FieldPhoneNumbers,
	models.FieldPhishingLinks,
	models.FieldEmailAddresses,
	models.FieldIFSCCodes,
}

// BuildPersonaPrompt builds the prompt for the next persona reply.
func BuildPersonaPrompt(req PersonaRequest, window, tokenBudget int) string {
	scamType := req.ScamType
	if scamType == "" {
		scamType = models.ScamTypeUnknown
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<scam_type>%s</scam_type>\n", scamType))
	sb.WriteString(fmt.Sprintf("<turn>%d</turn>\n", req.Turn+1))
	sb.WriteString(fmt.Sprintf("<phase name=%q>%s</phase>\n", req.Phase, req.Phase.Directive()))

	sb.WriteString("<already_known>\n")
	known := 0
	for _, f := range requestedFields {
		if values := req.Known.Get(f); len(values) > 0 {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Label(), strings.Join(values, ", ")))
			known++
		}
	}
	if known == 0 {
		sb.WriteString("  nothing yet\n")
	}
	sb.WriteString("</already_known>\n")

	var missing []string
	for _, f := range requestedFields {
		if len(req.Known.Get(f)) == 0 {
			missing = append(missing, strings.ToLower(f.Label()))
		}
	}
	if len(missing) > 0 {
		sb.WriteString(fmt.Sprintf("Do not ask again for details that are already known. Still missing: %s.\n",
			strings.Join(missing, "; ")))
	}

	sb.WriteString("<conversation>\n")
	for _, m := range TrimHistory(req.History, window, tokenBudget) {
		text := privacy.Sanitize(m.Text)
		if text == "" {
			continue
		}
		speaker := "Scammer"
		if m.IsFromPersona() {
			speaker = "You"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", speaker, truncate(text, 600)))
	}
	sb.WriteString("</conversation>\n")
	sb.WriteString(fmt.Sprintf("<latest_message>%s</latest_message>\n", truncate(privacy.Sanitize(req.Message), 1200)))
	sb.WriteString("Write your next reply as Kamala. End with a question that keeps them talking.")

	return sb.String()
}

// BuildClassifierPrompt builds the prompt asking whether the latest message is a scam.
func BuildClassifierPrompt(message string, prior []string) string {
	types := make([]string, 0, len(models.ScamTypes)+1)
	for _, t := range models.ScamTypes {
		types = append(types, string(t))
	}
	types = append(types, string(models.ScamTypeUnknown))

	var sb strings.Builder
	if prior = privacy.SanitizeAll(prior); len(prior) > 0 {
		sb.WriteString("<earlier_messages>\n")
		for _, p := range prior {
			sb.WriteString("- ")
			sb.WriteString(truncate(p, 400))
			sb.WriteString("\n")
		}
		sb.WriteString("</earlier_messages>\n")
	}
	sb.WriteString(fmt.Sprintf("<latest_message>%s</latest_message>\n\n", truncate(privacy.Sanitize(message), 1500)))
	sb.WriteString(`Respond with JSON in this shape:
{"isScam": true|false, "scamType": "<one of: ` + strings.Join(types, ", ") + `>", "confidence": 0.0-1.0, "signals": ["short_snake_case_labels"], "summary": "one sentence describing the tactic"}`)

	return sb.String()
}

// BuildExtractorPrompt builds the prompt asking for intelligence found in scammer text.
func BuildExtractorPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("<scammer_text>\n")
	for _, t := range privacy.SanitizeAll(texts) {
		sb.WriteString(truncate(t, 1500))
		sb.WriteString("\n")
	}
	sb.WriteString("</scammer_text>\n\n")
	sb.WriteString(`Respond with JSON in this shape, using empty arrays when nothing was found:
{"phoneNumbers": [], "upiIds": [], "bankAccounts": [], "ifscCodes": [], "phishingLinks": [], "emailAddresses": [], "impersonatedOrganizations": []}
UPI IDs look like name@bank with no dot after the @. Email addresses have a dotted domain.`)

	return sb.String()
}

// truncate truncates a string to the specified length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}
