package engagement

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
	"github.com/Mayank-Dandane/honeypot-api/pkg/similarity"
)

const (
	DefaultMinLength       = 12
	DefaultMaxLength       = 240
	DefaultRepeatThreshold = 0.8

	// MinMaxLength keeps room for a sentence plus a hook.
	MinMaxLength = 80

	lastResort = "Sorry, can you repeat that?"
	ellipsis   = "..."
)

var (
	roleLabelPattern = regexp.MustCompile(`(?i)^(reply|response|answer|victim|user|persona|assistant|agent|me|you)\s*:\s*`)
	codeFencePattern = regexp.MustCompile("^```[a-zA-Z]*|```$")
)

const quoteChars = "\"'`“”‘’«»"

// ReplyInput is what the policy needs to know about the turn a reply is for.
type ReplyInput struct {
	ScamType models.ScamType
	Turn     int
	// Previous persona replies, most recent last.
	Previous []string
}

// ReplyPolicy turns untrusted generator output into a reply that is non-empty,
// bounded by MaxLength and ends in "?", "..." or "…".
type ReplyPolicy struct {
	Catalog         *Catalog
	MinLength       int
	MaxLength       int
	RepeatThreshold float64
}

// NewReplyPolicy builds a policy, substituting defaults for zero values.
func NewReplyPolicy(catalog *Catalog, minLength, maxLength int) *ReplyPolicy {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if maxLength < MinMaxLength {
		maxLength = MinMaxLength
	}
	return &ReplyPolicy{
		Catalog:         catalog,
		MinLength:       minLength,
		MaxLength:       maxLength,
		RepeatThreshold: DefaultRepeatThreshold,
	}
}

// Polish post-processes raw generator output. Short, empty or repeated output is
// replaced by the phase fallback line.
func (p *ReplyPolicy) Polish(raw string, in ReplyInput) string {
	text := Clean(raw)
	switch {
	case utf8.RuneCountInString(text) < p.MinLength:
		text = p.fallbackLine(in)
	case p.RepeatThreshold > 0 && similarity.IsSimilarToAny(text, in.Previous, p.RepeatThreshold):
		text = p.fallbackLine(in)
	}
	return p.finish(text, in.Turn)
}

// Fallback is the reply used when the generator is unavailable.
func (p *ReplyPolicy) Fallback(in ReplyInput) string {
	return p.finish(p.fallbackLine(in), in.Turn)
}

// Generic is the reply for requests that cannot be tied to a conversation.
func (p *ReplyPolicy) Generic(turn int) string {
	return p.finish(p.Catalog.GenericLine(turn), turn)
}

// fallbackLine rotates through the phase lines to avoid one the persona already used.
func (p *ReplyPolicy) fallbackLine(in ReplyInput) string {
	phase := PhaseFor(in.Turn)
	first := p.Catalog.Fallback(in.ScamType, phase, in.Turn)
	if p.RepeatThreshold <= 0 || len(in.Previous) == 0 {
		return first
	}
	for i := 0; i < 8; i++ {
		line := p.Catalog.Fallback(in.ScamType, phase, in.Turn+i)
		if !similarity.IsSimilarToAny(line, in.Previous, p.RepeatThreshold) {
			return line
		}
	}
	return first
}

func (p *ReplyPolicy) finish(text string, turn int) string {
	text = Clean(text)
	if text == "" {
		text = lastResort
	}
	maxLen := p.MaxLength
	text = truncate(text, maxLen)
	if invitesReply(text) {
		return text
	}

	hook := Clean(p.Catalog.Hook(turn))
	hookLen := utf8.RuneCountInString(hook)
	if hook == "" || !invitesReply(hook) || hookLen+1 > maxLen/2 {
		return withEllipsis(text, maxLen)
	}
	if utf8.RuneCountInString(text)+1+hookLen <= maxLen {
		return text + " " + hook
	}
	text = truncate(text, maxLen-hookLen-1)
	if invitesReply(text) {
		return text
	}
	return text + " " + hook
}

// Clean strips role labels, code fences, wrapping quotes and leading punctuation, and collapses whitespace.
func Clean(raw string) string {
	text := strings.Join(strings.Fields(raw), " ")
	for i := 0; i < 4; i++ {
		before := text
		text = strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))
		text = roleLabelPattern.ReplaceAllString(text, "")
		text = strings.Trim(text, quoteChars+" ")
		text = strings.TrimLeftFunc(text, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
		})
		text = strings.TrimSpace(text)
		if text == before {
			break
		}
	}
	return text
}

func invitesReply(text string) bool {
	return strings.HasSuffix(text, "?") || strings.HasSuffix(text, ellipsis) || strings.HasSuffix(text, "…")
}

// truncate shortens text to at most limit runes, preferring a sentence boundary
// and otherwise cutting at a word and appending an ellipsis.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	for i := limit - 1; i >= limit/3; i-- {
		switch runes[i] {
		case '.', '!', '?', '…':
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return withEllipsis(text, limit)
}

// withEllipsis forces an ellipsis ending while staying within limit runes.
func withEllipsis(text string, limit int) string {
	text = strings.TrimRight(text, ".!,;: ")
	runes := []rune(text)
	budget := limit - len(ellipsis)
	if len(runes) > budget {
		cut := budget
		for i := budget; i > budget/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		runes = []rune(strings.TrimRight(string(runes[:cut]), ".!,;: "))
	}
	return string(runes) + ellipsis
}
