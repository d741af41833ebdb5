// Package privacy sanitizes untrusted scammer text before it is embedded into model prompts.
package privacy

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// promptTagRegex matches role and framing tags such as <system>, </instructions> or <|im_start|>.
	promptTagRegex = regexp.MustCompile(`(?i)<\|?\s*/?\s*(system|instructions?|assistant|user|prompt|context|scammer_message|conversation|im_start|im_end)\b[^>]*\|?>`)

	// overrideRegex matches the usual attempts to talk the model out of its instructions.
	overrideRegex = regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+|any\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules)`)
)

// StripPromptTags removes prompt framing tags, leaving their content in place.
func StripPromptTags(text string) string {
	return promptTagRegex.ReplaceAllString(text, " ")
}

// StripOverrides removes instruction override phrases.
func StripOverrides(text string) string {
	return overrideRegex.ReplaceAllString(text, " ")
}

// StripInvisible removes control and zero-width characters. Newlines and tabs become spaces.
func StripInvisible(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\u2060' || r == '\ufeff':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}

// Sanitize performs full cleaning on text.
// This is the main function to use before putting scammer content into a prompt.
func Sanitize(text string) string {
	text = StripInvisible(text)
	text = StripPromptTags(text)
	text = StripOverrides(text)
	return strings.Join(strings.Fields(text), " ")
}

// SanitizeAll sanitizes every text and drops the ones that end up empty.
func SanitizeAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if s := Sanitize(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
