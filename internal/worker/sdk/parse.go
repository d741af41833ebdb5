package sdk

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Mayank-Dandane/honeypot-api/internal/intel"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// extractJSONObject returns the outermost {...} span of a model response, ignoring code fences
// and chatter around it. It returns "" when there is no object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func decodeLoose(raw string) (map[string]any, bool) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, false
	}
	return out, true
}

// ParseClassification coerces a model response into a classification. Anything that cannot
// be understood falls back to DefaultClassification field by field.
func ParseClassification(raw string) models.Classification {
	c := models.DefaultClassification()
	obj, ok := decodeLoose(raw)
	if !ok {
		return c
	}

	for key, value := range obj {
		switch normalizeKey(key) {
		case "isscam", "scam", "scamdetected":
			if b, ok := coerceBool(value); ok {
				c.IsScam = b
			}
		case "scamtype", "type", "category":
			if s, ok := value.(string); ok {
				c.ScamType = models.ParseScamType(s)
			}
		case "confidence", "score", "probability":
			if f, ok := coerceFloat(value); ok {
				c.Confidence = clamp01(f)
			}
		case "signals", "indicators", "redflags", "tactics":
			c.Signals = coerceSignals(value)
		case "summary", "reason", "reasoning", "explanation":
			if s, ok := value.(string); ok {
				c.Summary = strings.TrimSpace(s)
			}
		}
	}
	return c
}

// ParseExtraction decodes a model extraction response using the field alias table.
// It reports false when no JSON object could be decoded.
func ParseExtraction(raw string) (models.Intelligence, bool) {
	obj, ok := decodeLoose(raw)
	if !ok {
		return models.Intelligence{}, false
	}
	// some models nest the result one level down
	for _, wrapper := range []string{"intelligence", "extractedIntelligence", "data", "result"} {
		if inner, ok := obj[wrapper].(map[string]any); ok {
			obj = inner
			break
		}
	}
	return intel.FromLoose(obj), true
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	case float64:
		return b != 0, true
	}
	return false, false
}

func coerceFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(f), "%")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		if strings.HasSuffix(strings.TrimSpace(f), "%") {
			parsed /= 100
		}
		return parsed, true
	}
	return 0, false
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0.5
	case f > 1 && f <= 100:
		// percentages sent as plain numbers
		return f / 100
	case f > 1:
		return 1
	case f < 0:
		return 0
	}
	return f
}

func coerceSignals(v any) []string {
	var raw []string
	switch s := v.(type) {
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				raw = append(raw, str)
			}
		}
	case string:
		raw = strings.Split(s, ",")
	}

	out := []string{}
	for _, r := range raw {
		if label := SignalLabel(r); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// SignalLabel normalizes a free-form signal into a lowercase snake_case label.
func SignalLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}), "_")
	return s
}
