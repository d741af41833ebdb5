package sdk

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// ClassifyInput is the text a classifier judges: the latest message plus a trailing window of
// earlier scammer messages.
type ClassifyInput struct {
	Message string
	Prior   []string
}

// Classifier decides whether a conversation turn is part of a scam.
type Classifier interface {
	Classify(ctx context.Context, in ClassifyInput) (models.Classification, error)
}

// Signal labels produced by the rule classifier.
const (
	SignalCredentialRequest = "credential_request"
	SignalAccountThreat     = "account_threat"
	SignalUrgency           = "urgency"
	SignalPaymentRequest    = "payment_request"
	SignalLinkLure          = "link_lure"
	SignalPrize             = "prize_claim"
	SignalJobOffer          = "job_offer"
	SignalInvestment        = "investment_pitch"
	SignalAuthorityThreat   = "authority_threat"
	SignalRemoteAccess      = "remote_access"
)

type signalRule struct {
	pattern  *regexp.Regexp
	label    string
	scamType models.ScamType
	// strong signals confirm a scam together with urgency alone
	strong bool
}

// signalRules are ordered by specificity; ties between scam types go to the earlier rule.
var signalRules = []signalRule{
	{
		label:    SignalCredentialRequest,
		scamType: models.ScamTypeBankFraud,
		strong:   true,
		pattern:  regexp.MustCompile(`(?i)\b(otp|one[ -]time password|pin|cvv|password|verification code|card number|card details|aadhaa?r|pan card|net ?banking|login details)\b`),
	},
	{
		label:    SignalAccountThreat,
		scamType: models.ScamTypeBankFraud,
		strong:   true,
		pattern:  regexp.MustCompile(`(?i)\b(blocked|block(ed)? (your|the) account|suspend(ed)?|frozen|freeze|deactivat(ed|e)|locked|will be closed|kyc)\b`),
	},
	{
		label:    SignalPrize,
		scamType: models.ScamTypeLottery,
		pattern:  regexp.MustCompile(`(?i)\b(lottery|lucky draw|jackpot|you (have )?won|winner|prize|cash reward|gift voucher)\b`),
	},
	{
		label:    SignalJobOffer,
		scamType: models.ScamTypeJob,
		pattern:  regexp.MustCompile(`(?i)\b(work from home|part[ -]time|job offer|daily income|earn (rs\.?|₹)?\s?\d+|simple tasks?|like (and|&) subscribe|hiring)\b`),
	},
	{
		label:    SignalInvestment,
		scamType: models.ScamTypeInvestment,
		pattern:  regexp.MustCompile(`(?i)\b(invest(ment)?|guaranteed returns?|double your|trading|crypto|bitcoin|stock tips|high returns?)\b`),
	},
	{
		label:    SignalAuthorityThreat,
		scamType: models.ScamTypeImpersonation,
		strong:   true,
		pattern:  regexp.MustCompile(`(?i)\b(police|cbi|customs|arrest(ed)?|warrant|court|legal action|cyber cell|narcotics|income tax|rbi officer|digital arrest)\b`),
	},
	{
		label:    SignalRemoteAccess,
		scamType: models.ScamTypeTechSupport,
		strong:   true,
		pattern:  regexp.MustCompile(`(?i)\b(anydesk|teamviewer|quick ?support|remote access|screen shar(e|ing)|virus|tech(nical)? support)\b`),
	},
	{
		label:    SignalLinkLure,
		scamType: models.ScamTypePhishing,
		pattern:  regexp.MustCompile(`(?i)(https?://|www\.|\bbit\.ly\b|\bclick (on )?(the|this) link\b|\bopen (the|this) link\b)`),
	},
	{
		label:    SignalPaymentRequest,
		scamType: models.ScamTypeUPIFraud,
		pattern:  regexp.MustCompile(`(?i)\b(upi|send (the )?money|transfer|pay(ment)? (now|first)|processing fee|registration fee|collect request|scan (the|this) qr|refund)\b`),
	},
	{
		label:   SignalUrgency,
		pattern: regexp.MustCompile(`(?i)\b(urgent(ly)?|immediately|right now|asap|hurry|last chance|within \d+ (minutes?|hours?)|today itself|expire[sd]?)\b`),
	},
}

// RuleClassifier is a deterministic keyword classifier. It never fails and is used alone when
// no model is configured and as the floor under the model classifier otherwise.
type RuleClassifier struct{}

// Classify matches the signal catalog against the message and prior scammer messages.
func (RuleClassifier) Classify(_ context.Context, in ClassifyInput) (models.Classification, error) {
	text := strings.Join(append(append([]string{}, in.Prior...), in.Message), "\n")

	c := models.Classification{
		ScamType: models.ScamTypeUnknown,
		Signals:  []string{},
	}
	votes := make(map[models.ScamType]int)
	strong, urgent := false, false
	for _, rule := range signalRules {
		if !rule.pattern.MatchString(text) {
			continue
		}
		c.Signals = append(c.Signals, rule.label)
		if rule.scamType != "" {
			votes[rule.scamType]++
		}
		strong = strong || rule.strong
		urgent = urgent || rule.label == SignalUrgency
	}

	n := len(c.Signals)
	c.IsScam = n >= 2 || (strong && urgent)
	best := 0
	for _, rule := range signalRules {
		if v := votes[rule.scamType]; rule.scamType != "" && v > best {
			best = v
			c.ScamType = rule.scamType
		}
	}

	if c.IsScam {
		c.Confidence = min(0.6+0.1*float64(n-2), 0.95)
		c.Summary = fmt.Sprintf("Matched %s", strings.Join(c.Signals, ", "))
	} else {
		c.Confidence = 0.2 + 0.1*float64(n)
	}
	return c, nil
}

// LLMClassifier asks a model for a verdict. Malformed responses degrade to the default verdict;
// only model failures are returned as errors.
type LLMClassifier struct {
	Model Model
}

// Classify sends the classifier prompt and parses the verdict.
func (l *LLMClassifier) Classify(ctx context.Context, in ClassifyInput) (models.Classification, error) {
	if l == nil || l.Model == nil {
		return models.DefaultClassification(), ErrNoModel
	}
	raw, err := l.Model.Generate(ctx, GenerateRequest{
		System:      classifierSystemPrompt,
		Prompt:      BuildClassifierPrompt(in.Message, in.Prior),
		Temperature: 0.1,
		MaxTokens:   400,
		JSON:        true,
	})
	if err != nil {
		return models.DefaultClassification(), fmt.Errorf("classify: %w", err)
	}
	return ParseClassification(raw), nil
}

// HybridClassifier combines the rule verdict with an optional model verdict.
type HybridClassifier struct {
	LLM   Classifier
	Rules RuleClassifier
}

// Classify always returns the rule verdict, enriched by the model when it answers.
func (h *HybridClassifier) Classify(ctx context.Context, in ClassifyInput) (models.Classification, error) {
	rules, _ := h.Rules.Classify(ctx, in)
	if h.LLM == nil {
		return rules, nil
	}

	llm, err := h.LLM.Classify(ctx, in)
	if err != nil {
		log.Warn().Err(err).Msg("Model classifier failed, using rule verdict")
		return rules, nil
	}
	return MergeClassifications(rules, llm), nil
}

// MergeClassifications unions two verdicts: either one can confirm a scam, signals are
// combined and the more confident known scam type wins.
func MergeClassifications(a, b models.Classification) models.Classification {
	out := models.Classification{
		IsScam:     a.IsScam || b.IsScam,
		ScamType:   a.ScamType,
		Confidence: max(a.Confidence, b.Confidence),
		Summary:    a.Summary,
		Signals:    []string{},
	}
	if out.ScamType == "" {
		out.ScamType = models.ScamTypeUnknown
	}
	if b.ScamType != "" && b.ScamType != models.ScamTypeUnknown &&
		(out.ScamType == models.ScamTypeUnknown || b.Confidence > a.Confidence) {
		out.ScamType = b.ScamType
	}
	if b.Summary != "" {
		out.Summary = b.Summary
	}
	seen := make(map[string]bool)
	for _, s := range append(append([]string{}, a.Signals...), b.Signals...) {
		if s != "" && !seen[s] {
			seen[s] = true
			out.Signals = append(out.Signals, s)
		}
	}
	return out
}
