package models

import "strings"

// ScamType is one label of the closed scam taxonomy.
type ScamType string

const (
	ScamTypeUnknown       ScamType = "unknown"
	ScamTypeBankFraud     ScamType = "bank_fraud"
	ScamTypeUPIFraud      ScamType = "upi_fraud"
	ScamTypePhishing      ScamType = "phishing"
	ScamTypeLottery       ScamType = "lottery_scam"
	ScamTypeJob           ScamType = "job_scam"
	ScamTypeInvestment    ScamType = "investment_scam"
	ScamTypeImpersonation ScamType = "impersonation"
	ScamTypeTechSupport   ScamType = "tech_support"
)

// ScamTypes lists the known taxonomy, excluding unknown.
var ScamTypes = []ScamType{
	ScamTypeBankFraud,
	ScamTypeUPIFraud,
	ScamTypePhishing,
	ScamTypeLottery,
	ScamTypeJob,
	ScamTypeInvestment,
	ScamTypeImpersonation,
	ScamTypeTechSupport,
}

// ParseScamType maps free text onto the taxonomy; anything unrecognized is unknown.
func ParseScamType(s string) ScamType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, t := range ScamTypes {
		if string(t) == s {
			return t
		}
	}
	switch s {
	case "bank", "banking", "bank_scam", "kyc_fraud", "otp_fraud":
		return ScamTypeBankFraud
	case "upi", "upi_scam", "payment_fraud":
		return ScamTypeUPIFraud
	case "phishing_link", "phishing_scam":
		return ScamTypePhishing
	case "lottery", "prize", "lottery_fraud", "prize_scam":
		return ScamTypeLottery
	case "job", "job_fraud", "employment_scam":
		return ScamTypeJob
	case "investment", "crypto_scam", "investment_fraud", "trading_scam":
		return ScamTypeInvestment
	case "impersonation_scam", "authority_scam", "digital_arrest", "courier_scam":
		return ScamTypeImpersonation
	case "tech_support_scam", "remote_access":
		return ScamTypeTechSupport
	}
	return ScamTypeUnknown
}

// Classification is the verdict of a classifier for a single turn.
type Classification struct {
	ScamType   ScamType `json:"scamType"`
	Summary    string   `json:"summary,omitempty"`
	Signals    []string `json:"signals"`
	Confidence float64  `json:"confidence"`
	IsScam     bool     `json:"isScam"`
}

// DefaultClassification is the safe verdict used when a classifier response cannot be trusted.
func DefaultClassification() Classification {
	return Classification{
		IsScam:     false,
		ScamType:   ScamTypeUnknown,
		Confidence: 0.5,
		Signals:    []string{},
	}
}
