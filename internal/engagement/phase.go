// Package engagement decides how the persona behaves on each turn and enforces the reply contract.
package engagement

// Phase is a turn-derived behavioral stage of the persona.
type Phase string

const (
	PhaseStalling        Phase = "stalling"
	PhaseExtracting      Phase = "extracting"
	PhaseFakeCooperating Phase = "fake-cooperating"
	PhaseConfusionLoop   Phase = "confusion-loop"
)

// Phases lists the phases in the order a conversation moves through them.
var Phases = []Phase{PhaseStalling, PhaseExtracting, PhaseFakeCooperating, PhaseConfusionLoop}

// PhaseFor maps a zero-based turn index to its phase. It is pure and depends on nothing but turn.
func PhaseFor(turn int) Phase {
	switch {
	case turn <= 2:
		return PhaseStalling
	case turn <= 4:
		return PhaseExtracting
	case turn <= 6:
		return PhaseFakeCooperating
	default:
		return PhaseConfusionLoop
	}
}

// Directive is the instruction given to the persona generator for this phase.
func (p Phase) Directive() string {
	switch p {
	case PhaseStalling:
		return "Act worried and slightly confused. Ask who they are and why this is happening. " +
			"Do not agree to anything yet and do not share any personal details."
	case PhaseExtracting:
		return "Appear willing to comply but ask for their details first: their phone number, " +
			"employee id, the UPI id or bank account to pay into, or the website link to use."
	case PhaseFakeCooperating:
		return "Pretend you are trying to follow their steps but something keeps going wrong. " +
			"Ask them to repeat payment details, an alternate account or UPI id, or another number to call."
	case PhaseConfusionLoop:
		return "Get mixed up about earlier instructions, repeat details back slightly wrong and ask them " +
			"to confirm, mention family members or a weak network, and keep them talking without ever paying."
	}
	return "Stay in character as a confused but cooperative person and keep the conversation going."
}
