package models

import "strings"

// Sender roles seen on the wire. Anything that is not a persona role is treated as the scammer.
const (
	SenderScammer = "scammer"
	SenderUser    = "user"
)

// Message is one entry of a conversation as supplied by the caller.
// Timestamp is epoch milliseconds; RFC 3339 strings are converted and anything unparseable decodes to zero.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// IsFromPersona reports whether the message was authored by the honeypot side.
func (m Message) IsFromPersona() bool {
	switch strings.ToLower(strings.TrimSpace(m.Sender)) {
	case "user", "agent", "assistant", "honeypot", "victim", "bot":
		return true
	}
	return false
}

// Metadata is accepted with every turn and passed through untouched.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// TurnRequest is the inbound payload for a single conversation turn.
type TurnRequest struct {
	Metadata            *Metadata `json:"metadata,omitempty"`
	SessionID           string    `json:"sessionId"`
	Message             Message   `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
}

// Valid reports whether the request carries the fields turn processing needs.
func (r *TurnRequest) Valid() bool {
	return strings.TrimSpace(r.SessionID) != "" && strings.TrimSpace(r.Message.Text) != ""
}

// TurnIndex is the zero-based turn number implied by the history: the count of scammer messages already seen.
func (r *TurnRequest) TurnIndex() int {
	n := 0
	for _, m := range r.ConversationHistory {
		if !m.IsFromPersona() {
			n++
		}
	}
	return n
}

// ScammerTexts returns every scammer-authored text in the history followed by the current message.
func (r *TurnRequest) ScammerTexts() []string {
	texts := make([]string, 0, len(r.ConversationHistory)+1)
	for _, m := range r.ConversationHistory {
		if !m.IsFromPersona() && strings.TrimSpace(m.Text) != "" {
			texts = append(texts, m.Text)
		}
	}
	if strings.TrimSpace(r.Message.Text) != "" {
		texts = append(texts, r.Message.Text)
	}
	return texts
}

// PersonaReplies returns the texts previously sent by the persona, oldest first.
func (r *TurnRequest) PersonaReplies() []string {
	var replies []string
	for _, m := range r.ConversationHistory {
		if m.IsFromPersona() && strings.TrimSpace(m.Text) != "" {
			replies = append(replies, m.Text)
		}
	}
	return replies
}

// TurnResponse is the reply contract of the turn endpoint.
type TurnResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// NewTurnResponse builds a successful turn response.
func NewTurnResponse(reply string) TurnResponse {
	return TurnResponse{Status: "success", Reply: reply}
}
