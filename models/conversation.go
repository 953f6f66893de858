package models

import "time"

// Message roles accepted in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one turn of the chat history.
type ConversationMessage struct {
	Role      string     `json:"role" binding:"required,oneof=user assistant"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Conversation is the full history sent by the client, oldest first.
type Conversation struct {
	Messages  []ConversationMessage `json:"messages" binding:"dive"`
	SessionID string                `json:"session_id,omitempty"`
}

// LastUserMessage returns the content of the most recent user turn.
func (c Conversation) LastUserMessage() (string, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content, true
		}
	}
	return "", false
}

// TriageAction is the routing decision for a conversation.
type TriageAction string

const (
	ActionRetrieve TriageAction = "retrieve"
	ActionAskUser  TriageAction = "ask_user"
)

// TriageResult is the structured outcome of triaging a conversation.
type TriageResult struct {
	Summary    string       `json:"summary"`
	Query      string       `json:"query"`
	Action     TriageAction `json:"action"`
	Confidence float64      `json:"confidence"`
	Reasoning  string       `json:"reasoning"`
}
