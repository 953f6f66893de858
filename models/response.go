package models

// Answer is the reply to a conversation.
type Answer struct {
	Answer             string   `json:"answer"`
	AudioURL           string   `json:"audio_url,omitempty"`
	Confidence         float64  `json:"confidence"`
	Sources            []Source `json:"sources"`
	NeedsClarification bool     `json:"needs_clarification"`
}

// Source is a shortened view of a retrieved document.
type Source struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score"`
}

// AnswerSections is an answer split on its TLDR and Description markers.
// Structured is false when the text did not follow the two-part format.
type AnswerSections struct {
	Summary    string
	Detail     string
	Structured bool
}

type UploadDocumentsResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DocumentCount int    `json:"document_count"`
}

type JSONChatResponse struct {
	Answer     string  `json:"answer"`
	AudioURL   string  `json:"audio_url,omitempty"`
	Confidence float64 `json:"confidence"`
}

type AudioResponse struct {
	AudioURL string `json:"audio_url"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Services map[string]string `json:"services"`
}
