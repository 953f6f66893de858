package models

type GenerateAudioRequest struct {
	Text string `json:"text"`
}

// GetMoreInformationRequest wraps the conversation sent by the chat client.
type GetMoreInformationRequest struct {
	Conversation Conversation `json:"conversation"`
}
