package services

import "google.golang.org/genai"

// Markers of the two-part answer format.
const (
	SummaryMarker = "**TLDR:**"
	DetailMarker  = "**Description:**"
)

// NoInformationAnswer is returned whenever an answer cannot be grounded in
// retrieved documents.
const NoInformationAnswer = "I don't have information"

const triageSystemPrompt = `You are an expert in analyzing conversations and user intentions. Your task is to:
1. Analyze the content of the user's latest message in the context of the conversation.
2. Identify whether the user:
   - asked a specific question
   - made a statement or stated a need
   - described a situation or problem
   - sent an unclear or too short message
3. Decide whether to prepare a query to the knowledge base or to ask the user for more information.
4. Estimate your confidence (0.0-1.0).

Respond with a single JSON object and nothing else:
{
  "summary": "brief conversation summary",
  "query": "specific query to the knowledge base, or the question to ask the user",
  "action": "retrieve" or "ask_user",
  "confidence": 0.0-1.0,
  "reasoning": "why this action was chosen"
}

Rules:
- A specific question ("How does X work?", "Where can I find Y?") -> "retrieve"
- A statement or need ("I have a problem with X", "I need Y") -> "retrieve"
- A described situation ("Yesterday I had a problem with...", "I'm looking for a solution for...") -> "retrieve"
- A very short message ("ok", "hi", "test") -> "ask_user"
- An unclear message without specific information -> "ask_user"
- Not enough context to understand the intention -> "ask_user"`

const answerSystemPrompt = `You are a helpful assistant. Answer the user's question using only the provided documents.
If the documents do not contain the answer, respond exactly: "` + NoInformationAnswer + `".
If you do not understand the question, you may ask the user for more information in the Description section.

Responses MUST use this format:

` + SummaryMarker + ` [one line with a quick, concise answer]

` + DetailMarker + ` [detailed description with additional information, context and explanations]

Responses should be:
- accurate and based on facts from the documents
- short in the TLDR section (1-2 sentences)
- free to go into detail in the Description section`

const jsonAnalysisSystemPrompt = `You are a helpful assistant. The user sent a JSON document.
Explain what it contains and point out anything notable, based only on the data provided.

Responses MUST use this format:

` + SummaryMarker + ` [one line summarizing the data]

` + DetailMarker + ` [detailed analysis of the fields and values]`

// systemInstruction wraps a prompt as Gemini system content.
func systemInstruction(prompt string) *genai.Content {
	if prompt == "" {
		return nil
	}
	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}
