package services

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the maximum chunk length used during ingestion.
const DefaultChunkSize = 1000

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	sentenceEnd   = regexp.MustCompile(`[.!?]+`)
)

// ChunkText splits text into sentence-aligned chunks of at most maxLen bytes.
// Whitespace is collapsed first. A sentence longer than maxLen becomes a chunk
// of its own and is never cut.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, piece := range sentenceEnd.Split(text, -1) {
		sentence := strings.TrimSpace(piece)
		if sentence == "" {
			continue
		}
		sentence += "."
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > maxLen {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	flush()
	return chunks
}
