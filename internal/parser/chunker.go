// Package parser splits OCR text into word windows and salvages JSON objects
// from free-form model output.
package parser

import (
	"strings"

	"github.com/raphaelgruber/regextract/internal/models"
)

// ChunkWords splits text into windows of at most maxWords whitespace-delimited
// words. Consecutive windows share overlapWords words; the window that reaches
// the end of the text is the last one. When overlapWords >= maxWords the next
// window starts where the previous one ended.
func ChunkWords(text string, maxWords, overlapWords int) []models.Chunk {
	if maxWords <= 0 {
		return nil
	}
	if overlapWords < 0 {
		overlapWords = 0
	}

	words := strings.Fields(text)
	n := len(words)

	var chunks []models.Chunk
	for i := 0; i < n; {
		end := min(i+maxWords, n)
		joined := strings.Join(words[i:end], " ")
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, models.Chunk{
				Index: len(chunks),
				Start: i,
				End:   end,
				Text:  joined,
			})
		}
		if end == n {
			break
		}
		next := i + maxWords - overlapWords
		if next <= i {
			next = end
		}
		i = next
	}
	return chunks
}
