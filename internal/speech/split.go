package speech

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkBudget is the longest utterance handed to a synthesizer
const DefaultChunkBudget = 160

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

// SplitForSpeech breaks text into sentences, then splits any sentence
// longer than budget runes on word boundaries. A single word longer than
// budget becomes a chunk of its own.
func SplitForSpeech(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}

	var chunks []string
	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if utf8.RuneCountInString(sentence) <= budget {
			chunks = append(chunks, sentence)
			continue
		}

		var b strings.Builder
		size := 0
		for _, word := range strings.Fields(sentence) {
			n := utf8.RuneCountInString(word)
			if size > 0 && size+1+n > budget {
				chunks = append(chunks, b.String())
				b.Reset()
				size = 0
			}
			if size > 0 {
				b.WriteByte(' ')
				size++
			}
			b.WriteString(word)
			size += n
		}
		if size > 0 {
			chunks = append(chunks, b.String())
		}
	}
	return chunks
}
