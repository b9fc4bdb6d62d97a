package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short words count one each", "the cat sat", 3},
		{"five chars is two tokens", "stock rally", 4},
		{"long word", "internationalization", 5}, // 20 chars
		{"mixed", "a internationalization", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, LengthShort, Classify(1))
	assert.Equal(t, LengthShort, Classify(200))
	assert.Equal(t, LengthMedium, Classify(201))
	assert.Equal(t, LengthMedium, Classify(700))
	assert.Equal(t, LengthLong, Classify(701))
	assert.Equal(t, LengthLong, Classify(1000))
	assert.Equal(t, LengthVeryLong, Classify(1001))
}

func TestSplitByTokens(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 10)) // 10 tokens

	chunks := SplitByTokens(text, 4)
	assert.Len(t, chunks, 3)
	assert.Equal(t, "word word word word", chunks[0])
	assert.Equal(t, "word word", chunks[2])

	// chunks re-join to the original text
	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestSplitByTokensOverlap(t *testing.T) {
	words := []string{"w1", "w2", "w3", "w4", "w5", "w6"}
	chunks := SplitByTokensOverlap(strings.Join(words, " "), 4, 2)

	assert.GreaterOrEqual(t, len(chunks), 2)
	// the second chunk starts with the tail of the first
	firstWords := strings.Fields(chunks[0])
	secondWords := strings.Fields(chunks[1])
	assert.Equal(t, firstWords[len(firstWords)-2:], secondWords[:2])
}

func TestSplitByTokensSingleOversizedWord(t *testing.T) {
	chunks := SplitByTokens("supercalifragilisticexpialidocious", 2)
	assert.Len(t, chunks, 1)
}

func TestFirstSentences(t *testing.T) {
	text := "One. Two! Three? Four. Five."
	assert.Equal(t, "One. Two! Three?", FirstSentences(text, 3))
	assert.Equal(t, "One.", FirstSentences(text, 1))
	assert.Equal(t, text, FirstSentences(text, 10))
	assert.Equal(t, "no terminator here", FirstSentences("no terminator here", 3))
}
