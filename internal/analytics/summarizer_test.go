package analytics

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/adapters/ai"
)

// stubChat records requests and replies with canned output
type stubChat struct {
	calls []ai.ChatRequest
	reply string
	err   error
}

func (c *stubChat) Complete(_ context.Context, req ai.ChatRequest) (string, error) {
	c.calls = append(c.calls, req)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestSummarizeShortPassthrough(t *testing.T) {
	chat := &stubChat{reply: "should not be used"}
	s := NewSummarizer(chat)

	text := "Shares closed higher after the earnings call."
	require.LessOrEqual(t, EstimateTokens(text), 200)

	out := s.Summarize(context.Background(), text)

	assert.Equal(t, text, out)
	assert.Empty(t, chat.calls, "passthrough must not hit the model")
}

func TestSummarizeMediumSingleCall(t *testing.T) {
	chat := &stubChat{reply: "A concise summary."}
	s := NewSummarizer(chat)

	text := mediumText(t)
	out := s.Summarize(context.Background(), text)

	assert.Equal(t, "A concise summary.", out)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0].Prompt, text)
}

func TestSummarizeModelFailureFallsBackToLeadingSentences(t *testing.T) {
	chat := &stubChat{err: fmt.Errorf("model unavailable")}
	s := NewSummarizer(chat)

	text := mediumText(t)
	out := s.Summarize(context.Background(), text)

	assert.Equal(t, FirstSentences(text, 3), out)
}

func TestSummarizeVeryLongChunksThenMerges(t *testing.T) {
	chat := &stubChat{reply: "chunk summary."}
	s := NewSummarizer(chat)

	// 2500 one-token words: two 1000-token chunks plus a 500-token tail
	text := strings.TrimSpace(strings.Repeat("week ", 2500))
	require.Equal(t, LengthVeryLong, Classify(EstimateTokens(text)))

	out := s.Summarize(context.Background(), text)

	assert.Equal(t, "chunk summary.", out)
	// three chunk calls plus one merge call
	assert.Len(t, chat.calls, 4)
}

func TestSummarizeVeryLongMergeFailureKeepsChunkOutput(t *testing.T) {
	chat := &failAfterChat{failFrom: 3, reply: "piece."}
	s := NewSummarizer(chat)

	text := strings.TrimSpace(strings.Repeat("week ", 2500))
	out := s.Summarize(context.Background(), text)

	assert.Equal(t, "piece. piece. piece.", out)
}

// failAfterChat succeeds for the first failFrom calls, then errors
type failAfterChat struct {
	n        int
	failFrom int
	reply    string
}

func (c *failAfterChat) Complete(context.Context, ai.ChatRequest) (string, error) {
	c.n++
	if c.n > c.failFrom {
		return "", fmt.Errorf("model unavailable")
	}
	return c.reply, nil
}

// mediumText builds a body in the 201-700 token band with real
// sentence boundaries for the fallback assertion
func mediumText(t *testing.T) string {
	t.Helper()
	sentence := "The company reported quarterly revenue growth that beat analyst expectations by a wide margin. "
	text := strings.TrimSpace(strings.Repeat(sentence, 25))
	tokens := EstimateTokens(text)
	require.Greater(t, tokens, 200)
	require.LessOrEqual(t, tokens, 700)
	return text
}
