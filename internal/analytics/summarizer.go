package analytics

import (
	"context"
	"fmt"
	"strings"

	"minerva/internal/adapters/ai"
	"minerva/pkg/logger"
)

// LengthClass routes an input to a summarization model by token length
type LengthClass string

const (
	LengthShort    LengthClass = "short"     // <= 200 tokens: passthrough
	LengthMedium   LengthClass = "medium"    // 201-700
	LengthLong     LengthClass = "long"      // 701-1000
	LengthVeryLong LengthClass = "very_long" // > 1000: chunk then merge
)

// Classify returns the length class for a token count
func Classify(tokens int) LengthClass {
	switch {
	case tokens <= 200:
		return LengthShort
	case tokens <= 700:
		return LengthMedium
	case tokens <= 1000:
		return LengthLong
	default:
		return LengthVeryLong
	}
}

// modelSpec is one registered summarization configuration
type modelSpec struct {
	name      string
	minLen    int
	targetLen func(tokens int) int
}

// registry maps each non-passthrough length class to its model.
// very_long chunks also use the very_long spec for the merge pass.
var registry = map[LengthClass]modelSpec{
	LengthMedium: {
		name:   "abstractive-medium",
		minLen: 50,
		targetLen: func(tokens int) int {
			return maxInt(50, tokens*20/100)
		},
	},
	LengthLong: {
		name:   "abstractive-long",
		minLen: 50,
		targetLen: func(tokens int) int {
			return maxInt(75, tokens*15/100)
		},
	},
	LengthVeryLong: {
		name:      "abstractive-longctx",
		minLen:    75,
		targetLen: func(int) int { return 200 },
	},
}

const chunkWindow = 1000

// Summarizer produces per-article summaries with length-based model
// routing. Model failures degrade to the first sentences of the input;
// errors never reach the caller.
type Summarizer struct {
	chat ai.ChatProvider
	log  *logger.Logger
}

// NewSummarizer creates a new summarizer
func NewSummarizer(chat ai.ChatProvider) *Summarizer {
	return &Summarizer{
		chat: chat,
		log:  logger.Get().With("component", "summarizer"),
	}
}

// Summarize returns a summary of text. Inputs of at most 200 tokens
// are returned unchanged, with no length bound on the output.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	tokens := EstimateTokens(text)
	class := Classify(tokens)

	switch class {
	case LengthShort:
		return text

	case LengthVeryLong:
		return s.chunkAndMerge(ctx, text)

	default:
		spec := registry[class]
		out, err := s.run(ctx, spec, text, spec.targetLen(tokens))
		if err != nil {
			s.log.Warnw("Summarization failed, falling back to leading sentences",
				"class", class, "error", err)
			return FirstSentences(text, 3)
		}
		return out
	}
}

// chunkAndMerge splits very long input into consecutive windows of
// 1000 tokens, summarizes each, and summarizes the concatenation once
// more with the same model
func (s *Summarizer) chunkAndMerge(ctx context.Context, text string) string {
	spec := registry[LengthVeryLong]
	chunks := SplitByTokens(text, chunkWindow)

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := s.run(ctx, spec, chunk, spec.targetLen(0))
		if err != nil {
			s.log.Warnw("Chunk summarization failed, falling back to leading sentences", "error", err)
			return FirstSentences(text, 3)
		}
		parts = append(parts, out)
	}

	merged := strings.Join(parts, " ")
	out, err := s.run(ctx, spec, merged, spec.targetLen(0))
	if err != nil {
		s.log.Warnw("Merge summarization failed, using concatenated chunks", "error", err)
		return merged
	}
	return out
}

// run sends one summarization request to the model backing spec
func (s *Summarizer) run(ctx context.Context, spec modelSpec, text string, targetLen int) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following article in roughly %d tokens (at least %d). "+
			"Keep only the substance; no preamble.\n\n%s",
		targetLen, spec.minLen, text,
	)

	return s.chat.Complete(ctx, ai.ChatRequest{
		System:    "You are a financial news summarizer. Answer with the summary only.",
		Prompt:    prompt,
		MaxTokens: targetLen * 2,
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
