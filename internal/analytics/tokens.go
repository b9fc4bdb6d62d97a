package analytics

import "strings"

// Token estimation for length routing and chunking. A deterministic
// whitespace-and-subword estimator stands in for the reference BART
// tokenizer: each word contributes one token per started 4-character
// group. Routing thresholds were calibrated against this estimator.

// EstimateTokens returns the approximate token count of text
func EstimateTokens(text string) int {
	count := 0
	for _, word := range strings.Fields(text) {
		count += wordTokens(word)
	}
	return count
}

// wordTokens is 1 for words up to 4 characters, one more per started
// 4-character group beyond that
func wordTokens(word string) int {
	n := len(word)
	if n <= 4 {
		return 1
	}
	return (n + 3) / 4
}

// SplitByTokens splits text into consecutive non-overlapping windows
// of at most maxTokens tokens, breaking on word boundaries
func SplitByTokens(text string, maxTokens int) []string {
	return splitTokens(text, maxTokens, 0)
}

// SplitByTokensOverlap splits text into windows of at most maxTokens
// tokens where consecutive windows share overlap tokens
func SplitByTokensOverlap(text string, maxTokens, overlap int) []string {
	return splitTokens(text, maxTokens, overlap)
}

func splitTokens(text string, maxTokens, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if overlap >= maxTokens {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(words) {
		tokens := 0
		end := start
		for end < len(words) && tokens+wordTokens(words[end]) <= maxTokens {
			tokens += wordTokens(words[end])
			end++
		}
		if end == start {
			end++ // single word longer than the window
		}

		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}

		// step back overlap tokens for the next window
		next := end
		if overlap > 0 {
			back := 0
			for next > start+1 && back < overlap {
				next--
				back += wordTokens(words[next])
			}
		}
		start = next
	}

	return chunks
}

// FirstSentences returns the first n sentences of text, used as the
// degraded summary when a model is unavailable
func FirstSentences(text string, n int) string {
	var out strings.Builder
	count := 0
	for i, r := range text {
		out.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			count++
			if count >= n {
				return strings.TrimSpace(text[:i+1])
			}
		}
	}
	return strings.TrimSpace(text)
}
