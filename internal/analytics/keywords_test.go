package analytics

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder maps any text to a small deterministic vector so
// relevance and MMR have stable inputs without a real model
type hashEmbedder struct{}

func (hashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%31) / 31
	}
	return v, nil
}

func (e hashEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.GenerateEmbedding(ctx, t)
	}
	return out, nil
}

func (hashEmbedder) Dimensions() int { return 8 }
func (hashEmbedder) Name() string    { return "hash" }

func TestNormalizeTextKeepsAllowedPunctuation(t *testing.T) {
	got := normalizeText("Revenue rose 5% to $1.2bn (adjusted) - a record!", nil)
	assert.Equal(t, "revenue rose 5% to $12bn (adjusted) - a record", got)
}

func TestNormalizeTextSkipsLemmatizationForEntities(t *testing.T) {
	surfaces := map[string]string{"earnings": "Earnings"}
	got := normalizeText("Earnings holdings", surfaces)
	assert.Equal(t, "earnings holding", got)
}

func TestLemmatize(t *testing.T) {
	tests := map[string]string{
		"companies": "company",
		"losses":    "loss",
		"trading":   "trad",
		"reported":  "report",
		"branches":  "branch",
		"stocks":    "stock",
		"loss":      "loss",
		"gas":       "gas",
		"5%":        "5%",
	}
	for in, want := range tests {
		assert.Equal(t, want, lemmatize(in), in)
	}
}

func TestCandidatePhrasesFiltersStopwordsAndBoundsPool(t *testing.T) {
	normalized := "interest rate decision moved the bond market as rate traders repriced"
	phrases := candidatePhrases(normalized, 60)

	require.NotEmpty(t, phrases)
	assert.Contains(t, phrases, "rate")
	assert.Contains(t, phrases, "interest rate decision")
	for _, p := range phrases {
		for _, w := range strings.Fields(p) {
			assert.False(t, stopwords[w], "stopword leaked into candidate %q", p)
		}
	}

	bounded := candidatePhrases(strings.Repeat("alpha beta gamma delta epsilon ", 20), 5)
	assert.Len(t, bounded, 5)
}

func TestRestoreSurfaces(t *testing.T) {
	surfaces := map[string]string{
		"goldman sachs": "Goldman Sachs",
		"goldman":       "Goldman",
		"sachs":         "Sachs",
	}

	assert.Equal(t, "Goldman Sachs", restoreSurfaces("goldman sachs", surfaces))
	assert.Equal(t, "Goldman upgrade", restoreSurfaces("goldman upgrade", surfaces))
	assert.Equal(t, "bond yields", restoreSurfaces("bond yields", surfaces))
}

func TestExtractReturnsRankedUniquePhrases(t *testing.T) {
	e := NewKeywordExtractor(hashEmbedder{}, 5)

	text := "Interest rate futures repriced sharply after the central bank decision. " +
		"Bond traders expect further volatility in rate markets. " +
		"Equity desks reported heavy hedging flows across index options. " +
		"Volatility sellers retreated from short positions. " +
		"Analysts see rate policy dominating the coming quarter. " +
		"Disclaimer: this is not investment advice. " +
		"Contact the newsroom for corrections. " +
		"All rights reserved."

	keywords, err := e.Extract(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 5)

	seen := map[string]bool{}
	for i, kw := range keywords {
		assert.False(t, seen[kw.Phrase], "duplicate phrase %q", kw.Phrase)
		seen[kw.Phrase] = true
		assert.GreaterOrEqual(t, kw.Score, 0.0)
		assert.LessOrEqual(t, kw.Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, kw.Score, keywords[i-1].Score)
		}
	}
}

func TestExtractChunkedAveragesScores(t *testing.T) {
	e := NewKeywordExtractor(hashEmbedder{}, 3)

	// well past the 500-token chunking threshold
	paragraph := "Semiconductor demand outlook improved as datacenter orders accelerated beyond forecasts. "
	text := strings.Repeat(paragraph, 80)
	require.Greater(t, EstimateTokens(text), chunkTokens)

	keywords, err := e.Extract(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 3)
	for i := 1; i < len(keywords); i++ {
		assert.LessOrEqual(t, keywords[i].Score, keywords[i-1].Score)
	}
}
