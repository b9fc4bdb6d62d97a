package analytics

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"

	"minerva/internal/adapters/embeddings"
	"minerva/internal/domain/analytics"
	"minerva/pkg/logger"
)

const (
	ngramMax      = 3
	candidatePool = 60
	mmrDiversity  = 0.5
	chunkTokens   = 500
	chunkOverlap  = 50
)

// entityLabels are the named-entity types preserved through
// normalization: people, organizations, locations, products,
// facilities, and geopolitical entities
var entityLabels = map[string]bool{
	"PERSON": true, "ORG": true, "ORGANIZATION": true,
	"GPE": true, "LOC": true, "LOCATION": true,
	"PRODUCT": true, "FAC": true, "FACILITY": true,
}

// KeywordExtractor produces salient key phrases per article using an
// embedding relevance model with maximal marginal relevance selection.
// Failures degrade to an empty keyword list; the request still succeeds.
type KeywordExtractor struct {
	embedder embeddings.Provider
	topN     int
	log      *logger.Logger
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor(embedder embeddings.Provider, topN int) *KeywordExtractor {
	if topN <= 0 {
		topN = 10
	}
	return &KeywordExtractor{
		embedder: embedder,
		topN:     topN,
		log:      logger.Get().With("component", "keyword_extractor"),
	}
}

// Extract returns at most topN unique phrases in descending score order
func (e *KeywordExtractor) Extract(ctx context.Context, text string) ([]analytics.Keyword, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		e.log.Warnw("NER pass failed, returning no keywords", "error", err)
		return nil, nil
	}

	surfaces := captureEntities(doc)
	trimmed := dropTrailingSentences(doc, 3)
	normalized := normalizeText(trimmed, surfaces)

	var keywords []analytics.Keyword
	if EstimateTokens(normalized) > chunkTokens {
		keywords, err = e.extractChunked(ctx, normalized)
	} else {
		keywords, err = e.extractOne(ctx, normalized, e.topN)
	}
	if err != nil {
		e.log.Warnw("Keyword extraction failed, returning no keywords", "error", err)
		return nil, nil
	}

	for i := range keywords {
		keywords[i].Phrase = restoreSurfaces(keywords[i].Phrase, surfaces)
	}
	return keywords, nil
}

// extractChunked splits long input into overlapping chunks, extracts
// from each, and merges by averaging the scores of equal phrases
func (e *KeywordExtractor) extractChunked(ctx context.Context, normalized string) ([]analytics.Keyword, error) {
	chunks := SplitByTokensOverlap(normalized, chunkTokens, chunkOverlap)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, chunk := range chunks {
		kws, err := e.extractOne(ctx, chunk, e.topN)
		if err != nil {
			return nil, err
		}
		for _, kw := range kws {
			sums[kw.Phrase] += kw.Score
			counts[kw.Phrase]++
		}
	}

	merged := make([]analytics.Keyword, 0, len(sums))
	for phrase, sum := range sums {
		merged = append(merged, analytics.Keyword{
			Phrase: phrase,
			Score:  sum / float64(counts[phrase]),
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Phrase < merged[j].Phrase
	})

	if len(merged) > e.topN {
		merged = merged[:e.topN]
	}
	return merged, nil
}

// extractOne runs candidate generation, embedding relevance, and MMR
// selection over one normalized text
func (e *KeywordExtractor) extractOne(ctx context.Context, normalized string, topN int) ([]analytics.Keyword, error) {
	candidates := candidatePhrases(normalized, candidatePool)
	if len(candidates) == 0 {
		return nil, nil
	}

	inputs := append([]string{normalized}, candidates...)
	vectors, err := e.embedder.GenerateBatchEmbeddings(ctx, inputs)
	if err != nil {
		return nil, err
	}

	docVec := vectors[0]
	candVecs := vectors[1:]

	relevance := make([]float64, len(candidates))
	for i, v := range candVecs {
		relevance[i] = cosine(docVec, v)
	}

	selected := mmr(relevance, candVecs, topN, mmrDiversity)

	keywords := make([]analytics.Keyword, 0, len(selected))
	for _, idx := range selected {
		keywords = append(keywords, analytics.Keyword{
			Phrase: candidates[idx],
			Score:  clamp01(relevance[idx]),
		})
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})
	return keywords, nil
}

// mmr selects topN candidates balancing relevance against similarity
// to already-selected phrases
func mmr(relevance []float64, vectors [][]float32, topN int, diversity float64) []int {
	n := len(relevance)
	if n == 0 {
		return nil
	}

	// seed with the most relevant candidate
	first := 0
	for i := 1; i < n; i++ {
		if relevance[i] > relevance[first] {
			first = i
		}
	}

	selected := []int{first}
	chosen := map[int]bool{first: true}

	for len(selected) < topN && len(selected) < n {
		best := -1
		bestScore := 0.0
		for i := 0; i < n; i++ {
			if chosen[i] {
				continue
			}

			maxSim := 0.0
			for _, s := range selected {
				if sim := cosine(vectors[i], vectors[s]); sim > maxSim {
					maxSim = sim
				}
			}

			score := (1-diversity)*relevance[i] - diversity*maxSim
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		selected = append(selected, best)
		chosen[best] = true
	}

	return selected
}

// captureEntities records surface forms of recognized entities keyed
// by their lowercase form, both whole phrases and individual words
func captureEntities(doc *prose.Document) map[string]string {
	surfaces := make(map[string]string)
	for _, ent := range doc.Entities() {
		if !entityLabels[ent.Label] {
			continue
		}
		surfaces[strings.ToLower(ent.Text)] = ent.Text
		for _, word := range strings.Fields(ent.Text) {
			surfaces[strings.ToLower(word)] = word
		}
	}
	return surfaces
}

// dropTrailingSentences removes the last n sentences, the usual home
// of boilerplate disclaimers. Short articles pass through untouched.
func dropTrailingSentences(doc *prose.Document, n int) string {
	sentences := doc.Sentences()
	if len(sentences) <= n {
		return doc.Text
	}

	var b strings.Builder
	for i := 0; i < len(sentences)-n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentences[i].Text)
	}
	return b.String()
}

// keepPunct is the punctuation preserved through normalization
var keepPunct = map[rune]bool{'$': true, '%': true, '\'': true, '(': true, ')': true, '-': true}

// normalizeText lowercases, strips punctuation except $ % ' ( ) -, and
// lemmatizes alphabetic tokens. Tokens matching a captured entity are
// lowercased but not lemmatized so their phrase shape survives.
func normalizeText(text string, surfaces map[string]string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		var b strings.Builder
		for _, r := range word {
			if r >= 'A' && r <= 'Z' {
				b.WriteRune(r + ('a' - 'A'))
			} else if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || keepPunct[r] {
				b.WriteRune(r)
			}
		}
		tok := b.String()
		if tok == "" {
			continue
		}

		if _, isEntity := surfaces[tok]; !isEntity {
			tok = lemmatize(tok)
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// lemmatize applies light rule-based lemmatization to alphabetic tokens
func lemmatize(tok string) string {
	for _, r := range tok {
		if r < 'a' || r > 'z' {
			return tok
		}
	}

	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "sses") && len(tok) > 5:
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "ing") && len(tok) > 5:
		return tok[:len(tok)-3]
	case strings.HasSuffix(tok, "ed") && len(tok) > 4:
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "es") && len(tok) > 4 &&
		(strings.HasSuffix(tok, "shes") || strings.HasSuffix(tok, "ches") || strings.HasSuffix(tok, "xes")):
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && len(tok) > 3:
		return tok[:len(tok)-1]
	}
	return tok
}

// candidatePhrases builds unique 1-3-gram candidates with English
// stop words filtered, ranked by frequency into a bounded pool
func candidatePhrases(normalized string, pool int) []string {
	words := strings.Fields(normalized)

	freq := make(map[string]int)
	for n := 1; n <= ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			gram := words[i : i+n]
			if gramHasStopword(gram) {
				continue
			}
			freq[strings.Join(gram, " ")]++
		}
	}

	phrases := make([]string, 0, len(freq))
	for phrase := range freq {
		phrases = append(phrases, phrase)
	}
	sort.SliceStable(phrases, func(i, j int) bool {
		if freq[phrases[i]] != freq[phrases[j]] {
			return freq[phrases[i]] > freq[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})

	if len(phrases) > pool {
		phrases = phrases[:pool]
	}
	return phrases
}

func gramHasStopword(gram []string) bool {
	for _, w := range gram {
		if stopwords[w] {
			return true
		}
	}
	return false
}

// restoreSurfaces replaces any token whose lowercase matches a captured
// entity with the original surface form
func restoreSurfaces(phrase string, surfaces map[string]string) string {
	if surface, ok := surfaces[phrase]; ok {
		return surface
	}

	words := strings.Fields(phrase)
	changed := false
	for i, w := range words {
		if surface, ok := surfaces[w]; ok {
			words[i] = surface
			changed = true
		}
	}
	if !changed {
		return phrase
	}
	return strings.Join(words, " ")
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
