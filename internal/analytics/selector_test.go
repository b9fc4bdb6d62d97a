package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/domain/article"
)

// stubEmbedder returns a fixed vector per input text
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (e *stubEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (e *stubEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.GenerateEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return 2 }
func (e *stubEmbedder) Name() string    { return "stub" }

// embeddingStore records title embedding writes; the read methods are
// unused by the selector
type embeddingStore struct {
	stored map[string]pgvector.Vector
}

func (s *embeddingStore) GetByTickerRange(context.Context, string, time.Time, time.Time) ([]article.Article, error) {
	return nil, nil
}

func (s *embeddingStore) GetBySectorWeek(context.Context, string, time.Time) ([]article.Article, error) {
	return nil, nil
}

func (s *embeddingStore) GetByWeek(context.Context, time.Time) ([]article.Article, error) {
	return nil, nil
}

func (s *embeddingStore) StoreTitleEmbedding(_ context.Context, ticker string, _ time.Time, emb pgvector.Vector) error {
	if s.stored == nil {
		s.stored = make(map[string]pgvector.Vector)
	}
	s.stored[ticker] = emb
	return nil
}

func titledArticle(title string, vec []float32) article.Article {
	a := article.Article{
		Ticker: title,
		Title:  title,
		Date:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	if vec != nil {
		v := pgvector.NewVector(vec)
		a.TitleEmbedding = &v
	}
	return a
}

func TestSelectTop3TooFewTitledArticles(t *testing.T) {
	sel := NewSelector(&stubEmbedder{}, &embeddingStore{})

	arts := []article.Article{
		titledArticle("a", []float32{0, 0}),
		titledArticle("b", []float32{1, 0}),
		{Ticker: "c", Body: "untitled"},
	}

	got, err := sel.SelectTop3(context.Background(), arts, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectTop3PicksClusterMedoids(t *testing.T) {
	// three tight clusters around distant bases; each base point is
	// the member nearest its cluster centroid
	arts := []article.Article{
		titledArticle("base-a", []float32{0, 0}),
		titledArticle("a1", []float32{0.1, 0}),
		titledArticle("a2", []float32{0, 0.1}),

		titledArticle("base-b", []float32{10, 0}),
		titledArticle("b1", []float32{10.1, 0}),
		titledArticle("b2", []float32{10, 0.1}),

		titledArticle("base-c", []float32{0, 10}),
		titledArticle("c1", []float32{0.1, 10}),
		titledArticle("c2", []float32{0, 10.1}),
	}

	embedder := &stubEmbedder{}
	sel := NewSelector(embedder, &embeddingStore{})

	got, err := sel.SelectTop3(context.Background(), arts, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	titles := map[string]bool{}
	for _, a := range got {
		titles[a.Title] = true
	}
	assert.True(t, titles["base-a"])
	assert.True(t, titles["base-b"])
	assert.True(t, titles["base-c"])
	assert.Zero(t, embedder.calls, "cached embeddings must not be re-generated")
}

func TestSelectTop3DegradedFillIsSeedDeterministic(t *testing.T) {
	// all points mutually distant: no clusters form and the fill is
	// a seeded uniform draw
	var arts []article.Article
	for i := 0; i < 6; i++ {
		arts = append(arts, titledArticle(
			fmt.Sprintf("t%d", i),
			[]float32{float32(i * 100), float32(i * -50)},
		))
	}

	sel := NewSelector(&stubEmbedder{}, &embeddingStore{})
	seed := int64(42)

	first, err := sel.SelectTop3(context.Background(), arts, &seed)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := sel.SelectTop3(context.Background(), arts, &seed)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectTop3BackfillsMissingEmbeddings(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"fresh": {5, 5},
	}}
	store := &embeddingStore{}
	sel := NewSelector(embedder, store)

	arts := []article.Article{
		titledArticle("base-a", []float32{0, 0}),
		titledArticle("a1", []float32{0.1, 0}),
		titledArticle("a2", []float32{0, 0.1}),
		titledArticle("fresh", nil), // no cached embedding
	}

	_, err := sel.SelectTop3(context.Background(), arts, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls)
	require.Contains(t, store.stored, "fresh")
	assert.Equal(t, []float32{5, 5}, store.stored["fresh"].Slice())
}
