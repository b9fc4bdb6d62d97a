package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/domain/article"
)

type fakeArticleRepo struct {
	articles []article.Article
	err      error
}

func (f *fakeArticleRepo) GetByTickerRange(ctx context.Context, ticker string, from, to time.Time) ([]article.Article, error) {
	return f.articles, f.err
}

func (f *fakeArticleRepo) GetBySectorWeek(ctx context.Context, sector string, weekStart time.Time) ([]article.Article, error) {
	return f.articles, f.err
}

func (f *fakeArticleRepo) GetByWeek(ctx context.Context, weekStart time.Time) ([]article.Article, error) {
	return f.articles, f.err
}

func (f *fakeArticleRepo) StoreTitleEmbedding(ctx context.Context, ticker string, date time.Time, emb pgvector.Vector) error {
	return nil
}

func newTestScorer(t *testing.T, repo article.Repository) *Scorer {
	t.Helper()
	cache := NewLexiconCache(t.TempDir(), time.Hour, &stubSource{entries: testEntries()})
	return NewScorer(cache, repo)
}

func TestScoreArticle_Aggregation(t *testing.T) {
	s := newTestScorer(t, &fakeArticleRepo{})

	// 3 positive matches of 0.8 and 1 negative of 0.9:
	// mean = (2.4 - 0.9) / 4 = 0.375
	score := s.ScoreArticle(context.Background(), "good, GOOD; good... bad!")

	assert.Equal(t, 3, score.PosCount)
	assert.Equal(t, 1, score.NegCount)
	assert.InDelta(t, 2.4, score.PosSum, 1e-9)
	assert.InDelta(t, 0.9, score.NegSum, 1e-9)
	assert.InDelta(t, 0.375, score.Mean, 1e-9)
}

func TestScoreArticle_NoMatchesIsZero(t *testing.T) {
	s := newTestScorer(t, &fakeArticleRepo{})

	score := s.ScoreArticle(context.Background(), "nothing matches here at all")
	assert.Equal(t, 0.0, score.Mean)
	assert.False(t, score.Matched())
}

func TestScoreArticle_TokenCountsOnBothSides(t *testing.T) {
	s := newTestScorer(t, &fakeArticleRepo{})

	score := s.ScoreArticle(context.Background(), "mixed")
	assert.Equal(t, 1, score.PosCount)
	assert.Equal(t, 1, score.NegCount)
	assert.InDelta(t, 0.0, score.Mean, 1e-9)
}

func TestScoreArticle_BoundedByLexiconRange(t *testing.T) {
	s := newTestScorer(t, &fakeArticleRepo{})

	score := s.ScoreArticle(context.Background(), "good bad mixed good bad")
	assert.LessOrEqual(t, score.Mean, 0.9)
	assert.GreaterOrEqual(t, score.Mean, -0.9)
}

func TestWeeklyScores_BucketsAndMeans(t *testing.T) {
	// Week of Sunday 2025-06-01 and week of Sunday 2025-06-08
	repo := &fakeArticleRepo{articles: []article.Article{
		{Ticker: "AAPL", Title: "one", Body: "good", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{Ticker: "AAPL", Title: "two", Body: "bad", Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
		{Ticker: "AAPL", Title: "three", Body: "good good", Date: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)},
	}}
	s := newTestScorer(t, repo)

	weekly, err := s.WeeklyScores(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, weekly, 2)

	first := weekly["2025-06-01"]
	// article means are +0.8 and -0.9 → week mean -0.05
	assert.InDelta(t, -0.05, first.Mean, 1e-9)
	assert.Len(t, first.Top3, 2)

	second := weekly["2025-06-08"]
	assert.InDelta(t, 0.8, second.Mean, 1e-9)
	require.Len(t, second.Top3, 1)
	assert.Equal(t, "three", second.Top3[0].Title)
}

func TestWeeklyTop3_RankingAndTieBreaks(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	repo := &fakeArticleRepo{articles: []article.Article{
		{Ticker: "AAPL", Title: "low", Body: "bad", Date: day(2)},
		{Ticker: "AAPL", Title: "high", Body: "good good good", Date: day(3)},
		// same score and pos count as "late", earlier date wins
		{Ticker: "AAPL", Title: "early", Body: "good", Date: day(4)},
		{Ticker: "AAPL", Title: "late", Body: "good", Date: day(5)},
	}}
	s := newTestScorer(t, repo)

	top, err := s.WeeklyTop3(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)

	week := top["2025-06-01"]
	require.Len(t, week, 3)
	assert.Equal(t, "high", week[0].Title)
	assert.Equal(t, "early", week[1].Title)
	assert.Equal(t, "late", week[2].Title)
}
