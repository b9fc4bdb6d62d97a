package sentiment

import (
	"context"
	"sort"
	"strings"
	"time"

	"minerva/internal/calendar"
	"minerva/internal/domain/article"
	"minerva/internal/domain/sentiment"
	"minerva/pkg/logger"
)

// Scorer computes Loughran-McDonald sentiment per article and per week
type Scorer struct {
	lexicon  *LexiconCache
	articles article.Repository
	log      *logger.Logger
}

// NewScorer creates a new sentiment scorer
func NewScorer(lexicon *LexiconCache, articles article.Repository) *Scorer {
	return &Scorer{
		lexicon:  lexicon,
		articles: articles,
		log:      logger.Get().With("component", "sentiment_scorer"),
	}
}

// normalizeToken uppercases and strips non-alphanumeric characters
func normalizeToken(tok string) string {
	var b strings.Builder
	for _, r := range tok {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r >= 'a' && r <= 'z' {
			b.WriteRune(r - ('a' - 'A'))
		}
	}
	return b.String()
}

// ScoreArticle scores one article body. A token with positive > 0
// contributes to the positive tally and, independently, negative > 0
// to the negative tally; the same token can contribute to both.
func (s *Scorer) ScoreArticle(ctx context.Context, body string) sentiment.ArticleScore {
	var score sentiment.ArticleScore

	for _, tok := range strings.Fields(body) {
		word := normalizeToken(tok)
		if word == "" {
			continue
		}

		entry := s.lexicon.Lookup(ctx, word)
		if entry == nil {
			continue
		}

		if entry.Positive > 0 {
			score.PosCount++
			score.PosSum += entry.Positive
		}
		if entry.Negative > 0 {
			score.NegCount++
			score.NegSum += entry.Negative
		}
	}

	if !score.Matched() {
		s.log.Warnw("No lexicon matches in article", "body_length", len(body))
		return score
	}

	score.Mean = (score.PosSum - score.NegSum) / float64(score.PosCount+score.NegCount)
	return score
}

// WeeklyScores averages article scores inside each week bucket for a
// ticker and returns the full weekly shape, top-3 included
func (s *Scorer) WeeklyScores(ctx context.Context, ticker string, from, to time.Time) (map[string]sentiment.WeeklySentiment, error) {
	articles, err := s.articles.GetByTickerRange(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]sentiment.ScoredArticle)
	for _, a := range articles {
		week := calendar.FormatWeek(calendar.WeekStart(a.Date))
		score := s.ScoreArticle(ctx, a.Body)
		buckets[week] = append(buckets[week], sentiment.ScoredArticle{
			Body:     a.Body,
			Title:    a.Title,
			Date:     a.Date,
			Week:     week,
			Score:    score.Mean,
			PosCount: score.PosCount,
			NegCount: score.NegCount,
		})
	}

	weekly := make(map[string]sentiment.WeeklySentiment, len(buckets))
	for week, scored := range buckets {
		var sum float64
		for _, sa := range scored {
			sum += sa.Score
		}

		weekly[week] = sentiment.WeeklySentiment{
			Week: week,
			Mean: sum / float64(len(scored)),
			Top3: topThree(scored),
		}
	}

	return weekly, nil
}

// WeeklyTop3 returns only the top-3 records per week bucket
func (s *Scorer) WeeklyTop3(ctx context.Context, ticker string, from, to time.Time) (map[string][]sentiment.ScoredArticle, error) {
	weekly, err := s.WeeklyScores(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}

	top := make(map[string][]sentiment.ScoredArticle, len(weekly))
	for week, ws := range weekly {
		top[week] = ws.Top3
	}
	return top, nil
}

// topThree ranks by score descending, ties broken by higher positive
// match count, then by earlier date
func topThree(scored []sentiment.ScoredArticle) []sentiment.ScoredArticle {
	ranked := make([]sentiment.ScoredArticle, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].PosCount != ranked[j].PosCount {
			return ranked[i].PosCount > ranked[j].PosCount
		}
		return ranked[i].Date.Before(ranked[j].Date)
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}
