package sentiment

import (
	"time"
)

// ArticleScore is a per-article sentiment record.
// Mean = (PosSum - NegSum) / (PosCount + NegCount); 0 when no matches.
type ArticleScore struct {
	PosCount int     `json:"pos_cnt"`
	NegCount int     `json:"neg_cnt"`
	PosSum   float64 `json:"pos_sum"`
	NegSum   float64 `json:"neg_sum"`
	Mean     float64 `json:"mean"`
}

// Matched reports whether any lexicon token matched
func (s ArticleScore) Matched() bool {
	return s.PosCount+s.NegCount > 0
}

// ScoredArticle pairs an article with its sentiment score for ranking
type ScoredArticle struct {
	Body     string    `json:"body"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Week     string    `json:"week"`
	Score    float64   `json:"score"`
	PosCount int       `json:"pos_cnt"`
	NegCount int       `json:"neg_cnt"`
}

// WeeklySentiment is the per-week aggregate: the arithmetic mean of
// article scores plus the top-3 ranked articles. Every aggregation
// path returns this shape.
type WeeklySentiment struct {
	Week string          `json:"week"`
	Mean float64         `json:"mean"`
	Top3 []ScoredArticle `json:"top3"`
}
