package analytics

import "time"

// Keyword is one extracted key phrase with its relevance score in [0, 1]
type Keyword struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// EnrichedArticle is a representative article carrying the full
// enrichment produced by the weekly pipeline
type EnrichedArticle struct {
	Ticker    string    `json:"ticker"`
	Sector    string    `json:"sector"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
	WeekStart string    `json:"week_start"`
	Score     float64   `json:"score"`
	Keywords  []Keyword `json:"keywords"`
	Summary   string    `json:"summary"`
}

// WeeklyResult is the response of every weekly analytics entry point.
// Top3 has exactly three articles whenever the week had at least three
// titled articles, otherwise it is empty.
type WeeklyResult struct {
	Week string            `json:"week"`
	Top3 []EnrichedArticle `json:"top3_articles"`
}
