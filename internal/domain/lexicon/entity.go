package lexicon

import (
	"context"
	"time"
)

// Entry is one Loughran-McDonald lexicon row keyed by uppercase word.
// Entries are immutable for the process lifetime after load.
type Entry struct {
	Positive     float64 `json:"positive"`
	Negative     float64 `json:"negative"`
	Uncertainty  float64 `json:"uncertainty"`
	Litigious    float64 `json:"litigious"`
	Constraining float64 `json:"constraining"`
}

// Metadata describes a snapshot of the lexicon cache on disk
type Metadata struct {
	CreatedAt   time.Time `json:"created_at"`
	WordCount   int       `json:"word_count"`
	DBQueryTime time.Time `json:"db_query_time"`
}

// IsValid reports whether a snapshot created at CreatedAt is still
// fresh at the given instant for the given TTL
func (m Metadata) IsValid(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.CreatedAt) <= ttl
}

// Source loads the full lexicon from the external master table
type Source interface {
	// LoadAll returns every entry keyed by uppercase word
	LoadAll(ctx context.Context) (map[string]Entry, error)
}

// Info summarizes the in-memory cache state
type Info struct {
	WordCount  int    `json:"word_count"`
	FileSize   int64  `json:"file_size"`
	Valid      bool   `json:"valid"`
	CreatedAt  string `json:"created_at"`
	SnapshotOK bool   `json:"snapshot_ok"`
}
