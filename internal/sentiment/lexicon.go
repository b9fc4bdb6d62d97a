package sentiment

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"minerva/internal/domain/lexicon"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

const (
	snapshotFile = "mcdonald_dict.json.gz"
	metadataFile = "cache_metadata.json"
)

// LexiconCache holds the Loughran-McDonald lexicon in memory with an
// on-disk compressed snapshot. First access loads the snapshot or
// rebuilds it from the external master table; reads are lock-free
// afterwards. On rebuild failure the cache serves an empty map so
// sentiment degrades to zero instead of failing the request.
type LexiconCache struct {
	dir    string
	ttl    time.Duration
	source lexicon.Source
	log    *logger.Logger

	once    sync.Once
	mu      sync.Mutex // guards Refresh; not taken on reads
	entries atomic.Pointer[map[string]lexicon.Entry]
	meta    atomic.Pointer[lexicon.Metadata]
}

// NewLexiconCache creates a lexicon cache backed by dir
func NewLexiconCache(dir string, ttl time.Duration, source lexicon.Source) *LexiconCache {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	c := &LexiconCache{
		dir:    dir,
		ttl:    ttl,
		source: source,
		log:    logger.Get().With("component", "lexicon_cache"),
	}
	empty := map[string]lexicon.Entry{}
	c.entries.Store(&empty)
	return c
}

// Lookup returns the entry for an uppercase word, or nil when absent.
// Triggers the initial load on first access.
func (c *LexiconCache) Lookup(ctx context.Context, word string) *lexicon.Entry {
	c.ensureLoaded(ctx)

	entries := *c.entries.Load()
	if entry, ok := entries[word]; ok {
		return &entry
	}
	return nil
}

// Size returns the number of loaded entries
func (c *LexiconCache) Size(ctx context.Context) int {
	c.ensureLoaded(ctx)
	return len(*c.entries.Load())
}

// ensureLoaded performs the initial snapshot load exactly once.
// Concurrent first access is safe: losers of the race observe the
// same loaded map.
func (c *LexiconCache) ensureLoaded(ctx context.Context) {
	c.once.Do(func() {
		if c.loadSnapshot() {
			return
		}
		if err := c.Refresh(ctx); err != nil {
			c.log.Errorw("Lexicon rebuild failed, serving empty lexicon", "error", err)
		}
	})
}

// loadSnapshot reads the on-disk snapshot if present and unexpired
func (c *LexiconCache) loadSnapshot() bool {
	meta, err := c.readMetadata()
	if err != nil {
		c.log.Debugw("No usable cache metadata", "error", err)
		return false
	}
	if !meta.IsValid(time.Now(), c.ttl) {
		c.log.Infow("Lexicon snapshot expired", "created_at", meta.CreatedAt)
		return false
	}

	f, err := os.Open(filepath.Join(c.dir, snapshotFile))
	if err != nil {
		return false
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()

	var entries map[string]lexicon.Entry
	if err := json.NewDecoder(gz).Decode(&entries); err != nil {
		c.log.Warnw("Corrupt lexicon snapshot", "error", err)
		return false
	}

	c.entries.Store(&entries)
	c.meta.Store(meta)
	c.log.Infow("Lexicon snapshot loaded", "words", len(entries))
	return true
}

// Refresh forces a rebuild from the external master table and rewrites
// the snapshot files atomically
func (c *LexiconCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	queryTime := time.Now()
	entries, err := c.source.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrLexiconUnavailable, err.Error())
	}

	meta := &lexicon.Metadata{
		CreatedAt:   time.Now(),
		WordCount:   len(entries),
		DBQueryTime: queryTime,
	}

	if err := c.writeSnapshot(entries, meta); err != nil {
		// in-memory map is still usable; the next process start rebuilds
		c.log.Warnw("Failed to persist lexicon snapshot", "error", err)
	}

	c.entries.Store(&entries)
	c.meta.Store(meta)
	c.log.Infow("Lexicon rebuilt", "words", len(entries))
	return nil
}

// Info returns cache size, file size, and validity
func (c *LexiconCache) Info(ctx context.Context) lexicon.Info {
	c.ensureLoaded(ctx)

	info := lexicon.Info{
		WordCount: len(*c.entries.Load()),
	}

	if meta := c.meta.Load(); meta != nil {
		info.Valid = meta.IsValid(time.Now(), c.ttl)
		info.CreatedAt = meta.CreatedAt.Format(time.RFC3339)
	}

	if stat, err := os.Stat(filepath.Join(c.dir, snapshotFile)); err == nil {
		info.FileSize = stat.Size()
		info.SnapshotOK = true
		c.log.Debugw("Lexicon snapshot on disk", "size", humanize.Bytes(uint64(stat.Size())))
	}

	return info
}

// readMetadata loads cache_metadata.json
func (c *LexiconCache) readMetadata() (*lexicon.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta lexicon.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// writeSnapshot writes both cache files via temp-file rename so a
// crashed rebuild never leaves a torn snapshot
func (c *LexiconCache) writeSnapshot(entries map[string]lexicon.Entry, meta *lexicon.Metadata) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	snapPath := filepath.Join(c.dir, snapshotFile)
	tmp, err := os.CreateTemp(c.dir, snapshotFile+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(entries); err != nil {
		tmp.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), snapPath); err != nil {
		return err
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	metaTmp, err := os.CreateTemp(c.dir, metadataFile+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(metaTmp.Name())

	if _, err := metaTmp.Write(metaData); err != nil {
		metaTmp.Close()
		return err
	}
	if err := metaTmp.Close(); err != nil {
		return err
	}
	return os.Rename(metaTmp.Name(), filepath.Join(c.dir, metadataFile))
}
