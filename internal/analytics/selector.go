package analytics

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"

	"minerva/internal/adapters/embeddings"
	"minerva/internal/domain/article"
	"minerva/pkg/logger"
)

// minClusterSize is the density clustering minimum per the pipeline
// contract: a group of fewer than three titles is noise
const minClusterSize = 3

// Selector picks three representative articles for a week bucket by
// clustering title embeddings. Steps 1-3 are deterministic for a given
// embedding model; the degraded fill uses an injectable seed so tests
// can assert exact identity.
type Selector struct {
	embedder embeddings.Provider
	articles article.Repository
	log      *logger.Logger
}

// NewSelector creates a new top-3 selector
func NewSelector(embedder embeddings.Provider, articles article.Repository) *Selector {
	return &Selector{
		embedder: embedder,
		articles: articles,
		log:      logger.Get().With("component", "top3_selector"),
	}
}

// SelectTop3 returns exactly three representative articles when the
// input has at least three titled articles, otherwise the empty slice.
// seed controls the degraded-mode random fill; pass nil to use a
// time-derived seed.
func (s *Selector) SelectTop3(ctx context.Context, arts []article.Article, seed *int64) ([]article.Article, error) {
	titled := make([]article.Article, 0, len(arts))
	for _, a := range arts {
		if a.HasTitle() {
			titled = append(titled, a)
		}
	}

	if len(titled) < minClusterSize {
		s.log.Warnw("Too few titled articles for clustering", "titled", len(titled))
		return nil, nil
	}

	vectors, err := s.encodeTitles(ctx, titled)
	if err != nil {
		return nil, err
	}

	clusters, noise := dbscan(vectors, minClusterSize)

	// rank clusters by member count descending; earlier cluster wins ties
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i]) > len(clusters[j])
	})

	picked := make([]int, 0, 3)
	used := make(map[int]bool)
	for _, members := range clusters {
		if len(picked) == 3 {
			break
		}
		m := medoid(vectors, members)
		picked = append(picked, m)
		used[m] = true
	}

	if len(picked) < 3 {
		rng := newRNG(seed)
		picked = fillRandom(picked, used, noise, rng)

		if len(picked) < 3 {
			rest := make([]int, 0, len(titled))
			for i := range titled {
				if !used[i] && !contains(picked, i) {
					rest = append(rest, i)
				}
			}
			picked = fillRandom(picked, used, rest, rng)
		}
	}

	result := make([]article.Article, 0, 3)
	for _, idx := range picked {
		result = append(result, titled[idx])
	}
	return result, nil
}

// encodeTitles returns one embedding per titled article, reading
// through the store's cached title embeddings and backfilling misses
func (s *Selector) encodeTitles(ctx context.Context, titled []article.Article) ([][]float32, error) {
	vectors := make([][]float32, len(titled))

	var missing []int
	var missingTitles []string
	for i, a := range titled {
		if a.TitleEmbedding != nil && len(a.TitleEmbedding.Slice()) > 0 {
			vectors[i] = a.TitleEmbedding.Slice()
			continue
		}
		missing = append(missing, i)
		missingTitles = append(missingTitles, a.Title)
	}

	if len(missing) > 0 {
		generated, err := s.embedder.GenerateBatchEmbeddings(ctx, missingTitles)
		if err != nil {
			return nil, err
		}
		for j, idx := range missing {
			vectors[idx] = generated[j]

			a := titled[idx]
			vec := pgvector.NewVector(generated[j])
			if err := s.articles.StoreTitleEmbedding(ctx, a.Ticker, a.Date, vec); err != nil {
				s.log.Debugw("Failed to cache title embedding", "ticker", a.Ticker, "error", err)
			}
		}
	}

	return vectors, nil
}

// newRNG builds the degraded-mode RNG from an optional seed
func newRNG(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// fillRandom draws uniformly without replacement from pool until
// picked has three members or the pool runs out
func fillRandom(picked []int, used map[int]bool, pool []int, rng *rand.Rand) []int {
	candidates := make([]int, 0, len(pool))
	for _, idx := range pool {
		if !used[idx] {
			candidates = append(candidates, idx)
		}
	}

	for len(picked) < 3 && len(candidates) > 0 {
		j := rng.Intn(len(candidates))
		idx := candidates[j]
		candidates = append(candidates[:j], candidates[j+1:]...)

		picked = append(picked, idx)
		used[idx] = true
	}
	return picked
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// dbscan clusters vectors with a density scan under Euclidean distance.
// eps is derived from the data as the median distance to the
// (minPts-1)-th nearest neighbor, which keeps the scan deterministic
// and parameter-free for callers. Returns clusters (index groups of at
// least minPts members) and the noise set.
func dbscan(vectors [][]float32, minPts int) (clusters [][]int, noise []int) {
	n := len(vectors)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := euclidean(vectors[i], vectors[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	eps := kDistanceEps(dist, minPts-1)

	const (
		unvisited = 0
		noiseMark = -1
	)
	labels := make([]int, n) // 0 unvisited, -1 noise, >0 cluster id
	next := 1

	neighborhoods := func(i int) []int {
		var nb []int
		for j := 0; j < n; j++ {
			if dist[i][j] <= eps {
				nb = append(nb, j) // includes i itself
			}
		}
		return nb
	}

	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		nb := neighborhoods(i)
		if len(nb) < minPts {
			labels[i] = noiseMark
			continue
		}

		id := next
		next++
		labels[i] = id

		queue := append([]int(nil), nb...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == noiseMark {
				labels[j] = id
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = id

			jnb := neighborhoods(j)
			if len(jnb) >= minPts {
				queue = append(queue, jnb...)
			}
		}
	}

	byID := make(map[int][]int)
	for i, label := range labels {
		if label > 0 {
			byID[label] = append(byID[label], i)
		} else {
			noise = append(noise, i)
		}
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		clusters = append(clusters, byID[id])
	}
	return clusters, noise
}

// kDistanceEps is the median of each point's distance to its k-th
// nearest neighbor
func kDistanceEps(dist [][]float64, k int) float64 {
	n := len(dist)
	if n == 0 || k <= 0 {
		return 0
	}

	kdists := make([]float64, 0, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist[i])
		sort.Float64s(row)
		idx := k
		if idx >= n {
			idx = n - 1
		}
		kdists = append(kdists, row[idx]) // row[0] is the self distance
	}

	sort.Float64s(kdists)
	return kdists[len(kdists)/2]
}

// medoid returns the cluster member nearest to the cluster centroid
func medoid(vectors [][]float32, members []int) int {
	dim := len(vectors[members[0]])
	centroid := make([]float64, dim)
	for _, m := range members {
		for d, v := range vectors[m] {
			centroid[d] += float64(v)
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(members))
	}

	best := members[0]
	bestDist := math.Inf(1)
	for _, m := range members {
		var sum float64
		for d, v := range vectors[m] {
			diff := float64(v) - centroid[d]
			sum += diff * diff
		}
		if sum < bestDist {
			bestDist = sum
			best = m
		}
	}
	return best
}

// euclidean is the L2 distance between two embedding vectors
func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
