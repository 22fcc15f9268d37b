package index

import (
	"math"
	"sort"
	"sync"

	"github.com/assochq/membersearch/internal/domain"
)

// ANN index sizing bounds.
const (
	minPartitions = 1
	maxPartitions = 256

	// DefaultProbes is the default number of partitions scanned per
	// query. Raising it trades query cost for recall.
	DefaultProbes = 8
)

// annCandidate is a scored vector hit before table enrichment.
type annCandidate struct {
	key        domain.ContentKey
	similarity float64
}

// annEntry is one vector in the index, stored L2-normalized so the
// dot product equals cosine similarity.
type annEntry struct {
	key domain.ContentKey
	vec []float32
}

// annSnapshot is the immutable batch-built partition structure.
// Vectors are grouped around centroids; a query scans only the
// partitions whose centroids are closest to the query vector, which
// bounds cost at a small recall loss for tail items.
type annSnapshot struct {
	centroids  [][]float32
	partitions [][]annEntry
	size       int
}

// pendingEntry is a staged vector with the generation it was staged at.
type pendingEntry struct {
	vec []float32
	gen uint64
}

// annIndex is the mutable wrapper: an immutable snapshot plus a
// pending set of vectors upserted since the last rebuild. Pending
// vectors are exact-scanned on every query, so fresh content is
// visible immediately; it moves into the partitioned structure at the
// next rebuild. Tombstones mask snapshot entries that were removed or
// replaced. Generations let a rebuild clear exactly the staged state
// it has absorbed, keeping writes that raced the build visible.
type annIndex struct {
	mu         sync.RWMutex
	snap       *annSnapshot
	pending    map[domain.ContentKey]pendingEntry
	tombstones map[domain.ContentKey]uint64
	gen        uint64
	probes     int
}

func newANNIndex(probes int) *annIndex {
	if probes <= 0 {
		probes = DefaultProbes
	}
	return &annIndex{
		snap:       &annSnapshot{},
		pending:    make(map[domain.ContentKey]pendingEntry),
		tombstones: make(map[domain.ContentKey]uint64),
		probes:     probes,
	}
}

// upsert stages a vector for the pending exact-scan set. The vector is
// copied and normalized.
func (a *annIndex) upsert(key domain.ContentKey, vec []float32) {
	norm := normalize(vec)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.pending[key] = pendingEntry{vec: norm, gen: a.gen}
	// Mask any stale copy of this key inside the snapshot.
	a.tombstones[key] = a.gen
}

// remove drops a key from the index.
func (a *annIndex) remove(key domain.ContentKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	delete(a.pending, key)
	a.tombstones[key] = a.gen
}

// generation returns the current staging generation.
func (a *annIndex) generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// swap installs a snapshot built from table state at generation
// buildGen and clears only the staged entries that build absorbed;
// writes that raced the build stay pending until the next rebuild.
func (a *annIndex) swap(snap *annSnapshot, buildGen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = snap
	for key, e := range a.pending {
		if e.gen <= buildGen {
			delete(a.pending, key)
		}
	}
	for key, gen := range a.tombstones {
		if gen <= buildGen {
			delete(a.tombstones, key)
		}
	}
}

// counts returns indexed and pending vector counts.
func (a *annIndex) counts() (indexed, pending int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.size, len(a.pending)
}

// search returns up to k candidates passing the eligible predicate,
// ordered by similarity descending with ties broken by key ascending.
// probes overrides the configured partition scan count when positive.
func (a *annIndex) search(query []float32, k, probes int, eligible func(domain.ContentKey) bool) []annCandidate {
	if k <= 0 {
		return nil
	}
	q := normalize(query)

	a.mu.RLock()
	snap := a.snap
	if probes <= 0 {
		probes = a.probes
	}
	pending := make([]annEntry, 0, len(a.pending))
	for key, e := range a.pending {
		pending = append(pending, annEntry{key: key, vec: e.vec})
	}
	tombstones := make(map[domain.ContentKey]struct{}, len(a.tombstones))
	for key := range a.tombstones {
		tombstones[key] = struct{}{}
	}
	a.mu.RUnlock()

	candidates := make([]annCandidate, 0, k*2)

	for _, part := range snap.probe(q, probes) {
		for _, e := range part {
			if _, dead := tombstones[e.key]; dead {
				continue
			}
			if !eligible(e.key) {
				continue
			}
			candidates = append(candidates, annCandidate{key: e.key, similarity: clampedDot(q, e.vec)})
		}
	}

	// Fresh vectors are always exact-scanned until the next rebuild.
	for _, e := range pending {
		if !eligible(e.key) {
			continue
		}
		candidates = append(candidates, annCandidate{key: e.key, similarity: clampedDot(q, e.vec)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].key.String() < candidates[j].key.String()
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// probe returns the partitions whose centroids score highest against
// the query.
func (s *annSnapshot) probe(q []float32, probes int) [][]annEntry {
	if len(s.centroids) == 0 {
		return nil
	}
	if probes >= len(s.centroids) {
		return s.partitions
	}

	type scoredCentroid struct {
		idx   int
		score float64
	}
	scored := make([]scoredCentroid, len(s.centroids))
	for i, c := range s.centroids {
		scored[i] = scoredCentroid{idx: i, score: dot(q, c)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	out := make([][]annEntry, probes)
	for i := 0; i < probes; i++ {
		out[i] = s.partitions[scored[i].idx]
	}
	return out
}

// buildSnapshot batch-builds the partition structure from a full set
// of entries. Centroid seeds are picked at even strides over the
// key-sorted entries, keeping builds deterministic without an RNG.
func buildSnapshot(entries []annEntry) *annSnapshot {
	if len(entries) == 0 {
		return &annSnapshot{}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.String() < entries[j].key.String()
	})

	nlist := int(math.Ceil(math.Sqrt(float64(len(entries)))))
	if nlist < minPartitions {
		nlist = minPartitions
	}
	if nlist > maxPartitions {
		nlist = maxPartitions
	}
	if nlist > len(entries) {
		nlist = len(entries)
	}

	stride := len(entries) / nlist
	centroids := make([][]float32, nlist)
	for i := 0; i < nlist; i++ {
		centroids[i] = entries[i*stride].vec
	}

	partitions := make([][]annEntry, nlist)
	for _, e := range entries {
		best := 0
		bestScore := math.Inf(-1)
		for i, c := range centroids {
			if s := dot(e.vec, c); s > bestScore {
				best, bestScore = i, s
			}
		}
		partitions[best] = append(partitions[best], e)
	}

	return &annSnapshot{centroids: centroids, partitions: partitions, size: len(entries)}
}

// normalize returns an L2-normalized copy of the vector.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}

// dot returns the inner product; for normalized vectors this equals
// cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// clampedDot rescales the inner product of normalized vectors into
// [0,1], the similarity contract of the search API.
func clampedDot(a, b []float32) float64 {
	return math.Max(0, math.Min(1, dot(a, b)))
}
