package search

import (
	"sort"

	"github.com/assochq/membersearch/internal/domain/search/result"
)

// fuseLinear merges the keyword and semantic rankings with a weighted
// linear sum: combined = keywordRank*kw + similarity*sw. An item
// present on only one side contributes zero for the missing side.
//
// The two sides are on different scales (keyword rank is unbounded,
// similarity lives in [0,1]); the weights are the tuning knobs that
// reconcile them. Ties break by similarity, then by content key, so
// equal inputs always fuse to the same order.
func fuseLinear(keyword, semantic []result.Result, kw, sw float64, limit int) []result.Result {
	merged := make(map[string]result.Result, len(keyword)+len(semantic))

	for _, r := range keyword {
		merged[r.Key().String()] = r
	}
	for _, r := range semantic {
		if have, ok := merged[r.Key().String()]; ok {
			merged[r.Key().String()] = result.New(
				r.Key(),
				0, // combined score assigned below
				have.KeywordRank(),
				r.Similarity(),
				r.Title(),
				r.Description(),
				r.Metadata(),
			)
			continue
		}
		merged[r.Key().String()] = r
	}

	fused := make([]result.Result, 0, len(merged))
	for _, r := range merged {
		combined := r.KeywordRank()*kw + r.Similarity()*sw
		fused = append(fused, result.New(
			r.Key(), combined, r.KeywordRank(), r.Similarity(),
			r.Title(), r.Description(), r.Metadata(),
		))
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score() != fused[j].Score() {
			return fused[i].Score() > fused[j].Score()
		}
		if fused[i].Similarity() != fused[j].Similarity() {
			return fused[i].Similarity() > fused[j].Similarity()
		}
		return fused[i].Key().String() < fused[j].Key().String()
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
