package vecdex

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/index"
	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
)

// Match is a scored search hit. Scores are similarities by default (higher
// is better); with the IsDistance option they are raw distances.
type Match struct {
	Id    string
	Score float32
}

// Search runs nearest neighbor queries and returns topK live matches per
// query, ordered best first. Queries fan out to one goroutine each. A topK
// of zero falls back to the configured default. An unbuilt indexer returns
// empty match sets.
//
// Tombstoned entries are compensated for by over-fetching: the backing index
// is asked for topK plus the global tombstone count and deleted offsets are
// filtered out of the result.
func (this *Indexer) Search(ctx context.Context, queries []math.Vector, topK uint) ([][]Match, error) {
	this.mu.RLock()
	defer this.mu.RUnlock()

	results := make([][]Match, len(queries))
	if this.index == nil {
		log.Warn("Searching an unbuilt indexer")
		for i := range results {
			results[i] = make([]Match, 0)
		}
		return results, nil
	}

	if topK == 0 {
		topK = this.config.defaultTopK
	}
	expandedK := topK + uint(this.registry.DeletedCount())

	var wg sync.WaitGroup
	errs := make([]error, len(queries))
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query math.Vector) {
			defer wg.Done()
			results[i], errs[i] = this.searchOne(ctx, query, topK, expandedK)
		}(i, query)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (this *Indexer) searchOne(ctx context.Context, query math.Vector, topK, expandedK uint) ([]Match, error) {
	if this.config.normalize {
		normalized := make(math.Vector, len(query))
		copy(normalized, query)
		normalized.Normalize()
		query = normalized
	}

	result, err := this.index.Search(ctx, query, expandedK)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, topK)
	for _, item := range result {
		if this.registry.IsDeleted(item.Offset) {
			continue
		}
		id, err := this.registry.Id(item.Offset)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Id: id, Score: this.score(item)})
		if uint(len(matches)) == topK {
			break
		}
	}
	return matches, nil
}

// score converts an ascending distance into the reported score. Squared L2
// distances map to 1 / (1 + d); inner product distances, defined as
// 1 - dot(q, v), map back to the dot product via 1 - d. Both conversions
// preserve the ranking.
func (this *Indexer) score(item index.SearchResultItem) float32 {
	if this.config.isDistance {
		return item.Distance
	}
	switch this.config.metric {
	case space.MetricSquaredL2:
		return 1.0 / (1.0 + item.Distance)
	case space.MetricInnerProduct:
		return 1.0 - item.Distance
	}
	return item.Distance
}
