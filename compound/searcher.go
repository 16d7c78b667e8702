package compound

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/storage"
)

// Result is a search hit joined with its stored payload. Payload is nil when
// the document vanished from the store between indexing and lookup.
type Result struct {
	Id      string
	Score   float32
	Payload []byte
}

// Searcher pairs a document store with an indexer: the store is the source
// of truth, the indexer a queryable projection of it. Build creates the
// projection from a full dump; Sync catches it up from the store's delta
// stream.
type Searcher struct {
	store    *storage.DocStore
	indexer  *vecdex.Indexer
	shardId  int
	shards   int
	lastSync time.Time
}

func NewSearcher(store *storage.DocStore, indexer *vecdex.Indexer) *Searcher {
	return &Searcher{
		store:   store,
		indexer: indexer,
		shardId: 0,
		shards:  1,
	}
}

// NewShardSearcher indexes only the documents of one virtual shard, so a
// fleet of searchers can split a store between them.
func NewShardSearcher(store *storage.DocStore, indexer *vecdex.Indexer, shardId, shards int) *Searcher {
	return &Searcher{
		store:   store,
		indexer: indexer,
		shardId: shardId,
		shards:  shards,
	}
}

// Build indexes a full dump of the searcher's shard. The sync checkpoint is
// taken before the dump, so writes racing the build are picked up by the
// next Sync instead of being lost.
func (this *Searcher) Build() error {
	if this.shards > 1 {
		// Each shard trains on its own partition only, producing
		// shard-local models.
		log.WithFields(log.Fields{"shard": this.shardId, "shards": this.shards}).Warn("Building from a shard subset")
	}

	checkpoint := time.Now()
	iterator, err := this.store.Dump(this.shardId, this.shards)
	if err != nil {
		return err
	}

	if err := this.indexer.Build(iterator); err != nil {
		return err
	}
	this.lastSync = checkpoint
	log.WithFields(log.Fields{"documents": iterator.Len(), "shard": this.shardId}).Info("Searcher built")
	return nil
}

// SetCheckpoint overrides the sync checkpoint. Useful when the indexer was
// restored from a snapshot and the searcher never saw a Build.
func (this *Searcher) SetCheckpoint(t time.Time) {
	this.lastSync = t
}

// Sync applies every store mutation since the last checkpoint to the
// indexer, in update time order.
func (this *Searcher) Sync() error {
	checkpoint := time.Now()
	docs, err := this.store.DeltaSince(this.lastSync)
	if err != nil {
		return err
	}

	records := make([]vecdex.DeltaRecord, 0, len(docs))
	for _, doc := range docs {
		if (this.shards > 1) && (storage.ShardOf(doc.Id, this.shards) != this.shardId) {
			continue
		}
		record := vecdex.DeltaRecord{Id: doc.Id, UpdatedAt: doc.UpdatedAt}
		if !doc.Deleted {
			record.Vector = doc.Vector
		}
		records = append(records, record)
	}

	if err := this.indexer.ApplyDelta(records); err != nil {
		return err
	}
	this.lastSync = checkpoint
	if len(records) > 0 {
		log.WithFields(log.Fields{"records": len(records), "shard": this.shardId}).Info("Searcher synced")
	}
	return nil
}

// Search queries the indexer and joins each match with its stored payload.
func (this *Searcher) Search(ctx context.Context, queries []math.Vector, topK uint) ([][]Result, error) {
	matches, err := this.indexer.Search(ctx, queries, topK)
	if err != nil {
		return nil, err
	}

	results := make([][]Result, len(matches))
	for i, queryMatches := range matches {
		results[i] = make([]Result, len(queryMatches))
		for j, match := range queryMatches {
			results[i][j] = Result{Id: match.Id, Score: match.Score}
			doc, err := this.store.Get(match.Id)
			if err == storage.DocumentNotFoundErr {
				continue
			}
			if err != nil {
				return nil, err
			}
			results[i][j].Payload = doc.Payload
		}
	}
	return results, nil
}

func (this *Searcher) Size() int {
	return this.indexer.Size()
}
