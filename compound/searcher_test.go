package compound

import (
	"context"
	"fmt"
	"testing"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"

	"github.com/vecdex/vecdex"
	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/storage"
)

func getTmpSearcher(t *testing.T) (*storage.DocStore, *Searcher) {
	db, err := badger.Open(badger.LSMOnlyOptions(t.TempDir()).WithLogger(nil))
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewDocStore(db, 4)
	indexer, err := vecdex.NewIndexer(vecdex.Metric(space.MetricInnerProduct), vecdex.Normalize())
	assert.Nil(t, err)
	return store, NewSearcher(store, indexer)
}

func TestSearcherBuildAndSearch(t *testing.T) {
	store, searcher := getTmpSearcher(t)

	assert.Nil(t, store.Add(&storage.Document{Id: "a", Vector: math.Vector{1, 0}.Bytes(), Payload: []byte("first")}))
	assert.Nil(t, store.Add(&storage.Document{Id: "b", Vector: math.Vector{0, 1}.Bytes(), Payload: []byte("second")}))
	assert.Nil(t, store.Add(&storage.Document{Id: "c", Vector: math.Vector{1, 1}.Bytes(), Payload: []byte("third")}))

	assert.Nil(t, searcher.Build())
	assert.Equal(t, 3, searcher.Size())

	results, err := searcher.Search(context.Background(), []math.Vector{{1, 1}}, 1)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(results[0]))
	assert.Equal(t, "c", results[0][0].Id)
	assert.Equal(t, []byte("third"), results[0][0].Payload)
	assert.InDelta(t, 1.0, results[0][0].Score, 1e-6)
}

func TestSearcherSync(t *testing.T) {
	store, searcher := getTmpSearcher(t)

	assert.Nil(t, store.Add(&storage.Document{Id: "a", Vector: math.Vector{1, 0}.Bytes()}))
	assert.Nil(t, searcher.Build())
	assert.Equal(t, 1, searcher.Size())

	assert.Nil(t, store.Add(&storage.Document{Id: "b", Vector: math.Vector{0, 1}.Bytes(), Payload: []byte("new")}))
	assert.Nil(t, store.Delete("a"))
	assert.Nil(t, searcher.Sync())
	assert.Equal(t, 1, searcher.Size())

	results, err := searcher.Search(context.Background(), []math.Vector{{0, 1}}, 5)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(results[0]))
	assert.Equal(t, "b", results[0][0].Id)
	assert.Equal(t, []byte("new"), results[0][0].Payload)
}

func TestSearcherSyncIsIncremental(t *testing.T) {
	store, searcher := getTmpSearcher(t)

	assert.Nil(t, store.Add(&storage.Document{Id: "a", Vector: math.Vector{1, 0}.Bytes()}))
	assert.Nil(t, searcher.Build())

	// A second sync with no store writes applies nothing.
	assert.Nil(t, searcher.Sync())
	assert.Nil(t, searcher.Sync())
	assert.Equal(t, 1, searcher.Size())
	assert.Equal(t, 0, searcher.indexer.DeletedCount())
}

func TestShardSearchersPartitionTheStore(t *testing.T) {
	db, err := badger.Open(badger.LSMOnlyOptions(t.TempDir()).WithLogger(nil))
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewDocStore(db, 4)
	for i := 0; i < 40; i++ {
		assert.Nil(t, store.Add(&storage.Document{
			Id:     fmt.Sprintf("doc-%d", i),
			Vector: math.RandomUniformVector(8).Bytes(),
		}))
	}

	total := 0
	for shard := 0; shard < 2; shard++ {
		indexer, err := vecdex.NewIndexer()
		assert.Nil(t, err)
		searcher := NewShardSearcher(store, indexer, shard, 2)
		assert.Nil(t, searcher.Build())
		total += searcher.Size()
	}
	assert.Equal(t, 40, total)
}
