package vecdex

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/index"
	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/registry"
)

var (
	IndexerNotBuiltErr     error = errors.New("Indexer has no built index")
	EmbeddingNotStoredErr  error = errors.New("Embedding is deleted or not stored")
	InvalidSourceVectorErr error = errors.New("Source yielded an invalid vector buffer")
)

// Indexer is a mutable similarity index over string-identified embeddings.
// It pairs a backing nearest neighbor index with an identifier registry that
// tracks insertion order and tombstones. Not safe for concurrent mutation;
// Search may run concurrently with itself but not with writes.
type Indexer struct {
	config   *Config
	space    space.Space
	registry *registry.Registry
	index    index.Index
	numDim   int
	mu       sync.RWMutex
}

func NewIndexer(options ...IndexerOption) (*Indexer, error) {
	config := newConfig()
	for _, option := range options {
		option.apply(config)
	}

	if err := index.ValidateKey(config.indexKey); err != nil {
		return nil, err
	}
	s, err := space.New(config.metric)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		config:   config,
		space:    s,
		registry: registry.NewRegistry(),
	}, nil
}

// Size is the number of live, searchable entries.
func (this *Indexer) Size() int {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.registry.Size()
}

func (this *Indexer) DeletedCount() int {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.registry.DeletedCount()
}

// Len is the total number of allocated offsets, tombstoned ones included.
func (this *Indexer) Len() int {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.registry.Len()
}

func (this *Indexer) Dimension() int {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.numDim
}

func (this *Indexer) IsBuilt() bool {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.index != nil
}

// Embedding returns the stored vector for a live id. Requires a backing
// index that supports reconstruction.
func (this *Indexer) Embedding(id string) (math.Vector, error) {
	this.mu.RLock()
	defer this.mu.RUnlock()

	if this.index == nil {
		return nil, IndexerNotBuiltErr
	}
	offset, exists := this.registry.Offset(id)
	if !exists || this.registry.IsDeleted(offset) {
		return nil, EmbeddingNotStoredErr
	}
	return this.index.Reconstruct(offset)
}

// Embeddings reconstructs stored vectors for a batch of ids. Failures are
// logged and leave a nil entry; the rest of the batch is still served.
func (this *Indexer) Embeddings(ids []string) []math.Vector {
	vectors := make([]math.Vector, len(ids))
	for i, id := range ids {
		vector, err := this.Embedding(id)
		if err != nil {
			log.WithFields(log.Fields{"id": id}).Warnf("Cannot reconstruct embedding: %v", err)
			continue
		}
		vectors[i] = vector
	}
	return vectors
}

// prepare decodes a raw little-endian float32 buffer into a vector,
// validates its dimensionality against the index and optionally normalizes
// it. The first vector seen fixes the dimension.
func (this *Indexer) prepare(id string, buf []byte) (math.Vector, error) {
	vector, err := math.VectorFromBytes(buf)
	if err != nil {
		log.WithFields(log.Fields{"id": id}).Warnf("Skipping invalid vector buffer: %v", err)
		return nil, InvalidSourceVectorErr
	}

	if this.numDim == 0 {
		this.numDim = len(vector)
	}
	if len(vector) != this.numDim {
		log.WithFields(log.Fields{"id": id, "dim": len(vector), "expected": this.numDim}).Warn("Vector dimension mismatch")
		return nil, index.DimensionMissmatchErr
	}

	if this.config.normalize {
		vector.Normalize()
	}
	return vector, nil
}

func (this *Indexer) newIndex() (index.Index, error) {
	var options []index.IVFOption
	if this.config.makeDirectMap {
		options = append(options, index.WithDirectMap())
	}
	idx, err := index.New(this.config.indexKey, this.numDim, this.space, options...)
	if err != nil {
		return nil, err
	}
	idx.SetNprobe(this.config.nprobe)
	return idx, nil
}
