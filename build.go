package vecdex

import (
	"errors"
	"io"
	"os"

	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/index"
	"github.com/vecdex/vecdex/math"
)

var (
	PretrainedIndexMetricErr     error = errors.New("Pre-trained index metric does not match configuration")
	PretrainedIndexNotEmptyErr   error = errors.New("Pre-trained index must be empty")
	PretrainedIndexNotTrainedErr error = errors.New("Pre-trained index file holds an untrained index")
	IndexerAlreadyBuiltErr       error = errors.New("Indexer already has a built index")
)

// VectorSource streams identified raw embeddings. Next returns io.EOF once
// the stream is exhausted. Vector buffers are packed little-endian float32.
type VectorSource interface {
	Next() (id string, vector []byte, err error)
}

// Build constructs the backing index from a one-pass source stream. When the
// index type requires training and no pre-trained index file is configured,
// the whole stream is buffered so a training sample can be drawn before
// insertion; otherwise records are inserted in prefetch-sized batches as
// they arrive. An empty source leaves the indexer unbuilt.
func (this *Indexer) Build(source VectorSource) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if this.index != nil {
		return IndexerAlreadyBuiltErr
	}

	if this.config.trainedIndexFile != "" {
		return this.buildFromPretrained(source)
	}
	if index.RequiresTraining(this.config.indexKey) {
		return this.buildWithTraining(source)
	}
	return this.buildStreaming(source)
}

func (this *Indexer) buildStreaming(source VectorSource) error {
	total := 0
	for {
		ids, vectors, err := this.prefetch(source)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		if this.index == nil {
			idx, err := this.newIndex()
			if err != nil {
				return err
			}
			this.index = idx
		}
		if err := this.insertBatch(ids, vectors); err != nil {
			return err
		}
		total += len(ids)
		logBatchProgress(total)
	}

	if this.index == nil {
		log.Warn("Source yielded no vectors, indexer left unbuilt")
		return nil
	}
	log.WithFields(log.Fields{"size": this.registry.Size()}).Info("Index built")
	return nil
}

// buildWithTraining draws the training sample from the head of the stream.
// With a max-training-points cap the buffer stops growing at the cap and the
// remainder streams through in prefetch-sized batches, so memory stays
// bounded; without a cap the whole stream is the candidate sample.
func (this *Indexer) buildWithTraining(source VectorSource) error {
	limit := this.config.maxTrainingPoints
	ids := make([]string, 0)
	vectors := make([]math.Vector, 0)
	for (limit <= 0) || (len(ids) < limit) {
		batchIds, batchVectors, err := this.prefetch(source)
		if err != nil {
			return err
		}
		if len(batchIds) == 0 {
			break
		}
		ids = append(ids, batchIds...)
		vectors = append(vectors, batchVectors...)
	}

	if len(ids) == 0 {
		log.Warn("Source yielded no vectors, indexer left unbuilt")
		return nil
	}

	idx, err := this.newIndex()
	if err != nil {
		return err
	}
	if err := idx.Train(this.trainingSample(vectors)); err != nil {
		return err
	}
	this.index = idx

	total := 0
	for start := 0; start < len(ids); start += this.config.prefetchSize {
		end := math.MinInt(start+this.config.prefetchSize, len(ids))
		if err := this.insertBatch(ids[start:end], vectors[start:end]); err != nil {
			return err
		}
		total = end
		logBatchProgress(total)
	}

	for {
		batchIds, batchVectors, err := this.prefetch(source)
		if err != nil {
			return err
		}
		if len(batchIds) == 0 {
			break
		}
		if err := this.insertBatch(batchIds, batchVectors); err != nil {
			return err
		}
		total += len(batchIds)
		logBatchProgress(total)
	}

	log.WithFields(log.Fields{"size": this.registry.Size()}).Info("Index trained and built")
	return nil
}

func (this *Indexer) buildFromPretrained(source VectorSource) error {
	idx, err := this.loadPretrainedIndex()
	if err != nil {
		return err
	}
	this.index = idx
	this.numDim = idx.Dimension()

	total := 0
	for {
		ids, vectors, err := this.prefetch(source)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if err := this.insertBatch(ids, vectors); err != nil {
			return err
		}
		total += len(ids)
		logBatchProgress(total)
	}
	log.WithFields(log.Fields{"size": this.registry.Size()}).Info("Index built from pre-trained file")
	return nil
}

func (this *Indexer) loadPretrainedIndex() (index.Index, error) {
	f, err := os.Open(this.config.trainedIndexFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := index.LoadIndex(f)
	if err != nil {
		return nil, err
	}
	if idx.Space().Metric() != this.config.metric {
		return nil, PretrainedIndexMetricErr
	}
	if !idx.IsTrained() {
		return nil, PretrainedIndexNotTrainedErr
	}
	if idx.Len() != 0 {
		return nil, PretrainedIndexNotEmptyErr
	}

	idx.SetNprobe(this.config.nprobe)
	return idx, nil
}

// prefetch pulls up to prefetchSize decodable records from the source.
// Records with undecodable buffers are logged and skipped, so a returned
// empty batch means the source is exhausted. A dimension mismatch against
// the established dimensionality (first vector seen, or a pre-trained
// index) is an error: a source that disagrees wholesale must fail the
// build, not produce an empty index.
func (this *Indexer) prefetch(source VectorSource) ([]string, []math.Vector, error) {
	ids := make([]string, 0, this.config.prefetchSize)
	vectors := make([]math.Vector, 0, this.config.prefetchSize)
	for len(ids) < this.config.prefetchSize {
		id, buf, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		vector, err := this.prepare(id, buf)
		if err == InvalidSourceVectorErr {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		vectors = append(vectors, vector)
	}
	return ids, vectors, nil
}

// insertBatch appends a batch to the index and records the id to offset
// bindings. An id seen before is repointed to its new offset and the old
// one is tombstoned.
func (this *Indexer) insertBatch(ids []string, vectors []math.Vector) error {
	if err := this.index.Add(vectors); err != nil {
		return err
	}
	for _, id := range ids {
		if previous, exists := this.registry.Offset(id); exists {
			this.registry.Tombstone(previous)
		}
		this.registry.Append(id)
	}
	return nil
}

// trainingSample draws up to maxTrainingPoints vectors without replacement.
func (this *Indexer) trainingSample(vectors []math.Vector) []math.Vector {
	limit := this.config.maxTrainingPoints
	if (limit <= 0) || (limit >= len(vectors)) {
		return vectors
	}

	sample := make([]math.Vector, limit)
	for i, idx := range math.RandomSample(limit, len(vectors)) {
		sample[i] = vectors[idx]
	}
	log.WithFields(log.Fields{"sample": limit, "total": len(vectors)}).Info("Subsampled training points")
	return sample
}

func logBatchProgress(total int) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	fields := log.Fields{"inserted": total}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			fields["rss_mb"] = mem.RSS / (1 << 20)
		}
	}
	log.WithFields(fields).Debug("Inserted batch")
}
