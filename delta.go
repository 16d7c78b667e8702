package vecdex

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/index"
	"github.com/vecdex/vecdex/math"
)

// DeltaRecord is a single mutation. A nil Vector is a delete; a Vector for a
// known id is an update (tombstone then re-append); a Vector for an unknown
// id is an insert. UpdatedAt is informational and does not affect apply
// order, which follows the slice.
type DeltaRecord struct {
	Id        string
	Vector    []byte
	UpdatedAt time.Time
}

// ApplyDelta applies mutations strictly in order. If the indexer is still
// unbuilt it is lazily built first, which only works for index types that
// need no training; a training-dependent configuration returns
// IndexNotTrainedErr.
func (this *Indexer) ApplyDelta(records []DeltaRecord) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	for _, record := range records {
		if record.Vector == nil {
			this.applyDelete(record.Id)
			continue
		}
		if err := this.applyUpsert(record.Id, record.Vector); err != nil {
			return err
		}
	}
	return nil
}

func (this *Indexer) applyDelete(id string) {
	offset, exists := this.registry.Offset(id)
	if !exists {
		log.WithFields(log.Fields{"id": id}).Warn("Delete for unknown id ignored")
		return
	}
	this.registry.Tombstone(offset)
}

func (this *Indexer) applyUpsert(id string, buf []byte) error {
	vector, err := this.prepare(id, buf)
	if err != nil {
		// Invalid buffers are logged and skipped; dimension mismatches
		// after the first vector are hard errors.
		if err == InvalidSourceVectorErr {
			return nil
		}
		return err
	}

	if this.index == nil {
		if index.RequiresTraining(this.config.indexKey) {
			return index.IndexNotTrainedErr
		}
		idx, err := this.newIndex()
		if err != nil {
			return err
		}
		this.index = idx
	}

	if err := this.index.Add([]math.Vector{vector}); err != nil {
		return err
	}
	if previous, exists := this.registry.Offset(id); exists {
		this.registry.Tombstone(previous)
	}
	this.registry.Append(id)
	return nil
}
