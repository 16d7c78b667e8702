package vecdex

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/index"
	"github.com/vecdex/vecdex/registry"
)

const (
	INDEX_FILE_NAME      string = "index.bin"
	IDS_FILE_NAME        string = "doc_ids.bin"
	TOMBSTONES_FILE_NAME string = "delete_marks.bin"
)

var SnapshotMetricErr error = errors.New("Snapshot metric does not match configuration")

// Save writes the three snapshot artifacts (index, identifier sequence,
// tombstone table) into dir. The artifacts are only consistent as a set; a
// partial copy will be rejected by Load.
func (this *Indexer) Save(dir string) error {
	this.mu.RLock()
	defer this.mu.RUnlock()

	if this.index == nil {
		return IndexerNotBuiltErr
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, INDEX_FILE_NAME), this.index.Save); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, IDS_FILE_NAME), this.registry.SaveIds); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TOMBSTONES_FILE_NAME), this.registry.SaveTombstones); err != nil {
		return err
	}

	log.WithFields(log.Fields{"dir": dir, "size": this.registry.Size()}).Info("Snapshot saved")
	return nil
}

// Load restores a snapshot from dir. A missing, truncated or mutually
// inconsistent set of artifacts is not an error: it logs a warning and
// returns false, leaving the indexer unbuilt for a cold start. A snapshot
// that disagrees with the configured metric or trained flag is a
// configuration mismatch and fails outright; rebuilding over it would
// silently discard the corpus.
func (this *Indexer) Load(dir string) (bool, error) {
	this.mu.Lock()
	defer this.mu.Unlock()

	if this.index != nil {
		return false, IndexerAlreadyBuiltErr
	}

	idx, err := this.loadSnapshotIndex(filepath.Join(dir, INDEX_FILE_NAME))
	if (err == SnapshotMetricErr) || (err == index.IndexNotTrainedErr) {
		return false, err
	}
	if err != nil {
		log.WithFields(log.Fields{"dir": dir}).Warnf("Snapshot rejected, starting cold: %v", err)
		return false, nil
	}

	reg := registry.NewRegistry()
	if err := readFile(filepath.Join(dir, IDS_FILE_NAME), reg.LoadIds); err != nil {
		log.WithFields(log.Fields{"dir": dir}).Warnf("Snapshot rejected, starting cold: %v", err)
		return false, nil
	}
	if err := readFile(filepath.Join(dir, TOMBSTONES_FILE_NAME), reg.LoadTombstones); err != nil {
		log.WithFields(log.Fields{"dir": dir}).Warnf("Snapshot rejected, starting cold: %v", err)
		return false, nil
	}
	if reg.Len() != idx.Len() {
		log.WithFields(log.Fields{"dir": dir, "ids": reg.Len(), "vectors": idx.Len()}).Warn("Snapshot rejected, starting cold: identifier count does not match index size")
		return false, nil
	}

	this.index = idx
	this.registry = reg
	this.numDim = idx.Dimension()
	log.WithFields(log.Fields{"dir": dir, "size": reg.Size()}).Info("Snapshot loaded")
	return true, nil
}

func (this *Indexer) loadSnapshotIndex(path string) (index.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := index.LoadIndex(f)
	if err != nil {
		return nil, err
	}
	if idx.Space().Metric() != this.config.metric {
		return nil, SnapshotMetricErr
	}
	if !idx.IsTrained() {
		return nil, index.IndexNotTrainedErr
	}

	idx.SetNprobe(this.config.nprobe)
	return idx, nil
}

func writeFile(path string, save func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readFile(path string, load func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return load(f)
}
