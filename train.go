package vecdex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"github.com/vecdex/vecdex/math"
)

var EmptyTrainingFileErr error = errors.New("Training file holds no vectors")

var gzipMagic = []byte{0x1f, 0x8b}

// Train builds an empty, trained index from a .vecs training file. The
// resulting indexer accepts inserts immediately; SaveTrainedIndex can
// persist the index for later use with the TrainedIndexFile option.
func (this *Indexer) Train(trainingFile string) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if this.index != nil {
		return IndexerAlreadyBuiltErr
	}

	vectors, err := LoadTrainingVectors(trainingFile)
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return EmptyTrainingFileErr
	}

	this.numDim = len(vectors[0])
	if this.config.normalize {
		for _, vector := range vectors {
			vector.Normalize()
		}
	}

	idx, err := this.newIndex()
	if err != nil {
		return err
	}
	if err := idx.Train(this.trainingSample(vectors)); err != nil {
		return err
	}

	this.index = idx
	log.WithFields(log.Fields{"file": trainingFile, "points": len(vectors), "dim": this.numDim}).Info("Index trained")
	return nil
}

// SaveTrainedIndex writes just the backing index. The output is a valid
// TrainedIndexFile as long as the index is still empty.
func (this *Indexer) SaveTrainedIndex(path string) error {
	this.mu.RLock()
	defer this.mu.RUnlock()

	if this.index == nil {
		return IndexerNotBuiltErr
	}
	return writeFile(path, this.index.Save)
}

// LoadTrainingVectors reads a .vecs container: a uint32 vector count, a
// uint32 dimension and count*dim big-endian float32 components. The file may
// be gzip-compressed; compression is detected from the magic bytes.
func LoadTrainingVectors(path string) ([]math.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buffered := bufio.NewReader(f)
	var r io.Reader = buffered
	if magic, err := buffered.Peek(2); (err == nil) && (magic[0] == gzipMagic[0]) && (magic[1] == gzipMagic[1]) {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	var count, dim uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &dim); err != nil {
		return nil, err
	}

	vectors := make([]math.Vector, int(count))
	for i := range vectors {
		vector := make(math.Vector, int(dim))
		if err := vector.Load(r); err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// SaveTrainingVectors writes vectors into a .vecs container, gzipped when
// compress is set.
func SaveTrainingVectors(path string, vectors []math.Vector, compress bool) error {
	if len(vectors) == 0 {
		return EmptyTrainingFileErr
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(vectors))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(vectors[0]))); err != nil {
		return err
	}
	for _, vector := range vectors {
		if err := vector.Save(w); err != nil {
			return err
		}
	}

	if gz != nil {
		return gz.Close()
	}
	return nil
}
