package index

import (
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
)

var (
	DimensionMissmatchErr         error = errors.New("Value dimension does not match index dimension")
	IndexNotTrainedErr            error = errors.New("Index is not trained")
	IndexAlreadyTrainedErr        error = errors.New("Index does not support retraining")
	InsufficientTrainingPointsErr error = errors.New("Not enough training points")
	ReconstructionNotSupportedErr error = errors.New("Index does not support reconstruction")
	InvalidIndexTypeErr           error = errors.New("Invalid index type")
)

const (
	flatIndexType uint8 = iota + 1
	ivfFlatIndexType
)

// Index is an offset-addressed nearest neighbor structure. Offsets are
// assigned in Add order, starting at zero, and are never reused; removal is
// the caller's concern (tombstoning happens above this interface).
type Index interface {
	Dimension() int
	Space() space.Space
	Len() int
	IsTrained() bool
	Train(sample []math.Vector) error
	Add(batch []math.Vector) error
	Search(ctx context.Context, query math.Vector, k uint) (SearchResult, error)
	Reconstruct(offset int64) (math.Vector, error)
	SetNprobe(nprobe int)
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// LoadIndex reads a serialized index of any registered type.
func LoadIndex(r io.Reader) (Index, error) {
	var indexType uint8
	if err := binary.Read(r, binary.BigEndian, &indexType); err != nil {
		return nil, err
	}

	var index Index
	switch indexType {
	case flatIndexType:
		index = &Flat{}
	case ivfFlatIndexType:
		index = &IVFFlat{nprobe: 1}
	default:
		return nil, InvalidIndexTypeErr
	}

	if err := index.Load(r); err != nil {
		return nil, err
	}
	return index, nil
}

func saveIndexHeader(w io.Writer, indexType uint8, s space.Space, dim int) error {
	if err := binary.Write(w, binary.BigEndian, indexType); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint8(s.Metric())); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, uint32(dim))
}

func loadIndexHeader(r io.Reader) (space.Space, int, error) {
	var metricIdx uint8
	var dim uint32
	if err := binary.Read(r, binary.BigEndian, &metricIdx); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(r, binary.BigEndian, &dim); err != nil {
		return nil, 0, err
	}

	s, err := space.New(space.Metric(metricIdx))
	if err != nil {
		return nil, 0, err
	}
	return s, int(dim), nil
}
