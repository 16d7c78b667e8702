package index

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/utils"
)

type IVFOption interface {
	apply(index *IVFFlat)
}

type makeDirectMapOption struct{}

func (opt makeDirectMapOption) apply(index *IVFFlat) {
	index.makeDirectMap = true
}

// WithDirectMap keeps an offset -> inverted list position map so vectors can
// be reconstructed after insertion. Costs one map entry per vector.
func WithDirectMap() IVFOption {
	return makeDirectMapOption{}
}

type listPosition struct {
	list int
	pos  int
}

// IVFFlat partitions the vector space into nlist cells via k-means and scans
// only the nprobe nearest cells at query time. It must be trained before the
// first Add.
type IVFFlat struct {
	dim           int
	space         space.Space
	nlist         int
	nprobe        int
	makeDirectMap bool
	trained       bool
	count         int64
	centroids     []math.Vector
	listOffsets   [][]int64
	listVectors   [][]float32
	directMap     map[int64]listPosition
}

func NewIVFFlat(dim int, s space.Space, nlist int, options ...IVFOption) *IVFFlat {
	index := &IVFFlat{
		dim:    dim,
		space:  s,
		nlist:  nlist,
		nprobe: 1,
	}
	for _, option := range options {
		option.apply(index)
	}
	if index.makeDirectMap {
		index.directMap = make(map[int64]listPosition)
	}
	return index
}

func (this *IVFFlat) Dimension() int {
	return this.dim
}

func (this *IVFFlat) Space() space.Space {
	return this.space
}

func (this *IVFFlat) Len() int {
	return int(this.count)
}

func (this *IVFFlat) IsTrained() bool {
	return this.trained
}

func (this *IVFFlat) Train(sample []math.Vector) error {
	if this.trained {
		return IndexAlreadyTrainedErr
	}
	if len(sample) < this.nlist {
		return InsufficientTrainingPointsErr
	}
	for _, vector := range sample {
		if len(vector) != this.dim {
			return DimensionMissmatchErr
		}
	}

	this.centroids = trainKMeans(sample, this.nlist, this.space)
	this.listOffsets = make([][]int64, this.nlist)
	this.listVectors = make([][]float32, this.nlist)
	this.trained = true
	return nil
}

func (this *IVFFlat) Add(batch []math.Vector) error {
	if !this.trained {
		return IndexNotTrainedErr
	}
	for _, vector := range batch {
		if len(vector) != this.dim {
			return DimensionMissmatchErr
		}
	}

	for _, vector := range batch {
		list := nearestCentroid(vector, this.centroids, this.space)
		if this.makeDirectMap {
			this.directMap[this.count] = listPosition{list: list, pos: len(this.listOffsets[list])}
		}
		this.listOffsets[list] = append(this.listOffsets[list], this.count)
		this.listVectors[list] = append(this.listVectors[list], vector...)
		this.count++
	}
	return nil
}

func (this *IVFFlat) Search(ctx context.Context, query math.Vector, k uint) (SearchResult, error) {
	if !this.trained {
		return nil, IndexNotTrainedErr
	}
	if len(query) != this.dim {
		return nil, DimensionMissmatchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probes := this.nearestLists(query, math.MinInt(this.nprobe, this.nlist))

	candidates := utils.NewMaxPriorityQueue()
	for _, list := range probes {
		for i, offset := range this.listOffsets[list] {
			distance := this.space.Distance(query, this.listVector(list, i))
			if uint(candidates.Len()) < k {
				candidates.Push(utils.NewPriorityQueueItem(distance, offset))
			} else if (candidates.Len() > 0) && (distance < candidates.Peek().Priority()) {
				candidates.Pop()
				candidates.Push(utils.NewPriorityQueueItem(distance, offset))
			}
		}
	}

	return collectAscending(candidates), nil
}

func (this *IVFFlat) Reconstruct(offset int64) (math.Vector, error) {
	if !this.makeDirectMap {
		return nil, ReconstructionNotSupportedErr
	}
	position, exists := this.directMap[offset]
	if !exists {
		return nil, ReconstructionNotSupportedErr
	}

	vector := make(math.Vector, this.dim)
	copy(vector, this.listVector(position.list, position.pos))
	return vector, nil
}

func (this *IVFFlat) SetNprobe(nprobe int) {
	this.nprobe = math.MaxInt(1, nprobe)
}

func (this *IVFFlat) Save(w io.Writer) error {
	if err := saveIndexHeader(w, ivfFlatIndexType, this.space, this.dim); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, this.trained); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(this.nlist)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, this.makeDirectMap); err != nil {
		return err
	}
	if !this.trained {
		return nil
	}

	for _, centroid := range this.centroids {
		if err := centroid.Save(w); err != nil {
			return err
		}
	}
	for list := 0; list < this.nlist; list++ {
		if err := binary.Write(w, binary.BigEndian, uint64(len(this.listOffsets[list]))); err != nil {
			return err
		}
		for i, offset := range this.listOffsets[list] {
			if err := binary.Write(w, binary.BigEndian, offset); err != nil {
				return err
			}
			if err := this.listVector(list, i).Save(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func (this *IVFFlat) Load(r io.Reader) error {
	s, dim, err := loadIndexHeader(r)
	if err != nil {
		return err
	}

	var trained bool
	var nlist uint32
	var makeDirectMap bool
	if err := binary.Read(r, binary.BigEndian, &trained); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &nlist); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &makeDirectMap); err != nil {
		return err
	}

	this.space = s
	this.dim = dim
	this.nlist = int(nlist)
	this.makeDirectMap = makeDirectMap
	this.trained = trained
	this.count = 0
	if this.nprobe < 1 {
		this.nprobe = 1
	}
	if !trained {
		return nil
	}

	this.centroids = make([]math.Vector, this.nlist)
	for i := 0; i < this.nlist; i++ {
		centroid := make(math.Vector, dim)
		if err := centroid.Load(r); err != nil {
			return err
		}
		this.centroids[i] = centroid
	}

	this.listOffsets = make([][]int64, this.nlist)
	this.listVectors = make([][]float32, this.nlist)
	if makeDirectMap {
		this.directMap = make(map[int64]listPosition)
	}
	for list := 0; list < this.nlist; list++ {
		var size uint64
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return err
		}
		this.listOffsets[list] = make([]int64, size)
		this.listVectors[list] = make([]float32, 0, int(size)*dim)
		for i := 0; i < int(size); i++ {
			var offset int64
			if err := binary.Read(r, binary.BigEndian, &offset); err != nil {
				return err
			}
			vector := make(math.Vector, dim)
			if err := vector.Load(r); err != nil {
				return err
			}
			this.listOffsets[list][i] = offset
			this.listVectors[list] = append(this.listVectors[list], vector...)
			if makeDirectMap {
				this.directMap[offset] = listPosition{list: list, pos: i}
			}
			if offset >= this.count {
				this.count = offset + 1
			}
		}
	}
	return nil
}

func (this *IVFFlat) listVector(list, pos int) math.Vector {
	return math.Vector(this.listVectors[list][pos*this.dim : (pos+1)*this.dim])
}

// nearestLists returns the n centroid indices closest to the query, nearest
// first.
func (this *IVFFlat) nearestLists(query math.Vector, n int) []int {
	candidates := utils.NewMaxPriorityQueue()
	for i, centroid := range this.centroids {
		distance := this.space.Distance(query, centroid)
		if candidates.Len() < n {
			candidates.Push(utils.NewPriorityQueueItem(distance, i))
		} else if (candidates.Len() > 0) && (distance < candidates.Peek().Priority()) {
			candidates.Pop()
			candidates.Push(utils.NewPriorityQueueItem(distance, i))
		}
	}

	lists := make([]int, candidates.Len())
	for i := candidates.Len() - 1; i >= 0; i-- {
		lists[i] = candidates.Pop().Value().(int)
	}
	return lists
}
