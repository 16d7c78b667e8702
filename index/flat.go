package index

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/vecdex/vecdex/index/space"
	"github.com/vecdex/vecdex/math"
	"github.com/vecdex/vecdex/utils"
)

// Flat is the exact index: a contiguous float32 arena scanned in full on
// every query. It requires no training.
type Flat struct {
	dim   int
	space space.Space
	arena []float32
}

func NewFlat(dim int, s space.Space) *Flat {
	return &Flat{
		dim:   dim,
		space: s,
		arena: make([]float32, 0),
	}
}

func (this *Flat) Dimension() int {
	return this.dim
}

func (this *Flat) Space() space.Space {
	return this.space
}

func (this *Flat) Len() int {
	return len(this.arena) / this.dim
}

func (this *Flat) IsTrained() bool {
	return true
}

func (this *Flat) Train(sample []math.Vector) error {
	for _, vector := range sample {
		if len(vector) != this.dim {
			return DimensionMissmatchErr
		}
	}
	return nil
}

func (this *Flat) Add(batch []math.Vector) error {
	for _, vector := range batch {
		if len(vector) != this.dim {
			return DimensionMissmatchErr
		}
	}
	for _, vector := range batch {
		this.arena = append(this.arena, vector...)
	}
	return nil
}

func (this *Flat) Search(ctx context.Context, query math.Vector, k uint) (SearchResult, error) {
	if len(query) != this.dim {
		return nil, DimensionMissmatchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := utils.NewMaxPriorityQueue()
	for offset := 0; offset < this.Len(); offset++ {
		distance := this.space.Distance(query, this.at(int64(offset)))
		if uint(candidates.Len()) < k {
			candidates.Push(utils.NewPriorityQueueItem(distance, int64(offset)))
		} else if (candidates.Len() > 0) && (distance < candidates.Peek().Priority()) {
			candidates.Pop()
			candidates.Push(utils.NewPriorityQueueItem(distance, int64(offset)))
		}
	}

	return collectAscending(candidates), nil
}

func (this *Flat) Reconstruct(offset int64) (math.Vector, error) {
	if (offset < 0) || (offset >= int64(this.Len())) {
		return nil, ReconstructionNotSupportedErr
	}

	vector := make(math.Vector, this.dim)
	copy(vector, this.at(offset))
	return vector, nil
}

// SetNprobe is a no-op: a flat index always scans everything.
func (this *Flat) SetNprobe(nprobe int) {}

func (this *Flat) Save(w io.Writer) error {
	if err := saveIndexHeader(w, flatIndexType, this.space, this.dim); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(this.Len())); err != nil {
		return err
	}
	return math.Vector(this.arena).Save(w)
}

func (this *Flat) Load(r io.Reader) error {
	s, dim, err := loadIndexHeader(r)
	if err != nil {
		return err
	}

	var count uint64
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}

	arena := make(math.Vector, int(count)*dim)
	if err := arena.Load(r); err != nil {
		return err
	}

	this.space = s
	this.dim = dim
	this.arena = arena
	return nil
}

func (this *Flat) at(offset int64) math.Vector {
	return math.Vector(this.arena[offset*int64(this.dim) : (offset+1)*int64(this.dim)])
}

// collectAscending drains a max priority queue into an ascending-distance
// search result.
func collectAscending(candidates utils.PriorityQueue) SearchResult {
	result := make(SearchResult, candidates.Len())
	for i := candidates.Len() - 1; i >= 0; i-- {
		item := candidates.Pop()
		result[i] = SearchResultItem{
			Offset:   item.Value().(int64),
			Distance: item.Priority(),
		}
	}
	return result
}
