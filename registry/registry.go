package registry

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

var (
	OffsetOutOfRangeErr       error = errors.New("Offset out of range")
	IdNotFoundErr             error = errors.New("Id not found")
	InconsistentTombstonesErr error = errors.New("Tombstone table references offsets beyond the identifier sequence")
)

// Registry owns the three parallel structures backing an index: the ordered
// identifier sequence (position = offset), the id to offset map and the
// tombstone table. Offsets are assigned by appension and never reused; a
// superseded offset stays allocated and tombstoned.
type Registry struct {
	ids     []string
	offsets map[string]int64
	deleted *roaring64.Bitmap
}

func NewRegistry() *Registry {
	return &Registry{
		ids:     make([]string, 0),
		offsets: make(map[string]int64),
		deleted: roaring64.New(),
	}
}

// Append assigns the next offset to id and returns it. If the id is already
// known, the map is repointed to the new offset; the caller is responsible
// for tombstoning the superseded one.
func (this *Registry) Append(id string) int64 {
	offset := int64(len(this.ids))
	this.ids = append(this.ids, id)
	this.offsets[id] = offset
	return offset
}

func (this *Registry) Offset(id string) (int64, bool) {
	offset, exists := this.offsets[id]
	return offset, exists
}

func (this *Registry) Id(offset int64) (string, error) {
	if (offset < 0) || (offset >= int64(len(this.ids))) {
		return "", OffsetOutOfRangeErr
	}
	return this.ids[offset], nil
}

// Tombstone marks an offset as deleted. Returns false if it already was,
// which makes repeated deletes a no-op.
func (this *Registry) Tombstone(offset int64) bool {
	return this.deleted.CheckedAdd(uint64(offset))
}

func (this *Registry) IsDeleted(offset int64) bool {
	return this.deleted.Contains(uint64(offset))
}

// Len is the total number of allocated offsets, tombstoned ones included.
func (this *Registry) Len() int {
	return len(this.ids)
}

func (this *Registry) DeletedCount() int {
	return int(this.deleted.GetCardinality())
}

// Size is the number of live entries: Len() - DeletedCount().
func (this *Registry) Size() int {
	return this.Len() - this.DeletedCount()
}

func (this *Registry) SaveIds(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(this.ids))); err != nil {
		return err
	}
	for _, id := range this.ids {
		if err := binary.Write(w, binary.BigEndian, uint32(len(id))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, id); err != nil {
			return err
		}
	}
	return nil
}

func (this *Registry) LoadIds(r io.Reader) error {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}

	this.ids = make([]string, 0, int(count))
	this.offsets = make(map[string]int64, int(count))
	for i := 0; i < int(count); i++ {
		var idLength uint32
		if err := binary.Read(r, binary.BigEndian, &idLength); err != nil {
			return err
		}
		idBytes := make([]byte, idLength)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return err
		}

		// Last write wins: an updated id maps to its newest offset.
		this.ids = append(this.ids, string(idBytes))
		this.offsets[string(idBytes)] = int64(i)
	}
	return nil
}

func (this *Registry) SaveTombstones(w io.Writer) error {
	_, err := this.deleted.WriteTo(w)
	return err
}

func (this *Registry) LoadTombstones(r io.Reader) error {
	deleted := roaring64.New()
	if _, err := deleted.ReadFrom(r); err != nil {
		return err
	}
	if !deleted.IsEmpty() && (deleted.Maximum() >= uint64(len(this.ids))) {
		return InconsistentTombstonesErr
	}

	this.deleted = deleted
	return nil
}
