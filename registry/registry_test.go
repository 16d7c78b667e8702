package registry

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAppend(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, int64(0), r.Append("a"))
	assert.Equal(t, int64(1), r.Append("b"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.Size())

	offset, exists := r.Offset("a")
	assert.True(t, exists)
	assert.Equal(t, int64(0), offset)

	id, err := r.Id(1)
	assert.Nil(t, err)
	assert.Equal(t, "b", id)

	_, err = r.Id(2)
	assert.Equal(t, OffsetOutOfRangeErr, err)
	_, err = r.Id(-1)
	assert.Equal(t, OffsetOutOfRangeErr, err)

	_, exists = r.Offset("c")
	assert.False(t, exists)
}

func TestRegistryAppendRepointsKnownId(t *testing.T) {
	r := NewRegistry()

	r.Append("a")
	assert.Equal(t, int64(1), r.Append("a"))
	assert.Equal(t, 2, r.Len())

	offset, _ := r.Offset("a")
	assert.Equal(t, int64(1), offset)

	// Both offsets still resolve to the id.
	id, _ := r.Id(0)
	assert.Equal(t, "a", id)
	id, _ = r.Id(1)
	assert.Equal(t, "a", id)
}

func TestRegistryTombstoneIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Append("a")
	r.Append("b")

	assert.True(t, r.Tombstone(0))
	assert.False(t, r.Tombstone(0))

	assert.True(t, r.IsDeleted(0))
	assert.False(t, r.IsDeleted(1))
	assert.Equal(t, 1, r.DeletedCount())
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, 2, r.Len())
}

func TestRegistrySaveLoadRoundTrip(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 100; i++ {
		r.Append(fmt.Sprintf("doc-%d", i))
	}
	// Update doc-7: tombstone old offset, append new one.
	r.Tombstone(7)
	r.Append("doc-7")
	r.Tombstone(13)

	var ids, tombstones bytes.Buffer
	assert.Nil(t, r.SaveIds(&ids))
	assert.Nil(t, r.SaveTombstones(&tombstones))

	loaded := NewRegistry()
	assert.Nil(t, loaded.LoadIds(&ids))
	assert.Nil(t, loaded.LoadTombstones(&tombstones))

	assert.Equal(t, r.Len(), loaded.Len())
	assert.Equal(t, r.DeletedCount(), loaded.DeletedCount())
	assert.Equal(t, r.Size(), loaded.Size())

	// Last write wins on load: doc-7 points at the appended offset.
	offset, exists := loaded.Offset("doc-7")
	assert.True(t, exists)
	assert.Equal(t, int64(100), offset)
	assert.True(t, loaded.IsDeleted(7))
	assert.True(t, loaded.IsDeleted(13))
	assert.False(t, loaded.IsDeleted(14))
}

func TestRegistrySaveLoadLongIds(t *testing.T) {
	r := NewRegistry()
	longId := strings.Repeat("x", 70000)
	r.Append(longId)
	r.Append("short")

	var ids bytes.Buffer
	assert.Nil(t, r.SaveIds(&ids))

	loaded := NewRegistry()
	assert.Nil(t, loaded.LoadIds(&ids))

	id, err := loaded.Id(0)
	assert.Nil(t, err)
	assert.Equal(t, longId, id)
	id, err = loaded.Id(1)
	assert.Nil(t, err)
	assert.Equal(t, "short", id)
}

func TestRegistryLoadTombstonesRejectsOutOfRange(t *testing.T) {
	r := NewRegistry()
	r.Append("a")
	r.Append("b")
	r.Tombstone(1)

	var tombstones bytes.Buffer
	assert.Nil(t, r.SaveTombstones(&tombstones))

	short := NewRegistry()
	short.Append("a")
	assert.Equal(t, InconsistentTombstonesErr, short.LoadTombstones(&tombstones))
}

func TestRegistryLoadIdsTruncated(t *testing.T) {
	r := NewRegistry()
	r.Append("abcdef")

	var ids bytes.Buffer
	assert.Nil(t, r.SaveIds(&ids))

	truncated := ids.Bytes()[:ids.Len()-3]
	assert.NotNil(t, NewRegistry().LoadIds(bytes.NewReader(truncated)))
}
