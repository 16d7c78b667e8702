package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"io"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v2"
)

var (
	DocumentNotFoundErr error = errors.New("Document not found")
	InvalidShardErr     error = errors.New("Shard id out of range")
)

var documentKeyPrefix []byte = []byte("doc")

// Document is a stored embedding with an opaque payload. Vector is a packed
// little-endian float32 buffer. A delete leaves a marker document behind
// (Deleted set, Vector nil) so delta streams can replay the removal.
type Document struct {
	Id        string
	Vector    []byte
	Payload   []byte
	UpdatedAt time.Time
	Deleted   bool
}

// DocStore persists documents in badger, partitioned into totalShards
// virtual shards by identifier hash. Shard membership is stable for a given
// shard count, so shard-parallel dumps see disjoint document sets.
type DocStore struct {
	db          *badger.DB
	totalShards int
}

func NewDocStore(db *badger.DB, totalShards int) *DocStore {
	if totalShards < 1 {
		totalShards = 1
	}
	return &DocStore{
		db:          db,
		totalShards: totalShards,
	}
}

func (this *DocStore) TotalShards() int {
	return this.totalShards
}

// Add upserts a document. A zero UpdatedAt is stamped with the current time.
func (this *DocStore) Add(doc *Document) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}
	doc.Deleted = false

	return this.db.Update(func(txn *badger.Txn) error {
		return txn.Set(this.documentKey(doc.Id), serializeDocument(doc))
	})
}

// Update is an alias of Add; the store has upsert semantics.
func (this *DocStore) Update(doc *Document) error {
	return this.Add(doc)
}

// Delete replaces the document with a tombstone marker. Deleting an unknown
// id still writes a marker so the removal reaches delta consumers.
func (this *DocStore) Delete(id string) error {
	marker := &Document{
		Id:        id,
		UpdatedAt: time.Now(),
		Deleted:   true,
	}
	return this.db.Update(func(txn *badger.Txn) error {
		return txn.Set(this.documentKey(id), serializeDocument(marker))
	})
}

// Get returns a live document. Tombstone markers read as not found.
func (this *DocStore) Get(id string) (*Document, error) {
	var doc *Document
	err := this.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(this.documentKey(id))
		if err == badger.ErrKeyNotFound {
			return DocumentNotFoundErr
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err = deserializeDocument(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if doc.Deleted {
		return nil, DocumentNotFoundErr
	}
	return doc, nil
}

// Size counts live documents.
func (this *DocStore) Size() (int, error) {
	count := 0
	err := this.iterate(func(doc *Document) error {
		if !doc.Deleted {
			count++
		}
		return nil
	})
	return count, err
}

// Dump streams the live documents of one shard as a vector source. Pass
// shardId 0 with totalShards 1 for a full dump.
func (this *DocStore) Dump(shardId, totalShards int) (*DumpIterator, error) {
	if (totalShards < 1) || (shardId < 0) || (shardId >= totalShards) {
		return nil, InvalidShardErr
	}

	docs := make([]*Document, 0)
	err := this.iterate(func(doc *Document) error {
		if doc.Deleted {
			return nil
		}
		if ShardOf(doc.Id, totalShards) == shardId {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DumpIterator{docs: docs}, nil
}

// DeltaSince returns every document touched after the given time, tombstone
// markers included, ordered by update time.
func (this *DocStore) DeltaSince(since time.Time) ([]*Document, error) {
	docs := make([]*Document, 0)
	err := this.iterate(func(doc *Document) error {
		if doc.UpdatedAt.After(since) {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.Before(docs[j].UpdatedAt)
	})
	return docs, nil
}

func (this *DocStore) iterate(fn func(doc *Document) error) error {
	return this.db.View(func(txn *badger.Txn) error {
		iterOpt := badger.DefaultIteratorOptions
		iterOpt.Prefix = documentKeyPrefix

		iterator := txn.NewIterator(iterOpt)
		defer iterator.Close()

		for iterator.Seek(documentKeyPrefix); iterator.Valid(); iterator.Next() {
			err := iterator.Item().Value(func(val []byte) error {
				doc, err := deserializeDocument(val)
				if err != nil {
					return err
				}
				return fn(doc)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (this *DocStore) documentKey(id string) []byte {
	b := make([]byte, 0, len(documentKeyPrefix)+4+len(id))
	b = append(b, documentKeyPrefix...)
	b = binary.BigEndian.AppendUint32(b, uint32(ShardOf(id, this.totalShards)))
	return append(b, id...)
}

// ShardOf maps an identifier to its virtual shard.
func ShardOf(id string, totalShards int) int {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int(h.Sum64() % uint64(totalShards))
}

// DumpIterator satisfies the vector source contract expected by index
// builders: Next yields (id, raw vector) pairs and io.EOF at the end.
type DumpIterator struct {
	docs []*Document
	pos  int
}

func (this *DumpIterator) Next() (string, []byte, error) {
	if this.pos >= len(this.docs) {
		return "", nil, io.EOF
	}
	doc := this.docs[this.pos]
	this.pos++
	return doc.Id, doc.Vector, nil
}

func (this *DumpIterator) Len() int {
	return len(this.docs)
}

func serializeDocument(doc *Document) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(doc.Id)))
	buf.WriteString(doc.Id)
	binary.Write(&buf, binary.BigEndian, doc.Deleted)
	binary.Write(&buf, binary.BigEndian, doc.UpdatedAt.UnixNano())
	binary.Write(&buf, binary.BigEndian, uint32(len(doc.Vector)))
	buf.Write(doc.Vector)
	binary.Write(&buf, binary.BigEndian, uint32(len(doc.Payload)))
	buf.Write(doc.Payload)
	return buf.Bytes()
}

func deserializeDocument(data []byte) (*Document, error) {
	r := bytes.NewReader(data)

	var idLength uint32
	if err := binary.Read(r, binary.BigEndian, &idLength); err != nil {
		return nil, err
	}
	idBytes := make([]byte, idLength)
	if _, err := io.ReadFull(r, idBytes); err != nil {
		return nil, err
	}

	doc := &Document{Id: string(idBytes)}
	var updatedAt int64
	if err := binary.Read(r, binary.BigEndian, &doc.Deleted); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &updatedAt); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Unix(0, updatedAt)

	var vectorLength uint32
	if err := binary.Read(r, binary.BigEndian, &vectorLength); err != nil {
		return nil, err
	}
	if vectorLength > 0 {
		doc.Vector = make([]byte, vectorLength)
		if _, err := io.ReadFull(r, doc.Vector); err != nil {
			return nil, err
		}
	}

	var payloadLength uint32
	if err := binary.Read(r, binary.BigEndian, &payloadLength); err != nil {
		return nil, err
	}
	if payloadLength > 0 {
		doc.Payload = make([]byte, payloadLength)
		if _, err := io.ReadFull(r, doc.Payload); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
