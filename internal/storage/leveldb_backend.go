package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// LevelDBBackend stores keyfiles in an embedded ordered KV store keyed by
// UUID, with a secondary address→uuid index (spec §4.6, "embedded KV
// backend"). Grounded on original_source's DbStorage (one log-structured
// store per chain, keys are uuid bytes) and on syndtr/goleveldb, which the
// retrieval pack's storage-heavy repos use as their embedded KV of choice.
type LevelDBBackend struct {
	mu  sync.Mutex
	db  *leveldb.DB
}

const addressIndexPrefix = "addr:"

// NewLevelDBBackend opens (creating if absent) a LevelDB store at dir.
func NewLevelDBBackend(dir string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "open leveldb store", err)
	}
	return &LevelDBBackend{db: db}, nil
}

// Close releases the underlying database handle.
func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}

func addressIndexKey(addr primitives.Address) []byte {
	return append([]byte(addressIndexPrefix), addr[:]...)
}

// Put writes the canonical JSON under the uuid key and refreshes the
// address index; on conflict with an existing uuid, put overwrites (spec
// §4.6).
func (b *LevelDBBackend) Put(kf *keyfile.KeyFile) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := kf.MarshalJSON()
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "marshal keyfile", err)
	}

	batch := new(leveldb.Batch)
	batch.Put([]byte(kf.UUID.String()), data)
	if kf.HasAddress {
		batch.Put(addressIndexKey(kf.Address), []byte(kf.UUID.String()))
	}
	if err := b.db.Write(batch, nil); err != nil {
		return apperr.Wrap(apperr.StorageError, "leveldb write", err)
	}
	return nil
}

func (b *LevelDBBackend) Get(id string) (*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getLocked(id)
}

func (b *LevelDBBackend) getLocked(id string) (*keyfile.KeyFile, error) {
	data, err := b.db.Get([]byte(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, apperr.Newf(apperr.NotFound, "no keyfile with uuid %s", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "leveldb get", err)
	}
	var kf keyfile.KeyFile
	if err := kf.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &kf, nil
}

func (b *LevelDBBackend) GetByAddress(addr primitives.Address) (*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, err := b.db.Get(addressIndexKey(addr), nil)
	if err == leveldb.ErrNotFound {
		return nil, apperr.Newf(apperr.NotFound, "no keyfile with address %s", addr.Hex())
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "leveldb address index get", err)
	}
	return b.getLocked(string(id))
}

func (b *LevelDBBackend) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	kf, err := b.getLocked(id)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Delete([]byte(id))
	if kf.HasAddress {
		batch.Delete(addressIndexKey(kf.Address))
	}
	if err := b.db.Write(batch, nil); err != nil {
		return apperr.Wrap(apperr.StorageError, "leveldb delete", err)
	}
	return nil
}

// List iterates the primary keyspace, skipping the address-index entries
// (spec §4.6, "list operations iterate the primary keyspace").
func (b *LevelDBBackend) List() ([]*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iter := b.db.NewIterator(&util.Range{}, nil)
	defer iter.Release()

	var out []*keyfile.KeyFile
	for iter.Next() {
		key := iter.Key()
		if len(key) >= len(addressIndexPrefix) && string(key[:len(addressIndexPrefix)]) == addressIndexPrefix {
			continue
		}
		var kf keyfile.KeyFile
		if err := kf.UnmarshalJSON(iter.Value()); err != nil {
			continue
		}
		cp := kf
		out = append(out, &cp)
	}
	if err := iter.Error(); err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "leveldb iterate", err)
	}
	return out, nil
}
