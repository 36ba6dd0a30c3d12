package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// FsBackend stores one JSON file per keyfile in dir, named
// "UTC--<timestamp>Z--<address-no-0x>", where the timestamp has the form
// 2006-01-02T15-04-05.000000000 (UTC, nanosecond precision, hyphens in
// place of colons). It also accepts the legacy "UTC--...--<uuid>" filename
// shape on read.
//
// Grounded on original_source's FsStorage (one-file-per-key, directory
// scan tolerant of unrelated files) and on the teacher's config.go pattern
// of a small struct wrapping a base path plus a mutex for serialized disk
// access (spec §5, "storage calls are serialized").
type FsBackend struct {
	mu  sync.Mutex
	dir string
}

// NewFsBackend creates dir (and parents) if absent and returns a backend
// rooted there.
func NewFsBackend(dir string) (*FsBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperr.Wrap(apperr.StorageError, fmt.Sprintf("create keystore dir %s", dir), err)
	}
	return &FsBackend{dir: dir}, nil
}

func (b *FsBackend) fileNameFor(kf *keyfile.KeyFile) string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z")
	addr := "unknown"
	if kf.HasAddress {
		addr = primitives.EncodeHex(kf.Address[:])
	}
	return fmt.Sprintf("UTC--%s--%s", ts, addr)
}

func (b *FsBackend) pathFor(kf *keyfile.KeyFile) string {
	return filepath.Join(b.dir, b.fileNameFor(kf))
}

// Put writes kf to a freshly-named temp file then renames over the target
// to preserve atomicity (spec §4.6). If an entry for kf.UUID already
// exists under a different filename, that stale file is removed first so
// a single keyfile never has two on-disk copies.
func (b *FsBackend) Put(kf *keyfile.KeyFile) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, name, err := b.findByUUIDLocked(kf.UUID.String()); err == nil && existing != nil {
		_ = os.Remove(filepath.Join(b.dir, name))
	}

	data, err := kf.MarshalJSON()
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "marshal keyfile", err)
	}

	target := b.pathFor(kf)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return apperr.Wrap(apperr.StorageError, "write temp keyfile", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return apperr.Wrap(apperr.StorageError, "rename keyfile into place", err)
	}
	return nil
}

// scanLocked reads every entry in dir, decoding JSON files and skipping
// (not failing on) anything that doesn't parse as a keyfile — tolerance
// for unrelated files per spec §4.6.
func (b *FsBackend) scanLocked() (map[string]*keyfile.KeyFile, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "read keystore dir", err)
	}
	out := make(map[string]*keyfile.KeyFile, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "UTC--") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, e.Name()))
		if err != nil {
			continue
		}
		var kf keyfile.KeyFile
		if err := kf.UnmarshalJSON(data); err != nil {
			continue
		}
		out[e.Name()] = &kf
	}
	return out, nil
}

func (b *FsBackend) findByUUIDLocked(id string) (*keyfile.KeyFile, string, error) {
	entries, err := b.scanLocked()
	if err != nil {
		return nil, "", err
	}
	for name, kf := range entries {
		if kf.UUID.String() == id {
			return kf, name, nil
		}
	}
	return nil, "", nil
}

func (b *FsBackend) Get(id string) (*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kf, _, err := b.findByUUIDLocked(id)
	if err != nil {
		return nil, err
	}
	if kf == nil {
		return nil, apperr.Newf(apperr.NotFound, "no keyfile with uuid %s", id)
	}
	return kf, nil
}

func (b *FsBackend) GetByAddress(addr primitives.Address) (*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries, err := b.scanLocked()
	if err != nil {
		return nil, err
	}
	for _, kf := range entries {
		if kf.HasAddress && kf.Address == addr {
			return kf, nil
		}
	}
	return nil, apperr.Newf(apperr.NotFound, "no keyfile with address %s", addr.Hex())
}

func (b *FsBackend) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, name, err := b.findByUUIDLocked(id)
	if err != nil {
		return err
	}
	if name == "" {
		return apperr.Newf(apperr.NotFound, "no keyfile with uuid %s", id)
	}
	if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
		return apperr.Wrap(apperr.StorageError, "delete keyfile", err)
	}
	return nil
}

func (b *FsBackend) List() ([]*keyfile.KeyFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries, err := b.scanLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*keyfile.KeyFile, 0, len(entries))
	for _, kf := range entries {
		out = append(out, kf)
	}
	return out, nil
}
