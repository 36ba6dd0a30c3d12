// Package storage implements the dual-backend keyfile store (filesystem
// and embedded KV), the chain-partitioned controller that sits above both,
// and the account metadata views the RPC layer lists, per spec §4.6/§4.7.
//
// Grounded on original_source/src/storage (build_keyfile_storage,
// StorageController, the nine-chain-name closed set), reworked from
// Rust's Box<dyn KeyfileStorage> dispatch into a small Go interface with
// two concrete implementations.
package storage

import (
	"sort"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// KeyfileBackend is the interface both storage implementations satisfy
// (spec §4.6, "a single interface is exposed by both backends").
type KeyfileBackend interface {
	// Put stores kf, creating or overwriting the entry for its UUID.
	Put(kf *keyfile.KeyFile) error
	// Get looks up a keyfile by UUID.
	Get(id string) (*keyfile.KeyFile, error)
	// GetByAddress looks up a keyfile by its derived address.
	GetByAddress(addr primitives.Address) (*keyfile.KeyFile, error)
	// Delete removes the entry for the given UUID.
	Delete(id string) error
	// List returns every stored keyfile, tolerating unreadable entries by
	// skipping them (spec §4.6, "tolerance for unrelated files").
	List() ([]*keyfile.KeyFile, error)
}

// AccountInfo is the listing projection of a KeyFile (spec §4.6
// list_accounts): address, name, description, visibility, and whether the
// entry is hardware-backed.
type AccountInfo struct {
	UUID        string
	Address     primitives.Address
	Name        string
	Description string
	IsHidden    bool
	IsHardware  bool
}

// ListAccounts renders backend's contents as AccountInfo, sorted by UUID
// ascending (spec §4.6, deterministic ordering), optionally including
// hidden entries.
func ListAccounts(backend KeyfileBackend, showHidden bool) ([]AccountInfo, error) {
	kfs, err := backend.List()
	if err != nil {
		return nil, err
	}
	sort.Slice(kfs, func(i, j int) bool { return keyfile.Less(kfs[i], kfs[j]) })

	out := make([]AccountInfo, 0, len(kfs))
	for _, kf := range kfs {
		if !showHidden && !kf.IsVisible() {
			continue
		}
		_, isHardware := kf.Crypto.(keyfile.Hardware)
		out = append(out, AccountInfo{
			UUID:        kf.UUID.String(),
			Address:     kf.Address,
			Name:        kf.Name,
			Description: kf.Description,
			IsHidden:    !kf.IsVisible(),
			IsHardware:  isHardware,
		})
	}
	return out, nil
}

// ErrNoStorageFor mirrors the original's "No storage for: <chain>" message
// (spec §4.7) as an apperr.StorageError.
func ErrNoStorageFor(chain string) error {
	return apperr.Newf(apperr.StorageError, "No storage for: %s", chain)
}
