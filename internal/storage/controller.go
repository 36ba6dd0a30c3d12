package storage

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

// ChainNames is the fixed closed set of nine chain partitions (spec §4.1 /
// §4.7), taken verbatim from original_source/src/storage/storage_ctrl.rs's
// CHAIN_NAMES table.
var ChainNames = []string{
	"eth",
	"morden",
	"ropsten",
	"rinkeby",
	"rootstock-main",
	"rootstock-test",
	"kovan",
	"etc",
	"etc-morden",
}

// Type selects which concrete KeyfileBackend a Controller builds per
// chain partition (spec §4.6/§7, "--storage-type").
type Type string

const (
	TypeFilesystem Type = "filesystem"
	TypeLevelDB    Type = "leveldb"
)

// ParseType accepts "filesystem" or "leveldb" case-insensitively.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(s)) {
	case TypeFilesystem:
		return TypeFilesystem, nil
	case TypeLevelDB:
		return TypeLevelDB, nil
	default:
		return "", apperr.Newf(apperr.StorageError, "unknown storage type %q, available types: [filesystem, leveldb]", s)
	}
}

// Controller holds one KeyfileBackend per chain partition, built once at
// startup and shared by every RPC handler (spec §5, "a single
// StorageController value is shared across all handlers"). Its mutex
// guards only the chain-to-backend lookup; each backend serializes its own
// calls with its own mutex.
//
// Grounded on original_source's StorageController (HashMap<String,
// Box<dyn KeyfileStorage>> keyed by chain), generalized from Rust's
// interior-HashMap-plus-global-lock into a Go map guarded by one mutex,
// per spec §9's redesign note to keep per-request lock scope to the chain
// actually touched rather than a global lock spanning KDF work.
type Controller struct {
	mu       sync.Mutex
	basePath string
	sType    Type
	backends map[string]KeyfileBackend
}

// NewController builds (or opens) the on-disk layout
// "<base>/<chain>/{keystore,.db}" for every fixed chain name (spec §4.7).
func NewController(basePath string, sType Type) (*Controller, error) {
	c := &Controller{basePath: basePath, sType: sType, backends: make(map[string]KeyfileBackend, len(ChainNames))}
	for _, chain := range ChainNames {
		backend, err := buildBackend(basePath, chain, sType)
		if err != nil {
			return nil, err
		}
		c.backends[chain] = backend
	}
	return c, nil
}

func buildBackend(basePath, chain string, sType Type) (KeyfileBackend, error) {
	switch sType {
	case TypeLevelDB:
		return NewLevelDBBackend(filepath.Join(basePath, chain, ".db"))
	case TypeFilesystem:
		return NewFsBackend(filepath.Join(basePath, chain, "keystore"))
	default:
		return nil, apperr.Newf(apperr.StorageError, "unknown storage type %q", sType)
	}
}

// Keystore returns the keyfile backend for chain, or ErrNoStorageFor if
// chain isn't one of the fixed partitions (spec §4.7, "get_keystore").
func (c *Controller) Keystore(chain string) (KeyfileBackend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.backends[chain]
	if !ok {
		return nil, ErrNoStorageFor(chain)
	}
	return b, nil
}

// Close releases any backend resources that hold file handles (the
// LevelDB backends); filesystem backends have nothing to release.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, b := range c.backends {
		if ldb, ok := b.(*LevelDBBackend); ok {
			if err := ldb.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
