// Package hardware describes, as an interface only, the HID-based
// hardware-wallet manager spec §1 lists as out of scope ("described only
// by interface"). It exists so internal/keyfile.Hardware entries have a
// documented signing collaborator even though nothing in this repo
// implements one.
package hardware

import (
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// Manager would resolve a Hardware-backed keyfile's HD path to a signature
// by talking to a physical HID device. No implementation ships here; the
// interface exists so callers (e.g. a future RPC handler) have a seam to
// plug one in without changing internal/keyfile's format.
type Manager interface {
	SignDigest(vendor string, hdPath string, digest primitives.Hash) ([65]byte, error)
}
