//go:build !fixedseed

// Package randsrc is the single source of randomness for newly generated
// private keys, salts, and IVs. Production builds always read the OS
// CSPRNG (spec §5, "Resource policy"); the fixedseed build tag swaps in a
// deterministic source for reproducible test fixtures.
package randsrc

import "crypto/rand"

// Reader is the randomness source used to draw private keys, salts, and IVs.
var Reader = rand.Reader
