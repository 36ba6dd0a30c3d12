//go:build fixedseed

package randsrc

import "math/rand"

// Reader is a deterministically-seeded source, built only behind the
// fixedseed tag (spec §5). Never linked into a production binary.
var Reader = rand.New(rand.NewSource(1))
