package benchmark

import (
	"fmt"
	"math/rand"
)

// KeyGenerator produces the key for a given request index. Generators with
// internal randomness are created one per worker so the hot path never
// contends on a shared source.
type KeyGenerator interface {
	Key(index uint64) string
}

// NewKeyGenerator builds the generator selected by cfg. seed only matters
// for the random and zipf modes; callers pass a distinct seed per worker.
func NewKeyGenerator(cfg *Config, seed int64) KeyGenerator {
	switch cfg.KeyMode {
	case KeyRandom:
		return &randomKeys{size: cfg.Keyspace, rng: rand.New(rand.NewSource(seed))}
	case KeyZipf:
		return newZipfKeys(cfg.Keyspace, seed)
	case KeyFixed:
		return fixedKeys{key: cfg.FixedKey}
	default:
		return sequentialKeys{size: cfg.Keyspace}
	}
}

func formatKey(n uint64) string {
	return fmt.Sprintf("key:%012d", n)
}

// sequentialKeys walks the keyspace in order, wrapping modulo its size.
// Deterministic: the same index always yields the same key.
type sequentialKeys struct {
	size uint64
}

func (g sequentialKeys) Key(index uint64) string {
	return formatKey(index % g.size)
}

// randomKeys draws uniformly from [0, size).
type randomKeys struct {
	size uint64
	rng  *rand.Rand
}

func (g *randomKeys) Key(uint64) string {
	return formatKey(uint64(g.rng.Int63n(int64(g.size))))
}

// zipfKeys skews the draw toward low key numbers, modelling hot-key
// workloads.
type zipfKeys struct {
	zipf *rand.Zipf
}

func newZipfKeys(size uint64, seed int64) *zipfKeys {
	// s must be > 1 for rand.NewZipf; 1.1 gives a mild, realistic skew.
	rng := rand.New(rand.NewSource(seed))
	return &zipfKeys{zipf: rand.NewZipf(rng, 1.1, 1, size-1)}
}

func (g *zipfKeys) Key(uint64) string {
	return formatKey(g.zipf.Uint64())
}

// fixedKeys always returns the one configured key.
type fixedKeys struct {
	key string
}

func (g fixedKeys) Key(uint64) string {
	return g.key
}
