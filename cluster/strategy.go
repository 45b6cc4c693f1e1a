package cluster

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

// CRC32Strategy is spec.md §4.6's default: CRC32(IEEE) of the UTF-8 key
// mod N, giving a stable starting index for a fixed host list.
type CRC32Strategy struct{}

func (CRC32Strategy) Select(key string, n int) int {
	return int(crc32.ChecksumIEEE([]byte(key))) % n
}

// RendezvousStrategy is the virtual-node alternative spec.md §9 allows
// callers to substitute in: highest-random-weight hashing over the
// current host list, which only remaps the keys owned by a host that
// actually leaves (CRC32 mod N remaps everything on any host change).
// Built on dgryski/go-rendezvous seeded with cespare/xxhash/v2, the same
// combination the rest of the retrieval pack uses for consistent
// hashing.
type RendezvousStrategy struct {
	hosts []string
	r     *rendezvous.Table
}

// NewRendezvousStrategy builds a RendezvousStrategy over a fixed list of
// host labels (not necessarily network addresses — any stable per-slot
// identifier works, as long as it matches pool.Pool's slot order).
func NewRendezvousStrategy(hosts []string) *RendezvousStrategy {
	s := &RendezvousStrategy{hosts: append([]string(nil), hosts...)}
	s.r = rendezvous.New(s.hosts, xxhash.Sum64String)
	return s
}

func (s *RendezvousStrategy) Select(key string, n int) int {
	if n != len(s.hosts) {
		// Host count has diverged from construction (a reconfiguration
		// the caller didn't rebuild the strategy for); fall back to a
		// plain mod so routing degrades instead of panicking.
		return int(xxhash.Sum64String(key) % uint64(n))
	}
	picked := s.r.Get(key)
	for i, h := range s.hosts {
		if h == picked {
			return i
		}
	}
	return 0
}
