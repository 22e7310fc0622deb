package merkle

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/zkasp/attestation/logger"
)

// ErrSetSize is returned when the requested set size is not a power of two.
var ErrSetSize = errors.New("set size must be a power of two")

// ExclusionSet is the canonical leaf sequence: exactly the configured tree
// size, sorted ascending by byte value. A leaf's position is a function of
// the whole set, not a stable identity; it can move between rebuilds.
type ExclusionSet []LeafHash

// BuildSet hashes the raw addresses in input order, truncates or pads to
// exactly size leaves, and sorts the result.
//
// Oversized input is a lossy, security-relevant condition: only the first
// size addresses (in input order) enter the committed set. It is logged as
// a warning and otherwise proceeds, matching the documented truncation
// policy.
func BuildSet(h Hasher, addresses []string, size int, sentinel string) (ExclusionSet, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrSetSize, size)
	}

	if len(addresses) > size {
		log := logger.Logger("merkle")
		log.Warn().
			Int("addresses", len(addresses)).
			Int("capacity", size).
			Msg("exclusion list over capacity, truncating: trailing addresses are NOT committed")
		addresses = addresses[:size]
	}

	set := make(ExclusionSet, 0, size)
	for _, addr := range addresses {
		leaf, err := h.HashLeaf(addr)
		if err != nil {
			return nil, fmt.Errorf("hash address: %w", err)
		}
		set = append(set, leaf)
	}

	if len(set) < size {
		pad, err := h.HashLeaf(sentinel)
		if err != nil {
			return nil, fmt.Errorf("hash sentinel: %w", err)
		}
		for len(set) < size {
			set = append(set, pad)
		}
	}

	sort.Sort(set)
	return set, nil
}

func (s ExclusionSet) Len() int      { return len(s) }
func (s ExclusionSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ExclusionSet) Less(i, j int) bool {
	return bytes.Compare(s[i][:], s[j][:]) < 0
}
