package merkle

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrLeafCount is returned when the leaf count is not a power of two.
	// BuildSet guarantees this never happens; NewTree still checks.
	ErrLeafCount = errors.New("leaf count must be a power of two")

	// ErrLeafNotFound is returned when proving a value absent from the tree.
	ErrLeafNotFound = errors.New("leaf not found in tree")
)

// Tree is a fixed-depth binary hash tree over an exclusion set. It is
// immutable once built; a refresh rebuilds the whole tree from scratch.
type Tree struct {
	hasher Hasher
	levels int
	// layers[0] is the leaf layer, layers[levels] holds the single root.
	layers [][]LeafHash
}

// NewTree builds the full tree bottom-up. The number of leaves must be a
// power of two (at least two).
func NewTree(hasher Hasher, leaves []LeafHash) (*Tree, error) {
	n := len(leaves)
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrLeafCount, n)
	}
	levels := bits.Len(uint(n)) - 1

	layers := make([][]LeafHash, levels+1)
	layers[0] = append([]LeafHash(nil), leaves...)
	for level := 0; level < levels; level++ {
		below := layers[level]
		layer := make([]LeafHash, len(below)/2)
		for i := range layer {
			parent, err := hasher.Combine(below[2*i], below[2*i+1])
			if err != nil {
				return nil, fmt.Errorf("combine level %d: %w", level, err)
			}
			layer[i] = parent
		}
		layers[level+1] = layer
	}

	return &Tree{
		hasher: hasher,
		levels: levels,
		layers: layers,
	}, nil
}

// Levels returns the tree depth.
func (t *Tree) Levels() int {
	return t.levels
}

// Root returns the single top hash.
func (t *Tree) Root() LeafHash {
	return t.layers[t.levels][0]
}

// Leaves returns the committed leaf sequence.
func (t *Tree) Leaves() []LeafHash {
	return t.layers[0]
}

// ProveInclusion returns the sibling path for the lowest-index occurrence
// of leaf. Duplicates are expected because of sentinel padding; the lowest
// index keeps proofs deterministic.
func (t *Tree) ProveInclusion(leaf LeafHash) (*Proof, error) {
	index := -1
	for i, l := range t.layers[0] {
		if l == leaf {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrLeafNotFound
	}
	return t.proveIndex(index), nil
}

func (t *Tree) proveIndex(index int) *Proof {
	proof := &Proof{
		Leaf:     t.layers[0][index],
		Siblings: make([]LeafHash, t.levels),
		Bits:     make([]uint8, t.levels),
	}
	for level := 0; level < t.levels; level++ {
		siblingIndex := index + 1 - (index%2)*2
		proof.Siblings[level] = t.layers[level][siblingIndex]
		if index%2 == 0 {
			// current node is left, sibling on the right
			proof.Bits[level] = SiblingRight
		} else {
			proof.Bits[level] = SiblingLeft
		}
		index /= 2
	}
	return proof
}
