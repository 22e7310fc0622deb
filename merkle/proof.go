package merkle

import "fmt"

// Direction bit values, per the circuit's convention.
const (
	SiblingLeft  uint8 = 0
	SiblingRight uint8 = 1
)

// Proof is the sibling path from one leaf to the root, ordered leaf first.
// Bits[i] records the side sibling i sits on.
type Proof struct {
	Leaf     LeafHash
	Siblings []LeafHash
	Bits     []uint8
}

// Verify folds the leaf with the sibling path and reports whether the
// result reproduces root.
func (p *Proof) Verify(hasher Hasher, root LeafHash) (bool, error) {
	if len(p.Siblings) != len(p.Bits) {
		return false, fmt.Errorf("proof has %d siblings but %d direction bits", len(p.Siblings), len(p.Bits))
	}
	h := p.Leaf
	for i, sibling := range p.Siblings {
		var err error
		if p.Bits[i] == SiblingLeft {
			h, err = hasher.Combine(sibling, h)
		} else {
			h, err = hasher.Combine(h, sibling)
		}
		if err != nil {
			return false, err
		}
	}
	return h == root, nil
}
