package merkle

import "errors"

// ErrNoWitness is returned when every committed leaf equals the flagged
// hash, leaving nothing eligible to prove against.
var ErrNoWitness = errors.New("no witness leaf available: every leaf equals the flagged hash")

// SelectWitness picks the first leaf (in the set's ascending order) that
// differs from flagged. The selected leaf is the one the proof
// demonstrates is distinguishable from the flagged entry.
func SelectWitness(leaves ExclusionSet, flagged LeafHash) (LeafHash, error) {
	for _, leaf := range leaves {
		if leaf != flagged {
			return leaf, nil
		}
	}
	return LeafHash{}, ErrNoWitness
}
