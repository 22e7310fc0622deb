// Package witness encodes a Merkle root, flagged leaf, proven leaf and
// inclusion path as the decimal field-element strings the proving circuit
// consumes.
package witness

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zkasp/attestation/merkle"
)

var (
	// ErrOutOfRange is returned when a hash integer does not fit below the
	// proving field's modulus. Passing such a value through would let the
	// circuit's arithmetic wrap silently.
	ErrOutOfRange = errors.New("hash value out of field range")

	// ErrPathLength is returned when the inclusion path does not match the
	// circuit's fixed arity.
	ErrPathLength = errors.New("inclusion path length mismatch")
)

// CircuitWitness is the full proving input. All values are decimal strings
// of the big-endian integer encoding of each hash; direction bits are "0"
// (sibling left) or "1" (sibling right).
type CircuitWitness struct {
	Root        string   `json:"root"`
	FlaggedLeaf string   `json:"flaggedLeafHash"`
	ProvenLeaf  string   `json:"provenLeaf"`
	Path        []string `json:"path"`
	PathBits    []string `json:"pathBits"`
}

// Encoder validates and encodes witnesses for a circuit of fixed depth over
// a prime field.
type Encoder struct {
	levels  int
	modulus *big.Int
}

// NewEncoder returns an encoder for a circuit with levels path steps whose
// field has the given modulus.
func NewEncoder(levels int, modulus *big.Int) *Encoder {
	return &Encoder{
		levels:  levels,
		modulus: modulus,
	}
}

// Encode builds the circuit witness. Every encoded integer is checked to be
// strictly below the field modulus, and the path must have exactly the
// encoder's configured length.
func (e *Encoder) Encode(root, flagged, proven merkle.LeafHash, proof *merkle.Proof) (*CircuitWitness, error) {
	if len(proof.Siblings) != e.levels || len(proof.Bits) != e.levels {
		return nil, fmt.Errorf("%w: got %d siblings and %d bits, want %d",
			ErrPathLength, len(proof.Siblings), len(proof.Bits), e.levels)
	}

	w := &CircuitWitness{
		Path:     make([]string, e.levels),
		PathBits: make([]string, e.levels),
	}
	var err error
	if w.Root, err = e.fieldString("root", root); err != nil {
		return nil, err
	}
	if w.FlaggedLeaf, err = e.fieldString("flagged leaf", flagged); err != nil {
		return nil, err
	}
	if w.ProvenLeaf, err = e.fieldString("proven leaf", proven); err != nil {
		return nil, err
	}
	for i, sibling := range proof.Siblings {
		if w.Path[i], err = e.fieldString(fmt.Sprintf("path[%d]", i), sibling); err != nil {
			return nil, err
		}
		w.PathBits[i] = fmt.Sprintf("%d", proof.Bits[i])
	}
	return w, nil
}

func (e *Encoder) fieldString(name string, h merkle.LeafHash) (string, error) {
	i := h.Big()
	if i.Cmp(e.modulus) >= 0 {
		return "", fmt.Errorf("%w: %s %s >= modulus", ErrOutOfRange, name, i)
	}
	return i.String(), nil
}
