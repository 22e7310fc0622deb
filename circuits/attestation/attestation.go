// Package attestation defines the circuit proving that some committed leaf
// of the exclusion tree differs from a publicly flagged leaf hash.
//
// The statement: the prover knows a leaf and an inclusion path of fixed
// depth that recombines to the public root, and that leaf is not the public
// flagged hash. Leaves and inner nodes are combined with poseidon, so the
// native side must commit with merkle.PoseidonHasher.
package attestation

import (
	"github.com/consensys/gnark/frontend"
	"github.com/mdehoog/poseidon/circuits/poseidon"
)

type Circuit struct {
	Root        frontend.Variable `gnark:",public"`
	FlaggedLeaf frontend.Variable `gnark:",public"`
	ProvenLeaf  frontend.Variable
	Path        []frontend.Variable
	PathBits    []frontend.Variable // 0 = sibling left, 1 = sibling right
}

// NewCircuit allocates a circuit skeleton of the given depth, ready for
// compilation or assignment.
func NewCircuit(levels int) *Circuit {
	return &Circuit{
		Path:     make([]frontend.Variable, levels),
		PathBits: make([]frontend.Variable, levels),
	}
}

func (c *Circuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.ProvenLeaf, c.FlaggedLeaf)

	h := c.ProvenLeaf
	for i := range c.Path {
		api.AssertIsBoolean(c.PathBits[i])
		h = combine(api, c.PathBits[i], h, c.Path[i])
	}
	api.AssertIsEqual(h, c.Root)
	return nil
}

// combine hashes the running node with its sibling, placing each on the
// side the direction bit dictates.
func combine(api frontend.API, bit, hash, sibling frontend.Variable) frontend.Variable {
	l := api.Select(bit, hash, sibling)
	r := api.Select(bit, sibling, hash)
	return poseidon.Hash(api, []frontend.Variable{l, r})
}
