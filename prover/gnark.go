package prover

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zkasp/attestation/circuits/attestation"
	"github.com/zkasp/attestation/witness"
)

// Gnark proves the attestation circuit in-process with groth16 over BN254.
// The circuit combines nodes with poseidon, so commitments fed to this
// backend must be built with merkle.PoseidonHasher.
//
// Setup runs once at construction. Keys are generated fresh per process;
// anyone verifying against a fixed deployment should load persisted keys
// instead.
type Gnark struct {
	levels int
	ccs    constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
}

var _ Backend = (*Gnark)(nil)

func NewGnark(levels int) (*Gnark, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, attestation.NewCircuit(levels))
	if err != nil {
		return nil, &BackendError{Op: "compile", Err: err}
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, &BackendError{Op: "setup", Err: err}
	}
	return &Gnark{
		levels: levels,
		ccs:    ccs,
		pk:     pk,
		vk:     vk,
	}, nil
}

func (g *Gnark) Prove(ctx context.Context, w *witness.CircuitWitness) (*Result, error) {
	assignment, err := g.assignment(w)
	if err != nil {
		return nil, &BackendError{Op: "assign", Err: err}
	}
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, &BackendError{Op: "witness", Err: err}
	}

	type proveResult struct {
		proof groth16.Proof
		err   error
	}
	done := make(chan proveResult, 1)
	go func() {
		proof, err := groth16.Prove(g.ccs, g.pk, full)
		done <- proveResult{proof: proof, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &BackendError{Op: "prove", Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return nil, &BackendError{Op: "prove", Err: r.err}
		}
		blob, err := marshalProof(r.proof)
		if err != nil {
			return nil, &BackendError{Op: "encode proof", Err: err}
		}
		return &Result{
			Proof:         blob,
			PublicSignals: []string{w.Root, w.FlaggedLeaf},
		}, nil
	}
}

// Verify checks a proof produced by this backend against its public
// signals.
func (g *Gnark) Verify(proofBlob json.RawMessage, publicSignals []string) error {
	if len(publicSignals) != 2 {
		return fmt.Errorf("want 2 public signals, got %d", len(publicSignals))
	}
	proof, err := unmarshalProof(proofBlob)
	if err != nil {
		return err
	}
	c := attestation.NewCircuit(g.levels)
	if c.Root, err = parseField(publicSignals[0]); err != nil {
		return err
	}
	if c.FlaggedLeaf, err = parseField(publicSignals[1]); err != nil {
		return err
	}
	public, err := frontend.NewWitness(c, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof, g.vk, public)
}

func (g *Gnark) assignment(w *witness.CircuitWitness) (*attestation.Circuit, error) {
	if len(w.Path) != g.levels || len(w.PathBits) != g.levels {
		return nil, fmt.Errorf("witness path arity %d/%d, circuit wants %d",
			len(w.Path), len(w.PathBits), g.levels)
	}
	c := attestation.NewCircuit(g.levels)
	var err error
	if c.Root, err = parseField(w.Root); err != nil {
		return nil, err
	}
	if c.FlaggedLeaf, err = parseField(w.FlaggedLeaf); err != nil {
		return nil, err
	}
	if c.ProvenLeaf, err = parseField(w.ProvenLeaf); err != nil {
		return nil, err
	}
	for i := range w.Path {
		if c.Path[i], err = parseField(w.Path[i]); err != nil {
			return nil, err
		}
		if c.PathBits[i], err = parseField(w.PathBits[i]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseField(s string) (*big.Int, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal field element: %q", s)
	}
	return i, nil
}

// Proofs are stored opaque: the raw groth16 serialization, hex-encoded
// inside a JSON string.
func marshalProof(proof groth16.Proof) (json.RawMessage, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return json.Marshal(hex.EncodeToString(buf.Bytes()))
}

func unmarshalProof(blob json.RawMessage) (groth16.Proof, error) {
	var s string
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return proof, nil
}
