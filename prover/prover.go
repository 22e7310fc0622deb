// Package prover abstracts the proof backend consuming a circuit witness
// and producing a zero-knowledge proof with its public signals.
package prover

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zkasp/attestation/witness"
)

// Result is one successful proving run. Proof is an opaque artifact; the
// engine stores and serves it without interpreting it. PublicSignals is
// expected to be [root_decimal, flaggedLeaf_decimal].
type Result struct {
	Proof         json.RawMessage `json:"proof"`
	PublicSignals []string        `json:"publicSignals"`
}

// Backend produces proofs. Implementations must honor ctx cancellation:
// proving is the one long-latency step of a refresh and callers bound it
// with a deadline.
type Backend interface {
	Prove(ctx context.Context, w *witness.CircuitWitness) (*Result, error)
}

// BackendError wraps a failed backend invocation together with whatever
// diagnostic output the backend produced.
type BackendError struct {
	Op     string
	Output string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("proof backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("proof backend %s: %v\n%s", e.Op, e.Err, e.Output)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
