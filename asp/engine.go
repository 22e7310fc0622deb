// Package asp maintains the attestation commitment: it turns the current
// exclusion list into a Merkle commitment, drives the proof backend, and
// publishes the result as one atomic snapshot.
package asp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/zkasp/attestation/logger"
	"github.com/zkasp/attestation/merkle"
	"github.com/zkasp/attestation/prover"
	"github.com/zkasp/attestation/source"
	"github.com/zkasp/attestation/witness"
)

// ErrNotReady is returned by Latest before the first successful refresh.
// It is a distinct condition, not a transient failure.
var ErrNotReady = errors.New("no attestation available yet")

// Commitment is one published attestation: the committed root, the moment
// it was produced, and the opaque proof artifacts. Instances are immutable
// once published.
type Commitment struct {
	Root          merkle.LeafHash `json:"root"`
	Timestamp     int64           `json:"timestamp"`
	Proof         json.RawMessage `json:"proof"`
	PublicSignals []string        `json:"publicSignals"`
}

type Config struct {
	// Levels is the fixed tree depth; the committed set always holds
	// exactly 1<<Levels leaves.
	Levels int

	// Sentinel is the padding address hashed into unused positions.
	Sentinel string

	// Flagged is the address whose hash the attestation singles out.
	Flagged string

	// Modulus bounds every encoded witness value. Defaults to the BN254
	// scalar field.
	Modulus *big.Int

	// ProofTimeout bounds the backend invocation per refresh. Zero means
	// the caller's context is the only bound.
	ProofTimeout time.Duration
}

// Engine owns the commitment lifecycle. Refreshes are collapsed through a
// single-flight group; the published snapshot is swapped atomically, so
// readers never block on an in-flight refresh and never observe a partial
// commitment.
type Engine struct {
	cfg     Config
	hasher  merkle.Hasher
	src     source.Source
	backend prover.Backend
	encoder *witness.Encoder
	log     zerolog.Logger
	now     func() time.Time

	flight  singleflight.Group
	current atomic.Pointer[Commitment]
}

func NewEngine(cfg Config, hasher merkle.Hasher, src source.Source, backend prover.Backend) *Engine {
	if cfg.Modulus == nil {
		cfg.Modulus = ecc.BN254.ScalarField()
	}
	return &Engine{
		cfg:     cfg,
		hasher:  hasher,
		src:     src,
		backend: backend,
		encoder: witness.NewEncoder(cfg.Levels, cfg.Modulus),
		log:     logger.Logger("asp"),
		now:     time.Now,
	}
}

// Refresh rebuilds the commitment from the current exclusion list and
// swaps it in. On any failure the previous commitment, if any, stays
// published. Concurrent callers share one in-flight refresh.
func (e *Engine) Refresh(ctx context.Context) (*Commitment, error) {
	v, err, _ := e.flight.Do("refresh", func() (interface{}, error) {
		return e.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Commitment), nil
}

// Latest returns the current snapshot, or ErrNotReady if no refresh has
// ever succeeded.
func (e *Engine) Latest() (*Commitment, error) {
	c := e.current.Load()
	if c == nil {
		return nil, ErrNotReady
	}
	return c, nil
}

func (e *Engine) refresh(ctx context.Context) (*Commitment, error) {
	addresses, err := e.src.Addresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exclusion list: %w", err)
	}

	leaves, err := merkle.BuildSet(e.hasher, addresses, 1<<e.cfg.Levels, e.cfg.Sentinel)
	if err != nil {
		return nil, fmt.Errorf("build exclusion set: %w", err)
	}
	tree, err := merkle.NewTree(e.hasher, leaves)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}

	flagged, err := e.hasher.HashLeaf(e.cfg.Flagged)
	if err != nil {
		return nil, fmt.Errorf("hash flagged address: %w", err)
	}
	proven, err := merkle.SelectWitness(leaves, flagged)
	if err != nil {
		return nil, err
	}
	path, err := tree.ProveInclusion(proven)
	if err != nil {
		return nil, fmt.Errorf("prove inclusion: %w", err)
	}

	w, err := e.encoder.Encode(tree.Root(), flagged, proven, path)
	if err != nil {
		return nil, fmt.Errorf("encode witness: %w", err)
	}

	// the backend call is the only long-latency step; no engine lock is
	// held here beyond the single-flight slot
	proveCtx := ctx
	if e.cfg.ProofTimeout > 0 {
		var cancel context.CancelFunc
		proveCtx, cancel = context.WithTimeout(ctx, e.cfg.ProofTimeout)
		defer cancel()
	}
	result, err := e.backend.Prove(proveCtx, w)
	if err != nil {
		return nil, err
	}

	c := &Commitment{
		Root:          tree.Root(),
		Timestamp:     e.now().Unix(),
		Proof:         result.Proof,
		PublicSignals: result.PublicSignals,
	}
	e.current.Store(c)
	e.log.Info().
		Str("root", c.Root.Hex()).
		Int64("timestamp", c.Timestamp).
		Int("addresses", len(addresses)).
		Msg("attestation refreshed")
	return c, nil
}
