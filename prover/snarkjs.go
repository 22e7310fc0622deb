package prover

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/zkasp/attestation/logger"
	"github.com/zkasp/attestation/witness"
)

var errMalformedProof = errors.New("malformed proof artifact")

// SnarkJSConfig locates the external snarkjs proving toolchain. The helper
// script is invoked as:
//
//	node <script> <baseDir> <circuit> <input.json> <proof.json> <public.json>
type SnarkJSConfig struct {
	NodePath   string // node binary, defaults to "node"
	ScriptPath string // proof generation helper script
	BaseDir    string // project dir the script expects to run from
	Circuit    string // circuit name, without extension
	WorkDir    string // where input/proof/public files are written
}

// SnarkJS shells out to a node helper script driving snarkjs. The proving
// protocol behind it is opaque to the engine.
type SnarkJS struct {
	cfg SnarkJSConfig
}

var _ Backend = (*SnarkJS)(nil)

func NewSnarkJS(cfg SnarkJSConfig) *SnarkJS {
	if cfg.NodePath == "" {
		cfg.NodePath = "node"
	}
	return &SnarkJS{cfg: cfg}
}

func (s *SnarkJS) Prove(ctx context.Context, w *witness.CircuitWitness) (*Result, error) {
	log := logger.Logger("prover")

	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		return nil, &BackendError{Op: "prepare", Err: err}
	}
	inputPath := filepath.Join(s.cfg.WorkDir, "input.json")
	proofPath := filepath.Join(s.cfg.WorkDir, "proof.json")
	publicPath := filepath.Join(s.cfg.WorkDir, "public.json")

	input, err := json.Marshal(w)
	if err != nil {
		return nil, &BackendError{Op: "encode input", Err: err}
	}
	if err := os.WriteFile(inputPath, input, 0o644); err != nil {
		return nil, &BackendError{Op: "write input", Err: err}
	}

	cmd := exec.CommandContext(ctx, s.cfg.NodePath, s.cfg.ScriptPath,
		s.cfg.BaseDir, s.cfg.Circuit, inputPath, proofPath, publicPath)
	cmd.Dir = s.cfg.BaseDir
	log.Debug().Str("cmd", cmd.String()).Msg("invoking proof toolchain")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &BackendError{Op: "invoke", Output: string(output), Err: err}
	}

	proof, err := os.ReadFile(proofPath)
	if err != nil {
		return nil, &BackendError{Op: "read proof", Output: string(output), Err: err}
	}
	if !json.Valid(proof) {
		return nil, &BackendError{Op: "read proof", Output: string(proof), Err: errMalformedProof}
	}
	publicRaw, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, &BackendError{Op: "read public signals", Output: string(output), Err: err}
	}
	var signals []string
	if err := json.Unmarshal(publicRaw, &signals); err != nil {
		return nil, &BackendError{Op: "decode public signals", Output: string(publicRaw), Err: err}
	}

	return &Result{
		Proof:         json.RawMessage(proof),
		PublicSignals: signals,
	}, nil
}
