package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/zkasp/attestation/asp"
	"github.com/zkasp/attestation/db"
	"github.com/zkasp/attestation/logger"
	"github.com/zkasp/attestation/merkle"
	"github.com/zkasp/attestation/prover"
	"github.com/zkasp/attestation/server"
	"github.com/zkasp/attestation/source"
)

var (
	fAddr     = flag.String("addr", ":8000", "listen address")
	fLevels   = flag.Int("levels", 4, "tree depth; committed set holds 2^levels leaves")
	fSentinel = flag.String("sentinel", "__DEFAULT_PADDING_LEAF__", "padding address for unused leaves")
	fFlagged  = flag.String("flagged", "0xBadAddress10000000000000000000000000000000", "flagged address the attestation singles out")
	fHasher   = flag.String("hasher", "poseidon", "leaf/combine hash: poseidon or sha3")
	fBackend  = flag.String("backend", "gnark", "proof backend: gnark or snarkjs")
	fTimeout  = flag.Duration("proof-timeout", 2*time.Minute, "per-refresh bound on the proof backend (0 disables)")

	fSource = flag.String("source", "", "path to a JSON array of excluded addresses")
	fDB     = flag.String("db", "", "pebble directory for a managed exclusion list (overrides -source)")

	fNode    = flag.String("node", "node", "node binary (snarkjs backend)")
	fScript  = flag.String("script", "scripts/generate_proof.js", "proof helper script (snarkjs backend)")
	fBase    = flag.String("base", ".", "project base directory (snarkjs backend)")
	fCircuit = flag.String("circuit", "attestation", "circuit name (snarkjs backend)")
	fWorkDir = flag.String("workdir", "zk-out", "scratch directory for witness/proof files (snarkjs backend)")
)

func main() {
	flag.Parse()
	log := logger.Logger("aspd")

	var hasher merkle.Hasher
	switch *fHasher {
	case "poseidon":
		hasher = merkle.PoseidonHasher{}
	case "sha3":
		hasher = merkle.SHA3Hasher{}
	default:
		log.Fatal().Str("hasher", *fHasher).Msg("unknown hasher")
	}

	var backend prover.Backend
	switch *fBackend {
	case "gnark":
		if *fHasher != "poseidon" {
			log.Fatal().Msg("the gnark backend requires the poseidon hasher")
		}
		log.Info().Int("levels", *fLevels).Msg("compiling attestation circuit")
		var err error
		backend, err = prover.NewGnark(*fLevels)
		if err != nil {
			log.Fatal().Err(err).Msg("gnark backend setup failed")
		}
	case "snarkjs":
		backend = prover.NewSnarkJS(prover.SnarkJSConfig{
			NodePath:   *fNode,
			ScriptPath: *fScript,
			BaseDir:    *fBase,
			Circuit:    *fCircuit,
			WorkDir:    *fWorkDir,
		})
	default:
		log.Fatal().Str("backend", *fBackend).Msg("unknown backend")
	}

	var src source.Source
	var store *source.Store
	switch {
	case *fDB != "":
		pdb, err := pebble.Open(*fDB, &pebble.Options{})
		if err != nil {
			log.Fatal().Err(err).Str("dir", *fDB).Msg("opening exclusion store failed")
		}
		database := db.NewPebble(pdb)
		defer func() {
			_ = database.Close()
		}()
		store = source.NewStore(database)
		src = store
	case *fSource != "":
		src = source.NewFile(*fSource)
	default:
		log.Fatal().Msg("one of -source or -db is required")
	}

	engine := asp.NewEngine(asp.Config{
		Levels:       *fLevels,
		Sentinel:     *fSentinel,
		Flagged:      *fFlagged,
		ProofTimeout: *fTimeout,
	}, hasher, src, backend)

	// generate the first attestation up front; a failure is logged and the
	// service starts anyway, serving "not ready" until a refresh succeeds
	if _, err := engine.Refresh(context.Background()); err != nil {
		log.Warn().Err(err).Msg("startup refresh failed")
	}

	srv := server.New(engine, store)
	log.Info().Str("addr", *fAddr).Msg("serving")
	if err := http.ListenAndServe(*fAddr, srv.Handler()); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
