// Package server exposes the commitment engine over HTTP: refresh and
// latest-attestation, plus exclusion-list management when a mutable store
// is configured.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zkasp/attestation/asp"
	"github.com/zkasp/attestation/logger"
	"github.com/zkasp/attestation/source"
)

// Attester is the slice of the engine the HTTP surface needs.
type Attester interface {
	Refresh(ctx context.Context) (*asp.Commitment, error)
	Latest() (*asp.Commitment, error)
}

type Server struct {
	attester Attester
	store    *source.Store // nil when the exclusion list is not managed here
	log      zerolog.Logger
}

func New(attester Attester, store *source.Store) *Server {
	return &Server{
		attester: attester,
		store:    store,
		log:      logger.Logger("server"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/latest-attestation", s.handleLatest)
	if s.store != nil {
		mux.HandleFunc("/addresses", s.handleAddresses)
	}
	return mux
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.log.Info().Msg("refresh requested")
	commitment, err := s.attester.Refresh(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("refresh failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "attestation refreshed",
		"commitment": commitment,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	commitment, err := s.attester.Latest()
	if errors.Is(err, asp.ErrNotReady) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commitment)
}

func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		addresses, err := s.store.Addresses(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"addresses": addresses})
	case http.MethodPost, http.MethodDelete:
		var body struct {
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Address == "" {
			writeError(w, http.StatusBadRequest, "body must be {\"address\": ...}")
			return
		}
		var err error
		if r.Method == http.MethodPost {
			err = s.store.Add(body.Address)
		} else {
			err = s.store.Remove(body.Address)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET, POST or DELETE required")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
