package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"github.com/zkasp/attestation/asp"
	"github.com/zkasp/attestation/db"
	"github.com/zkasp/attestation/merkle"
	"github.com/zkasp/attestation/source"
)

type fakeAttester struct {
	commitment *asp.Commitment
	refreshErr error
}

func (f *fakeAttester) Refresh(context.Context) (*asp.Commitment, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.commitment, nil
}

func (f *fakeAttester) Latest() (*asp.Commitment, error) {
	if f.commitment == nil {
		return nil, asp.ErrNotReady
	}
	return f.commitment, nil
}

func testCommitment(t *testing.T) *asp.Commitment {
	t.Helper()
	root, err := merkle.SHA3Hasher{}.HashLeaf("root")
	require.NoError(t, err)
	return &asp.Commitment{
		Root:          root,
		Timestamp:     1700000000,
		Proof:         json.RawMessage(`{"pi_a":[]}`),
		PublicSignals: []string{"1", "2"},
	}
}

func TestLatestNotReady(t *testing.T) {
	srv := New(&fakeAttester{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest-attestation", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["error"], "no attestation")
}

func TestLatest(t *testing.T) {
	commitment := testCommitment(t)
	srv := New(&fakeAttester{commitment: commitment}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest-attestation", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got asp.Commitment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, commitment.Root, got.Root)
	require.Equal(t, commitment.Timestamp, got.Timestamp)
	require.Equal(t, commitment.PublicSignals, got.PublicSignals)
}

func TestRefresh(t *testing.T) {
	srv := New(&fakeAttester{commitment: testCommitment(t)}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Message    string         `json:"message"`
		Commitment asp.Commitment `json:"commitment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "attestation refreshed", body.Message)
	require.Equal(t, []string{"1", "2"}, body.Commitment.PublicSignals)
}

func TestRefreshFailure(t *testing.T) {
	srv := New(&fakeAttester{refreshErr: source.ErrLoad}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRefreshMethodNotAllowed(t *testing.T) {
	srv := New(&fakeAttester{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAddressesEndpoints(t *testing.T) {
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	database := db.NewPebble(pdb)
	defer database.Close()

	store := source.NewStore(database)
	srv := New(&fakeAttester{}, store)
	handler := srv.Handler()

	post := func(addr string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		body, _ := json.Marshal(map[string]string{"address": addr})
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/addresses", bytes.NewReader(body)))
		return rec
	}

	require.Equal(t, http.StatusNoContent, post("0xAAA").Code)
	require.Equal(t, http.StatusNoContent, post("0xBBB").Code)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/addresses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Addresses []string `json:"addresses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, []string{"0xAAA", "0xBBB"}, listed.Addresses)

	rec = httptest.NewRecorder()
	body, _ := json.Marshal(map[string]string{"address": "0xAAA"})
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/addresses", bytes.NewReader(body)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	addresses, err := store.Addresses(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"0xBBB"}, addresses)
}

func TestAddressesBadBody(t *testing.T) {
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	database := db.NewPebble(pdb)
	defer database.Close()

	srv := New(&fakeAttester{}, source.NewStore(database))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/addresses", bytes.NewReader([]byte("{}"))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
