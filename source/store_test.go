package source

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"github.com/zkasp/attestation/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	database := db.NewPebble(pdb)
	t.Cleanup(func() {
		_ = database.Close()
	})
	return NewStore(database)
}

func TestStoreAddRemove(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addresses, err := s.Addresses(ctx)
	require.NoError(t, err)
	require.Empty(t, addresses)

	require.NoError(t, s.Add("0xBBB"))
	require.NoError(t, s.Add("0xAAA"))
	require.NoError(t, s.Add("0xAAA")) // duplicates collapse

	addresses, err = s.Addresses(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0xAAA", "0xBBB"}, addresses)

	require.NoError(t, s.Remove("0xAAA"))
	require.NoError(t, s.Remove("0xZZZ")) // removing a missing address is fine

	addresses, err = s.Addresses(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0xBBB"}, addresses)
}
