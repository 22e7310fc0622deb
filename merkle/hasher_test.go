package merkle

import (
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/stretchr/testify/require"
)

func TestSHA3HasherDeterministic(t *testing.T) {
	h := SHA3Hasher{}
	a, err := h.HashLeaf("addr1")
	require.NoError(t, err)
	b, err := h.HashLeaf("addr1")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := h.HashLeaf("addr2")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestSHA3CombineOrderMatters(t *testing.T) {
	h := SHA3Hasher{}
	a, _ := h.HashLeaf("addr1")
	b, _ := h.HashLeaf("addr2")

	ab, err := h.Combine(a, b)
	require.NoError(t, err)
	ba, err := h.Combine(b, a)
	require.NoError(t, err)
	require.NotEqual(t, ab, ba)
}

func TestPoseidonHasherInField(t *testing.T) {
	h := PoseidonHasher{}
	modulus := ecc.BN254.ScalarField()

	for _, addr := range []string{"", "addr1", "0xBadAddress10000000000000000000000000000000", strings.Repeat("x", 100)} {
		leaf, err := h.HashLeaf(addr)
		require.NoError(t, err, "addr=%q", addr)
		require.Negative(t, leaf.Big().Cmp(modulus), "leaf for %q must be below the field modulus", addr)
	}

	a, _ := h.HashLeaf("addr1")
	b, _ := h.HashLeaf("addr2")
	parent, err := h.Combine(a, b)
	require.NoError(t, err)
	require.Negative(t, parent.Big().Cmp(modulus))
}

func TestPoseidonHasherAddressTooLong(t *testing.T) {
	h := PoseidonHasher{}
	_, err := h.HashLeaf(strings.Repeat("x", 31*maxPoseidonInputs+1))
	require.Error(t, err)
}

func TestLeafHashJSONRoundTrip(t *testing.T) {
	h := SHA3Hasher{}
	leaf, _ := h.HashLeaf("addr1")

	b, err := leaf.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"`+leaf.Hex()+`"`, string(b))

	var decoded LeafHash
	require.NoError(t, decoded.UnmarshalJSON(b))
	require.Equal(t, leaf, decoded)
}
