package witness

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/stretchr/testify/require"

	"github.com/zkasp/attestation/merkle"
)

func leaf(i int64) merkle.LeafHash {
	var l merkle.LeafHash
	big.NewInt(i).FillBytes(l[:])
	return l
}

func TestEncode(t *testing.T) {
	e := NewEncoder(2, ecc.BN254.ScalarField())
	proof := &merkle.Proof{
		Leaf:     leaf(7),
		Siblings: []merkle.LeafHash{leaf(11), leaf(12)},
		Bits:     []uint8{merkle.SiblingRight, merkle.SiblingLeft},
	}

	w, err := e.Encode(leaf(42), leaf(3), leaf(7), proof)
	require.NoError(t, err)
	require.Equal(t, "42", w.Root)
	require.Equal(t, "3", w.FlaggedLeaf)
	require.Equal(t, "7", w.ProvenLeaf)
	require.Equal(t, []string{"11", "12"}, w.Path)
	require.Equal(t, []string{"1", "0"}, w.PathBits)
}

func TestEncodeBigEndianDecimal(t *testing.T) {
	e := NewEncoder(1, ecc.BN254.ScalarField())
	var root merkle.LeafHash
	root[30] = 0x01 // 0x0100 = 256 big-endian
	proof := &merkle.Proof{
		Siblings: []merkle.LeafHash{leaf(1)},
		Bits:     []uint8{merkle.SiblingLeft},
	}
	w, err := e.Encode(root, leaf(1), leaf(2), proof)
	require.NoError(t, err)
	require.Equal(t, "256", w.Root)
}

func TestEncodeOutOfRange(t *testing.T) {
	// any value at or above the modulus must be rejected, never wrapped
	e := NewEncoder(1, big.NewInt(100))
	proof := &merkle.Proof{
		Siblings: []merkle.LeafHash{leaf(1)},
		Bits:     []uint8{merkle.SiblingLeft},
	}

	_, err := e.Encode(leaf(100), leaf(1), leaf(2), proof)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = e.Encode(leaf(99), leaf(1), leaf(200), proof)
	require.ErrorIs(t, err, ErrOutOfRange)

	proof.Siblings[0] = leaf(150)
	_, err = e.Encode(leaf(99), leaf(1), leaf(2), proof)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestEncodeSHA3CanExceedField(t *testing.T) {
	// a full 256-bit digest does not fit below the BN254 modulus
	var saturated merkle.LeafHash
	for i := range saturated {
		saturated[i] = 0xff
	}
	e := NewEncoder(1, ecc.BN254.ScalarField())
	proof := &merkle.Proof{
		Siblings: []merkle.LeafHash{leaf(1)},
		Bits:     []uint8{merkle.SiblingLeft},
	}
	_, err := e.Encode(saturated, leaf(1), leaf(2), proof)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestEncodePathLengthMismatch(t *testing.T) {
	e := NewEncoder(3, ecc.BN254.ScalarField())
	proof := &merkle.Proof{
		Siblings: []merkle.LeafHash{leaf(1), leaf(2)},
		Bits:     []uint8{merkle.SiblingLeft, merkle.SiblingRight},
	}
	_, err := e.Encode(leaf(1), leaf(2), leaf(3), proof)
	require.ErrorIs(t, err, ErrPathLength)
}
