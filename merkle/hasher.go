package merkle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/mdehoog/poseidon/poseidon"
	"golang.org/x/crypto/sha3"
)

// LeafHash is the fixed-width digest committed at each tree position.
// Ordering is by byte value.
type LeafHash [32]byte

// Big interprets the hash as a big-endian integer.
func (l LeafHash) Big() *big.Int {
	return new(big.Int).SetBytes(l[:])
}

// Hex returns the lowercase hex encoding of the hash.
func (l LeafHash) Hex() string {
	return hex.EncodeToString(l[:])
}

func (l LeafHash) String() string {
	return l.Hex()
}

func (l LeafHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Hex())
}

func (l *LeafHash) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(d) != len(l) {
		return fmt.Errorf("leaf hash must be %d bytes, got %d", len(l), len(d))
	}
	copy(l[:], d)
	return nil
}

func leafHashFromBig(i *big.Int) LeafHash {
	var l LeafHash
	i.FillBytes(l[:])
	return l
}

// Hasher digests raw addresses into leaves and combines sibling hashes
// into parents. Implementations must be deterministic.
type Hasher interface {
	HashLeaf(address string) (LeafHash, error)
	Combine(left, right LeafHash) (LeafHash, error)
}

// SHA3Hasher hashes leaves with SHA3-256 and parents with SHA3-256 over the
// concatenated children. Outputs cover the full 256-bit range, so encoding
// for a SNARK field can fail; see witness.Encoder.
type SHA3Hasher struct{}

var _ Hasher = SHA3Hasher{}

func (SHA3Hasher) HashLeaf(address string) (LeafHash, error) {
	return sha3.Sum256([]byte(address)), nil
}

func (SHA3Hasher) Combine(left, right LeafHash) (LeafHash, error) {
	h := sha3.New256()
	h.Write(left[:])
	h.Write(right[:])
	var out LeafHash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// PoseidonHasher hashes over the BN254 scalar field. Every output is a
// canonical field element, so witness encoding never goes out of range.
// This is the hasher the in-process gnark backend expects.
type PoseidonHasher struct{}

var _ Hasher = PoseidonHasher{}

// maxPoseidonInputs matches the widest permutation the poseidon package
// carries parameters for.
const maxPoseidonInputs = 16

func (PoseidonHasher) HashLeaf(address string) (LeafHash, error) {
	b := []byte(address)
	var elements []*big.Int
	// 31-byte limbs stay strictly below the field modulus
	for len(b) > 0 {
		n := len(b)
		if n > 31 {
			n = 31
		}
		elements = append(elements, new(big.Int).SetBytes(b[:n]))
		b = b[n:]
	}
	if len(elements) == 0 {
		elements = []*big.Int{new(big.Int)}
	}
	if len(elements) > maxPoseidonInputs {
		return LeafHash{}, errors.New("address too long for poseidon leaf hash")
	}
	h, err := poseidon.Hash[*fr.Element](elements)
	if err != nil {
		return LeafHash{}, err
	}
	return leafHashFromBig(h), nil
}

func (PoseidonHasher) Combine(left, right LeafHash) (LeafHash, error) {
	h, err := poseidon.Hash[*fr.Element]([]*big.Int{left.Big(), right.Big()})
	if err != nil {
		return LeafHash{}, err
	}
	return leafHashFromBig(h), nil
}
