package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PrivateKey is a secp256k1 signing key. Private keys should be kept secure and
// are only used by their owners; the vault itself never holds one.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey generates a new secp256k1 key pair.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// NewPrivateKeyFromBytes creates a PrivateKey from a 32-byte scalar.
func NewPrivateKeyFromBytes(data []byte) (*PrivateKey, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("invalid private key length %d", len(data))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(data); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("private key scalar out of range")
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// NewPrivateKeyFromString creates a PrivateKey from a hex-encoded string.
func NewPrivateKeyFromString(s string) (*PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	return NewPrivateKeyFromBytes(raw)
}

// Bytes returns the 32-byte scalar. This method should be used carefully as it
// exposes sensitive key material.
func (k *PrivateKey) Bytes() []byte {
	return k.key.Serialize()
}

// String returns the hex encoding of the private key scalar.
func (k *PrivateKey) String() string {
	return hex.EncodeToString(k.Bytes())
}

// Address derives the account address for this key.
func (k *PrivateKey) Address() Address {
	return pubKeyToAddress(k.key.PubKey())
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest.
// V uses the legacy 27/28 encoding. Signing is deterministic (RFC 6979):
// the same key and digest always produce the same signature.
func (k *PrivateKey) Sign(digest [32]byte) (Signature, error) {
	// SignCompact returns [V || R || S] with V already offset by 27.
	compact := secpecdsa.SignCompact(k.key, digest[:], false)

	sig := make([]byte, SignatureLength)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return Signature(sig), nil
}

// SignMessage signs the EIP-191 personal-message digest of a 32-byte hash,
// matching what wallet signMessage calls produce client-side.
func (k *PrivateKey) SignMessage(hash [32]byte) (Signature, error) {
	return k.Sign(PersonalDigest(hash))
}

func pubKeyToAddress(pub *secp256k1.PublicKey) Address {
	// Keccak-256 over the 64-byte public key point, dropping the 0x04 prefix.
	digest := Keccak256(pub.SerializeUncompressed()[1:])
	var a Address
	copy(a[:], digest[12:])
	return a
}
