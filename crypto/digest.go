package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 hash of the concatenated inputs.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var digest [32]byte
	h.Sum(digest[:0])
	return digest
}

// personalPrefix is the EIP-191 prefix for a signed 32-byte hash.
const personalPrefix = "\x19Ethereum Signed Message:\n32"

// PersonalDigest wraps a 32-byte hash in the EIP-191 personal-message envelope.
// Wallets sign this digest, not the raw intent hash, so signer recovery must
// apply the same wrapping.
func PersonalDigest(hash [32]byte) [32]byte {
	return Keccak256([]byte(personalPrefix), hash[:])
}

// Packer accumulates Solidity abi.encodePacked-compatible bytes. Field order
// matters: packed encoding is not self-delimiting, so callers must append
// fields in the exact order the signer hashed them.
type Packer struct {
	buf []byte
}

// String appends a string with no length prefix, as encodePacked does.
func (p *Packer) String(s string) *Packer {
	p.buf = append(p.buf, s...)
	return p
}

// Uint256 appends a uint64 widened to a 32-byte big-endian word.
func (p *Packer) Uint256(v uint64) *Packer {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], v)
	p.buf = append(p.buf, word[:]...)
	return p
}

// Address appends the 20 raw address bytes.
func (p *Packer) Address(a Address) *Packer {
	p.buf = append(p.buf, a[:]...)
	return p
}

// Bytes32 appends a fixed 32-byte value.
func (p *Packer) Bytes32(b [32]byte) *Packer {
	p.buf = append(p.buf, b[:]...)
	return p
}

// Keccak256 hashes the accumulated bytes.
func (p *Packer) Keccak256() [32]byte {
	return Keccak256(p.buf)
}
