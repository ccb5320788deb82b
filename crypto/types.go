package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an account identity.
const AddressLength = 20

// SignatureLength is the byte length of an [R || S || V] signature.
const SignatureLength = 65

// Address identifies an account: the last 20 bytes of the Keccak-256 hash of the
// account's uncompressed public key. The zero value is not a valid signer.
type Address [AddressLength]byte

// NewAddressFromBytes creates an Address from a byte slice.
func NewAddressFromBytes(data []byte) (Address, error) {
	var a Address
	if len(data) != AddressLength {
		return a, fmt.Errorf("invalid address length %d", len(data))
	}
	copy(a[:], data)
	return a, nil
}

// NewAddressFromString parses a 0x-prefixed or bare hex address.
func NewAddressFromString(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address hex: %w", err)
	}
	return NewAddressFromBytes(raw)
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is the all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the 0x-prefixed hex representation of the address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler so addresses serialize as hex
// strings in JSON payloads and map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Signature is a 65-byte [R || S || V] signature. V is the recovery identifier,
// either 0/1 or the legacy 27/28 encoding.
type Signature []byte

// NewSignature creates a Signature from a byte slice.
// This function makes a copy of the input data to ensure immutability.
func NewSignature(data []byte) Signature {
	sig := make([]byte, len(data))
	copy(sig, data)
	return Signature(sig)
}

// NewSignatureFromString creates a Signature from a hex-encoded string.
func NewSignatureFromString(s string) (Signature, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	return Signature(raw), nil
}

// Bytes returns the signature as a byte slice.
func (s Signature) Bytes() []byte {
	return []byte(s)
}

// String returns the 0x-prefixed hex representation of the signature.
func (s Signature) String() string {
	return "0x" + hex.EncodeToString(s)
}

// Equal compares two signatures for equality.
func (s Signature) Equal(other Signature) bool {
	return bytes.Equal(s, other)
}

// MarshalText implements encoding.TextMarshaler so signatures serialize as hex
// strings rather than base64 byte slices in JSON payloads.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := NewSignatureFromString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrInvalidSignature is returned when a signature is malformed or does not
// recover to a valid public key.
var ErrInvalidSignature = errors.New("invalid signature")
