package fhe

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/water4699/holo-proof-vault/crypto"
)

// Handle is an opaque reference to a ciphertext value. It is meaningful only to
// the encryption backend; the vault stores and returns handles without ever
// interpreting them.
type Handle [32]byte

// NewHandleFromBytes creates a Handle from a 32-byte slice.
func NewHandleFromBytes(data []byte) (Handle, error) {
	var h Handle
	if len(data) != len(h) {
		return h, fmt.Errorf("invalid handle length %d", len(data))
	}
	copy(h[:], data)
	return h, nil
}

// NewHandleFromString parses a 0x-prefixed or bare hex handle.
func NewHandleFromString(s string) (Handle, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle hex: %w", err)
	}
	return NewHandleFromBytes(raw)
}

// Bytes returns the handle as a byte slice.
func (h Handle) Bytes() []byte {
	return h[:]
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// String returns the 0x-prefixed hex representation of the handle.
func (h Handle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := NewHandleFromString(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ErrDecryptDenied is returned when an account without a grant requests
// decryption of a handle.
var ErrDecryptDenied = errors.New("decryption denied")

// ErrUnknownHandle is returned when a handle does not reference a ciphertext
// known to the backend.
var ErrUnknownHandle = errors.New("unknown handle")

// Backend abstracts the encryption coprocessor.
//
// The vault is the sole authority deciding when Allow is called; the backend is
// the sole authority on whether a decryption request succeeds.
type Backend interface {
	// VerifyInput checks the validity proof supplied with externally produced
	// handles. The proof binds the handles to the contract and caller the
	// input was created for; a proof created for a different pair must fail.
	VerifyInput(handles []Handle, proof []byte, contract crypto.Address, caller crypto.Address) bool

	// Allow grants the account permission to decrypt the handle. Granting an
	// existing permission again is a no-op, not an error.
	Allow(handle Handle, account crypto.Address)

	// IsAllowed reports whether the account holds a decrypt grant for the handle.
	IsAllowed(handle Handle, account crypto.Address) bool

	// Decrypt returns the plaintext behind a handle for an account holding a
	// grant. Fails with ErrDecryptDenied otherwise, ErrUnknownHandle if the
	// handle references nothing.
	Decrypt(handle Handle, requester crypto.Address) (uint64, error)
}
