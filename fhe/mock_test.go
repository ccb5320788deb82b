package fhe

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/water4699/holo-proof-vault/crypto"
)

func testAddress(t *testing.T) crypto.Address {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key.Address()
}

func TestMockBackendEncryptAndVerify(t *testing.T) {
	backend := NewMockBackend()
	contract := testAddress(t)
	caller := testAddress(t)

	input := backend.CreateEncryptedInput(contract, caller).
		AddUint64(450000).
		AddUint32(123456789).
		Encrypt()

	require.Len(t, input.Handles, 2)
	require.NotEqual(t, input.Handles[0], input.Handles[1])
	require.True(t, backend.VerifyInput(input.Handles, input.Proof, contract, caller))
}

func TestMockBackendProofBoundToContractAndCaller(t *testing.T) {
	backend := NewMockBackend()
	contract := testAddress(t)
	caller := testAddress(t)
	other := testAddress(t)

	input := backend.CreateEncryptedInput(contract, caller).AddUint64(1).Encrypt()

	require.False(t, backend.VerifyInput(input.Handles, input.Proof, contract, other))
	require.False(t, backend.VerifyInput(input.Handles, input.Proof, other, caller))
	require.False(t, backend.VerifyInput(input.Handles, []byte("garbage"), contract, caller))
}

func TestMockBackendRejectsForeignHandles(t *testing.T) {
	backend := NewMockBackend()
	contract := testAddress(t)
	caller := testAddress(t)

	unknown := Handle(crypto.Keccak256([]byte("never encrypted")))
	require.False(t, backend.VerifyInput([]Handle{unknown}, proofFor([]Handle{unknown}, contract, caller), contract, caller))
}

func TestMockBackendHandlesUniquePerEncryption(t *testing.T) {
	backend := NewMockBackend()
	contract := testAddress(t)
	caller := testAddress(t)

	a := backend.CreateEncryptedInput(contract, caller).AddUint64(42).Encrypt()
	b := backend.CreateEncryptedInput(contract, caller).AddUint64(42).Encrypt()
	require.NotEqual(t, a.Handles[0], b.Handles[0])
}

func TestMockBackendDecryptGating(t *testing.T) {
	backend := NewMockBackend()
	contract := testAddress(t)
	seller := testAddress(t)
	verifier := testAddress(t)

	input := backend.CreateEncryptedInput(contract, seller).AddUint64(820000).Encrypt()
	handle := input.Handles[0]

	_, err := backend.Decrypt(handle, verifier)
	require.ErrorIs(t, err, ErrDecryptDenied)

	backend.Allow(handle, verifier)
	require.True(t, backend.IsAllowed(handle, verifier))

	plaintext, err := backend.Decrypt(handle, verifier)
	require.NoError(t, err)
	require.Equal(t, uint64(820000), plaintext)

	// Granting again is a no-op.
	backend.Allow(handle, verifier)
	plaintext, err = backend.Decrypt(handle, verifier)
	require.NoError(t, err)
	require.Equal(t, uint64(820000), plaintext)
}

func TestMockBackendDecryptUnknownHandle(t *testing.T) {
	backend := NewMockBackend()
	requester := testAddress(t)

	_, err := backend.Decrypt(Handle{}, requester)
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestHandleHexRoundTrip(t *testing.T) {
	h := Handle(crypto.Keccak256([]byte("some handle")))
	parsed, err := NewHandleFromString(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = NewHandleFromString("0x1234")
	require.Error(t, err)
}
