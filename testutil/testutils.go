// Package testutil provides fixtures for testing the proof vault.
//
// It generates funded-looking accounts, signed upload and verify intents, and
// vaults wired to a mock encryption backend, so tests can focus on the
// behavior under test instead of signing plumbing.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/vault"
)

// TestChainID is the network identity used by test vaults.
const TestChainID uint64 = 31337

// VaultAddress returns the deterministic address test vaults are deployed at.
func VaultAddress() crypto.Address {
	digest := crypto.Keccak256([]byte("holo-proof-vault/testutil vault"))
	addr, _ := crypto.NewAddressFromBytes(digest[12:])
	return addr
}

// NewAccount generates a fresh signing key.
func NewAccount(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

// NewVault creates a vault at VaultAddress on TestChainID, backed by a fresh
// mock encryption backend and a fixed clock.
func NewVault(t *testing.T) (*vault.Vault, *fhe.MockBackend) {
	t.Helper()
	backend := fhe.NewMockBackend()
	v, err := vault.New(vault.Config{
		Address: VaultAddress(),
		ChainID: TestChainID,
		Backend: backend,
		Now:     func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)
	return v, backend
}

// SignUpload signs an upload intent the way a wallet does: EIP-191 personal
// signature over the packed intent digest.
func SignUpload(t *testing.T, key *crypto.PrivateKey, name string, nonce uint64) crypto.Signature {
	t.Helper()
	digest := vault.UploadDigest(name, nonce, VaultAddress(), TestChainID)
	sig, err := key.SignMessage(digest)
	require.NoError(t, err)
	return sig
}

// SignVerify signs a verify intent for the given product id.
func SignVerify(t *testing.T, key *crypto.PrivateKey, productID, nonce uint64) crypto.Signature {
	t.Helper()
	digest := vault.VerifyDigest(productID, nonce, VaultAddress(), TestChainID)
	sig, err := key.SignMessage(digest)
	require.NoError(t, err)
	return sig
}

// UploadParams builds complete AddProduct parameters for a seller: fresh
// encrypted input for (price, certHash), a signed upload intent, and the
// claimed sender set to the seller's address.
func UploadParams(t *testing.T, backend *fhe.MockBackend, seller *crypto.PrivateKey, name string, price uint64, certHash uint32, nonce uint64) vault.AddProductParams {
	t.Helper()
	input := backend.CreateEncryptedInput(VaultAddress(), seller.Address()).
		AddUint64(price).
		AddUint32(certHash).
		Encrypt()

	return vault.AddProductParams{
		Sender:      seller.Address(),
		Name:        name,
		ImageURL:    "https://example.com/" + name + ".jpg",
		PriceHandle: input.Handles[0],
		CertHandle:  input.Handles[1],
		Proof:       input.Proof,
		Nonce:       nonce,
		Signature:   SignUpload(t, seller, name, nonce),
	}
}

// AddProduct registers a product and returns its id, failing the test on error.
func AddProduct(t *testing.T, v *vault.Vault, backend *fhe.MockBackend, seller *crypto.PrivateKey, name string, price uint64, certHash uint32, nonce uint64) uint64 {
	t.Helper()
	id, err := v.AddProduct(UploadParams(t, backend, seller, name, price, certHash, nonce))
	require.NoError(t, err)
	return id
}
