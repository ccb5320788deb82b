package vault

import "github.com/water4699/holo-proof-vault/crypto"

// Intent labels. The label is the first packed field of every digest so an
// upload signature can never be reinterpreted as a verify signature.
const (
	uploadLabel = "Upload product"
	verifyLabel = "Verify product"
)

// UploadDigest computes the intent digest for adding a product:
// keccak256(encodePacked(label, name, nonce, vault, chainID)).
//
// Field order and widths are fixed; the vault address and chain id make the
// digest unreplayable against a different vault or network.
func UploadDigest(name string, nonce uint64, vault crypto.Address, chainID uint64) [32]byte {
	return (&crypto.Packer{}).
		String(uploadLabel).
		String(name).
		Uint256(nonce).
		Address(vault).
		Uint256(chainID).
		Keccak256()
}

// VerifyDigest computes the intent digest for verifying a product:
// keccak256(encodePacked(label, productID, nonce, vault, chainID)).
func VerifyDigest(productID, nonce uint64, vault crypto.Address, chainID uint64) [32]byte {
	return (&crypto.Packer{}).
		String(verifyLabel).
		Uint256(productID).
		Uint256(nonce).
		Address(vault).
		Uint256(chainID).
		Keccak256()
}
