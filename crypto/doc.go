// Package crypto provides the identity and signature primitives for the proof vault.
//
// This package implements the Ethereum-compatible scheme the vault authenticates
// callers with:
//
//   - secp256k1 key pairs with 20-byte addresses derived from the Keccak-256 hash
//     of the uncompressed public key
//   - Keccak-256 hashing and Solidity-style packed encoding for intent digests
//   - EIP-191 personal-message digests ("\x19Ethereum Signed Message:\n32")
//   - 65-byte [R || S || V] signatures with public key recovery
//
// Signer recovery is strict about canonical form: signatures of the wrong length,
// with an unknown recovery identifier, or with out-of-range R or S components are
// rejected rather than coerced. Malformed signatures are a common exploit surface,
// so the checks here mirror what the signature backend itself enforces.
//
// The package provides low-level primitives only; digest layouts for specific
// intents live in the vault package.
package crypto
