// Package vault implements the signature-gated product registry at the heart of
// the proof vault.
//
// A Vault is a single shared ledger of products with encrypted price and
// certificate fields. Callers never authenticate to it directly; instead every
// mutation carries a signed intent — a domain-separated digest over the
// intent's fields, a caller-chosen nonce, the vault's own address and the chain
// id — and the vault recovers the signer from the signature before touching any
// state.
//
// The package is organized the way the operations compose:
//
//   - digest.go constructs the deterministic intent digests
//   - nonce.go tracks consumed (signer, nonce) pairs to block replay
//   - registry.go holds the product records, the per-seller index and the
//     gateway logic ordering signature, nonce and proof checks ahead of any
//     mutation
//
// Mutations are atomic: each public operation either commits fully under the
// vault's lock or fails with one of the package's sentinel errors leaving no
// trace. Decrypt permissions on the encrypted fields are delegated to the
// fhe.Backend; the vault only decides when a grant is extended — to the seller
// at creation and to each successful verifier.
package vault
