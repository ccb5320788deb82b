// Package fhe defines the boundary to the encryption backend that produces and
// decrypts the vault's opaque ciphertext handles.
//
// The vault never sees plaintext. It holds 32-byte handles, asks the backend to
// validate the input proof a caller supplied alongside new handles, and tells
// the backend which accounts may decrypt which handles. Everything else — key
// material, the ciphertexts themselves, the actual FHE scheme — lives behind
// the Backend interface.
//
// MockBackend is an in-process stand-in used by tests and local deployments.
// It mirrors the coprocessor's observable behavior: inputs are created against
// a specific (contract, caller) pair and the resulting proof only validates for
// that pair, and decryption is refused for accounts without a grant.
package fhe
