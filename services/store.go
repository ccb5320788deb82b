package services

import "github.com/water4699/holo-proof-vault/vault"

// VaultStore abstracts durable persistence for the vault's committed state.
//
// The in-memory vault stays authoritative; implementations are write-through
// copies used to survive restarts. Writes happen after a mutation has
// committed, so a store must tolerate replays of the same record (upserts).
type VaultStore interface {
	// SaveProduct persists a newly created product record.
	SaveProduct(p vault.Product) error

	// MarkVerified flips the verified flag on a persisted product.
	MarkVerified(productID uint64) error

	// SaveNonce persists a consumed (signer, nonce) pair.
	SaveNonce(n vault.NonceRecord) error

	// SaveEvent persists an event under its record id.
	SaveEvent(rec EventRecord) error

	// Load returns the full persisted state for rehydration at boot.
	Load() (vault.Snapshot, []EventRecord, error)

	// Close releases the store's resources.
	Close() error
}
