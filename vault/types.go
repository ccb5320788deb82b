package vault

import (
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
)

// Product is one registered product. All fields except Verified are immutable
// once the record is created; Verified transitions false to true exactly once
// and never back.
type Product struct {
	ID                uint64         `json:"id"`
	Name              string         `json:"name"`
	ImageURL          string         `json:"image_url"`
	Seller            crypto.Address `json:"seller"`
	Timestamp         uint64         `json:"timestamp"`
	EncryptedPrice    fhe.Handle     `json:"encrypted_price"`
	EncryptedCertHash fhe.Handle     `json:"encrypted_cert_hash"`
	Verified          bool           `json:"verified"`
}

// EventKind names the two events the vault emits.
type EventKind string

const (
	// EventProductAdded fires once per successful AddProduct.
	EventProductAdded EventKind = "ProductAdded"
	// EventProductVerified fires on every successful VerifyProduct, including
	// repeat verifications of an already-verified product.
	EventProductVerified EventKind = "ProductVerified"
)

// Event records a committed mutation. Account is the seller for ProductAdded
// and the recovered verifier for ProductVerified; Name is set only on
// ProductAdded.
type Event struct {
	Kind      EventKind      `json:"kind"`
	ProductID uint64         `json:"product_id"`
	Account   crypto.Address `json:"account"`
	Name      string         `json:"name,omitempty"`
	Timestamp uint64         `json:"timestamp"`
}

// AddProductParams carries a complete signed upload intent.
//
// Sender is the claimed caller; the signature must recover to it, and the
// input proof must have been created for (vault, Sender) or the whole
// operation fails.
type AddProductParams struct {
	Sender      crypto.Address
	Name        string
	ImageURL    string
	PriceHandle fhe.Handle
	CertHandle  fhe.Handle
	Proof       []byte
	Nonce       uint64
	Signature   crypto.Signature
}

// NonceRecord is one consumed (signer, nonce) pair, exported for persistence.
type NonceRecord struct {
	Signer crypto.Address `json:"signer"`
	Nonce  uint64         `json:"nonce"`
}

// Snapshot is the vault's full persistent state, used to rehydrate a vault
// from a store at boot. Products must be ordered by id with no gaps.
type Snapshot struct {
	Products []Product
	Nonces   []NonceRecord
	Events   []Event
}
