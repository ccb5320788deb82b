package vault

import (
	"fmt"
	"sync"
	"time"

	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
)

// Config carries the identity and collaborators a Vault is constructed with.
type Config struct {
	// Address is the vault's own identity, baked into every intent digest so
	// signatures cannot be replayed against a different vault.
	Address crypto.Address

	// ChainID is the network identity, the second half of the digest's
	// domain separation.
	ChainID uint64

	// Backend validates input proofs and owns decrypt permissions.
	Backend fhe.Backend

	// Now supplies creation timestamps. Defaults to wall-clock time.
	Now func() time.Time
}

// Vault is the authoritative product ledger and the gateway in front of it.
//
// All state-changing operations serialize on one mutex and are all-or-nothing:
// the signature, nonce and proof checks all pass before the first field is
// written, so a failed call leaves the id counter, the records, the seller
// index and the nonce ledger exactly as they were. Reads take the read lock
// and observe the last committed state.
type Vault struct {
	address crypto.Address
	chainID uint64
	backend fhe.Backend
	now     func() time.Time

	mu          sync.RWMutex
	products    []Product
	sellerIndex map[crypto.Address][]uint64
	nonces      *NonceLedger
	events      []Event
}

// New creates an empty vault.
func New(cfg Config) (*Vault, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if cfg.Address.IsZero() {
		return nil, fmt.Errorf("vault address cannot be zero")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Vault{
		address:     cfg.Address,
		chainID:     cfg.ChainID,
		backend:     cfg.Backend,
		now:         now,
		sellerIndex: make(map[crypto.Address][]uint64),
		nonces:      NewNonceLedger(),
	}, nil
}

// Address returns the vault's own identity.
func (v *Vault) Address() crypto.Address {
	return v.address
}

// ChainID returns the network identity the vault signs for.
func (v *Vault) ChainID() uint64 {
	return v.chainID
}

// AddProduct registers a product from a signed upload intent and returns the
// assigned id.
//
// The pipeline is signature, then nonce, then proof: the signer is recovered
// from the upload digest and must equal the claimed sender, the (signer,
// nonce) pair must be fresh, and the encryption backend must accept the proof
// binding both handles to this vault and the sender. Only then is the next
// dense id allocated, the record persisted, the seller index appended, the
// nonce burned, decrypt grants extended to the vault and the seller, and a
// ProductAdded event recorded.
func (v *Vault) AddProduct(p AddProductParams) (uint64, error) {
	digest := UploadDigest(p.Name, p.Nonce, v.address, v.chainID)
	signer, err := crypto.RecoverMessageSigner(digest, p.Signature)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if signer != p.Sender {
		return 0, fmt.Errorf("%w: signer %s does not match sender %s", ErrInvalidSignature, signer, p.Sender)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.nonces.Used(signer, p.Nonce) {
		return 0, ErrNonceUsed
	}
	handles := []fhe.Handle{p.PriceHandle, p.CertHandle}
	if !v.backend.VerifyInput(handles, p.Proof, v.address, signer) {
		return 0, ErrInvalidProof
	}

	// Commit point. Nothing below can fail.
	if err := v.nonces.Consume(signer, p.Nonce); err != nil {
		return 0, err
	}

	id := uint64(len(v.products))
	timestamp := uint64(v.now().Unix())
	v.products = append(v.products, Product{
		ID:                id,
		Name:              p.Name,
		ImageURL:          p.ImageURL,
		Seller:            signer,
		Timestamp:         timestamp,
		EncryptedPrice:    p.PriceHandle,
		EncryptedCertHash: p.CertHandle,
	})
	v.sellerIndex[signer] = append(v.sellerIndex[signer], id)

	for _, h := range handles {
		v.backend.Allow(h, v.address)
		v.backend.Allow(h, signer)
	}

	v.events = append(v.events, Event{
		Kind:      EventProductAdded,
		ProductID: id,
		Account:   signer,
		Name:      p.Name,
		Timestamp: timestamp,
	})
	return id, nil
}

// VerifyProduct marks a product verified from a signed verify intent and
// extends decrypt capability to the recovered signer.
//
// Verification is open: any signer with a valid signature over (productID,
// nonce) is accepted, including the seller. Re-verifying an already verified
// product succeeds — the flag stays true, the new verifier still gets a grant,
// the nonce still burns and an event still fires.
func (v *Vault) VerifyProduct(sender crypto.Address, productID, nonce uint64, sig crypto.Signature) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Existence is the first precondition: an intent against an unknown id
	// reports not-found even when its signature is garbage.
	if productID >= uint64(len(v.products)) {
		return ErrProductNotFound
	}

	digest := VerifyDigest(productID, nonce, v.address, v.chainID)
	signer, err := crypto.RecoverMessageSigner(digest, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if signer != sender {
		return fmt.Errorf("%w: signer %s does not match sender %s", ErrInvalidSignature, signer, sender)
	}

	if v.nonces.Used(signer, nonce) {
		return ErrNonceUsed
	}

	// Commit point.
	if err := v.nonces.Consume(signer, nonce); err != nil {
		return err
	}

	product := &v.products[productID]
	product.Verified = true
	v.backend.Allow(product.EncryptedPrice, signer)
	v.backend.Allow(product.EncryptedCertHash, signer)

	v.events = append(v.events, Event{
		Kind:      EventProductVerified,
		ProductID: productID,
		Account:   signer,
		Timestamp: uint64(v.now().Unix()),
	})
	return nil
}

// ProductInfo returns a copy of the product record.
func (v *Vault) ProductInfo(productID uint64) (Product, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if productID >= uint64(len(v.products)) {
		return Product{}, ErrProductNotFound
	}
	return v.products[productID], nil
}

// ProductEncryptedData returns the product's ciphertext handles. Handles are
// public reads; decrypting them is gated by the backend, not here.
func (v *Vault) ProductEncryptedData(productID uint64) (price, certHash fhe.Handle, err error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if productID >= uint64(len(v.products)) {
		return fhe.Handle{}, fhe.Handle{}, ErrProductNotFound
	}
	p := v.products[productID]
	return p.EncryptedPrice, p.EncryptedCertHash, nil
}

// SellerProducts returns the seller's product ids in creation order. The
// result is a copy and may be empty.
func (v *Vault) SellerProducts(seller crypto.Address) []uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := v.sellerIndex[seller]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// TotalProducts returns the count of ids issued so far.
func (v *Vault) TotalProducts() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return uint64(len(v.products))
}

// ProductExists reports whether the id has been issued.
func (v *Vault) ProductExists(productID uint64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return productID < uint64(len(v.products))
}

// NonceUsed reports whether the (signer, nonce) pair has been consumed.
func (v *Vault) NonceUsed(signer crypto.Address, nonce uint64) bool {
	return v.nonces.Used(signer, nonce)
}

// Events returns a copy of all recorded events in commit order.
func (v *Vault) Events() []Event {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Event, len(v.events))
	copy(out, v.events)
	return out
}

// Restore loads a snapshot into an empty vault. Product ids must be dense and
// in order, matching the invariant the vault maintains while running.
func (v *Vault) Restore(snap Snapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.products) > 0 {
		return fmt.Errorf("restore into non-empty vault")
	}
	for i, p := range snap.Products {
		if p.ID != uint64(i) {
			return fmt.Errorf("snapshot ids not dense: product %d at position %d", p.ID, i)
		}
		v.products = append(v.products, p)
		v.sellerIndex[p.Seller] = append(v.sellerIndex[p.Seller], p.ID)
	}
	for _, n := range snap.Nonces {
		if err := v.nonces.Consume(n.Signer, n.Nonce); err != nil {
			return fmt.Errorf("snapshot nonce (%s, %d) duplicated", n.Signer, n.Nonce)
		}
	}
	v.events = append(v.events, snap.Events...)
	return nil
}
