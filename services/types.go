package services

import (
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/vault"
)

// AddProductRequest is a complete signed upload intent as submitted over HTTP.
// Sender is the claimed caller; the signature must recover to it.
type AddProductRequest struct {
	Sender      crypto.Address   `json:"sender"`
	Name        string           `json:"name"`
	ImageURL    string           `json:"image_url"`
	PriceHandle fhe.Handle       `json:"price_handle"`
	CertHandle  fhe.Handle       `json:"cert_hash_handle"`
	Proof       HexBytes         `json:"proof"`
	Nonce       uint64           `json:"nonce"`
	Signature   crypto.Signature `json:"signature"`
}

// AddProductResponse returns the id assigned to a registered product.
type AddProductResponse struct {
	ProductID uint64 `json:"product_id"`
}

// VerifyProductRequest is a signed verify intent for the product in the URL.
type VerifyProductRequest struct {
	Sender    crypto.Address   `json:"sender"`
	Nonce     uint64           `json:"nonce"`
	Signature crypto.Signature `json:"signature"`
}

// ProductResponse is the public view of a product record.
type ProductResponse struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	ImageURL  string         `json:"image_url"`
	Seller    crypto.Address `json:"seller"`
	Timestamp uint64         `json:"timestamp"`
	Verified  bool           `json:"verified"`
}

// EncryptedDataResponse carries a product's ciphertext handles. Handles are
// public; decrypting them is gated by the encryption backend.
type EncryptedDataResponse struct {
	PriceHandle fhe.Handle `json:"price_handle"`
	CertHandle  fhe.Handle `json:"cert_hash_handle"`
}

// SellerProductsResponse lists a seller's product ids in creation order.
type SellerProductsResponse struct {
	Seller   crypto.Address `json:"seller"`
	Products []uint64       `json:"products"`
}

// CountResponse reports the total number of products issued.
type CountResponse struct {
	Total uint64 `json:"total"`
}

// ExistsResponse reports whether a product id has been issued.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// NonceResponse reports the replay state of a (signer, nonce) pair.
type NonceResponse struct {
	Signer crypto.Address `json:"signer"`
	Nonce  uint64         `json:"nonce"`
	Used   bool           `json:"used"`
}

// EventRecord is a committed vault event with a stable record id.
type EventRecord struct {
	ID string `json:"id"`
	vault.Event
}

// CreateInputRequest asks the in-process encryption backend to encrypt a
// price and certificate hash for the given caller.
type CreateInputRequest struct {
	Caller   crypto.Address `json:"caller"`
	Price    uint64         `json:"price"`
	CertHash uint32         `json:"cert_hash"`
}

// CreateInputResponse returns the fresh handles and their validity proof.
type CreateInputResponse struct {
	PriceHandle fhe.Handle `json:"price_handle"`
	CertHandle  fhe.Handle `json:"cert_hash_handle"`
	Proof       HexBytes   `json:"proof"`
}

// DecryptRequest asks the backend to decrypt a product's fields on behalf of
// the requester. The backend enforces the grant; the service only relays.
type DecryptRequest struct {
	Requester crypto.Address `json:"requester"`
}

// DecryptResponse carries the recovered plaintexts.
type DecryptResponse struct {
	Price    uint64 `json:"price"`
	CertHash uint32 `json:"cert_hash"`
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
