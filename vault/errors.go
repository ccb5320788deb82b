package vault

import "errors"

// The vault's failure taxonomy. Every rejected operation surfaces as exactly
// one of these; all are terminal, and a caller retries only by constructing a
// fresh request with a new nonce and signature.
var (
	// ErrInvalidSignature covers malformed signatures and signatures that do
	// not recover to the claimed sender.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNonceUsed marks a replayed (signer, nonce) pair.
	ErrNonceUsed = errors.New("nonce already used")

	// ErrInvalidProof marks an input proof the encryption backend rejected.
	ErrInvalidProof = errors.New("invalid input proof")

	// ErrProductNotFound marks a reference to an id that was never issued.
	ErrProductNotFound = errors.New("product does not exist")
)
