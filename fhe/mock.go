package fhe

import (
	"encoding/binary"
	"sync"

	"github.com/water4699/holo-proof-vault/crypto"
)

// MockBackend implements Backend in-process for tests and local deployments.
//
// Handles are derived from a per-backend counter so two encryptions of the same
// value never collide, and proofs are a keccak binding of the handles to the
// (contract, caller) pair the input was created for.
type MockBackend struct {
	mu         sync.RWMutex
	counter    uint64
	plaintexts map[Handle]uint64
	grants     map[grantKey]struct{}
}

type grantKey struct {
	handle  Handle
	account crypto.Address
}

// NewMockBackend creates an empty mock encryption backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		plaintexts: make(map[Handle]uint64),
		grants:     make(map[grantKey]struct{}),
	}
}

// InputBuilder accumulates plaintext values for a single encrypted input, the
// way a client-side encryption library builds one input with several fields.
type InputBuilder struct {
	backend  *MockBackend
	contract crypto.Address
	caller   crypto.Address
	values   []uint64
}

// EncryptedInput is the result of encrypting an input: one handle per added
// value plus a proof binding them to the creating (contract, caller) pair.
type EncryptedInput struct {
	Handles []Handle
	Proof   []byte
}

// CreateEncryptedInput starts building an encrypted input bound to the given
// contract and caller.
func (b *MockBackend) CreateEncryptedInput(contract, caller crypto.Address) *InputBuilder {
	return &InputBuilder{backend: b, contract: contract, caller: caller}
}

// AddUint64 appends a 64-bit plaintext value to the input.
func (ib *InputBuilder) AddUint64(v uint64) *InputBuilder {
	ib.values = append(ib.values, v)
	return ib
}

// AddUint32 appends a 32-bit plaintext value to the input.
func (ib *InputBuilder) AddUint32(v uint32) *InputBuilder {
	ib.values = append(ib.values, uint64(v))
	return ib
}

// Encrypt materializes the input: registers each value under a fresh handle
// and returns the handles with their validity proof.
func (ib *InputBuilder) Encrypt() *EncryptedInput {
	b := ib.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	handles := make([]Handle, 0, len(ib.values))
	for _, v := range ib.values {
		b.counter++
		h := deriveHandle(b.counter, v, ib.contract, ib.caller)
		b.plaintexts[h] = v
		handles = append(handles, h)
	}

	return &EncryptedInput{
		Handles: handles,
		Proof:   proofFor(handles, ib.contract, ib.caller),
	}
}

// VerifyInput implements Backend.
func (b *MockBackend) VerifyInput(handles []Handle, proof []byte, contract, caller crypto.Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range handles {
		if _, ok := b.plaintexts[h]; !ok {
			return false
		}
	}
	expected := proofFor(handles, contract, caller)
	if len(proof) != len(expected) {
		return false
	}
	for i := range proof {
		if proof[i] != expected[i] {
			return false
		}
	}
	return true
}

// Allow implements Backend. Granting twice is a no-op.
func (b *MockBackend) Allow(handle Handle, account crypto.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grants[grantKey{handle, account}] = struct{}{}
}

// IsAllowed implements Backend.
func (b *MockBackend) IsAllowed(handle Handle, account crypto.Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.grants[grantKey{handle, account}]
	return ok
}

// Decrypt implements Backend.
func (b *MockBackend) Decrypt(handle Handle, requester crypto.Address) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	plaintext, ok := b.plaintexts[handle]
	if !ok {
		return 0, ErrUnknownHandle
	}
	if _, ok := b.grants[grantKey{handle, requester}]; !ok {
		return 0, ErrDecryptDenied
	}
	return plaintext, nil
}

func deriveHandle(counter, value uint64, contract, caller crypto.Address) Handle {
	var nums [16]byte
	binary.BigEndian.PutUint64(nums[:8], counter)
	binary.BigEndian.PutUint64(nums[8:], value)
	return Handle(crypto.Keccak256([]byte("fhe.handle"), nums[:], contract.Bytes(), caller.Bytes()))
}

func proofFor(handles []Handle, contract, caller crypto.Address) []byte {
	parts := [][]byte{[]byte("fhe.input-proof")}
	for _, h := range handles {
		parts = append(parts, h.Bytes())
	}
	parts = append(parts, contract.Bytes(), caller.Bytes())
	digest := crypto.Keccak256(parts...)
	return digest[:]
}
