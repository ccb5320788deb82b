package vault

import (
	"sync"

	"github.com/water4699/holo-proof-vault/crypto"
)

// NonceLedger tracks consumed (signer, nonce) pairs across all intent kinds.
//
// Nonces are caller-chosen one-time tokens; the ledger enforces uniqueness
// only, never freshness. There is no expiry window: a pair stays consumed
// forever. The ledger keys on (signer, nonce) alone, so a nonce burned by an
// upload intent is also dead for a verify intent from the same signer.
type NonceLedger struct {
	mu   sync.Mutex
	used map[nonceKey]struct{}
}

type nonceKey struct {
	signer crypto.Address
	nonce  uint64
}

// NewNonceLedger creates an empty nonce ledger.
func NewNonceLedger() *NonceLedger {
	return &NonceLedger{used: make(map[nonceKey]struct{})}
}

// Consume marks the pair used. The check and the mark happen under one lock so
// no two callers can both observe the pair as unused. Fails with ErrNonceUsed
// if the pair was already consumed.
func (l *NonceLedger) Consume(signer crypto.Address, nonce uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := nonceKey{signer, nonce}
	if _, ok := l.used[key]; ok {
		return ErrNonceUsed
	}
	l.used[key] = struct{}{}
	return nil
}

// Used reports whether the pair has been consumed.
func (l *NonceLedger) Used(signer crypto.Address, nonce uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.used[nonceKey{signer, nonce}]
	return ok
}
