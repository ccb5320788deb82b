package vault

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/water4699/holo-proof-vault/crypto"
)

func TestNonceLedgerConsumeOnce(t *testing.T) {
	ledger := NewNonceLedger()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := key.Address()

	require.False(t, ledger.Used(signer, 1))
	require.NoError(t, ledger.Consume(signer, 1))
	require.True(t, ledger.Used(signer, 1))
	require.ErrorIs(t, ledger.Consume(signer, 1), ErrNonceUsed)
}

func TestNonceLedgerKeysOnSignerAndNonce(t *testing.T) {
	ledger := NewNonceLedger()
	a, err := crypto.GenerateKey()
	require.NoError(t, err)
	b, err := crypto.GenerateKey()
	require.NoError(t, err)

	require.NoError(t, ledger.Consume(a.Address(), 1))
	require.NoError(t, ledger.Consume(b.Address(), 1))
	require.NoError(t, ledger.Consume(a.Address(), 2))
}

func TestNonceLedgerConcurrentConsume(t *testing.T) {
	ledger := NewNonceLedger()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := key.Address()

	const racers = 32
	var wg sync.WaitGroup
	successes := make(chan struct{}, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Consume(signer, 99) == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	// Exactly one racer observed the pair as unused.
	require.Len(t, successes, 1)
}
