package services_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/services"
	"github.com/water4699/holo-proof-vault/testutil"
	"github.com/water4699/holo-proof-vault/vault"
)

type testService struct {
	srv     *httptest.Server
	backend *fhe.MockBackend
	vault   *vault.Vault
}

func newTestService(t *testing.T, store services.VaultStore) *testService {
	t.Helper()

	v, backend := testutil.NewVault(t)
	svc, err := services.NewVaultService(v, backend, &services.VaultServiceConfig{
		Store:     store,
		Encryptor: backend,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	svc.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testService{srv: srv, backend: backend, vault: v}
}

func (ts *testService) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testService) post(t *testing.T, path string, body, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// addRequest builds a complete signed upload request the way vaultctl does.
func addRequest(t *testing.T, ts *testService, seller *crypto.PrivateKey, name string, price uint64, certHash uint32, nonce uint64) *services.AddProductRequest {
	t.Helper()
	input := ts.backend.CreateEncryptedInput(testutil.VaultAddress(), seller.Address()).
		AddUint64(price).
		AddUint32(certHash).
		Encrypt()

	return &services.AddProductRequest{
		Sender:      seller.Address(),
		Name:        name,
		ImageURL:    "https://example.com/" + name + ".jpg",
		PriceHandle: input.Handles[0],
		CertHandle:  input.Handles[1],
		Proof:       services.HexBytes(input.Proof),
		Nonce:       nonce,
		Signature:   testutil.SignUpload(t, seller, name, nonce),
	}
}

func TestAddAndFetchProduct(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)

	var added services.AddProductResponse
	status := ts.post(t, "/products", addRequest(t, ts, seller, "whisky", 1200, 777, 1), &added)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, uint64(0), added.ProductID)

	var info services.ProductResponse
	require.Equal(t, http.StatusOK, ts.get(t, "/products/0", &info))
	require.Equal(t, "whisky", info.Name)
	require.Equal(t, seller.Address(), info.Seller)
	require.False(t, info.Verified)

	var count services.CountResponse
	require.Equal(t, http.StatusOK, ts.get(t, "/products/count", &count))
	require.Equal(t, uint64(1), count.Total)

	var exists services.ExistsResponse
	require.Equal(t, http.StatusOK, ts.get(t, "/products/0/exists", &exists))
	require.True(t, exists.Exists)

	var listed services.SellerProductsResponse
	path := "/sellers/" + seller.Address().String() + "/products"
	require.Equal(t, http.StatusOK, ts.get(t, path, &listed))
	require.Equal(t, []uint64{0}, listed.Products)

	var encrypted services.EncryptedDataResponse
	require.Equal(t, http.StatusOK, ts.get(t, "/products/0/encrypted", &encrypted))
	require.NotEqual(t, fhe.Handle{}, encrypted.PriceHandle)
}

func TestAddRejectsWrongSigner(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)
	imposter := testutil.NewAccount(t)

	body := addRequest(t, ts, seller, "whisky", 1200, 777, 1)
	body.Signature = testutil.SignUpload(t, imposter, "whisky", 1)

	require.Equal(t, http.StatusForbidden, ts.post(t, "/products", body, nil))
	require.Equal(t, http.StatusNotFound, ts.get(t, "/products/0", nil))
}

func TestNonceReplayConflict(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)

	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, seller, "first", 100, 1, 7), nil))
	require.Equal(t, http.StatusConflict,
		ts.post(t, "/products", addRequest(t, ts, seller, "second", 200, 2, 7), nil))

	var nonce services.NonceResponse
	path := fmt.Sprintf("/nonces/%s/7", seller.Address().String())
	require.Equal(t, http.StatusOK, ts.get(t, path, &nonce))
	require.True(t, nonce.Used)

	// A different signer may still use the same nonce value.
	other := testutil.NewAccount(t)
	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, other, "third", 300, 3, 7), nil))
}

func TestAddRejectsInvalidProof(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)

	body := addRequest(t, ts, seller, "whisky", 1200, 777, 1)
	body.Proof = services.HexBytes("not a proof")
	require.Equal(t, http.StatusBadRequest, ts.post(t, "/products", body, nil))

	// The failed attempt must not burn the nonce.
	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, seller, "whisky", 1200, 777, 1), nil))
}

func TestVerifyProductGrantsDecrypt(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)
	buyer := testutil.NewAccount(t)
	stranger := testutil.NewAccount(t)

	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, seller, "whisky", 1200, 777, 1), nil))

	// Decrypting before verification is denied for everyone but the seller.
	require.Equal(t, http.StatusForbidden, ts.post(t, "/products/0/decrypt",
		&services.DecryptRequest{Requester: buyer.Address()}, nil))

	status := ts.post(t, "/products/0/verify", &services.VerifyProductRequest{
		Sender:    buyer.Address(),
		Nonce:     1,
		Signature: testutil.SignVerify(t, buyer, 0, 1),
	}, nil)
	require.Equal(t, http.StatusNoContent, status)

	var info services.ProductResponse
	require.Equal(t, http.StatusOK, ts.get(t, "/products/0", &info))
	require.True(t, info.Verified)

	var clear services.DecryptResponse
	require.Equal(t, http.StatusOK, ts.post(t, "/products/0/decrypt",
		&services.DecryptRequest{Requester: buyer.Address()}, &clear))
	require.Equal(t, uint64(1200), clear.Price)
	require.Equal(t, uint32(777), clear.CertHash)

	// Verification grants the verifier, not the world.
	require.Equal(t, http.StatusForbidden, ts.post(t, "/products/0/decrypt",
		&services.DecryptRequest{Requester: stranger.Address()}, nil))
}

func TestVerifyUnknownProduct(t *testing.T) {
	ts := newTestService(t, nil)
	buyer := testutil.NewAccount(t)

	status := ts.post(t, "/products/42/verify", &services.VerifyProductRequest{
		Sender:    buyer.Address(),
		Nonce:     1,
		Signature: testutil.SignVerify(t, buyer, 42, 1),
	}, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)
	buyer := testutil.NewAccount(t)

	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, seller, "whisky", 1200, 777, 1), nil))
	require.Equal(t, http.StatusNoContent, ts.post(t, "/products/0/verify",
		&services.VerifyProductRequest{
			Sender:    buyer.Address(),
			Nonce:     1,
			Signature: testutil.SignVerify(t, buyer, 0, 1),
		}, nil))

	var events []services.EventRecord
	require.Equal(t, http.StatusOK, ts.get(t, "/events", &events))
	require.Len(t, events, 2)

	require.Equal(t, vault.EventProductAdded, events[0].Kind)
	require.Equal(t, seller.Address(), events[0].Account)
	require.Equal(t, "whisky", events[0].Name)
	require.NotEmpty(t, events[0].ID)

	require.Equal(t, vault.EventProductVerified, events[1].Kind)
	require.Equal(t, buyer.Address(), events[1].Account)
	require.NotEqual(t, events[0].ID, events[1].ID)
}

func TestCreateInputEndpoint(t *testing.T) {
	ts := newTestService(t, nil)
	seller := testutil.NewAccount(t)

	var input services.CreateInputResponse
	status := ts.post(t, "/inputs", &services.CreateInputRequest{
		Caller:   seller.Address(),
		Price:    550,
		CertHash: 99,
	}, &input)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, input.Proof)

	body := &services.AddProductRequest{
		Sender:      seller.Address(),
		Name:        "rum",
		PriceHandle: input.PriceHandle,
		CertHandle:  input.CertHandle,
		Proof:       input.Proof,
		Nonce:       1,
		Signature:   testutil.SignUpload(t, seller, "rum", 1),
	}
	require.Equal(t, http.StatusCreated, ts.post(t, "/products", body, nil))
}

func TestBadRequestParams(t *testing.T) {
	ts := newTestService(t, nil)

	require.Equal(t, http.StatusBadRequest, ts.get(t, "/products/abc", nil))
	require.Equal(t, http.StatusBadRequest, ts.get(t, "/sellers/nothex/products", nil))
	require.Equal(t, http.StatusBadRequest, ts.get(t, "/nonces/nothex/1", nil))
}

// memStore is an in-memory VaultStore for exercising write-through and
// rehydration without a database.
type memStore struct {
	products map[uint64]vault.Product
	nonces   []vault.NonceRecord
	events   []services.EventRecord
}

func newMemStore() *memStore {
	return &memStore{products: make(map[uint64]vault.Product)}
}

func (m *memStore) SaveProduct(p vault.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *memStore) MarkVerified(productID uint64) error {
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %d not stored", productID)
	}
	p.Verified = true
	m.products[productID] = p
	return nil
}

func (m *memStore) SaveNonce(rec vault.NonceRecord) error {
	for _, existing := range m.nonces {
		if existing == rec {
			return nil
		}
	}
	m.nonces = append(m.nonces, rec)
	return nil
}

func (m *memStore) SaveEvent(rec services.EventRecord) error {
	m.events = append(m.events, rec)
	return nil
}

func (m *memStore) Load() (vault.Snapshot, []services.EventRecord, error) {
	snap := vault.Snapshot{Nonces: m.nonces}
	for id := uint64(0); id < uint64(len(m.products)); id++ {
		snap.Products = append(snap.Products, m.products[id])
	}
	for _, rec := range m.events {
		snap.Events = append(snap.Events, rec.Event)
	}
	return snap, m.events, nil
}

func (m *memStore) Close() error { return nil }

func TestStoreWriteThroughAndRestore(t *testing.T) {
	store := newMemStore()
	ts := newTestService(t, store)
	seller := testutil.NewAccount(t)
	buyer := testutil.NewAccount(t)

	require.Equal(t, http.StatusCreated,
		ts.post(t, "/products", addRequest(t, ts, seller, "whisky", 1200, 777, 1), nil))
	require.Equal(t, http.StatusNoContent, ts.post(t, "/products/0/verify",
		&services.VerifyProductRequest{
			Sender:    buyer.Address(),
			Nonce:     1,
			Signature: testutil.SignVerify(t, buyer, 0, 1),
		}, nil))

	require.Len(t, store.products, 1)
	require.True(t, store.products[0].Verified)
	require.Len(t, store.nonces, 2)
	require.Len(t, store.events, 2)

	// A fresh service over the same store picks up where the old one stopped.
	restored := newTestService(t, store)

	var info services.ProductResponse
	require.Equal(t, http.StatusOK, restored.get(t, "/products/0", &info))
	require.Equal(t, "whisky", info.Name)
	require.True(t, info.Verified)

	var nonce services.NonceResponse
	path := fmt.Sprintf("/nonces/%s/1", seller.Address().String())
	require.Equal(t, http.StatusOK, restored.get(t, path, &nonce))
	require.True(t, nonce.Used)

	// The burned nonce still blocks replay after a restart.
	require.Equal(t, http.StatusConflict,
		restored.post(t, "/products", addRequest(t, restored, seller, "again", 1, 1, 1), nil))

	var events []services.EventRecord
	require.Equal(t, http.StatusOK, restored.get(t, "/events", &events))
	require.Len(t, events, 2)
}
