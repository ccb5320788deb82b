package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/metrics"
	"github.com/water4699/holo-proof-vault/vault"
)

// VaultServiceConfig configures the HTTP service around a vault.
type VaultServiceConfig struct {
	// Store is the optional write-through persistence layer. When set, the
	// service rehydrates the vault from it at construction time.
	Store VaultStore

	// Encryptor, when set, enables the POST /inputs passthrough for creating
	// encrypted inputs against the in-process backend. Leave nil when the
	// real encryption network produces inputs client-side.
	Encryptor *fhe.MockBackend

	// Log is the structured logger for request outcomes.
	Log *slog.Logger
}

// VaultService exposes a vault.Vault over chi-routed JSON endpoints.
type VaultService struct {
	vault   *vault.Vault
	backend fhe.Backend
	config  *VaultServiceConfig
	log     *slog.Logger

	mu     sync.RWMutex
	events []EventRecord
}

// NewVaultService wraps a vault with the HTTP service layer. If the config
// carries a store, persisted state is loaded into the vault before the service
// accepts traffic.
func NewVaultService(v *vault.Vault, backend fhe.Backend, config *VaultServiceConfig) (*VaultService, error) {
	if config == nil {
		config = &VaultServiceConfig{}
	}
	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	s := &VaultService{
		vault:   v,
		backend: backend,
		config:  config,
		log:     log,
	}

	if config.Store != nil {
		snap, events, err := config.Store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading vault state: %w", err)
		}
		if err := v.Restore(snap); err != nil {
			return nil, fmt.Errorf("restoring vault state: %w", err)
		}
		s.events = events
		log.Info("Vault state restored from store",
			"products", len(snap.Products), "nonces", len(snap.Nonces), "events", len(events))
	}

	return s, nil
}

// RegisterRoutes registers the service's routes with the router.
func (s *VaultService) RegisterRoutes(r chi.Router) {
	r.Post("/products", s.handleAddProduct)
	r.Post("/products/{id}/verify", s.handleVerifyProduct)
	r.Post("/products/{id}/decrypt", s.handleDecrypt)
	r.Post("/inputs", s.handleCreateInput)

	r.Get("/products/count", s.handleTotalProducts)
	r.Get("/products/{id}", s.handleProductInfo)
	r.Get("/products/{id}/encrypted", s.handleEncryptedData)
	r.Get("/products/{id}/exists", s.handleProductExists)
	r.Get("/sellers/{address}/products", s.handleSellerProducts)
	r.Get("/nonces/{address}/{nonce}", s.handleNonceUsed)
	r.Get("/events", s.handleEvents)
}

func (s *VaultService) handleAddProduct(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	var body AddProductRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}

	id, err := s.vault.AddProduct(vault.AddProductParams{
		Sender:      body.Sender,
		Name:        body.Name,
		ImageURL:    body.ImageURL,
		PriceHandle: body.PriceHandle,
		CertHandle:  body.CertHandle,
		Proof:       body.Proof,
		Nonce:       body.Nonce,
		Signature:   body.Signature,
	})
	if err != nil {
		s.rejectMutation(w, "add_product", err)
		return
	}

	s.recordMutation(vault.NonceRecord{Signer: body.Sender, Nonce: body.Nonce})
	metrics.ProductAdded()
	s.log.Info("Product added", "productId", id, "seller", body.Sender.String(), "name", body.Name)
	writeJSON(w, http.StatusCreated, &AddProductResponse{ProductID: id})
}

func (s *VaultService) handleVerifyProduct(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	productID, ok := productIDParam(w, req)
	if !ok {
		return
	}

	var body VerifyProductRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}

	if err := s.vault.VerifyProduct(body.Sender, productID, body.Nonce, body.Signature); err != nil {
		s.rejectMutation(w, "verify_product", err)
		return
	}

	s.recordMutation(vault.NonceRecord{Signer: body.Sender, Nonce: body.Nonce})
	metrics.ProductVerified()
	s.log.Info("Product verified", "productId", productID, "verifier", body.Sender.String())
	w.WriteHeader(http.StatusNoContent)
}

func (s *VaultService) handleProductInfo(w http.ResponseWriter, req *http.Request) {
	productID, ok := productIDParam(w, req)
	if !ok {
		return
	}

	info, err := s.vault.ProductInfo(productID)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &ProductResponse{
		ID:        info.ID,
		Name:      info.Name,
		ImageURL:  info.ImageURL,
		Seller:    info.Seller,
		Timestamp: info.Timestamp,
		Verified:  info.Verified,
	})
}

func (s *VaultService) handleEncryptedData(w http.ResponseWriter, req *http.Request) {
	productID, ok := productIDParam(w, req)
	if !ok {
		return
	}

	price, cert, err := s.vault.ProductEncryptedData(productID)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &EncryptedDataResponse{PriceHandle: price, CertHandle: cert})
}

func (s *VaultService) handleProductExists(w http.ResponseWriter, req *http.Request) {
	productID, ok := productIDParam(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, &ExistsResponse{Exists: s.vault.ProductExists(productID)})
}

func (s *VaultService) handleTotalProducts(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, &CountResponse{Total: s.vault.TotalProducts()})
}

func (s *VaultService) handleSellerProducts(w http.ResponseWriter, req *http.Request) {
	seller, err := crypto.NewAddressFromString(chi.URLParam(req, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid seller address: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, &SellerProductsResponse{
		Seller:   seller,
		Products: s.vault.SellerProducts(seller),
	})
}

func (s *VaultService) handleNonceUsed(w http.ResponseWriter, req *http.Request) {
	signer, err := crypto.NewAddressFromString(chi.URLParam(req, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid signer address: %w", err))
		return
	}
	nonce, err := strconv.ParseUint(chi.URLParam(req, "nonce"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid nonce: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, &NonceResponse{
		Signer: signer,
		Nonce:  nonce,
		Used:   s.vault.NonceUsed(signer, nonce),
	})
}

func (s *VaultService) handleEvents(w http.ResponseWriter, req *http.Request) {
	s.mu.RLock()
	events := make([]EventRecord, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *VaultService) handleCreateInput(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	if s.config.Encryptor == nil {
		writeError(w, http.StatusNotFound, errors.New("input creation is not available: encryption happens client-side"))
		return
	}

	var body CreateInputRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}

	input := s.config.Encryptor.CreateEncryptedInput(s.vault.Address(), body.Caller).
		AddUint64(body.Price).
		AddUint32(body.CertHash).
		Encrypt()

	writeJSON(w, http.StatusOK, &CreateInputResponse{
		PriceHandle: input.Handles[0],
		CertHandle:  input.Handles[1],
		Proof:       input.Proof,
	})
}

func (s *VaultService) handleDecrypt(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	productID, ok := productIDParam(w, req)
	if !ok {
		return
	}

	var body DecryptRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}

	price, cert, err := s.vault.ProductEncryptedData(productID)
	if err != nil {
		writeVaultError(w, err)
		return
	}

	clearPrice, err := s.backend.Decrypt(price, body.Requester)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	clearCert, err := s.backend.Decrypt(cert, body.Requester)
	if err != nil {
		writeVaultError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &DecryptResponse{
		Price:    clearPrice,
		CertHash: uint32(clearCert),
	})
}

// recordMutation mirrors newly committed vault events into the service's
// record list, assigns record ids, and writes the mutation through to the
// store. The in-memory vault is authoritative; a store failure is logged and
// the request still succeeds.
//
// The burned nonce is persisted unconditionally, not per absorbed event:
// under concurrent mutations a later caller can absorb an earlier caller's
// events, leaving the earlier caller with an empty diff, and its consumed
// nonce must still reach the store or it would replay after a restart.
func (s *VaultService) recordMutation(burned vault.NonceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Store != nil {
		if err := s.config.Store.SaveNonce(burned); err != nil {
			s.log.Error("Store write-through failed",
				"signer", burned.Signer.String(), "nonce", burned.Nonce, "err", err)
		}
	}

	all := s.vault.Events()
	for _, e := range all[len(s.events):] {
		rec := EventRecord{ID: uuid.NewString(), Event: e}
		s.events = append(s.events, rec)
		if err := s.persist(rec); err != nil {
			s.log.Error("Store write-through failed", "event", rec.ID, "err", err)
		}
	}
}

func (s *VaultService) persist(rec EventRecord) error {
	if s.config.Store == nil {
		return nil
	}

	switch rec.Kind {
	case vault.EventProductAdded:
		p, err := s.vault.ProductInfo(rec.ProductID)
		if err != nil {
			return err
		}
		if err := s.config.Store.SaveProduct(p); err != nil {
			return err
		}
	case vault.EventProductVerified:
		if err := s.config.Store.MarkVerified(rec.ProductID); err != nil {
			return err
		}
	}
	return s.config.Store.SaveEvent(rec)
}

func (s *VaultService) rejectMutation(w http.ResponseWriter, op string, err error) {
	metrics.RequestRejected(op, rejectionReason(err))
	s.log.Warn("Mutation rejected", "op", op, "err", err)
	writeVaultError(w, err)
}

func productIDParam(w http.ResponseWriter, req *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid product id: %w", err))
		return 0, false
	}
	return id, true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, vault.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, vault.ErrNonceUsed):
		return "nonce_used"
	case errors.Is(err, vault.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, vault.ErrProductNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func writeVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrProductNotFound), errors.Is(err, fhe.ErrUnknownHandle):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, vault.ErrInvalidSignature), errors.Is(err, fhe.ErrDecryptDenied):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, vault.ErrNonceUsed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, vault.ErrInvalidProof):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
