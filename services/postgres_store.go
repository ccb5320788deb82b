package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/vault"
)

// PostgresStore implements VaultStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL,
		seller VARCHAR(42) NOT NULL,
		created_at_unix BIGINT NOT NULL,
		encrypted_price VARCHAR(66) NOT NULL,
		encrypted_cert_hash VARCHAR(66) NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller);

	CREATE TABLE IF NOT EXISTS used_nonces (
		signer VARCHAR(42) NOT NULL,
		nonce BIGINT NOT NULL,
		PRIMARY KEY (signer, nonce)
	);

	CREATE TABLE IF NOT EXISTS events (
		id VARCHAR(36) PRIMARY KEY,
		position BIGSERIAL,
		kind VARCHAR(32) NOT NULL,
		product_id BIGINT NOT NULL,
		account VARCHAR(42) NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		occurred_at_unix BIGINT NOT NULL
	);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveProduct persists a newly created product record.
func (s *PostgresStore) SaveProduct(p vault.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO products (id, name, image_url, seller, created_at_unix, encrypted_price, encrypted_cert_hash, verified)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		int64(p.ID),
		p.Name,
		p.ImageURL,
		p.Seller.String(),
		int64(p.Timestamp),
		p.EncryptedPrice.String(),
		p.EncryptedCertHash.String(),
		p.Verified,
	)
	return err
}

// MarkVerified flips the verified flag on a persisted product.
func (s *PostgresStore) MarkVerified(productID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "UPDATE products SET verified = TRUE WHERE id = $1", int64(productID))
	return err
}

// SaveNonce persists a consumed (signer, nonce) pair.
func (s *PostgresStore) SaveNonce(n vault.NonceRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO used_nonces (signer, nonce) VALUES ($1, $2)
	ON CONFLICT (signer, nonce) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, n.Signer.String(), int64(n.Nonce))
	return err
}

// SaveEvent persists an event under its record id.
func (s *PostgresStore) SaveEvent(rec EventRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO events (id, kind, product_id, account, name, occurred_at_unix)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Kind),
		int64(rec.ProductID),
		rec.Account.String(),
		rec.Name,
		int64(rec.Timestamp),
	)
	return err
}

// Load retrieves all persisted state for rehydration at boot.
func (s *PostgresStore) Load() (vault.Snapshot, []EventRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var snap vault.Snapshot

	products, err := s.loadProducts(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("loading products: %w", err)
	}
	snap.Products = products

	nonces, err := s.loadNonces(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("loading nonces: %w", err)
	}
	snap.Nonces = nonces

	records, err := s.loadEvents(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("loading events: %w", err)
	}
	for _, rec := range records {
		snap.Events = append(snap.Events, rec.Event)
	}

	return snap, records, nil
}

func (s *PostgresStore) loadProducts(ctx context.Context) ([]vault.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_url, seller, created_at_unix, encrypted_price, encrypted_cert_hash, verified
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []vault.Product
	for rows.Next() {
		var (
			id, createdAt       int64
			name, imageURL      string
			seller, price, cert string
			verified            bool
		)
		if err := rows.Scan(&id, &name, &imageURL, &seller, &createdAt, &price, &cert, &verified); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}

		sellerAddr, err := crypto.NewAddressFromString(seller)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", id, err)
		}
		priceHandle, err := fhe.NewHandleFromString(price)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", id, err)
		}
		certHandle, err := fhe.NewHandleFromString(cert)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", id, err)
		}

		products = append(products, vault.Product{
			ID:                uint64(id),
			Name:              name,
			ImageURL:          imageURL,
			Seller:            sellerAddr,
			Timestamp:         uint64(createdAt),
			EncryptedPrice:    priceHandle,
			EncryptedCertHash: certHandle,
			Verified:          verified,
		})
	}
	return products, rows.Err()
}

func (s *PostgresStore) loadNonces(ctx context.Context) ([]vault.NonceRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT signer, nonce FROM used_nonces")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nonces []vault.NonceRecord
	for rows.Next() {
		var (
			signer string
			nonce  int64
		)
		if err := rows.Scan(&signer, &nonce); err != nil {
			return nil, fmt.Errorf("scanning nonce row: %w", err)
		}
		addr, err := crypto.NewAddressFromString(signer)
		if err != nil {
			return nil, err
		}
		nonces = append(nonces, vault.NonceRecord{Signer: addr, Nonce: uint64(nonce)})
	}
	return nonces, rows.Err()
}

func (s *PostgresStore) loadEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, product_id, account, name, occurred_at_unix
		FROM events ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var (
			id, kind, account, name string
			productID, occurredAt   int64
		)
		if err := rows.Scan(&id, &kind, &productID, &account, &name, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		addr, err := crypto.NewAddressFromString(account)
		if err != nil {
			return nil, err
		}
		records = append(records, EventRecord{
			ID: id,
			Event: vault.Event{
				Kind:      vault.EventKind(kind),
				ProductID: uint64(productID),
				Account:   addr,
				Name:      name,
				Timestamp: uint64(occurredAt),
			},
		})
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
