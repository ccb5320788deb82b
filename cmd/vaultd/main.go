// Command vaultd runs a standalone proof vault service.
//
// The service hosts the signature-gated product registry behind a JSON API,
// with an in-process mock encryption backend and optional PostgreSQL
// persistence.
//
// # Configuration File
//
// Create a YAML file with service settings:
//
//	http_addr: ":8080"
//	metrics_addr: ":9090"
//	pprof: false
//	chain_id: 31337
//	vault_address: "0x1b5e3a0f..."
//	postgres:
//	  host: localhost
//	  port: 5432
//	  user: vault
//	  password: secret
//	  database: vault
//
// # Endpoints
//
// Mutations (signed intents):
//   - POST /products - Register a product
//   - POST /products/{id}/verify - Verify a product
//
// Reads:
//   - GET /products/count, /products/{id}, /products/{id}/encrypted,
//     /products/{id}/exists, /sellers/{address}/products,
//     /nonces/{address}/{nonce}, /events
//
// Operational:
//   - GET /livez, /readyz, /drain, /undrain, /metrics (separate listener)
//
// # Usage
//
//	go run ./cmd/vaultd --config=vaultd.yaml
//	go run ./cmd/vaultd --addr=:8080 --chain-id=31337
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/water4699/holo-proof-vault/api/httpserver"
	"github.com/water4699/holo-proof-vault/cmd/common"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/fhe"
	"github.com/water4699/holo-proof-vault/services"
	"github.com/water4699/holo-proof-vault/vault"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML config file")
		addr         = flag.String("addr", "", "HTTP listen address")
		metricsAddr  = flag.String("metrics-addr", "", "Metrics listen address (empty disables)")
		enablePprof  = flag.Bool("pprof", false, "Enable pprof debugging API")
		chainID      = flag.Uint64("chain-id", 0, "Network identity baked into intent digests")
		vaultAddress = flag.String("vault-address", "", "Vault identity address (hex, generates if empty)")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *enablePprof {
		cfg.EnablePprof = true
	}
	if *chainID != 0 {
		cfg.ChainID = *chainID
	}
	if *vaultAddress != "" {
		cfg.VaultAddress = *vaultAddress
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func run(cfg *common.Config) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	vaultAddr, err := resolveVaultAddress(cfg.VaultAddress, log)
	if err != nil {
		return err
	}

	backend := fhe.NewMockBackend()
	v, err := vault.New(vault.Config{
		Address: vaultAddr,
		ChainID: cfg.ChainID,
		Backend: backend,
	})
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}

	serviceConfig := &services.VaultServiceConfig{
		Encryptor: backend,
		Log:       log,
	}
	if cfg.Postgres != nil {
		store, err := services.NewPostgresStore(&services.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer store.Close()
		serviceConfig.Store = store
	}

	svc, err := services.NewVaultService(v, backend, serviceConfig)
	if err != nil {
		return fmt.Errorf("creating vault service: %w", err)
	}

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, svc)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("Vault service starting",
		"addr", cfg.HTTPAddr, "vault", vaultAddr.String(), "chainId", cfg.ChainID)
	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down vault service")
	srv.Shutdown()
	return nil
}

// resolveVaultAddress parses the configured identity, or derives a fresh one
// when none is configured. Signatures only validate against the address the
// signers used, so production deployments must pin it.
func resolveVaultAddress(configured string, log *slog.Logger) (crypto.Address, error) {
	if configured != "" {
		addr, err := crypto.NewAddressFromString(configured)
		if err != nil {
			return crypto.Address{}, fmt.Errorf("invalid vault address: %w", err)
		}
		return addr, nil
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return crypto.Address{}, err
	}
	addr := key.Address()
	log.Warn("No vault address configured, generated one; clients must sign against it",
		"vault", addr.String())
	return addr, nil
}
