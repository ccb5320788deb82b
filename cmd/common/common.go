// Package common provides shared utilities for the proof vault CLI commands.
//
// This package contains helper functions used across the standalone binaries
// (vaultd, vaultctl) to reduce code duplication:
//
//   - Key loading and generation for secp256k1 signing keys
//   - YAML configuration loading for the service binary
//   - A thin HTTP client for vaultctl's requests against a running vaultd
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/water4699/holo-proof-vault/crypto"
)

// LoadOrGenerateSigningKey loads a secp256k1 private key from a hex string,
// or generates a new key if hexKey is empty.
func LoadOrGenerateSigningKey(hexKey string) (*crypto.PrivateKey, error) {
	if hexKey != "" {
		key, err := crypto.NewPrivateKeyFromString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		return key, nil
	}
	return crypto.GenerateKey()
}

// PostgresSettings mirrors services.PostgresConfig for YAML configuration.
type PostgresSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Config holds the vaultd service configuration.
type Config struct {
	HTTPAddr     string            `yaml:"http_addr"`
	MetricsAddr  string            `yaml:"metrics_addr"`
	EnablePprof  bool              `yaml:"pprof"`
	ChainID      uint64            `yaml:"chain_id"`
	VaultAddress string            `yaml:"vault_address"`
	Postgres     *PostgresSettings `yaml:"postgres"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: ":8080",
		ChainID:  31337,
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Client is a minimal JSON client for a running vaultd instance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the given vaultd base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(path string, out any) error {
	resp, err := c.HTTP.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// PostJSON posts body to path and decodes the response into out.
// A nil out discards the response body.
func (c *Client) PostJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Post(c.BaseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
