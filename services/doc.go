/*
# Proof Vault Services Package

The services package exposes the vault core over HTTP for real-world deployment.

## Overview

This package wraps the vault.Vault ledger with a chi-routed JSON API, enabling:
  - Signed-intent submission from browser wallets and CLI clients
  - Public reads of the registry and replay state
  - Optional PostgreSQL write-through persistence
  - Monitoring through structured logs and operation counters

## Endpoints

Mutations (signed intents):
  - `POST /products` - Register a product from a signed upload intent
  - `POST /products/{id}/verify` - Verify a product from a signed verify intent

Reads (public):
  - `GET /products/count` - Total products issued
  - `GET /products/{id}` - Product record
  - `GET /products/{id}/encrypted` - Ciphertext handles
  - `GET /products/{id}/exists` - Existence check
  - `GET /sellers/{address}/products` - Seller's product ids in creation order
  - `GET /nonces/{address}/{nonce}` - Replay state for a (signer, nonce) pair
  - `GET /events` - Recorded ProductAdded / ProductVerified events

Encryption backend passthrough (local deployments with the in-process mock):
  - `POST /inputs` - Create an encrypted input (handles + proof)
  - `POST /products/{id}/decrypt` - Decrypt a product's fields for a requester

## Persistence

VaultStore abstracts durable storage. PostgresStore implements it on lib/pq
with an inline migration. The in-memory vault remains authoritative: writes go
through after a mutation commits, and a populated store rehydrates the vault at
boot via vault.Restore.

## Error Mapping

The vault's sentinel errors map onto HTTP statuses:
  - invalid signature -> 403
  - nonce already used -> 409
  - invalid input proof -> 400
  - product does not exist -> 404
  - decryption denied -> 403
*/
package services
