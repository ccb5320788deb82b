// Command vaultctl is a client for a running vaultd instance.
//
// It signs upload and verify intents locally with a secp256k1 key, the same
// way a browser wallet would, and submits them over the JSON API.
//
// # Usage
//
//	vaultctl keygen
//	vaultctl add -url=http://localhost:8080 -key=<hex> -vault=<addr> -chain-id=31337 \
//	    -name="Aged Whisky" -image=https://... -price=1200 -cert-hash=777 -nonce=1
//	vaultctl verify -url=... -key=... -vault=... -chain-id=... -id=0 -nonce=2
//	vaultctl info -url=... -id=0
//	vaultctl list -url=... -seller=<addr>
//	vaultctl decrypt -url=... -key=... -id=0
//
// The vault address and chain id must match the running service: they are
// packed into every intent digest, so a signature produced against the wrong
// pair is rejected.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen()
	case "add":
		err = runAdd(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "decrypt":
		err = runDecrypt(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`vaultctl - proof vault client

Commands:
  keygen   Generate a new signing key and print it with its address
  add      Encrypt, sign, and register a product
  verify   Sign and submit a verification for a product
  info     Show a product's public record
  list     List a seller's product ids
  decrypt  Decrypt a product's price and certificate hash

Run 'vaultctl <command> -h' for command flags.
`)
}
