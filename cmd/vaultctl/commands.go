package main

import (
	"flag"
	"fmt"

	"github.com/water4699/holo-proof-vault/cmd/common"
	"github.com/water4699/holo-proof-vault/crypto"
	"github.com/water4699/holo-proof-vault/services"
	"github.com/water4699/holo-proof-vault/vault"
)

// intentFlags are the flags every signed mutation needs: where the service
// runs, which key signs, and the (vault, chain id) pair baked into digests.
type intentFlags struct {
	url     *string
	key     *string
	vault   *string
	chainID *uint64
}

func addIntentFlags(fs *flag.FlagSet) *intentFlags {
	return &intentFlags{
		url:     fs.String("url", "http://localhost:8080", "Base URL of the vaultd instance"),
		key:     fs.String("key", "", "Hex-encoded secp256k1 signing key (generates one if empty)"),
		vault:   fs.String("vault", "", "Vault identity address the digest is bound to"),
		chainID: fs.Uint64("chain-id", 31337, "Chain id the digest is bound to"),
	}
}

func (f *intentFlags) signer() (*crypto.PrivateKey, crypto.Address, error) {
	key, err := common.LoadOrGenerateSigningKey(*f.key)
	if err != nil {
		return nil, crypto.Address{}, err
	}
	if *f.key == "" {
		fmt.Printf("Generated signing key %s (address %s); pass it with -key to reuse the identity\n",
			key.String(), key.Address().String())
	}
	vaultAddr, err := crypto.NewAddressFromString(*f.vault)
	if err != nil {
		return nil, crypto.Address{}, fmt.Errorf("invalid -vault address: %w", err)
	}
	return key, vaultAddr, nil
}

func runKeygen() error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Printf("Private key: %s\n", key.String())
	fmt.Printf("Address:     %s\n", key.Address().String())
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	intent := addIntentFlags(fs)
	name := fs.String("name", "", "Product name")
	image := fs.String("image", "", "Product image URL")
	price := fs.Uint64("price", 0, "Product price (encrypted before upload)")
	certHash := fs.Uint64("cert-hash", 0, "Certificate hash (encrypted before upload)")
	nonce := fs.Uint64("nonce", 0, "Fresh nonce for this intent")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("missing -name")
	}
	key, vaultAddr, err := intent.signer()
	if err != nil {
		return err
	}

	client := common.NewClient(*intent.url)

	// The service's in-process backend produces the handles and proof. With a
	// real encryption network this step would run client-side instead.
	var input services.CreateInputResponse
	err = client.PostJSON("/inputs", &services.CreateInputRequest{
		Caller:   key.Address(),
		Price:    *price,
		CertHash: uint32(*certHash),
	}, &input)
	if err != nil {
		return fmt.Errorf("creating encrypted input: %w", err)
	}

	digest := vault.UploadDigest(*name, *nonce, vaultAddr, *intent.chainID)
	sig, err := key.SignMessage(digest)
	if err != nil {
		return err
	}

	var resp services.AddProductResponse
	err = client.PostJSON("/products", &services.AddProductRequest{
		Sender:      key.Address(),
		Name:        *name,
		ImageURL:    *image,
		PriceHandle: input.PriceHandle,
		CertHandle:  input.CertHandle,
		Proof:       input.Proof,
		Nonce:       *nonce,
		Signature:   sig,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("Product registered with id %d\n", resp.ProductID)
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	intent := addIntentFlags(fs)
	id := fs.Uint64("id", 0, "Product id to verify")
	nonce := fs.Uint64("nonce", 0, "Fresh nonce for this intent")
	fs.Parse(args)

	key, vaultAddr, err := intent.signer()
	if err != nil {
		return err
	}

	digest := vault.VerifyDigest(*id, *nonce, vaultAddr, *intent.chainID)
	sig, err := key.SignMessage(digest)
	if err != nil {
		return err
	}

	client := common.NewClient(*intent.url)
	err = client.PostJSON(fmt.Sprintf("/products/%d/verify", *id), &services.VerifyProductRequest{
		Sender:    key.Address(),
		Nonce:     *nonce,
		Signature: sig,
	}, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Product %d verified by %s\n", *id, key.Address().String())
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8080", "Base URL of the vaultd instance")
	id := fs.Uint64("id", 0, "Product id")
	fs.Parse(args)

	client := common.NewClient(*url)
	var resp services.ProductResponse
	if err := client.GetJSON(fmt.Sprintf("/products/%d", *id), &resp); err != nil {
		return err
	}

	fmt.Printf("Product %d\n", resp.ID)
	fmt.Printf("  Name:     %s\n", resp.Name)
	fmt.Printf("  Image:    %s\n", resp.ImageURL)
	fmt.Printf("  Seller:   %s\n", resp.Seller.String())
	fmt.Printf("  Created:  %d\n", resp.Timestamp)
	fmt.Printf("  Verified: %t\n", resp.Verified)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8080", "Base URL of the vaultd instance")
	seller := fs.String("seller", "", "Seller address")
	fs.Parse(args)

	if *seller == "" {
		return fmt.Errorf("missing -seller")
	}
	if _, err := crypto.NewAddressFromString(*seller); err != nil {
		return fmt.Errorf("invalid -seller address: %w", err)
	}

	client := common.NewClient(*url)
	var resp services.SellerProductsResponse
	if err := client.GetJSON("/sellers/"+*seller+"/products", &resp); err != nil {
		return err
	}

	if len(resp.Products) == 0 {
		fmt.Printf("No products for %s\n", resp.Seller.String())
		return nil
	}
	fmt.Printf("Products for %s:\n", resp.Seller.String())
	for _, id := range resp.Products {
		fmt.Printf("  %d\n", id)
	}
	return nil
}

func runDecrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8080", "Base URL of the vaultd instance")
	keyHex := fs.String("key", "", "Hex-encoded secp256k1 signing key")
	id := fs.Uint64("id", 0, "Product id")
	fs.Parse(args)

	if *keyHex == "" {
		return fmt.Errorf("missing -key")
	}
	key, err := crypto.NewPrivateKeyFromString(*keyHex)
	if err != nil {
		return err
	}

	client := common.NewClient(*url)
	var resp services.DecryptResponse
	err = client.PostJSON(fmt.Sprintf("/products/%d/decrypt", *id),
		&services.DecryptRequest{Requester: key.Address()}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("Price:            %d\n", resp.Price)
	fmt.Printf("Certificate hash: %d\n", resp.CertHash)
	return nil
}
