package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// RecoverSigner recovers the address that produced a 65-byte [R || S || V]
// signature over the given digest.
//
// The signature must be in canonical form: exactly 65 bytes, V one of
// {0, 1, 27, 28}, and R and S each nonzero and below the curve order. Anything
// else fails with ErrInvalidSignature. These checks are deliberate rather than
// best-effort parsing; lax signature decoding is how cross-format replay bugs
// happen.
func RecoverSigner(digest [32]byte, sig Signature) (Address, error) {
	if len(sig) != SignatureLength {
		return Address{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidSignature, len(sig), SignatureLength)
	}

	v := sig[64]
	if v == 27 || v == 28 {
		v -= 27
	}
	if v > 1 {
		return Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[64])
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return Address{}, fmt.Errorf("%w: r out of range", ErrInvalidSignature)
	}
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsZero() {
		return Address{}, fmt.Errorf("%w: s out of range", ErrInvalidSignature)
	}

	// RecoverCompact expects [V || R || S] with V offset by 27.
	compact := make([]byte, SignatureLength)
	compact[0] = v + 27
	copy(compact[1:], sig[:64])

	pub, _, err := secpecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return pubKeyToAddress(pub), nil
}

// RecoverMessageSigner recovers the signer of an EIP-191 personal-message
// signature over a 32-byte intent hash.
func RecoverMessageSigner(hash [32]byte, sig Signature) (Address, error) {
	return RecoverSigner(PersonalDigest(hash), sig)
}
