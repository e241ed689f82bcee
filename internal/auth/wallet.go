package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// VerifyWalletSignature checks that signature is the ed25519 signature of
// message by the Solana wallet address (base58 public key). Signatures are
// accepted base58 or hex encoded.
func VerifyWalletSignature(walletAddress, signature string, message []byte) error {
	if len(walletAddress) < 32 || len(walletAddress) > 44 {
		return ErrInvalidWallet
	}

	pubKey, err := base58.Decode(walletAddress)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		return ErrInvalidWallet
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		sig, err = hex.DecodeString(signature)
		if err != nil || len(sig) != ed25519.SignatureSize {
			return ErrInvalidSignature
		}
	}

	if !ed25519.Verify(pubKey, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}
