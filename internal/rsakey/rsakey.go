// Package rsakey wraps the RSA public key the login codec uses to encrypt
// the secure login block. The bot client only ever needs the public half
// of a key pair — the matching private key lives on the game server.
package rsakey

import (
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"math/big"
)

// FromHexModulus builds an *rsa.PublicKey from a hex-encoded modulus and an
// exponent, as loaded from a Config's YAML rsa block.
func FromHexModulus(modulusHex string, exponent int) (*rsa.PublicKey, error) {
	if modulusHex == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(modulusHex)
	if err != nil {
		return nil, fmt.Errorf("rsakey: decoding modulus: %w", err)
	}
	if exponent <= 0 {
		return nil, fmt.Errorf("rsakey: exponent must be positive, got %d", exponent)
	}
	n := new(big.Int).SetBytes(raw)
	return &rsa.PublicKey{N: n, E: exponent}, nil
}
