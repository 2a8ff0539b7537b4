// Package signer produces deterministic recoverable secp256k1 signatures.
package signer

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/yolodolo42/signproxy/internal/signature"
)

// KeyLength is the size of a raw secp256k1 private scalar.
const KeyLength = 32

var (
	// ErrInvalidKey never carries key material in its message.
	ErrInvalidKey = errors.New("invalid private key")
	ErrSignFailed = errors.New("signing failed")
)

// ParsePrivateKey validates a raw 32-byte scalar in [1, N).
func ParsePrivateKey(privateKey []byte) (*ecdsa.PrivateKey, error) {
	if len(privateKey) != KeyLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeyLength, len(privateKey))
	}
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidKey)
	}
	return key, nil
}

// Sign signs digest with privateKey. Nonces are derived per RFC 6979, so the
// same inputs always produce the same triple. V is returned in the 27/28 form.
func Sign(digest common.Hash, privateKey []byte) (signature.Triple, error) {
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return signature.Triple{}, err
	}
	defer zeroKey(key)
	return SignECDSA(digest, key)
}

// SignECDSA is Sign for an already parsed key.
func SignECDSA(digest common.Hash, key *ecdsa.PrivateKey) (signature.Triple, error) {
	raw, err := crypto.Sign(digest[:], key)
	if err != nil {
		return signature.Triple{}, fmt.Errorf("%w: %v", ErrSignFailed, err)
	}

	// The recovery id must lead back to our own public key.
	pub, err := crypto.Ecrecover(digest[:], raw)
	if err != nil {
		return signature.Triple{}, fmt.Errorf("%w: %v", ErrSignFailed, err)
	}
	if !bytes.Equal(pub, crypto.FromECDSAPub(&key.PublicKey)) {
		return signature.Triple{}, fmt.Errorf("%w: recovery id does not match signer", ErrSignFailed)
	}

	raw[64] += signature.RecoveryOffset
	t, err := signature.FromBytes(raw)
	if err != nil {
		return signature.Triple{}, fmt.Errorf("%w: %v", ErrSignFailed, err)
	}
	if err := t.Validate(); err != nil {
		return signature.Triple{}, fmt.Errorf("%w: %v", ErrSignFailed, err)
	}
	return t, nil
}

// Address derives the account address of a raw private key.
func Address(privateKey []byte) (common.Address, error) {
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return common.Address{}, err
	}
	defer zeroKey(key)
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func zeroKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetInt64(0)
	}
}
