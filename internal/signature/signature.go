// Package signature serializes recoverable secp256k1 signatures in the
// r || s || v layout expected by ecrecover and wallet verifiers.
package signature

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Length is the size of an encoded signature in bytes.
const Length = 65

// EncodedLength is the size of the hex rendering, including the 0x prefix.
const EncodedLength = 2 + 2*Length

// RecoveryOffset is added to the raw recovery id (0/1) to produce the
// 27/28 form that web3 verifiers and the ecrecover precompile expect.
const RecoveryOffset = 27

var (
	ErrMalformedSignature = errors.New("malformed signature")
	ErrInvalidSignature   = errors.New("invalid signature")
)

var secp256k1N = crypto.S256().Params().N

// Triple is a recoverable ECDSA signature.
type Triple struct {
	V byte
	R [32]byte
	S [32]byte
}

// Bytes returns r || s || v.
func (t Triple) Bytes() []byte {
	out := make([]byte, 0, Length)
	out = append(out, t.R[:]...)
	out = append(out, t.S[:]...)
	return append(out, t.V)
}

// RecoveryID returns v normalized to 0 or 1.
func (t Triple) RecoveryID() (byte, error) {
	switch t.V {
	case 0, 1:
		return t.V, nil
	case RecoveryOffset, RecoveryOffset + 1:
		return t.V - RecoveryOffset, nil
	}
	return 0, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, t.V)
}

// Validate checks that r and s are in [1, N) and v is a known recovery id.
func (t Triple) Validate() error {
	for name, scalar := range map[string][32]byte{"r": t.R, "s": t.S} {
		n := new(big.Int).SetBytes(scalar[:])
		if n.Sign() == 0 || n.Cmp(secp256k1N) >= 0 {
			return fmt.Errorf("%w: %s out of range", ErrInvalidSignature, name)
		}
	}
	_, err := t.RecoveryID()
	return err
}

// Encode renders t as a 0x-prefixed hex string of EncodedLength characters.
func Encode(t Triple) string {
	return hexutil.Encode(t.Bytes())
}

// FromBytes splits a 65-byte r || s || v buffer.
func FromBytes(b []byte) (Triple, error) {
	if len(b) != Length {
		return Triple{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedSignature, len(b), Length)
	}
	var t Triple
	copy(t.R[:], b[:32])
	copy(t.S[:], b[32:64])
	t.V = b[64]
	return t, nil
}

// Decode parses the output of Encode.
func Decode(encoded string) (Triple, error) {
	b, err := hexutil.Decode(encoded)
	if err != nil {
		return Triple{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return FromBytes(b)
}

// Recover returns the address that produced t over digest.
func Recover(digest common.Hash, t Triple) (common.Address, error) {
	if err := t.Validate(); err != nil {
		return common.Address{}, err
	}
	sig := t.Bytes()
	sig[64], _ = t.RecoveryID()
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether t over digest was produced by address.
func Verify(digest common.Hash, t Triple, address common.Address) (bool, error) {
	recovered, err := Recover(digest, t)
	if err != nil {
		return false, err
	}
	return recovered == address, nil
}
