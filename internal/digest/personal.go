// Package digest builds the 32-byte payloads that get signed: EIP-191 personal
// messages and the versioned typed-data encodings.
package digest

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// personalPrefix is followed by the decimal byte length of the message, so a
// personal signature can never be replayed as a transaction or typed-data signature.
const personalPrefix = "\x19Ethereum Signed Message:\n"

// PersonalDigest returns Keccak256(prefix || len(message) || message).
// Any message length is accepted, including zero.
func PersonalDigest(message []byte) common.Hash {
	prefix := personalPrefix + strconv.Itoa(len(message))
	return crypto.Keccak256Hash([]byte(prefix), message)
}
