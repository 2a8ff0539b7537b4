package digest

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalDigest(t *testing.T) {
	t.Run("prefixes hello with its length", func(t *testing.T) {
		expected := crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n5hello"))
		assert.Equal(t, expected, PersonalDigest([]byte("hello")))
	})

	t.Run("matches known vector", func(t *testing.T) {
		got := PersonalDigest([]byte("Some data"))
		assert.Equal(t, common.HexToHash("0x1da44b586eb0729ff70a73c326926f6ed5a25f5b056e7f47fbc6e58d86871655"), got)
	})

	t.Run("agrees with go-ethereum TextHash", func(t *testing.T) {
		for _, msg := range []string{"", "a", "hello", "Hello, Ethereum!", string(make([]byte, 1000))} {
			assert.Equal(t, accounts.TextHash([]byte(msg)), PersonalDigest([]byte(msg)).Bytes(), "message %q", msg)
		}
	})

	t.Run("accepts empty message", func(t *testing.T) {
		expected := crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n0"))
		assert.Equal(t, expected, PersonalDigest(nil))
		assert.Equal(t, expected, PersonalDigest([]byte{}))
	})

	t.Run("is deterministic and 32 bytes", func(t *testing.T) {
		msg := []byte("deterministic")
		first := PersonalDigest(msg)
		second := PersonalDigest(msg)
		assert.Equal(t, first, second)
		assert.Len(t, first.Bytes(), 32)
	})

	t.Run("binds the prefix to the message length", func(t *testing.T) {
		// Without the length, "ab" and "a"+"b" under a shifted prefix would hash alike.
		unbound := crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n"), []byte("ab"))
		assert.NotEqual(t, unbound, PersonalDigest([]byte("ab")))

		// "\n1" + "1a" and "\n11" + "a" concatenate to the same bytes; only one is a valid encoding.
		assert.NotEqual(t, PersonalDigest([]byte("1a")), crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n11a")))
		assert.NotEqual(t, PersonalDigest([]byte("a")), PersonalDigest([]byte("1a")))
	})

	t.Run("different lengths give different digests", func(t *testing.T) {
		seen := map[common.Hash]string{}
		for _, msg := range []string{"", "a", "ab", "abc", "1", "11", "111", "hello", "hello!"} {
			h := PersonalDigest([]byte(msg))
			prev, dup := seen[h]
			require.False(t, dup, "%q collides with %q", msg, prev)
			seen[h] = msg
		}
	})
}
