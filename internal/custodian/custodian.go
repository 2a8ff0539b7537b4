// Package custodian holds private key material on behalf of the signing
// service. The service only ever sees the KeyCustodian capability.
package custodian

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNoAccounts      = errors.New("custodian has no accounts")
)

// KeyCustodian enumerates accounts and exports their raw 32-byte private keys.
// ExportPrivateKey may block (prompting, decryption, remote I/O) and returns a
// buffer the caller owns and is expected to zero.
type KeyCustodian interface {
	ListAccounts(ctx context.Context) ([]common.Address, error)
	ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error)
}

// Type names a custodian backend in configuration.
type Type string

const (
	TypeKeystore    Type = "keystore"
	TypeMnemonic    Type = "mnemonic"
	TypeSecretStore Type = "secretstore"
	TypeStatic      Type = "static"
)

// Locked serializes every call to c. Use it for backends that are not safe
// for concurrent use.
func Locked(c KeyCustodian) KeyCustodian {
	return &lockedCustodian{inner: c}
}

type lockedCustodian struct {
	mu    sync.Mutex
	inner KeyCustodian
}

func (l *lockedCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.ListAccounts(ctx)
}

func (l *lockedCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.ExportPrivateKey(ctx, account)
}

// Zero overwrites exported key material.
func Zero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
