package custodian

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/yolodolo42/signproxy/internal/signer"
)

var accountPrefix = []byte("account/")

// SecretStoreCustodian keeps raw keys in a Badger database, encrypted at rest
// when an encryption key is supplied. Accounts enumerate in address order.
type SecretStoreCustodian struct {
	db *badger.DB
}

type SecretStoreOptions struct {
	Path          string
	EncryptionKey []byte // 16, 24 or 32 bytes; nil opens without encryption
	InMemory      bool
}

func OpenSecretStore(opts SecretStoreOptions) (*SecretStoreCustodian, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	if len(opts.EncryptionKey) > 0 {
		// Badger requires an index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("secretstore: open: %w", err)
	}
	return &SecretStoreCustodian{db: db}, nil
}

func (s *SecretStoreCustodian) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func accountKey(addr common.Address) []byte {
	return append(append([]byte(nil), accountPrefix...), strings.ToLower(addr.Hex())...)
}

// Import stores a raw private key and returns its address.
func (s *SecretStoreCustodian) Import(privateKey []byte) (common.Address, error) {
	addr, err := signer.Address(privateKey)
	if err != nil {
		return common.Address{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(addr), append([]byte(nil), privateKey...))
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("secretstore: write: %w", err)
	}
	return addr, nil
}

func (s *SecretStoreCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(accountPrefix); it.ValidForPrefix(accountPrefix); it.Next() {
			k := it.Item().KeyCopy(nil)
			out = append(out, common.HexToAddress(string(k[len(accountPrefix):])))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("secretstore: list: %w", err)
	}
	return out, nil
}

func (s *SecretStoreCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var key []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(account))
		if err != nil {
			return err
		}
		key, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("secretstore: read: %w", err)
	}
	return key, nil
}
