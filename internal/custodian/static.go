package custodian

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/yolodolo42/signproxy/internal/signer"
)

// StaticCustodian keeps keys in memory. Intended for development and tests.
type StaticCustodian struct {
	order []common.Address
	keys  map[common.Address][]byte
}

// NewStaticCustodian accepts hex private keys, with or without 0x prefix.
// Accounts are enumerated in argument order.
func NewStaticCustodian(hexKeys ...string) (*StaticCustodian, error) {
	s := &StaticCustodian{keys: make(map[common.Address][]byte)}
	for i, h := range hexKeys {
		h = strings.TrimSpace(h)
		if !strings.HasPrefix(h, "0x") && !strings.HasPrefix(h, "0X") {
			h = "0x" + h
		}
		key, err := hexutil.Decode(h)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, signer.ErrInvalidKey)
		}
		if err := s.Add(key); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
	}
	return s, nil
}

// Add registers a raw private key.
func (s *StaticCustodian) Add(key []byte) error {
	addr, err := signer.Address(key)
	if err != nil {
		return err
	}
	if _, exists := s.keys[addr]; !exists {
		s.order = append(s.order, addr)
	}
	s.keys[addr] = append([]byte(nil), key...)
	return nil
}

func (s *StaticCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	return append([]common.Address(nil), s.order...), nil
}

func (s *StaticCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, ok := s.keys[account]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return append([]byte(nil), key...), nil
}
