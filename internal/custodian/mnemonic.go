package custodian

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// DefaultDerivationBase is the BIP-44 Ethereum account prefix; the account index is appended.
const DefaultDerivationBase = "m/44'/60'/0'/0"

// MnemonicCustodian derives accounts from a BIP-39 mnemonic.
type MnemonicCustodian struct {
	wallet   *hdwallet.Wallet
	accounts []accounts.Account
}

// NewMnemonicCustodian derives count accounts at <DefaultDerivationBase>/i.
func NewMnemonicCustodian(mnemonic string, count int) (*MnemonicCustodian, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, errors.New("mnemonic is required")
	}
	if count < 1 {
		count = 1
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		// do not wrap: the error may quote mnemonic words
		return nil, errors.New("invalid mnemonic")
	}

	mc := &MnemonicCustodian{wallet: w}
	for i := 0; i < count; i++ {
		path, err := hdwallet.ParseDerivationPath(fmt.Sprintf("%s/%d", DefaultDerivationBase, i))
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path: %w", err)
		}
		acc, err := w.Derive(path, false)
		if err != nil {
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		mc.accounts = append(mc.accounts, acc)
	}
	return mc, nil
}

func (mc *MnemonicCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	out := make([]common.Address, 0, len(mc.accounts))
	for _, acc := range mc.accounts {
		out = append(out, acc.Address)
	}
	return out, nil
}

func (mc *MnemonicCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, acc := range mc.accounts {
		if acc.Address == account {
			return mc.wallet.PrivateKeyBytes(acc)
		}
	}
	return nil, ErrAccountNotFound
}
