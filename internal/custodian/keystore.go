package custodian

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/yolodolo42/signproxy/internal/signer"
)

// KeystoreCustodian serves keys from a go-ethereum encrypted keystore
// directory. Every account is unlocked with the same passphrase.
type KeystoreCustodian struct {
	ks         *keystore.KeyStore
	dataDir    string
	passphrase string
}

// NewKeystoreCustodian opens <dataDir>/keystore with the standard scrypt parameters.
func NewKeystoreCustodian(dataDir, passphrase string) (*KeystoreCustodian, error) {
	return NewKeystoreCustodianWithScrypt(dataDir, passphrase, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewKeystoreCustodianWithScrypt is NewKeystoreCustodian with explicit scrypt cost.
// keystore.LightScryptN/P keep tests fast.
func NewKeystoreCustodianWithScrypt(dataDir, passphrase string, scryptN, scryptP int) (*KeystoreCustodian, error) {
	keystoreDir := filepath.Join(dataDir, "keystore")
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	return &KeystoreCustodian{
		ks:         keystore.NewKeyStore(keystoreDir, scryptN, scryptP),
		dataDir:    dataDir,
		passphrase: passphrase,
	}, nil
}

// CreateAccount creates a new account encrypted with password
func (kc *KeystoreCustodian) CreateAccount(password string) (accounts.Account, error) {
	return kc.ks.NewAccount(password)
}

// ImportKey imports a hex private key and encrypts it with password
func (kc *KeystoreCustodian) ImportKey(privateKeyHex string, password string) (accounts.Account, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		// The decode error may echo key characters; keep it out of the message.
		return accounts.Account{}, signer.ErrInvalidKey
	}

	return kc.ks.ImportECDSA(privateKey, password)
}

// Accounts returns the keystore accounts including their file URLs
func (kc *KeystoreCustodian) Accounts() []accounts.Account {
	return kc.ks.Accounts()
}

// ListAccounts returns account addresses in keystore order (sorted by file name,
// which starts with the creation timestamp).
func (kc *KeystoreCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	accs := kc.ks.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.Address)
	}
	return out, nil
}

// ExportPrivateKey decrypts the key file of account with the configured passphrase.
func (kc *KeystoreCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var target *accounts.Account
	for _, acc := range kc.ks.Accounts() {
		if acc.Address == account {
			target = &acc
			break
		}
	}
	if target == nil {
		return nil, ErrAccountNotFound
	}

	keyJSON, err := kc.ks.Export(*target, kc.passphrase, kc.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to export key: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, kc.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key: %w", err)
	}
	defer key.PrivateKey.D.SetInt64(0)

	return crypto.FromECDSA(key.PrivateKey), nil
}
