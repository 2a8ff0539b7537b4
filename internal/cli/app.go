package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/yolodolo42/signproxy/internal/chain"
	"github.com/yolodolo42/signproxy/internal/config"
	"github.com/yolodolo42/signproxy/internal/custodian"
	"github.com/yolodolo42/signproxy/internal/service"
	"golang.org/x/term"
)

// openCustodian builds the configured backend. The returned close func is never nil.
func openCustodian(cfg config.CustodianConfig) (custodian.KeyCustodian, func() error, error) {
	noop := func() error { return nil }

	switch custodian.Type(cfg.Type) {
	case custodian.TypeKeystore:
		kc, err := custodian.NewKeystoreCustodian(cfg.DataDir, cfg.Passphrase)
		if err != nil {
			return nil, noop, err
		}
		return kc, noop, nil
	case custodian.TypeMnemonic:
		mc, err := custodian.NewMnemonicCustodian(cfg.Mnemonic, cfg.Accounts)
		if err != nil {
			return nil, noop, err
		}
		return custodian.Locked(mc), noop, nil
	case custodian.TypeSecretStore:
		key, err := cfg.EncryptionKeyBytes()
		if err != nil {
			return nil, noop, err
		}
		store, err := custodian.OpenSecretStore(custodian.SecretStoreOptions{
			Path:          filepath.Join(cfg.DataDir, "secretstore"),
			EncryptionKey: key,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case custodian.TypeStatic:
		sc, err := custodian.NewStaticCustodian(cfg.Keys...)
		if err != nil {
			return nil, noop, err
		}
		return sc, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown custodian type %q", cfg.Type)
}

// newService wires the custodian, chain guard and logger into a signing service.
func newService(cfg *config.Config, logger logrus.FieldLogger) (*service.Service, func() error, error) {
	kc, closeFn, err := openCustodian(cfg.Custodian)
	if err != nil {
		return nil, closeFn, fmt.Errorf("failed to open %s custodian: %w", cfg.Custodian.Type, err)
	}

	opts := []service.Option{service.WithLogger(logger)}
	chainID, err := chain.Resolve(cfg.Chain)
	if err != nil {
		_ = closeFn()
		return nil, func() error { return nil }, err
	}
	if chainID != nil {
		opts = append(opts, service.WithChainID(chainID))
	}
	return service.New(kc, opts...), closeFn, nil
}

// ensurePassphrase prompts for the keystore passphrase when none is configured
// and stdin is a terminal.
func ensurePassphrase(cfg *config.Config) error {
	if custodian.Type(cfg.Custodian.Type) != custodian.TypeKeystore || cfg.Custodian.Passphrase != "" {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	password, err := readPassword("Keystore passphrase: ")
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	cfg.Custodian.Passphrase = password
	return nil
}
