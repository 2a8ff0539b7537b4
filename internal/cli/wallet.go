package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/signproxy/internal/config"
	"github.com/yolodolo42/signproxy/internal/custodian"
	"github.com/yolodolo42/signproxy/internal/signer"
	"github.com/yolodolo42/signproxy/internal/ui"
	"golang.org/x/term"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage custodian accounts",
	Long:  `Create, import and list the accounts held by the configured key custodian.`,
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account (keystore or secretstore)",
	RunE:  runWalletCreate,
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an account from a private key (keystore or secretstore)",
	RunE:  runWalletImport,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custodian accounts; the first one signs",
	RunE:  runWalletList,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)

	walletImportCmd.Flags().String("key", "", "Private key to import (hex, with or without 0x prefix)")
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// newPassword returns the configured passphrase or asks for a new one twice.
func newPassword(cfg *config.Config) (string, error) {
	if cfg.Custodian.Passphrase != "" {
		return cfg.Custodian.Passphrase, nil
	}

	password, err := readPassword("Enter keystore passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	confirm, err := readPassword("Confirm passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func openSecretStore(cfg *config.Config) (*custodian.SecretStoreCustodian, error) {
	key, err := cfg.Custodian.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	return custodian.OpenSecretStore(custodian.SecretStoreOptions{
		Path:          filepath.Join(cfg.Custodian.DataDir, "secretstore"),
		EncryptionKey: key,
	})
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch custodian.Type(cfg.Custodian.Type) {
	case custodian.TypeKeystore:
		kc, err := custodian.NewKeystoreCustodian(cfg.Custodian.DataDir, cfg.Custodian.Passphrase)
		if err != nil {
			return fmt.Errorf("failed to initialize keystore: %w", err)
		}
		password, err := newPassword(cfg)
		if err != nil {
			return err
		}
		account, err := kc.CreateAccount(password)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Wallet created"))
		fmt.Fprintln(out, ui.Field("Address", account.Address.Hex(), 8))
		fmt.Fprintln(out, ui.Field("Keystore", account.URL.Path, 8))
		fmt.Fprintln(out, "\nIMPORTANT: Back up your keystore file and remember your passphrase!")
		return nil

	case custodian.TypeSecretStore:
		store, err := openSecretStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		raw := crypto.FromECDSA(key)
		defer custodian.Zero(raw)
		addr, err := store.Import(raw)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success("Wallet created"))
		fmt.Fprintln(out, ui.Field("Address", addr.Hex(), 8))
		return nil
	}
	return fmt.Errorf("custodian %q does not support creating accounts", cfg.Custodian.Type)
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	privateKey, _ := cmd.Flags().GetString("key")

	if privateKey == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("private key is required")
		}
		input, err := readPassword("Enter private key (hex): ")
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		privateKey = strings.TrimSpace(input)
	}

	if privateKey == "" {
		return fmt.Errorf("private key is required")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch custodian.Type(cfg.Custodian.Type) {
	case custodian.TypeKeystore:
		kc, err := custodian.NewKeystoreCustodian(cfg.Custodian.DataDir, cfg.Custodian.Passphrase)
		if err != nil {
			return fmt.Errorf("failed to initialize keystore: %w", err)
		}
		password, err := newPassword(cfg)
		if err != nil {
			return err
		}
		account, err := kc.ImportKey(privateKey, password)
		if err != nil {
			return fmt.Errorf("failed to import key: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Wallet imported"))
		fmt.Fprintln(out, ui.Field("Address", account.Address.Hex(), 8))
		fmt.Fprintln(out, ui.Field("Keystore", account.URL.Path, 8))
		return nil

	case custodian.TypeSecretStore:
		if !strings.HasPrefix(privateKey, "0x") {
			privateKey = "0x" + privateKey
		}
		raw, err := hexutil.Decode(privateKey)
		if err != nil {
			return fmt.Errorf("failed to import key: %w", signer.ErrInvalidKey)
		}
		defer custodian.Zero(raw)

		store, err := openSecretStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		addr, err := store.Import(raw)
		if err != nil {
			return fmt.Errorf("failed to import key: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Wallet imported"))
		fmt.Fprintln(out, ui.Field("Address", addr.Hex(), 8))
		return nil
	}
	return fmt.Errorf("custodian %q does not support importing accounts", cfg.Custodian.Type)
}

func runWalletList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	kc, closeFn, err := openCustodian(cfg.Custodian)
	if err != nil {
		return fmt.Errorf("failed to open %s custodian: %w", cfg.Custodian.Type, err)
	}
	defer func() { _ = closeFn() }()

	accounts, err := kc.ListAccounts(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No wallets found.")
		fmt.Fprintln(out, "Use 'signproxy wallet create' to create a new wallet.")
		return nil
	}

	fmt.Fprintf(out, "Found %d wallet(s):\n\n", len(accounts))
	for i, acc := range accounts {
		fmt.Fprintln(out, ui.Item(i+1, acc.Hex()))
	}
	return nil
}
