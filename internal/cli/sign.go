package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/signproxy/internal/digest"
	"github.com/yolodolo42/signproxy/internal/service"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign with the active account",
}

var signMessageCmd = &cobra.Command{
	Use:   "message <text>",
	Short: "Sign an EIP-191 personal message",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignMessage,
}

var signTypedCmd = &cobra.Command{
	Use:   "typed",
	Short: "Sign typed data (V1, V3 or V4)",
	RunE:  runSignTyped,
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the signing account",
	RunE:  runAddress,
}

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(addressCmd)
	signCmd.AddCommand(signMessageCmd)
	signCmd.AddCommand(signTypedCmd)

	signMessageCmd.Flags().Bool("hex", false, "Treat the message as 0x-prefixed hex bytes")
	signTypedCmd.Flags().String("file", "", "Typed data JSON file (- for stdin)")
	signTypedCmd.Flags().String("version", string(digest.DefaultVersion), "Typed data version: V1, V3 or V4")
	_ = signTypedCmd.MarkFlagRequired("file")
}

// withService runs fn against a service built from the loaded config.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensurePassphrase(cfg); err != nil {
		return err
	}
	svc, closeFn, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(cmd.Context(), svc)
}

func messageArg(cmd *cobra.Command, text string) ([]byte, error) {
	isHex, _ := cmd.Flags().GetBool("hex")
	if !isHex {
		return []byte(text), nil
	}
	b, err := hexutil.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex message: %w", err)
	}
	return b, nil
}

func typedDataArgs(cmd *cobra.Command) (json.RawMessage, digest.Version, error) {
	path, _ := cmd.Flags().GetString("file")
	versionFlag, _ := cmd.Flags().GetString("version")

	version, err := digest.ParseVersion(versionFlag)
	if err != nil {
		return nil, "", err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read typed data: %w", err)
	}
	if !json.Valid(data) {
		return nil, "", fmt.Errorf("typed data is not valid JSON")
	}
	return json.RawMessage(data), version, nil
}

func runSignMessage(cmd *cobra.Command, args []string) error {
	message, err := messageArg(cmd, args[0])
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		sig, err := svc.SignPersonalMessage(ctx, message)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sig)
		return nil
	})
}

func runSignTyped(cmd *cobra.Command, args []string) error {
	data, version, err := typedDataArgs(cmd)
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		sig, err := svc.SignTypedData(ctx, data, version)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sig)
		return nil
	})
}

func runAddress(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		addr, err := svc.Account(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
		return nil
	})
}
