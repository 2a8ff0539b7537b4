package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/signproxy/internal/digest"
	"github.com/yolodolo42/signproxy/internal/signature"
	"github.com/yolodolo42/signproxy/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recover and check the signer of a signature",
}

var verifyMessageCmd = &cobra.Command{
	Use:   "message <text>",
	Short: "Verify a personal message signature",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyMessage,
}

var verifyTypedCmd = &cobra.Command{
	Use:   "typed",
	Short: "Verify a typed data signature",
	RunE:  runVerifyTyped,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.AddCommand(verifyMessageCmd)
	verifyCmd.AddCommand(verifyTypedCmd)

	for _, c := range []*cobra.Command{verifyMessageCmd, verifyTypedCmd} {
		c.Flags().String("signature", "", "0x-prefixed 65-byte signature")
		c.Flags().String("address", "", "Expected signer address")
		_ = c.MarkFlagRequired("signature")
	}
	verifyMessageCmd.Flags().Bool("hex", false, "Treat the message as 0x-prefixed hex bytes")
	verifyTypedCmd.Flags().String("file", "", "Typed data JSON file (- for stdin)")
	verifyTypedCmd.Flags().String("version", string(digest.DefaultVersion), "Typed data version: V1, V3 or V4")
	_ = verifyTypedCmd.MarkFlagRequired("file")
}

func runVerifyMessage(cmd *cobra.Command, args []string) error {
	message, err := messageArg(cmd, args[0])
	if err != nil {
		return err
	}
	return verifyDigest(cmd, digest.PersonalDigest(message))
}

func runVerifyTyped(cmd *cobra.Command, args []string) error {
	data, version, err := typedDataArgs(cmd)
	if err != nil {
		return err
	}
	h, err := digest.TypedDataDigest(data, version)
	if err != nil {
		return err
	}
	return verifyDigest(cmd, h)
}

func verifyDigest(cmd *cobra.Command, h common.Hash) error {
	sigHex, _ := cmd.Flags().GetString("signature")
	expected, _ := cmd.Flags().GetString("address")

	t, err := signature.Decode(sigHex)
	if err != nil {
		return err
	}
	signer, err := signature.Recover(h, t)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Field("digest", h.Hex(), 7))
	fmt.Fprintln(out, ui.Field("signer", signer.Hex(), 7))

	if expected == "" {
		return nil
	}
	if !common.IsHexAddress(expected) {
		return fmt.Errorf("invalid address %q", expected)
	}
	if signer != common.HexToAddress(expected) {
		fmt.Fprintln(out, ui.Failure("signature was not produced by %s", common.HexToAddress(expected).Hex()))
		return fmt.Errorf("signer mismatch")
	}
	fmt.Fprintln(out, ui.Success("signature matches %s", signer.Hex()))
	return nil
}
