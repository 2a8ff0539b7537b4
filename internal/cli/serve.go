package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/signproxy/internal/server"
	"github.com/yolodolo42/signproxy/internal/walletlookup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP signing proxy",
	Long: `Serve POST /sign and GET /wallet.

POST /sign takes {"message": "..."} or {"typedData": {...}, "version": "V1|V3|V4"}
and answers {"signature": "0x..."}.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "HTTP listen address (default :3000, PORT env wins)")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	svc, closeFn, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Wallet.LookupURL != "" {
		opts = append(opts, server.WithWalletLookup(walletlookup.New(cfg.Wallet.LookupURL, cfg.Wallet.Timeout)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("custodian", cfg.Custodian.Type).WithField("chain", cfg.Chain).Info("starting signproxy")
	return server.New(svc, opts...).Serve(ctx, cfg.Server.Addr(), cfg.Server.ReadHeaderTimeout)
}
