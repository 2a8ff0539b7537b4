package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/signproxy/internal/config"
	"github.com/yolodolo42/signproxy/internal/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "signproxy",
		Short: "Ethereum message signing proxy",
		Long: `signproxy signs EIP-191 personal messages and typed data (V1, V3, V4)
with the first account of a key custodian and returns 65-byte r||s||v
signatures as 0x-prefixed hex.

Run "signproxy serve" for the HTTP proxy or use the sign and verify
commands directly.`,
		SilenceUsage: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.signproxy/config.yaml)")
	rootCmd.PersistentFlags().String("chain", "", "Pin typed data to a chain (name or id)")
	rootCmd.PersistentFlags().String("custodian", "", "Key custodian: keystore, mnemonic, secretstore or static")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	_ = viper.BindPFlag("chain", rootCmd.PersistentFlags().Lookup("chain"))
	_ = viper.BindPFlag("custodian.type", rootCmd.PersistentFlags().Lookup("custodian"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		configDir := config.DefaultDataDir()
		if err := os.MkdirAll(configDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	// Silently ignore missing config file - it's optional
	_ = v.ReadInConfig()
}

// loadConfig decodes the merged settings and installs the configured logger.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Init(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, logger, nil
}
