// Package config loads signproxy settings from file, environment and flags.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yolodolo42/signproxy/internal/chain"
	"github.com/yolodolo42/signproxy/internal/custodian"
	"github.com/yolodolo42/signproxy/internal/logging"
)

// EnvPrefix prefixes every environment override: server.listen -> SIGNPROXY_SERVER_LISTEN.
const EnvPrefix = "SIGNPROXY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Custodian CustodianConfig `mapstructure:"custodian"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Chain     string          `mapstructure:"chain"`
	Log       logging.Config  `mapstructure:"log"`
}

type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	Port              string        `mapstructure:"port"` // PORT env; overrides Listen
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// Addr is the listen address, preferring an explicit port.
func (s ServerConfig) Addr() string {
	if s.Port != "" {
		return ":" + strings.TrimPrefix(s.Port, ":")
	}
	return s.Listen
}

type CustodianConfig struct {
	Type          string   `mapstructure:"type"`
	DataDir       string   `mapstructure:"data_dir"`
	Passphrase    string   `mapstructure:"passphrase"`
	Mnemonic      string   `mapstructure:"mnemonic"`
	Accounts      int      `mapstructure:"accounts"`
	Keys          []string `mapstructure:"keys"`
	EncryptionKey string   `mapstructure:"encryption_key"` // hex, 16/24/32 bytes
}

// EncryptionKeyBytes decodes EncryptionKey; empty means no encryption.
func (c CustodianConfig) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(strings.TrimPrefix(c.EncryptionKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("custodian.encryption_key: not hex")
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("custodian.encryption_key: want 16, 24 or 32 bytes, got %d", len(key))
}

type WalletConfig struct {
	LookupURL string        `mapstructure:"lookup_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DefaultDataDir is $HOME/.signproxy, falling back to a relative directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signproxy"
	}
	return filepath.Join(home, ".signproxy")
}

// SetDefaults registers every key so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":3000")
	v.SetDefault("server.port", "")
	v.SetDefault("server.read_header_timeout", 5*time.Second)

	v.SetDefault("custodian.type", string(custodian.TypeKeystore))
	v.SetDefault("custodian.data_dir", DefaultDataDir())
	v.SetDefault("custodian.passphrase", "")
	v.SetDefault("custodian.mnemonic", "")
	v.SetDefault("custodian.accounts", 1)
	v.SetDefault("custodian.keys", []string{})
	v.SetDefault("custodian.encryption_key", "")

	v.SetDefault("wallet.lookup_url", "")
	v.SetDefault("wallet.timeout", 10*time.Second)

	v.SetDefault("chain", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}

// BindEnv enables SIGNPROXY_* overrides and the bare PORT variable.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch custodian.Type(c.Custodian.Type) {
	case custodian.TypeKeystore, custodian.TypeSecretStore:
		if c.Custodian.DataDir == "" {
			return fmt.Errorf("custodian.data_dir is required for %s", c.Custodian.Type)
		}
	case custodian.TypeMnemonic:
		if strings.TrimSpace(c.Custodian.Mnemonic) == "" {
			return fmt.Errorf("custodian.mnemonic is required for mnemonic custodian")
		}
	case custodian.TypeStatic:
		if len(c.Custodian.Keys) == 0 {
			return fmt.Errorf("custodian.keys is required for static custodian")
		}
	default:
		return fmt.Errorf("unknown custodian.type %q", c.Custodian.Type)
	}
	if _, err := c.Custodian.EncryptionKeyBytes(); err != nil {
		return err
	}
	if _, err := chain.Resolve(c.Chain); err != nil {
		return err
	}
	return nil
}
