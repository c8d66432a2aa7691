// Package config describes configuration of the depositctl tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// PasswordEnv is an environment variable overriding wallet password from the
// file.
const PasswordEnv = "DEPOSIT_WALLET_PASSWORD"

// Default values of the optional parameters.
const (
	DefaultDialTimeout    = 15 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultContractDir    = "contracts"
	DefaultJournalPath    = "deposit-journal.db"
	DefaultLogLevel       = "info"
)

// Config is a root of the configuration file.
type Config struct {
	RPC      RPC      `yaml:"rpc"`
	Wallet   Wallet   `yaml:"wallet"`
	Contract Contract `yaml:"contract"`
	Journal  Journal  `yaml:"journal"`
	Logger   Logger   `yaml:"logger"`
}

// RPC configures connection to the Neo RPC node.
type RPC struct {
	Endpoint       string        `yaml:"endpoint"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Wallet configures account signing transactions.
type Wallet struct {
	Path string `yaml:"path"`
	// Address of the account, the default wallet account is used if empty.
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

// Contract configures Deposit contract location.
type Contract struct {
	// Hash of the deployed contract, either Neo address or LE hex string. May
	// be empty before deployment.
	Hash string `yaml:"hash"`
	// Dir is a root of compiled contract artifacts.
	Dir string `yaml:"dir"`
}

// Journal configures local notification journal.
type Journal struct {
	Path string `yaml:"path"`
}

// Logger configures logging.
type Logger struct {
	Level string `yaml:"level"`
}

var errMissingContract = errors.New("contract hash is not configured")

// Default returns configuration with all default values set.
func Default() *Config {
	return &Config{
		RPC: RPC{
			DialTimeout:    DefaultDialTimeout,
			RequestTimeout: DefaultRequestTimeout,
		},
		Contract: Contract{Dir: DefaultContractDir},
		Journal:  Journal{Path: DefaultJournalPath},
		Logger:   Logger{Level: DefaultLogLevel},
	}
}

// Load reads configuration from the YAML file, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse is the same as Load but accepts file contents.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}

	if pass, ok := os.LookupEnv(PasswordEnv); ok {
		cfg.Wallet.Password = pass
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required parameters are set correctly.
func (c *Config) Validate() error {
	switch {
	case c.RPC.Endpoint == "":
		return errors.New("missing RPC endpoint")
	case c.RPC.DialTimeout <= 0:
		return fmt.Errorf("non-positive dial timeout %s", c.RPC.DialTimeout)
	case c.RPC.RequestTimeout <= 0:
		return fmt.Errorf("non-positive request timeout %s", c.RPC.RequestTimeout)
	case c.Wallet.Path == "":
		return errors.New("missing wallet path")
	}

	if c.Wallet.Address != "" {
		if _, err := address.StringToUint160(c.Wallet.Address); err != nil {
			return fmt.Errorf("wallet address: %w", err)
		}
	}

	if c.Contract.Hash != "" {
		if _, err := c.ContractHash(); err != nil {
			return err
		}
	}

	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger level: %w", err)
	}

	return nil
}

// ContractHash decodes configured Deposit contract hash.
func (c *Config) ContractHash() (util.Uint160, error) {
	if c.Contract.Hash == "" {
		return util.Uint160{}, errMissingContract
	}

	h, err := ParseUint160(c.Contract.Hash)
	if err != nil {
		return h, fmt.Errorf("contract hash: %w", err)
	}

	return h, nil
}

// ParseUint160 decodes script hash given either as Neo address or as LE hex
// string with optional 0x prefix.
func ParseUint160(s string) (util.Uint160, error) {
	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}

	h, err := util.Uint160DecodeStringLE(trimHexPrefix(s))
	if err != nil {
		return h, fmt.Errorf("%q is neither address nor hex: %w", s, err)
	}

	return h, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
