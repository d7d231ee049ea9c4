package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Every on-chain address and every
// bps value is validated at load time; a malformed shape is rejected before
// the service starts rather than at first use.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	Oracle    OracleConfig    `yaml:"oracle"`
	KMS       KMSConfig       `yaml:"kms"`
	Swap      SwapConfig      `yaml:"swap"`
	Sponsor   SponsorConfig   `yaml:"sponsor"`
	Bundler   BundlerConfig   `yaml:"bundler"`
	Signer    SignerConfig    `yaml:"signer"`
	Admin     AdminConfig     `yaml:"admin"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// OracleConfig price oracle service configuration
type OracleConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout int    `yaml:"timeout"` // request timeout (seconds)
}

// KMSConfig KMS signing service configuration
type KMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ServiceURL string `yaml:"serviceUrl"`
	AuthToken  string `yaml:"authToken"`
	Timeout    int    `yaml:"timeout"` // request timeout (seconds)
	KeyAlias   string `yaml:"keyAlias"`
}

// TokenConfig one supported token
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// SwapConfig chain and contract configuration for the swap pipeline
type SwapConfig struct {
	ChainID         uint64        `yaml:"chainId"`
	EntryPoint      string        `yaml:"entryPoint"`
	Router          string        `yaml:"router"`
	Delegate        string        `yaml:"delegate"` // EIP-7702 delegation target
	InputTokens     []TokenConfig `yaml:"inputTokens"`
	OutputToken     TokenConfig   `yaml:"outputToken"`
	QuoteTTLSeconds int64         `yaml:"quoteTtlSeconds"`
}

// SponsorConfig the paymaster's fee policy
type SponsorConfig struct {
	Paymaster      string `yaml:"paymaster"`
	GasBufferBps   int64  `yaml:"gasBufferBps"`
	FixedMarkupWei string `yaml:"fixedMarkupWei"` // decimal string, arbitrary precision
}

// BundlerConfig relay endpoints, ranked: index 0 is primary, the rest are
// failover targets in order.
type BundlerConfig struct {
	Endpoints []string `yaml:"endpoints"`
	Timeout   int      `yaml:"timeout"` // per-call timeout (seconds)
}

// SignerConfig server-held signer for the execute path
type SignerConfig struct {
	PrivateKey    string `yaml:"privateKey"` // hex, without 0x prefix
	UsePrivateKey bool   `yaml:"usePrivateKey"`
}

// AdminConfig admin API access configuration
type AdminConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

var AppConfig *Config

// LoadConfig loads and validates the configuration file.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("✅ [Config] Loaded configuration from %s (chainId=%d, %d input tokens, %d bundler endpoints)",
		configPath, config.Swap.ChainID, len(config.Swap.InputTokens), len(config.Bundler.Endpoints))

	AppConfig = &config
	return nil
}

// Validate rejects malformed shapes at load time.
func (c *Config) Validate() error {
	if c.Swap.ChainID == 0 {
		return fmt.Errorf("swap.chainId is required")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"swap.entryPoint", c.Swap.EntryPoint},
		{"swap.router", c.Swap.Router},
		{"swap.delegate", c.Swap.Delegate},
		{"sponsor.paymaster", c.Sponsor.Paymaster},
	} {
		if !common.IsHexAddress(field.value) {
			return fmt.Errorf("%s is not a valid 20-byte address: %q", field.name, field.value)
		}
	}
	if len(c.Swap.InputTokens) == 0 {
		return fmt.Errorf("swap.inputTokens must list at least one token")
	}
	for _, token := range c.Swap.InputTokens {
		if !common.IsHexAddress(token.Address) {
			return fmt.Errorf("swap.inputTokens[%s].address is not a valid 20-byte address: %q", token.Symbol, token.Address)
		}
	}
	if !common.IsHexAddress(c.Swap.OutputToken.Address) {
		return fmt.Errorf("swap.outputToken.address is not a valid 20-byte address: %q", c.Swap.OutputToken.Address)
	}
	if c.Swap.QuoteTTLSeconds <= 0 {
		return fmt.Errorf("swap.quoteTtlSeconds must be positive, got %d", c.Swap.QuoteTTLSeconds)
	}
	if c.Sponsor.GasBufferBps < 0 || c.Sponsor.GasBufferBps > 10000 {
		return fmt.Errorf("sponsor.gasBufferBps must be in [0, 10000], got %d", c.Sponsor.GasBufferBps)
	}
	if c.Sponsor.FixedMarkupWei != "" {
		if _, ok := new(big.Int).SetString(c.Sponsor.FixedMarkupWei, 10); !ok {
			return fmt.Errorf("sponsor.fixedMarkupWei is not a decimal integer: %q", c.Sponsor.FixedMarkupWei)
		}
	}
	if len(c.Bundler.Endpoints) == 0 {
		return fmt.Errorf("bundler.endpoints must list at least one relay endpoint")
	}
	return nil
}

// FixedMarkup parses the sponsor's fixed markup; Validate guarantees the
// string is well formed.
func (c *Config) FixedMarkup() *big.Int {
	if c.Sponsor.FixedMarkupWei == "" {
		return big.NewInt(0)
	}
	markup, _ := new(big.Int).SetString(c.Sponsor.FixedMarkupWei, 10)
	return markup
}

// InputTokenAddresses returns the configured input token addresses.
func (c *Config) InputTokenAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(c.Swap.InputTokens))
	for _, token := range c.Swap.InputTokens {
		addrs = append(addrs, common.HexToAddress(token.Address))
	}
	return addrs
}

// overrideFromEnv applies environment variable overrides.
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if oracleURL := os.Getenv("ORACLE_BASE_URL"); oracleURL != "" {
		config.Oracle.BaseURL = oracleURL
	}
	if kmsEnabled := os.Getenv("KMS_ENABLED"); kmsEnabled != "" {
		config.KMS.Enabled = kmsEnabled == "true"
	}
	if kmsServiceURL := os.Getenv("KMS_SERVICE_URL"); kmsServiceURL != "" {
		config.KMS.ServiceURL = kmsServiceURL
	}
	if kmsAuthToken := os.Getenv("KMS_AUTH_TOKEN"); kmsAuthToken != "" {
		config.KMS.AuthToken = kmsAuthToken
	}
	if kmsKeyAlias := os.Getenv("KMS_KEY_ALIAS"); kmsKeyAlias != "" {
		config.KMS.KeyAlias = kmsKeyAlias
	}
	if privateKey := os.Getenv("PRIVATE_KEY"); privateKey != "" {
		config.Signer.PrivateKey = privateKey
		config.Signer.UsePrivateKey = true
	}
	if endpoints := os.Getenv("BUNDLER_ENDPOINTS"); endpoints != "" {
		parts := strings.Split(endpoints, ",")
		config.Bundler.Endpoints = config.Bundler.Endpoints[:0]
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				config.Bundler.Endpoints = append(config.Bundler.Endpoints, trimmed)
			}
		}
	}
	if ttl := os.Getenv("QUOTE_TTL_SECONDS"); ttl != "" {
		if t, err := strconv.ParseInt(ttl, 10, 64); err == nil {
			config.Swap.QuoteTTLSeconds = t
		}
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Admin.JWTSecret = secret
	}
}
