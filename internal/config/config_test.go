package config

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Swap: SwapConfig{
			ChainID:    56,
			EntryPoint: "0x0000000071727De22E5E9d8BAf0edAc6f37da032",
			Router:     "0x10ED43C718714eb63d5aA57B78B54704E256024E",
			Delegate:   "0x1111111111111111111111111111111111111111",
			InputTokens: []TokenConfig{
				{Symbol: "USDT", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
			},
			OutputToken:     TokenConfig{Symbol: "WBNB", Address: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", Decimals: 18},
			QuoteTTLSeconds: 60,
		},
		Sponsor: SponsorConfig{
			Paymaster:      "0x2222222222222222222222222222222222222222",
			GasBufferBps:   1000,
			FixedMarkupWei: "1000000000000000",
		},
		Bundler: BundlerConfig{
			Endpoints: []string{"https://bundler.example.com/rpc"},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMalformedAddresses(t *testing.T) {
	for _, mutate := range []func(c *Config){
		func(c *Config) { c.Swap.EntryPoint = "not-an-address" },
		func(c *Config) { c.Swap.Router = "0x1234" },
		func(c *Config) { c.Swap.Delegate = "" },
		func(c *Config) { c.Sponsor.Paymaster = "0xZZ22222222222222222222222222222222222222" },
		func(c *Config) { c.Swap.InputTokens[0].Address = "0x55d39" },
		func(c *Config) { c.Swap.OutputToken.Address = "wbnb" },
	} {
		cfg := validConfig()
		mutate(cfg)
		require.Error(t, cfg.Validate())
	}
}

func TestValidateRejectsBadShapes(t *testing.T) {
	cfg := validConfig()
	cfg.Swap.ChainID = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Swap.InputTokens = nil
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Swap.QuoteTTLSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sponsor.GasBufferBps = -1
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sponsor.GasBufferBps = 10001
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sponsor.FixedMarkupWei = "12.5"
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Bundler.Endpoints = nil
	require.Error(t, cfg.Validate())
}

func TestFixedMarkup(t *testing.T) {
	cfg := validConfig()
	require.Zero(t, cfg.FixedMarkup().Cmp(big.NewInt(1_000_000_000_000_000)))

	cfg.Sponsor.FixedMarkupWei = ""
	require.Zero(t, cfg.FixedMarkup().Sign())
}

func TestInputTokenAddresses(t *testing.T) {
	cfg := validConfig()
	addrs := cfg.InputTokenAddresses()
	require.Len(t, addrs, 1)
	require.Equal(t, "0x55d398326f99059fF775485246999027B3197955", addrs[0].Hex())
}
