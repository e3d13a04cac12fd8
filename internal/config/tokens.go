package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// TokenConfig names the pool tokens on their host chain. When RPCURL is set
// and pool decimals are not configured, the decimals are read from the
// chain: ERC20 contracts on evm, SPL mints on solana.
type TokenConfig struct {
	Chain      string
	RPCURL     string
	BaseToken  string
	QuoteToken string
}

// Enabled reports whether token decimals should be read from the chain.
func (t TokenConfig) Enabled() bool {
	return t.RPCURL != ""
}

func loadTokens(v *viper.Viper) (TokenConfig, error) {
	cfg := TokenConfig{
		Chain:      strings.ToLower(strings.TrimSpace(v.GetString("chain"))),
		RPCURL:     v.GetString("rpc"),
		BaseToken:  v.GetString("base-token"),
		QuoteToken: v.GetString("quote-token"),
	}
	if !cfg.Enabled() {
		return cfg, nil
	}
	if cfg.Chain != ChainEVM && cfg.Chain != ChainSolana {
		return TokenConfig{}, fmt.Errorf("unknown chain %q", cfg.Chain)
	}
	if cfg.BaseToken == "" || cfg.QuoteToken == "" {
		return TokenConfig{}, fmt.Errorf("base-token and quote-token are required with rpc")
	}
	return cfg, nil
}
