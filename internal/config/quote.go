package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"curvePool/internal/fixed"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Pool             PoolConfig
	Tokens           TokenConfig
	RecordFile       string
	Direction        string
	AmountIn         uint64
	BasePrice        fixed.Decimal
	QuotePrice       fixed.Decimal
	HasPrices        bool
	ExperimentalPowf bool
	LogLevel         string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, poolDefaults(map[string]interface{}{
		"chain":             ChainEVM,
		"direction":         "sell_base",
		"experimental-powf": false,
	}))
	if err != nil {
		return QuoteConfig{}, err
	}

	pool, err := loadPool(v)
	if err != nil {
		return QuoteConfig{}, err
	}

	tokens, err := loadTokens(v)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Pool:             pool,
		Tokens:           tokens,
		RecordFile:       v.GetString("record-file"),
		Direction:        v.GetString("direction"),
		AmountIn:         v.GetUint64("amount-in"),
		ExperimentalPowf: v.GetBool("experimental-powf"),
		LogLevel:         v.GetString("log-level"),
	}

	if v.IsSet("base-price") || v.IsSet("quote-price") {
		if cfg.BasePrice, err = getDecimal(v, "base-price"); err != nil {
			return QuoteConfig{}, err
		}
		if cfg.QuotePrice, err = getDecimal(v, "quote-price"); err != nil {
			return QuoteConfig{}, err
		}
		cfg.HasPrices = true
	}

	if cfg.AmountIn == 0 {
		return QuoteConfig{}, fmt.Errorf("amount-in is required")
	}

	return cfg, nil
}
