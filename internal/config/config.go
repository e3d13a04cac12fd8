package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"curvePool/internal/curve"
	"curvePool/internal/fixed"
)

// EnvPrefix prefixes every environment override, e.g. CURVEPOOL_PG_DSN.
const EnvPrefix = "CURVEPOOL"

// PoolConfig holds the initial pool snapshot given through flags, env, or config file.
type PoolConfig struct {
	MarketPrice              fixed.Decimal
	Slope                    fixed.Decimal
	BaseReserve              fixed.Decimal
	QuoteReserve             fixed.Decimal
	TotalSupply              uint64
	LastMarketPrice          fixed.Decimal
	LastValidMarketPriceSlot uint64

	// Decimals are applied through SetMarketPrice when HasDecimals is true.
	BaseDecimals  uint8
	QuoteDecimals uint8
	HasDecimals   bool
}

// InitParams converts the config into curve parameters.
func (c PoolConfig) InitParams() curve.InitPoolStateParams {
	return curve.InitPoolStateParams{
		MarketPrice:              c.MarketPrice,
		Slope:                    c.Slope,
		BaseReserve:              c.BaseReserve,
		QuoteReserve:             c.QuoteReserve,
		TotalSupply:              c.TotalSupply,
		LastMarketPrice:          c.LastMarketPrice,
		LastValidMarketPriceSlot: c.LastValidMarketPriceSlot,
	}
}

// NewPool builds a pool from the config and derives its targets. When decimals
// are configured, MarketPrice is taken in whole-token units and normalized.
func (c PoolConfig) NewPool() (*curve.PoolState, error) {
	pool := curve.NewPoolState(c.InitParams())
	if c.HasDecimals {
		if err := pool.SetMarketPrice(c.BaseDecimals, c.QuoteDecimals, c.MarketPrice); err != nil {
			return nil, fmt.Errorf("set market price: %w", err)
		}
		return pool, nil
	}
	if err := pool.AdjustTarget(); err != nil {
		return nil, fmt.Errorf("adjust target: %w", err)
	}
	return pool, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func poolDefaults(defaults map[string]interface{}) map[string]interface{} {
	if defaults == nil {
		defaults = make(map[string]interface{})
	}
	defaults["slope"] = "0.1"
	defaults["base-reserve"] = "0"
	defaults["quote-reserve"] = "0"
	return defaults
}

func loadPool(v *viper.Viper) (PoolConfig, error) {
	var (
		cfg PoolConfig
		err error
	)
	if cfg.MarketPrice, err = getDecimal(v, "market-price"); err != nil {
		return PoolConfig{}, err
	}
	if cfg.Slope, err = getDecimal(v, "slope"); err != nil {
		return PoolConfig{}, err
	}
	if cfg.Slope.Gt(fixed.One()) {
		return PoolConfig{}, fmt.Errorf("slope %s: %w", cfg.Slope, curve.ErrInvalidSlope)
	}
	if cfg.BaseReserve, err = getDecimal(v, "base-reserve"); err != nil {
		return PoolConfig{}, err
	}
	if cfg.QuoteReserve, err = getDecimal(v, "quote-reserve"); err != nil {
		return PoolConfig{}, err
	}

	cfg.LastMarketPrice = cfg.MarketPrice
	if v.IsSet("last-market-price") {
		if cfg.LastMarketPrice, err = getDecimal(v, "last-market-price"); err != nil {
			return PoolConfig{}, err
		}
	}
	cfg.TotalSupply = v.GetUint64("total-supply")
	cfg.LastValidMarketPriceSlot = v.GetUint64("last-slot")

	if v.IsSet("base-decimals") || v.IsSet("quote-decimals") {
		if !v.IsSet("base-decimals") || !v.IsSet("quote-decimals") {
			return PoolConfig{}, fmt.Errorf("base-decimals and quote-decimals must be set together")
		}
		cfg.BaseDecimals = uint8(v.GetUint("base-decimals"))
		cfg.QuoteDecimals = uint8(v.GetUint("quote-decimals"))
		cfg.HasDecimals = true
	}

	return cfg, nil
}

// getDecimal reads key as a decimal string. Unset keys are zero.
func getDecimal(v *viper.Viper, key string) (fixed.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fixed.Zero(), nil
	}
	d, err := fixed.Parse(raw)
	if err != nil {
		return fixed.Decimal{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
