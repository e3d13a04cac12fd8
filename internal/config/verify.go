package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	ChainEVM    = "evm"
	ChainSolana = "solana"
)

// VerifyConfig holds configuration for the verify command. The EVM fields
// name ERC20 contracts and the pool holder address; the Solana fields name
// SPL token accounts and the share mint.
type VerifyConfig struct {
	Chain  string
	RPCURL string

	PoolAddress string
	BaseToken   string
	QuoteToken  string
	ShareToken  string

	BaseVault  string
	QuoteVault string
	ShareMint  string

	RecordFile   string
	PGDSN        string
	PoolName     string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadVerify merges config file, environment variables, and flags into VerifyConfig.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"chain":         ChainEVM,
		"pool-name":     "default",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return VerifyConfig{}, err
	}

	cfg := VerifyConfig{
		Chain:        strings.ToLower(strings.TrimSpace(v.GetString("chain"))),
		RPCURL:       v.GetString("rpc"),
		PoolAddress:  v.GetString("pool-address"),
		BaseToken:    v.GetString("base-token"),
		QuoteToken:   v.GetString("quote-token"),
		ShareToken:   v.GetString("share-token"),
		BaseVault:    v.GetString("base-vault"),
		QuoteVault:   v.GetString("quote-vault"),
		ShareMint:    v.GetString("share-mint"),
		RecordFile:   v.GetString("record-file"),
		PGDSN:        v.GetString("pg-dsn"),
		PoolName:     v.GetString("pool-name"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	if cfg.RPCURL == "" {
		return VerifyConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.RecordFile == "" && cfg.PGDSN == "" {
		return VerifyConfig{}, fmt.Errorf("record-file or pg-dsn is required")
	}

	switch cfg.Chain {
	case ChainEVM:
		if cfg.PoolAddress == "" || cfg.BaseToken == "" || cfg.QuoteToken == "" || cfg.ShareToken == "" {
			return VerifyConfig{}, fmt.Errorf("evm verify needs pool-address, base-token, quote-token and share-token")
		}
	case ChainSolana:
		if cfg.BaseVault == "" || cfg.QuoteVault == "" || cfg.ShareMint == "" {
			return VerifyConfig{}, fmt.Errorf("solana verify needs base-vault, quote-vault and share-mint")
		}
	default:
		return VerifyConfig{}, fmt.Errorf("unknown chain %q", cfg.Chain)
	}

	return cfg, nil
}
