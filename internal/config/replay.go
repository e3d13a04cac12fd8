package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Pool              PoolConfig
	Tokens            TokenConfig
	PoolName          string
	Input             string
	Out               string
	RecordFile        string
	PGDSN             string
	StateFile         string
	CheckpointEnabled bool
	FeeNumerator      uint64
	FeeDenominator    uint64
	BatchSize         int
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, poolDefaults(map[string]interface{}{
		"chain":              ChainEVM,
		"pool-name":          "default",
		"out":                "./data/results.jsonl",
		"state-file":         "./data/replay_state.json",
		"checkpoint-enabled": true,
		"fee-numerator":      uint64(0),
		"fee-denominator":    uint64(10_000),
		"batch-size":         500,
	}))
	if err != nil {
		return ReplayConfig{}, err
	}

	pool, err := loadPool(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	tokens, err := loadTokens(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		Pool:              pool,
		Tokens:            tokens,
		PoolName:          v.GetString("pool-name"),
		Input:             v.GetString("in"),
		Out:               v.GetString("out"),
		RecordFile:        v.GetString("record-file"),
		PGDSN:             v.GetString("pg-dsn"),
		StateFile:         v.GetString("state-file"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		FeeNumerator:      v.GetUint64("fee-numerator"),
		FeeDenominator:    v.GetUint64("fee-denominator"),
		BatchSize:         v.GetInt("batch-size"),
		LogLevel:          v.GetString("log-level"),
	}

	if cfg.FeeDenominator == 0 {
		return ReplayConfig{}, fmt.Errorf("fee-denominator must be positive")
	}
	if cfg.FeeNumerator > cfg.FeeDenominator {
		return ReplayConfig{}, fmt.Errorf("fee-numerator %d exceeds fee-denominator %d", cfg.FeeNumerator, cfg.FeeDenominator)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	return cfg, nil
}
