package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"curvePool/internal/chain"
	"curvePool/internal/chain/solana"
	"curvePool/internal/config"
	"curvePool/internal/curve"
)

func main() {
	root := &cobra.Command{
		Use:          "curvepool",
		Short:        "Oracle-anchored curve pool pricing engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a single trade against a pool",
		RunE:  runQuote,
	}

	addPoolFlags(quoteCmd.Flags())
	addTokenFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("record-file", "", "hex pool record file (overrides pool flags)")
	quoteCmd.Flags().String("direction", "sell_base", "swap direction (sell_base, sell_quote)")
	quoteCmd.Flags().Uint64("amount-in", 0, "input amount in raw token units")
	quoteCmd.Flags().String("base-price", "", "base token price for TVL")
	quoteCmd.Flags().String("quote-price", "", "quote token price for TVL")
	quoteCmd.Flags().Bool("experimental-powf", false, "also print the float64 power-curve estimate")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operation log against a pool",
		RunE:  runReplay,
	}

	addPoolFlags(replayCmd.Flags())
	addTokenFlags(replayCmd.Flags())
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/results.jsonl", "output results JSONL")
	replayCmd.Flags().String("pool-name", "default", "pool name for snapshots and replay state")
	replayCmd.Flags().String("record-file", "", "hex pool record file used as the starting pool")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	replayCmd.Flags().String("state-file", "./data/replay_state.json", "checkpoint file path when no DSN is set")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Uint64("fee-numerator", 0, "trade fee numerator")
	replayCmd.Flags().Uint64("fee-denominator", 10_000, "trade fee denominator")
	replayCmd.Flags().Int("batch-size", 500, "operations per flushed batch")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode a pool record into readable JSON",
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("record", "", "hex pool record")
	inspectCmd.Flags().String("record-file", "", "file holding a hex pool record")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(inspectCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a stored pool against on-chain balances",
		RunE:  runVerify,
	}

	verifyCmd.Flags().String("chain", "evm", "host chain (evm, solana)")
	verifyCmd.Flags().String("rpc", "", "chain RPC URL")
	verifyCmd.Flags().String("pool-address", "", "EVM address holding the pool reserves")
	verifyCmd.Flags().String("base-token", "", "EVM base token contract")
	verifyCmd.Flags().String("quote-token", "", "EVM quote token contract")
	verifyCmd.Flags().String("share-token", "", "EVM LP share token contract")
	verifyCmd.Flags().String("base-vault", "", "Solana base token account")
	verifyCmd.Flags().String("quote-vault", "", "Solana quote token account")
	verifyCmd.Flags().String("share-mint", "", "Solana LP share mint")
	verifyCmd.Flags().String("record-file", "", "hex pool record file")
	verifyCmd.Flags().String("pg-dsn", "", "Postgres DSN to read the latest snapshot from")
	verifyCmd.Flags().String("pool-name", "default", "pool name of the snapshot")
	verifyCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	verifyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	verifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(verifyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addPoolFlags registers the pool parameters. Optional values carry no
// default so the loader can tell them apart from an explicit zero.
func addPoolFlags(flags *pflag.FlagSet) {
	flags.String("market-price", "", "oracle market price (quote per base)")
	flags.String("slope", "0.1", "curve slope in [0, 1]")
	flags.String("base-reserve", "0", "base reserve")
	flags.String("quote-reserve", "0", "quote reserve")
	flags.Uint64("total-supply", 0, "LP share supply")
	flags.String("last-market-price", "", "last accepted market price (defaults to market-price)")
	flags.Uint64("last-slot", 0, "slot of the last accepted market price")
	flags.Uint8("base-decimals", 0, "base token decimals used to normalize market-price")
	flags.Uint8("quote-decimals", 0, "quote token decimals used to normalize market-price")
}

// addTokenFlags registers the chain lookup used when pool decimals are not set.
func addTokenFlags(flags *pflag.FlagSet) {
	flags.String("chain", "evm", "host chain of the pool tokens (evm, solana)")
	flags.String("rpc", "", "chain RPC URL for reading token decimals")
	flags.String("base-token", "", "base ERC20 contract or SPL mint")
	flags.String("quote-token", "", "quote ERC20 contract or SPL mint")
}

// resolvePoolDecimals fills in pool decimals from the token contracts or
// mints when they were not configured and a chain lookup is set up.
func resolvePoolDecimals(ctx context.Context, pool *config.PoolConfig, tokens config.TokenConfig, logger *zap.Logger) error {
	if pool.HasDecimals || !tokens.Enabled() {
		return nil
	}

	var reader chain.DecimalsReader
	switch tokens.Chain {
	case config.ChainEVM:
		client, err := chain.NewClient(ctx, tokens.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()
		reader = client
	case config.ChainSolana:
		client := solana.NewClient(tokens.RPCURL)
		defer client.Close()
		reader = client
	default:
		return fmt.Errorf("unknown chain %q", tokens.Chain)
	}

	base, quote, err := chain.PairDecimals(ctx, reader, tokens.BaseToken, tokens.QuoteToken)
	if err != nil {
		return err
	}
	pool.BaseDecimals, pool.QuoteDecimals, pool.HasDecimals = base, quote, true

	logger.Info("token decimals resolved",
		zap.String("chain", tokens.Chain),
		zap.Uint8("base_decimals", base),
		zap.Uint8("quote_decimals", quote),
	)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func decodeRecordHex(raw string) (*curve.PoolState, []byte, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	data, err := hex.DecodeString(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode record hex: %w", err)
	}
	pool, err := curve.DecodePoolState(data)
	if err != nil {
		return nil, nil, err
	}
	return pool, data, nil
}

func readRecordFile(path string) (*curve.PoolState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	pool, _, err := decodeRecordHex(string(raw))
	return pool, err
}

func printJSON(value interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
