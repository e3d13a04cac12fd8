package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvePool/internal/chain"
	"curvePool/internal/chain/solana"
	"curvePool/internal/config"
	"curvePool/internal/curve"
	"curvePool/internal/storage/postgres"
	"curvePool/internal/verify"
)

func runVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := storedPool(ctx, cfg)
	if err != nil {
		return err
	}

	var source verify.BalanceSource
	switch cfg.Chain {
	case config.ChainEVM:
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		chainID, err := chainClient.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		logger.Info("connected", zap.String("chain_id", chainID.String()))

		addrs := make([]common.Address, 0, 4)
		for _, raw := range []string{cfg.PoolAddress, cfg.BaseToken, cfg.QuoteToken, cfg.ShareToken} {
			addr, err := chain.ParseAddress(raw)
			if err != nil {
				return err
			}
			addrs = append(addrs, addr)
		}
		source = verify.NewEVMSource(chainClient, addrs[0], addrs[1], addrs[2], addrs[3])
	case config.ChainSolana:
		solClient := solana.NewClient(cfg.RPCURL)
		defer solClient.Close()

		keys := make([]solanago.PublicKey, 0, 3)
		for _, raw := range []string{cfg.BaseVault, cfg.QuoteVault, cfg.ShareMint} {
			key, err := solana.ParsePublicKey(raw)
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}
		source = verify.NewSolanaSource(solClient, keys[0], keys[1], keys[2])
	default:
		return fmt.Errorf("unknown chain %q", cfg.Chain)
	}

	logger.Info("verify start",
		zap.String("chain", cfg.Chain),
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool_name", cfg.PoolName),
		zap.String("record_file", cfg.RecordFile),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	report, err := verify.NewVerifier(source, cfg.MaxRetries, cfg.RetryBackoff, logger).Verify(ctx, pool)
	if err != nil && report == (verify.Report{}) {
		return err
	}
	if printErr := printJSON(report); printErr != nil {
		return printErr
	}
	return err
}

// storedPool reads the pool to check from Postgres when a DSN is set,
// otherwise from the record file.
func storedPool(ctx context.Context, cfg config.VerifyConfig) (*curve.PoolState, error) {
	if cfg.PGDSN == "" {
		return readRecordFile(cfg.RecordFile)
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	snap, ok, err := store.LoadLatestSnapshot(ctx, cfg.PoolName)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("no snapshot stored for pool %q", cfg.PoolName)
	}
	return snap.Pool()
}
