package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvePool/internal/config"
	"curvePool/internal/curve"
	"curvePool/internal/replay"
	"curvePool/internal/storage"
	"curvePool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store     *postgres.Store
		results   replay.ResultStore
		snapshots replay.SnapshotStore
		state     replay.StateStore
	)
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		results, snapshots = store, store
		if cfg.CheckpointEnabled {
			state = &replay.DBStateStore{Store: store, Name: cfg.PoolName}
		}
	} else if cfg.CheckpointEnabled {
		state = &replay.FileStateStore{Path: cfg.StateFile}
	}

	if err := resolvePoolDecimals(ctx, &cfg.Pool, cfg.Tokens, logger); err != nil {
		return err
	}

	pool, source, startAfter, err := startingPool(ctx, cfg, store)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	runner := replay.NewRunner(replay.RunConfig{
		Input:         cfg.Input,
		RunID:         runID,
		PoolName:      cfg.PoolName,
		BatchSize:     cfg.BatchSize,
		StartAfterSeq: startAfter,
		Options: replay.ApplyOptions{
			Fee: replay.FeeRate{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
			Decimals: replay.Decimals{
				Base:  cfg.Pool.BaseDecimals,
				Quote: cfg.Pool.QuoteDecimals,
			},
		},
	}, pool, storage.NewJsonlStorage(cfg.Out), results, snapshots, state, logger)

	logger.Info("replay start",
		zap.String("run_id", runID),
		zap.String("pool_name", cfg.PoolName),
		zap.String("in", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("pool_source", source),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("fee_numerator", cfg.FeeNumerator),
		zap.Uint64("fee_denominator", cfg.FeeDenominator),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	_, err = runner.Run(ctx)
	return err
}

// startingPool picks the latest stored snapshot, then the record file, then
// the configured parameters. A stored snapshot also returns its sequence
// number so operations it already contains are skipped. A checkpoint found by
// the runner overrides all three.
func startingPool(ctx context.Context, cfg config.ReplayConfig, store *postgres.Store) (*curve.PoolState, string, *uint64, error) {
	if store != nil {
		snap, ok, err := store.LoadLatestSnapshot(ctx, cfg.PoolName)
		if err != nil {
			return nil, "", nil, fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			pool, err := snap.Pool()
			if err != nil {
				return nil, "", nil, err
			}
			seq := snap.Seq
			return pool, "postgres", &seq, nil
		}
	}
	if cfg.RecordFile != "" {
		pool, err := readRecordFile(cfg.RecordFile)
		if err != nil {
			return nil, "", nil, err
		}
		return pool, "record-file", nil, nil
	}
	pool, err := cfg.Pool.NewPool()
	if err != nil {
		return nil, "", nil, err
	}
	return pool, "config", nil, nil
}
