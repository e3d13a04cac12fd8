package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"curvePool/internal/curve"
	"curvePool/internal/model"
	"curvePool/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	Input     string
	RunID     string
	PoolName  string
	BatchSize int
	Options   ApplyOptions

	// StartAfterSeq marks the starting pool as already containing every
	// operation up to and including this sequence number. A loaded
	// checkpoint takes precedence.
	StartAfterSeq *uint64
}

// ResultStore receives results in addition to the JSONL sink.
type ResultStore interface {
	InsertOperationResults(ctx context.Context, results []model.OperationResult) error
}

// SnapshotStore receives a pool snapshot at every flushed batch.
type SnapshotStore interface {
	UpsertPoolSnapshots(ctx context.Context, poolName string, snapshots []model.PoolSnapshot) error
}

// Stats counts what a replay did.
type Stats struct {
	Total    int
	Applied  int
	Rejected int
	Skipped  int
	Failed   int
	LastSeq  uint64
}

// Runner applies an operation log to a pool and persists the results.
type Runner struct {
	cfg       RunConfig
	pool      *curve.PoolState
	sink      storage.Storage
	results   ResultStore
	snapshots SnapshotStore
	state     StateStore
	logger    *zap.Logger
}

// NewRunner builds a Runner. results, snapshots and state may be nil.
func NewRunner(cfg RunConfig, pool *curve.PoolState, sink storage.Storage, results ResultStore, snapshots SnapshotStore, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Runner{
		cfg:       cfg,
		pool:      pool,
		sink:      sink,
		results:   results,
		snapshots: snapshots,
		state:     state,
		logger:    logger,
	}
}

// Pool returns the current pool state.
func (r *Runner) Pool() *curve.PoolState {
	return r.pool
}

// Run replays the input file. Operations at or below the checkpointed
// sequence number, and any sequence number not above the last one seen, are skipped.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.pool == nil {
		return stats, fmt.Errorf("pool is nil")
	}
	if r.sink == nil {
		return stats, fmt.Errorf("storage is nil")
	}
	if r.cfg.Input == "" {
		return stats, fmt.Errorf("input path is required")
	}

	var (
		lastSeq uint64
		hasLast bool
	)
	if r.state != nil {
		cp, ok, err := r.state.Load(ctx)
		if err != nil {
			return stats, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			r.pool = cp.Pool
			lastSeq, hasLast = cp.LastSeq, true
			stats.LastSeq = lastSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_seq", lastSeq))
		}
	}
	if !hasLast && r.cfg.StartAfterSeq != nil {
		lastSeq, hasLast = *r.cfg.StartAfterSeq, true
		stats.LastSeq = lastSeq
		r.logger.Info("start after stored snapshot", zap.Uint64("last_seq", lastSeq))
	}

	inputFile, err := os.Open(r.cfg.Input)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.OperationResult, 0, r.cfg.BatchSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			if err := r.flush(context.WithoutCancel(ctx), batch, stats.LastSeq); err != nil {
				return stats, err
			}
			return stats, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			stats.Failed++
			r.logger.Warn("skip malformed operation", zap.Int("line", stats.Total), zap.Error(err))
			continue
		}
		if hasLast && op.Seq <= lastSeq {
			stats.Skipped++
			continue
		}
		lastSeq, hasLast = op.Seq, true

		outcome, applyErr := Apply(r.pool, op, r.cfg.Options)
		if applyErr != nil {
			stats.Rejected++
			r.logger.Debug("operation rejected", zap.Uint64("seq", op.Seq), zap.String("kind", string(op.Kind)), zap.Error(applyErr))
		} else {
			stats.Applied++
		}
		stats.LastSeq = op.Seq
		batch = append(batch, r.result(op, outcome, applyErr))

		if len(batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, batch, stats.LastSeq); err != nil {
				return stats, err
			}
			batch = make([]model.OperationResult, 0, r.cfg.BatchSize)
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	if err := r.flush(ctx, batch, stats.LastSeq); err != nil {
		return stats, err
	}

	r.logger.Info("replay complete",
		zap.String("run_id", r.cfg.RunID),
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_seq", stats.LastSeq),
	)
	return stats, nil
}

func (r *Runner) flush(ctx context.Context, batch []model.OperationResult, lastSeq uint64) error {
	if len(batch) == 0 {
		return nil
	}

	if err := r.sink.PutResults(batch); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	if r.results != nil {
		if err := r.results.InsertOperationResults(ctx, batch); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
	}
	if r.snapshots != nil {
		snap, err := model.SnapshotFromPool(r.pool)
		if err != nil {
			return err
		}
		snap.RunID = r.cfg.RunID
		snap.Seq = lastSeq
		if err := r.snapshots.UpsertPoolSnapshots(ctx, r.cfg.PoolName, []model.PoolSnapshot{snap}); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}
	if r.state != nil {
		if err := r.state.Save(ctx, Checkpoint{LastSeq: lastSeq, Pool: r.pool.Clone()}); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	r.logger.Info("batch complete",
		zap.Int("results", len(batch)),
		zap.Uint64("first_seq", batch[0].Seq),
		zap.Uint64("last_seq", lastSeq),
		zap.String("multiplier", r.pool.Multiplier().String()),
	)
	return nil
}

func (r *Runner) result(op model.Operation, out Outcome, applyErr error) model.OperationResult {
	res := model.OperationResult{
		RunID:        r.cfg.RunID,
		Seq:          op.Seq,
		Kind:         op.Kind,
		Status:       model.StatusApplied,
		AmountIn:     out.AmountIn,
		AmountOut:    out.AmountOut,
		Fee:          out.Fee,
		Shares:       out.Shares,
		BaseAmount:   out.BaseAmount,
		QuoteAmount:  out.QuoteAmount,
		Multiplier:   r.pool.Multiplier().String(),
		BaseReserve:  r.pool.BaseReserve().String(),
		QuoteReserve: r.pool.QuoteReserve().String(),
		BaseTarget:   r.pool.BaseTarget().String(),
		QuoteTarget:  r.pool.QuoteTarget().String(),
		TotalSupply:  r.pool.TotalSupply(),
		AppliedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if applyErr != nil {
		res.Status = model.StatusRejected
		res.Error = applyErr.Error()
	}
	return res
}
