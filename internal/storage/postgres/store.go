package postgres

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"curvePool/internal/curve"
	"curvePool/internal/model"
)

// Schema creates the tables used by Store. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_name text NOT NULL,
	run_id text NOT NULL,
	seq bigint NOT NULL,
	market_price numeric NOT NULL,
	slope numeric NOT NULL,
	base_reserve numeric NOT NULL,
	quote_reserve numeric NOT NULL,
	base_target numeric NOT NULL,
	quote_target numeric NOT NULL,
	total_supply numeric NOT NULL,
	multiplier text NOT NULL,
	last_market_price numeric NOT NULL,
	last_valid_market_price_slot numeric NOT NULL,
	record bytea NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_name, run_id, seq)
);

CREATE TABLE IF NOT EXISTS operation_results (
	run_id text NOT NULL,
	seq bigint NOT NULL,
	kind text NOT NULL,
	status text NOT NULL,
	error text,
	amount_in numeric NOT NULL,
	amount_out numeric NOT NULL,
	fee numeric NOT NULL,
	shares numeric NOT NULL,
	base_amount numeric NOT NULL,
	quote_amount numeric NOT NULL,
	multiplier text NOT NULL,
	base_reserve numeric NOT NULL,
	quote_reserve numeric NOT NULL,
	total_supply numeric NOT NULL,
	applied_at timestamptz NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS replay_state (
	name text PRIMARY KEY,
	last_seq bigint NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`

// ErrSeqOutOfRange is returned for sequence numbers a bigint column cannot hold.
var ErrSeqOutOfRange = errors.New("sequence number out of bigint range")

func seqToBigint(seq uint64) (int64, error) {
	if seq > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrSeqOutOfRange, seq)
	}
	return int64(seq), nil
}

func seqFromBigint(seq int64) (uint64, error) {
	if seq < 0 {
		return 0, fmt.Errorf("%w: %d", ErrSeqOutOfRange, seq)
	}
	return uint64(seq), nil
}

// Store provides Postgres persistence for pool snapshots and replay results.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// UpsertPoolSnapshots inserts or replaces snapshots of the named pool.
func (s *Store) UpsertPoolSnapshots(ctx context.Context, poolName string, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		seq, err := seqToBigint(snap.Seq)
		if err != nil {
			return err
		}
		record, err := hex.DecodeString(snap.Record)
		if err != nil {
			return fmt.Errorf("snapshot seq %d: decode record: %w", snap.Seq, err)
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_name, run_id, seq, market_price, slope, base_reserve, quote_reserve,
				base_target, quote_target, total_supply, multiplier, last_market_price,
				last_valid_market_price_slot, record, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (pool_name, run_id, seq)
			DO UPDATE SET
				market_price = EXCLUDED.market_price,
				slope = EXCLUDED.slope,
				base_reserve = EXCLUDED.base_reserve,
				quote_reserve = EXCLUDED.quote_reserve,
				base_target = EXCLUDED.base_target,
				quote_target = EXCLUDED.quote_target,
				total_supply = EXCLUDED.total_supply,
				multiplier = EXCLUDED.multiplier,
				last_market_price = EXCLUDED.last_market_price,
				last_valid_market_price_slot = EXCLUDED.last_valid_market_price_slot,
				record = EXCLUDED.record,
				created_at = now()
		`,
			poolName,
			snap.RunID,
			seq,
			snap.MarketPrice,
			snap.Slope,
			snap.BaseReserve,
			snap.QuoteReserve,
			snap.BaseTarget,
			snap.QuoteTarget,
			fmt.Sprint(snap.TotalSupply),
			snap.Multiplier,
			snap.LastMarketPrice,
			fmt.Sprint(snap.LastValidMarketPriceSlot),
			record,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertOperationResults stores results; rows already present for a run are kept.
func (s *Store) InsertOperationResults(ctx context.Context, results []model.OperationResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		seq, err := seqToBigint(r.Seq)
		if err != nil {
			return err
		}
		var errText *string
		if r.Error != "" {
			errText = &r.Error
		}
		batch.Queue(`
			INSERT INTO operation_results (
				run_id, seq, kind, status, error, amount_in, amount_out, fee, shares,
				base_amount, quote_amount, multiplier, base_reserve, quote_reserve,
				total_supply, applied_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (run_id, seq) DO NOTHING
		`,
			r.RunID,
			seq,
			string(r.Kind),
			r.Status,
			errText,
			fmt.Sprint(r.AmountIn),
			fmt.Sprint(r.AmountOut),
			fmt.Sprint(r.Fee),
			fmt.Sprint(r.Shares),
			fmt.Sprint(r.BaseAmount),
			fmt.Sprint(r.QuoteAmount),
			r.Multiplier,
			r.BaseReserve,
			r.QuoteReserve,
			fmt.Sprint(r.TotalSupply),
			r.AppliedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range results {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadLatestSnapshot returns the most recently written snapshot of the named pool.
func (s *Store) LoadLatestSnapshot(ctx context.Context, poolName string) (model.PoolSnapshot, bool, error) {
	var (
		runID  string
		seq    int64
		record []byte
	)
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, seq, record FROM pool_snapshots
		WHERE pool_name=$1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, poolName)
	if err := row.Scan(&runID, &seq, &record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, err
	}

	snapSeq, err := seqFromBigint(seq)
	if err != nil {
		return model.PoolSnapshot{}, false, err
	}
	pool, err := curve.DecodePoolState(record)
	if err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("decode snapshot %s/%d: %w", runID, seq, err)
	}
	snap, err := model.SnapshotFromPool(pool)
	if err != nil {
		return model.PoolSnapshot{}, false, err
	}
	snap.RunID = runID
	snap.Seq = snapSeq
	return snap, true, nil
}

// LoadState returns the last replayed sequence number for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_seq FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	last, err := seqFromBigint(seq)
	if err != nil {
		return 0, false, err
	}
	return last, true, nil
}

// SaveState upserts the last replayed sequence number for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	last, err := seqToBigint(seq)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_seq = EXCLUDED.last_seq, updated_at = now()
	`, name, last)
	return err
}
