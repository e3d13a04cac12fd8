package replay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"curvePool/internal/curve"
	"curvePool/internal/model"
)

// Checkpoint is the replay position together with the pool state after it.
type Checkpoint struct {
	LastSeq uint64
	Pool    *curve.PoolState
}

// StateStore persists replay checkpoints.
type StateStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileStateStore stores the checkpoint in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastSeq   uint64 `json:"last_seq"`
	Record    string `json:"record"`
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Path == "" {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse state: %w", err)
	}
	raw, err := hex.DecodeString(rec.Record)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse state record: %w", err)
	}
	pool, err := curve.DecodePoolState(raw)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode state record: %w", err)
	}
	return Checkpoint{LastSeq: rec.LastSeq, Pool: pool}, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	record, err := cp.Pool.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode state record: %w", err)
	}
	rec := stateRecord{
		LastSeq:   cp.LastSeq,
		Record:    hex.EncodeToString(record),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// StateDB is the subset of the Postgres store used for checkpoints.
type StateDB interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, seq uint64) error
	LoadLatestSnapshot(ctx context.Context, poolName string) (model.PoolSnapshot, bool, error)
}

// DBStateStore keeps the sequence number in replay_state and reads the pool
// back from the latest snapshot, which the runner writes before every Save.
type DBStateStore struct {
	Store StateDB
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	seq, ok, err := s.Store.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}
	snap, ok, err := s.Store.LoadLatestSnapshot(ctx, s.Name)
	if err != nil {
		return Checkpoint{}, false, err
	}
	if !ok {
		return Checkpoint{}, false, fmt.Errorf("replay state %s at seq %d has no pool snapshot", s.Name, seq)
	}
	if snap.Seq != seq {
		return Checkpoint{}, false, fmt.Errorf("replay state %s at seq %d but latest snapshot is seq %d", s.Name, seq, snap.Seq)
	}
	pool, err := snap.Pool()
	if err != nil {
		return Checkpoint{}, false, err
	}
	return Checkpoint{LastSeq: seq, Pool: pool}, true, nil
}

func (s *DBStateStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, cp.LastSeq)
}
