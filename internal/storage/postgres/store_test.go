package postgres

import (
	"context"
	"errors"
	"math"
	"testing"

	"curvePool/internal/model"
)

func TestSeqBigintRange(t *testing.T) {
	got, err := seqToBigint(math.MaxInt64)
	if err != nil || got != math.MaxInt64 {
		t.Fatalf("max int64 seq = %d, %v", got, err)
	}
	if _, err := seqToBigint(math.MaxInt64 + 1); !errors.Is(err, ErrSeqOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	back, err := seqFromBigint(42)
	if err != nil || back != 42 {
		t.Fatalf("seq from bigint = %d, %v", back, err)
	}
	if _, err := seqFromBigint(-1); !errors.Is(err, ErrSeqOutOfRange) {
		t.Fatalf("expected out of range for negative seq, got %v", err)
	}
}

func TestWritesRejectWideSeqBeforeQuerying(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	wide := uint64(math.MaxInt64) + 1

	if err := s.UpsertPoolSnapshots(ctx, "p", []model.PoolSnapshot{{Seq: wide}}); !errors.Is(err, ErrSeqOutOfRange) {
		t.Fatalf("snapshot: expected out of range, got %v", err)
	}
	if err := s.InsertOperationResults(ctx, []model.OperationResult{{Seq: wide}}); !errors.Is(err, ErrSeqOutOfRange) {
		t.Fatalf("results: expected out of range, got %v", err)
	}
	if err := s.SaveState(ctx, "p", wide); !errors.Is(err, ErrSeqOutOfRange) {
		t.Fatalf("state: expected out of range, got %v", err)
	}
}
