package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"curvePool/internal/curve"
	"curvePool/internal/fixed"
)

func TestOperationJSONDecode(t *testing.T) {
	line := `{"seq":4,"kind":"market_price","price":"101.25","slot":77,"base_decimals":9,"quote_decimals":6}`

	var op Operation
	if err := json.Unmarshal([]byte(line), &op); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if op.Seq != 4 || op.Kind != OpMarketPrice || op.Price != "101.25" || op.Slot != 77 {
		t.Fatalf("unexpected operation: %+v", op)
	}
	if op.BaseDecimals == nil || *op.BaseDecimals != 9 {
		t.Fatalf("base_decimals not decoded: %+v", op.BaseDecimals)
	}
	if op.QuoteDecimals == nil || *op.QuoteDecimals != 6 {
		t.Fatalf("quote_decimals not decoded: %+v", op.QuoteDecimals)
	}
}

func TestOperationResultOmitsUnusedAmounts(t *testing.T) {
	res := OperationResult{
		RunID:  "run",
		Seq:    1,
		Kind:   OpWithdraw,
		Status: StatusRejected,
		Error:  "withdraw not enough",
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"amount_in", "amount_out", "fee", "shares"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("%s should be omitted", key)
		}
	}
	if decoded["status"] != StatusRejected {
		t.Fatalf("status = %v", decoded["status"])
	}
}

func TestSnapshotFromPoolRoundTrip(t *testing.T) {
	pool := curve.NewPoolState(curve.InitPoolStateParams{
		MarketPrice:     fixed.FromUint64(100),
		Slope:           fixed.MustParse("0.1"),
		LastMarketPrice: fixed.FromUint64(100),
	})
	if _, _, _, err := pool.BuyShares(1_000_000, 10_000_000); err != nil {
		t.Fatalf("buy shares: %v", err)
	}

	snap, err := SnapshotFromPool(pool)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Multiplier != "below_one" {
		t.Fatalf("multiplier = %s", snap.Multiplier)
	}
	if snap.BaseReserve != "1000000" || snap.Slope != "0.1" {
		t.Fatalf("unexpected readable columns: %+v", snap)
	}
	if len(snap.Record) != 2*curve.PoolStateLen {
		t.Fatalf("record length = %d", len(snap.Record))
	}

	back, err := snap.Pool()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(pool, back) {
		t.Fatalf("round-trip mismatch: %+v != %+v", pool, back)
	}

	snap.Record = "zz"
	if _, err := snap.Pool(); err == nil {
		t.Fatalf("expected hex error")
	}
}
