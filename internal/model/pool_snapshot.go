package model

import (
	"encoding/hex"
	"fmt"

	"curvePool/internal/curve"
)

// PoolSnapshot is the readable form of a pool state together with its
// 129-byte record, hex encoded.
type PoolSnapshot struct {
	RunID                    string `json:"run_id,omitempty"`
	Seq                      uint64 `json:"seq"`
	MarketPrice              string `json:"market_price"`
	Slope                    string `json:"slope"`
	BaseReserve              string `json:"base_reserve"`
	QuoteReserve             string `json:"quote_reserve"`
	BaseTarget               string `json:"base_target"`
	QuoteTarget              string `json:"quote_target"`
	TotalSupply              uint64 `json:"total_supply"`
	Multiplier               string `json:"multiplier"`
	LastMarketPrice          string `json:"last_market_price"`
	LastValidMarketPriceSlot uint64 `json:"last_valid_market_price_slot"`
	Record                   string `json:"record"`
}

// SnapshotFromPool encodes p into a snapshot.
func SnapshotFromPool(p *curve.PoolState) (PoolSnapshot, error) {
	record, err := p.MarshalBinary()
	if err != nil {
		return PoolSnapshot{}, fmt.Errorf("encode pool record: %w", err)
	}
	return PoolSnapshot{
		MarketPrice:              p.MarketPrice().String(),
		Slope:                    p.Slope().String(),
		BaseReserve:              p.BaseReserve().String(),
		QuoteReserve:             p.QuoteReserve().String(),
		BaseTarget:               p.BaseTarget().String(),
		QuoteTarget:              p.QuoteTarget().String(),
		TotalSupply:              p.TotalSupply(),
		Multiplier:               p.Multiplier().String(),
		LastMarketPrice:          p.LastMarketPrice().String(),
		LastValidMarketPriceSlot: p.LastValidMarketPriceSlot(),
		Record:                   hex.EncodeToString(record),
	}, nil
}

// Pool decodes the snapshot record. The readable columns are informational only.
func (s PoolSnapshot) Pool() (*curve.PoolState, error) {
	raw, err := hex.DecodeString(s.Record)
	if err != nil {
		return nil, fmt.Errorf("decode record hex: %w", err)
	}
	return curve.DecodePoolState(raw)
}
