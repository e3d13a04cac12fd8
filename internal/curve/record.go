package curve

import (
	"encoding/binary"
	"fmt"

	"curvePool/internal/fixed"
)

// PoolStateLen is the size of an encoded PoolState record.
const PoolStateLen = 6*fixed.Uint128Len + 8 + 1 + fixed.Uint128Len + 8

// MarshalBinary encodes the pool as a fixed 129-byte little-endian record:
// market price, slope, base reserve, quote reserve, base target, quote target,
// total supply, multiplier, last market price, last valid market price slot.
func (p *PoolState) MarshalBinary() ([]byte, error) {
	out := make([]byte, PoolStateLen)
	off := 0
	for _, field := range []struct {
		name  string
		value fixed.Decimal
	}{
		{"market_price", p.marketPrice},
		{"slope", p.slope},
		{"base_reserve", p.baseReserve},
		{"quote_reserve", p.quoteReserve},
		{"base_target", p.baseTarget},
		{"quote_target", p.quoteTarget},
	} {
		if err := field.value.PutUint128LE(out[off:]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", field.name, err)
		}
		off += fixed.Uint128Len
	}

	binary.LittleEndian.PutUint64(out[off:], p.totalSupply)
	off += 8
	out[off] = byte(p.multiplier)
	off++
	if err := p.lastMarketPrice.PutUint128LE(out[off:]); err != nil {
		return nil, fmt.Errorf("encode last_market_price: %w", err)
	}
	off += fixed.Uint128Len
	binary.LittleEndian.PutUint64(out[off:], p.lastValidMarketPriceSlot)

	return out, nil
}

// UnmarshalBinary decodes a record written by MarshalBinary.
func (p *PoolState) UnmarshalBinary(data []byte) error {
	if len(data) != PoolStateLen {
		return fmt.Errorf("pool state record: want %d bytes, got %d", PoolStateLen, len(data))
	}

	var next PoolState
	off := 0
	for _, dst := range []*fixed.Decimal{
		&next.marketPrice,
		&next.slope,
		&next.baseReserve,
		&next.quoteReserve,
		&next.baseTarget,
		&next.quoteTarget,
	} {
		v, err := fixed.FromUint128LE(data[off:])
		if err != nil {
			return err
		}
		*dst = v
		off += fixed.Uint128Len
	}

	next.totalSupply = binary.LittleEndian.Uint64(data[off:])
	off += 8
	multiplier, err := MultiplierFromByte(data[off])
	if err != nil {
		return err
	}
	next.multiplier = multiplier
	off++
	if next.lastMarketPrice, err = fixed.FromUint128LE(data[off:]); err != nil {
		return err
	}
	off += fixed.Uint128Len
	next.lastValidMarketPriceSlot = binary.LittleEndian.Uint64(data[off:])

	*p = next
	return nil
}

// DecodePoolState is a convenience wrapper around UnmarshalBinary.
func DecodePoolState(data []byte) (*PoolState, error) {
	var p PoolState
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &p, nil
}
