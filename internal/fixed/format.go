package fixed

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Uint128Len is the size of the little-endian record form of a Decimal.
const Uint128Len = 16

// Parse reads a non-negative decimal string such as "100.5".
// Inputs with more than Scale fractional digits are rejected.
func Parse(s string) (Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	if v.Sign() < 0 {
		return Decimal{}, fmt.Errorf("parse decimal %q: negative value", s)
	}
	scaled := v.Shift(Scale)
	if !scaled.IsInteger() {
		return Decimal{}, fmt.Errorf("parse decimal %q: more than %d fractional digits", s, Scale)
	}
	return FromScaledBig(scaled.BigInt())
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) String() string {
	return decimal.NewFromBigInt(d.ScaledBig(), -Scale).String()
}

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Float64 returns a lossy approximation of d.
func (d Decimal) Float64() float64 {
	f, _ := decimal.NewFromBigInt(d.ScaledBig(), -Scale).Float64()
	return f
}

// FromFloat64 converts an approximation back to fixed point, truncating past Scale digits.
func FromFloat64(f float64) (Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Decimal{}, errOutOfRange
	}
	return FromScaledBig(decimal.NewFromFloat(f).Shift(Scale).BigInt())
}

// PutUint128LE writes the raw scaled value as 16 little-endian bytes.
func (d Decimal) PutUint128LE(dst []byte) error {
	if len(dst) < Uint128Len {
		return fmt.Errorf("uint128 buffer too short: %d", len(dst))
	}
	if d.v.BitLen() > 128 {
		return errOverflow
	}
	binary.LittleEndian.PutUint64(dst[0:8], d.v[0])
	binary.LittleEndian.PutUint64(dst[8:16], d.v[1])
	return nil
}

// FromUint128LE reads a raw scaled value written by PutUint128LE.
func FromUint128LE(src []byte) (Decimal, error) {
	if len(src) < Uint128Len {
		return Decimal{}, fmt.Errorf("uint128 buffer too short: %d", len(src))
	}
	var d Decimal
	d.v[0] = binary.LittleEndian.Uint64(src[0:8])
	d.v[1] = binary.LittleEndian.Uint64(src[8:16])
	return d, nil
}
