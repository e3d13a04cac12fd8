package fixed

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Scale is the number of fractional decimal digits carried by a Decimal.
const Scale = 18

const wadUint64 uint64 = 1_000_000_000_000_000_000

// ErrCalculation is returned by every failed arithmetic operation.
var ErrCalculation = errors.New("calculation failure")

var (
	errOverflow   = fmt.Errorf("%w: overflow", ErrCalculation)
	errUnderflow  = fmt.Errorf("%w: underflow", ErrCalculation)
	errDivByZero  = fmt.Errorf("%w: division by zero", ErrCalculation)
	errOutOfRange = fmt.Errorf("%w: value out of range", ErrCalculation)
)

var wad = uint256.NewInt(wadUint64)

// Decimal is an unsigned fixed-point number scaled by 10^18.
// The zero value is 0 and values are safe to copy and compare with ==.
type Decimal struct {
	v uint256.Int
}

// Zero returns 0.
func Zero() Decimal {
	return Decimal{}
}

// One returns 1.0.
func One() Decimal {
	return Decimal{v: *wad}
}

// FromUint64 returns n as a Decimal.
func FromUint64(n uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(n), wad)
	return d
}

// FromScaled wraps an already scaled raw value.
func FromScaled(raw *uint256.Int) Decimal {
	if raw == nil {
		return Decimal{}
	}
	return Decimal{v: *raw}
}

// FromScaledUint64 wraps an already scaled raw value.
func FromScaledUint64(raw uint64) Decimal {
	return FromScaled(uint256.NewInt(raw))
}

// FromScaledBig wraps an already scaled raw value held in a big.Int.
func FromScaledBig(raw *big.Int) (Decimal, error) {
	if raw == nil || raw.Sign() < 0 {
		return Decimal{}, errOutOfRange
	}
	v, overflow := uint256.FromBig(raw)
	if overflow {
		return Decimal{}, errOverflow
	}
	return FromScaled(v), nil
}

// ScaledBig returns the raw scaled value as a big.Int.
func (d Decimal) ScaledBig() *big.Int {
	return d.v.ToBig()
}

// IsZero reports whether d is 0.
func (d Decimal) IsZero() bool {
	return d.v.IsZero()
}

// Cmp returns -1, 0 or +1 as d is less than, equal to or greater than o.
func (d Decimal) Cmp(o Decimal) int {
	return d.v.Cmp(&o.v)
}

// Lt reports whether d < o.
func (d Decimal) Lt(o Decimal) bool {
	return d.v.Lt(&o.v)
}

// Gt reports whether d > o.
func (d Decimal) Gt(o Decimal) bool {
	return d.v.Gt(&o.v)
}

// Min returns the smaller of d and o.
func (d Decimal) Min(o Decimal) Decimal {
	if o.Lt(d) {
		return o
	}
	return d
}

// Add returns d+o and fails past 256 bits.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.AddOverflow(&d.v, &o.v); overflow {
		return Decimal{}, errOverflow
	}
	return r, nil
}

// Sub returns d-o and fails when o > d.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	if d.v.Lt(&o.v) {
		return Decimal{}, errUnderflow
	}
	var r Decimal
	r.v.Sub(&d.v, &o.v)
	return r, nil
}

// Mul returns floor(d*o). The product is widened to 512 bits before rescaling.
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.MulDivOverflow(&d.v, &o.v, wad); overflow {
		return Decimal{}, errOverflow
	}
	return r, nil
}

// Div returns floor(d/o).
func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.v.IsZero() {
		return Decimal{}, errDivByZero
	}
	var r Decimal
	if _, overflow := r.v.MulDivOverflow(&d.v, wad, &o.v); overflow {
		return Decimal{}, errOverflow
	}
	return r, nil
}

// MulUint64 multiplies by a plain integer without rescaling.
func (d Decimal) MulUint64(n uint64) (Decimal, error) {
	var r Decimal
	if _, overflow := r.v.MulOverflow(&d.v, uint256.NewInt(n)); overflow {
		return Decimal{}, errOverflow
	}
	return r, nil
}

// DivUint64 divides by a plain integer without rescaling.
func (d Decimal) DivUint64(n uint64) (Decimal, error) {
	if n == 0 {
		return Decimal{}, errDivByZero
	}
	var r Decimal
	r.v.Div(&d.v, uint256.NewInt(n))
	return r, nil
}

// Reciprocal returns floor(1/d).
func (d Decimal) Reciprocal() (Decimal, error) {
	return One().Div(d)
}

// Sqrt returns the floor of the square root.
func (d Decimal) Sqrt() (Decimal, error) {
	var widened uint256.Int
	if _, overflow := widened.MulOverflow(&d.v, wad); overflow {
		return Decimal{}, errOverflow
	}
	var r Decimal
	r.v.Sqrt(&widened)
	return r, nil
}

// FloorUint64 truncates the fractional part and fails if the integer part does not fit in 64 bits.
func (d Decimal) FloorUint64() (uint64, error) {
	var q uint256.Int
	q.Div(&d.v, wad)
	if !q.IsUint64() {
		return 0, errOutOfRange
	}
	return q.Uint64(), nil
}
