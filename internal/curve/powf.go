package curve

import (
	"math"

	"curvePool/internal/fixed"
)

// SimplePowf estimates the output of selling inputA into a weighted pool:
//
//	out = currentB * (1 - (currentA / (currentA + inputA)) ^ (price * targetA / targetB))
//
// The power is evaluated in float64, so results are approximate and not used
// by PoolState pricing.
func SimplePowf(marketPrice, targetA, targetB, currentA, currentB, inputA fixed.Decimal) (uint64, error) {
	afterA, err := currentA.Add(inputA)
	if err != nil {
		return 0, err
	}
	core, err := currentA.Div(afterA)
	if err != nil {
		return 0, err
	}
	exp, err := marketPrice.Mul(targetA)
	if err != nil {
		return 0, err
	}
	exp, err = exp.Div(targetB)
	if err != nil {
		return 0, err
	}

	coreExp, err := fixed.FromFloat64(math.Pow(core.Float64(), exp.Float64()))
	if err != nil {
		return 0, err
	}
	remaining, err := fixed.One().Sub(coreExp)
	if err != nil {
		return 0, err
	}
	out, err := currentB.Mul(remaining)
	if err != nil {
		return 0, err
	}
	return out.FloorUint64()
}
