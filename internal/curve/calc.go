package curve

import "curvePool/internal/fixed"

// GetTargetAmount prices moving a reserve from currentReserve up to futureReserve:
//
//	amount = price * (future - current) * (1 - slope + slope * target^2 / future / current)
//
// currentReserve must be positive and current <= future <= target.
func GetTargetAmount(targetReserve, futureReserve, currentReserve, marketPrice, slope fixed.Decimal) (fixed.Decimal, error) {
	if currentReserve.IsZero() || futureReserve.Lt(currentReserve) || futureReserve.Gt(targetReserve) {
		return fixed.Decimal{}, ErrCalculationFailure
	}

	delta, err := futureReserve.Sub(currentReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	fairAmount, err := delta.Mul(marketPrice)
	if err != nil {
		return fixed.Decimal{}, err
	}

	if slope.Gt(fixed.One()) {
		return fixed.Decimal{}, ErrInvalidSlope
	}
	if slope.IsZero() {
		return fairAmount, nil
	}

	targetSquared, err := targetReserve.Mul(targetReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	penaltyRatio, err := targetSquared.Div(futureReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	penaltyRatio, err = penaltyRatio.Div(currentReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	penalty, err := penaltyRatio.Mul(slope)
	if err != nil {
		return fixed.Decimal{}, err
	}

	factor, err := penalty.Add(fixed.One())
	if err != nil {
		return fixed.Decimal{}, err
	}
	factor, err = factor.Sub(slope)
	if err != nil {
		return fixed.Decimal{}, err
	}

	return fairAmount.Mul(factor)
}

// GetTargetAmountReverseDirection returns how much of currentReserve is released
// when quoteAmount of the opposite token is paid in. It solves the curve for the
// new reserve r':
//
//	(1 - slope) * r'^2 + (slope * target^2 / current + fair - (1 - slope) * current) * r' - slope * target^2 = 0
//
// and returns current - r', or zero when r' would exceed current.
func GetTargetAmountReverseDirection(targetReserve, currentReserve, quoteAmount, marketPrice, slope fixed.Decimal) (fixed.Decimal, error) {
	if targetReserve.IsZero() {
		return fixed.Decimal{}, ErrCalculationFailure
	}
	if quoteAmount.IsZero() {
		return fixed.Zero(), nil
	}

	one := fixed.One()
	if slope.Gt(one) {
		return fixed.Decimal{}, ErrInvalidSlope
	}

	fairAmount, err := quoteAmount.Mul(marketPrice)
	if err != nil {
		return fixed.Decimal{}, err
	}

	if slope.IsZero() {
		return fairAmount.Min(currentReserve), nil
	}

	if slope == one {
		return reverseFullSlope(targetReserve, currentReserve, fairAmount)
	}

	// slope * target / current * target + fair
	futureReserve, err := slope.Mul(targetReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	futureReserve, err = futureReserve.Div(currentReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	futureReserve, err = futureReserve.Mul(targetReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	futureReserve, err = futureReserve.Add(fairAmount)
	if err != nil {
		return fixed.Decimal{}, err
	}

	oneMinusSlope, err := one.Sub(slope)
	if err != nil {
		return fixed.Decimal{}, err
	}
	adjustedReserve, err := oneMinusSlope.Mul(currentReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}

	// b = |futureReserve - adjustedReserve|, negative when adjusted is smaller.
	isSmaller := adjustedReserve.Lt(futureReserve)
	if isSmaller {
		adjustedReserve, err = futureReserve.Sub(adjustedReserve)
	} else {
		adjustedReserve, err = adjustedReserve.Sub(futureReserve)
	}
	if err != nil {
		return fixed.Decimal{}, err
	}
	whole, err := adjustedReserve.FloorUint64()
	if err != nil {
		return fixed.Decimal{}, err
	}
	adjustedReserve = fixed.FromUint64(whole)

	// sqrt(b^2 + 4 * (1 - slope) * slope * target^2)
	discriminant, err := oneMinusSlope.MulUint64(4)
	if err != nil {
		return fixed.Decimal{}, err
	}
	for _, factor := range []fixed.Decimal{slope, targetReserve, targetReserve} {
		discriminant, err = discriminant.Mul(factor)
		if err != nil {
			return fixed.Decimal{}, err
		}
	}
	bSquared, err := adjustedReserve.Mul(adjustedReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	discriminant, err = bSquared.Add(discriminant)
	if err != nil {
		return fixed.Decimal{}, err
	}
	root, err := discriminant.Sqrt()
	if err != nil {
		return fixed.Decimal{}, err
	}

	denominator, err := oneMinusSlope.MulUint64(2)
	if err != nil {
		return fixed.Decimal{}, err
	}
	var numerator fixed.Decimal
	if isSmaller {
		numerator, err = root.Sub(adjustedReserve)
	} else {
		numerator, err = adjustedReserve.Add(root)
	}
	if err != nil {
		return fixed.Decimal{}, err
	}

	candidate, err := numerator.Div(denominator)
	if err != nil {
		return fixed.Decimal{}, err
	}
	if candidate.Gt(currentReserve) {
		return fixed.Zero(), nil
	}
	return currentReserve.Sub(candidate)
}

// reverseFullSlope is the slope == 1 closed form:
// current * adjust / (adjust + 1) with adjust = fair * current / target^2.
func reverseFullSlope(targetReserve, currentReserve, fairAmount fixed.Decimal) (fixed.Decimal, error) {
	adjustRatio := fixed.Zero()
	if !fairAmount.IsZero() {
		var err error
		adjustRatio, err = fairAmount.Mul(currentReserve)
		if err != nil {
			return fixed.Decimal{}, err
		}
		adjustRatio, err = adjustRatio.Div(targetReserve)
		if err != nil {
			return fixed.Decimal{}, err
		}
		adjustRatio, err = adjustRatio.Div(targetReserve)
		if err != nil {
			return fixed.Decimal{}, err
		}
	}

	numerator, err := currentReserve.Mul(adjustRatio)
	if err != nil {
		return fixed.Decimal{}, err
	}
	denominator, err := adjustRatio.Add(fixed.One())
	if err != nil {
		return fixed.Decimal{}, err
	}
	return numerator.Div(denominator)
}

// GetTargetReserve returns the regression target for a side holding
// currentReserve after quoteAmount of the other side is valued back into it:
//
//	target = current * (1 + (sqrt(1 + 4 * price * slope * quote / current) - 1) / (2 * slope))
func GetTargetReserve(currentReserve, quoteAmount, marketPrice, slope fixed.Decimal) (fixed.Decimal, error) {
	if currentReserve.IsZero() {
		return fixed.Zero(), nil
	}
	if slope.IsZero() {
		value, err := quoteAmount.Mul(marketPrice)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return value.Add(currentReserve)
	}
	if slope.Gt(fixed.One()) {
		return fixed.Decimal{}, ErrInvalidSlope
	}

	priceOffset, err := marketPrice.Mul(slope)
	if err != nil {
		return fixed.Decimal{}, err
	}
	priceOffset, err = priceOffset.MulUint64(4)
	if err != nil {
		return fixed.Decimal{}, err
	}

	root := fixed.One()
	if !priceOffset.IsZero() {
		inner, err := priceOffset.Mul(quoteAmount)
		if err != nil {
			return fixed.Decimal{}, err
		}
		inner, err = inner.Div(currentReserve)
		if err != nil {
			return fixed.Decimal{}, err
		}
		inner, err = inner.Add(fixed.One())
		if err != nil {
			return fixed.Decimal{}, err
		}
		root, err = inner.Sqrt()
		if err != nil {
			return fixed.Decimal{}, err
		}
	}

	premium, err := root.Sub(fixed.One())
	if err != nil {
		return fixed.Decimal{}, err
	}
	premium, err = premium.DivUint64(2)
	if err != nil {
		return fixed.Decimal{}, err
	}
	premium, err = premium.Div(slope)
	if err != nil {
		return fixed.Decimal{}, err
	}
	premium, err = premium.Add(fixed.One())
	if err != nil {
		return fixed.Decimal{}, err
	}
	return premium.Mul(currentReserve)
}
