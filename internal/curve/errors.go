package curve

import (
	"errors"

	"curvePool/internal/fixed"
)

var (
	// ErrCalculationFailure covers overflow, underflow, division by zero and
	// violated curve preconditions. It is the same value as fixed.ErrCalculation.
	ErrCalculationFailure = fixed.ErrCalculation

	ErrInvalidSlope          = errors.New("invalid slope")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrIncorrectMint         = errors.New("incorrect mint")
	ErrWithdrawNotEnough     = errors.New("withdraw not enough")
	ErrInconsistentPoolState = errors.New("inconsistent pool state")
	ErrUnstableMarketPrice   = errors.New("unstable market price")
	ErrInvalidSupply         = errors.New("invalid supply")
	ErrInvalidMultiplier     = errors.New("invalid multiplier")
	ErrInvalidDirection      = errors.New("invalid swap direction")
)
