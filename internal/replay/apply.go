package replay

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"curvePool/internal/curve"
	"curvePool/internal/fixed"
	"curvePool/internal/model"
)

var (
	ErrSlippage         = errors.New("slippage exceeded")
	ErrUnknownOperation = errors.New("unknown operation")
)

// FeeRate is the share of every swap output retained by the pool.
type FeeRate struct {
	Numerator   uint64
	Denominator uint64
}

// Fee returns floor(amount * Numerator / Denominator). A zero rate charges nothing.
func (f FeeRate) Fee(amount uint64) (uint64, error) {
	if f.Numerator == 0 || amount == 0 {
		return 0, nil
	}
	if f.Denominator == 0 || f.Numerator > f.Denominator {
		return 0, fmt.Errorf("invalid fee rate %d/%d", f.Numerator, f.Denominator)
	}
	var fee uint256.Int
	fee.MulDivOverflow(uint256.NewInt(amount), uint256.NewInt(f.Numerator), uint256.NewInt(f.Denominator))
	return fee.Uint64(), nil
}

// Decimals are the token decimals used to normalize market prices.
type Decimals struct {
	Base  uint8
	Quote uint8
}

// ApplyOptions carry the replay-wide settings an operation is applied with.
type ApplyOptions struct {
	Fee FeeRate
	// Decimals is used for market_price operations that do not name their own.
	Decimals Decimals
}

// Outcome holds the amounts an applied operation moved.
type Outcome struct {
	AmountIn    uint64
	AmountOut   uint64
	Fee         uint64
	Shares      uint64
	BaseAmount  uint64
	QuoteAmount uint64
}

// Apply runs op against pool. On error the pool is left exactly as it was.
func Apply(pool *curve.PoolState, op model.Operation, opts ApplyOptions) (Outcome, error) {
	next := pool.Clone()

	var (
		out Outcome
		err error
	)
	switch op.Kind {
	case model.OpSwap:
		out, err = applySwap(next, op, opts.Fee)
	case model.OpDeposit:
		out.Shares, out.BaseAmount, out.QuoteAmount, err = next.BuyShares(op.BaseAmount, op.QuoteAmount)
	case model.OpWithdraw:
		out.Shares = op.Shares
		out.BaseAmount, out.QuoteAmount, err = next.SellShares(op.Shares, op.BaseMin, op.QuoteMin)
	case model.OpMarketPrice:
		err = applyMarketPrice(next, op, opts.Decimals)
	case model.OpCollectFee:
		out.BaseAmount, out.QuoteAmount = op.BaseAmount, op.QuoteAmount
		err = next.CollectTradeFee(op.BaseAmount, op.QuoteAmount)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
	if err != nil {
		return Outcome{}, err
	}

	*pool = *next
	return out, nil
}

// applySwap books the full curve output, pays the trader out minus the fee
// and credits the fee back to the output side of the pool.
func applySwap(pool *curve.PoolState, op model.Operation, rate FeeRate) (Outcome, error) {
	direction, err := curve.ParseSwapDirection(op.Direction)
	if err != nil {
		return Outcome{}, err
	}
	if op.AmountIn == 0 {
		return Outcome{}, fmt.Errorf("%w: zero swap input", curve.ErrInsufficientFunds)
	}

	out, err := pool.GetOutAmount(op.AmountIn, direction)
	if err != nil {
		return Outcome{}, err
	}
	fee, err := rate.Fee(out)
	if err != nil {
		return Outcome{}, err
	}
	received := out - fee
	if received < op.MinAmountOut {
		return Outcome{}, fmt.Errorf("%w: out %d below minimum %d", ErrSlippage, received, op.MinAmountOut)
	}

	if err := pool.Swap(op.AmountIn, out, direction); err != nil {
		return Outcome{}, err
	}
	if fee > 0 {
		if direction == curve.SellBase {
			err = pool.CollectTradeFee(0, fee)
		} else {
			err = pool.CollectTradeFee(fee, 0)
		}
		if err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{AmountIn: op.AmountIn, AmountOut: received, Fee: fee}, nil
}

func applyMarketPrice(pool *curve.PoolState, op model.Operation, defaults Decimals) error {
	price, err := fixed.Parse(op.Price)
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}

	decimals := defaults
	if op.BaseDecimals != nil {
		decimals.Base = *op.BaseDecimals
	}
	if op.QuoteDecimals != nil {
		decimals.Quote = *op.QuoteDecimals
	}

	if err := pool.CheckAndUpdateMarketPriceAndSlot(price, op.Slot); err != nil {
		return err
	}
	return pool.SetMarketPrice(decimals.Base, decimals.Quote, price)
}
