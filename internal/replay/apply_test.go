package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"curvePool/internal/curve"
	"curvePool/internal/fixed"
	"curvePool/internal/model"
)

var testFee = FeeRate{Numerator: 30, Denominator: 10_000}

func newTestPool() *curve.PoolState {
	return curve.NewPoolState(curve.InitPoolStateParams{
		MarketPrice:     fixed.FromUint64(100),
		Slope:           fixed.MustParse("0.1"),
		LastMarketPrice: fixed.FromUint64(100),
	})
}

func fundedPool(t *testing.T) *curve.PoolState {
	t.Helper()
	pool := newTestPool()
	_, err := Apply(pool, model.Operation{Kind: model.OpDeposit, BaseAmount: 1_000_000, QuoteAmount: 100_000_000}, ApplyOptions{})
	require.NoError(t, err)
	return pool
}

func TestFeeRate(t *testing.T) {
	fee, err := testFee.Fee(9999)
	require.NoError(t, err)
	require.Equal(t, uint64(29), fee)

	fee, err = FeeRate{}.Fee(9999)
	require.NoError(t, err)
	require.Zero(t, fee)

	fee, err = FeeRate{Numerator: 1, Denominator: 1}.Fee(^uint64(0))
	require.NoError(t, err)
	require.Equal(t, ^uint64(0), fee)

	_, err = FeeRate{Numerator: 2, Denominator: 1}.Fee(10)
	require.Error(t, err)
	_, err = FeeRate{Numerator: 1}.Fee(10)
	require.Error(t, err)
}

func TestApplySwapSellBaseChargesFee(t *testing.T) {
	pool := fundedPool(t)

	out, err := Apply(pool, model.Operation{Kind: model.OpSwap, Direction: "sell_base", AmountIn: 100}, ApplyOptions{Fee: testFee})
	require.NoError(t, err)
	require.Equal(t, Outcome{AmountIn: 100, AmountOut: 9970, Fee: 29}, out)
	require.Equal(t, fixed.FromUint64(1_000_100), pool.BaseReserve())
	require.Equal(t, fixed.FromUint64(99_990_030), pool.QuoteReserve())
	require.Equal(t, curve.BelowOne, pool.Multiplier())
}

func TestApplySwapSellQuoteChargesFee(t *testing.T) {
	pool := fundedPool(t)

	out, err := Apply(pool, model.Operation{Kind: model.OpSwap, Direction: "sell_quote", AmountIn: 1_000_000}, ApplyOptions{Fee: testFee})
	require.NoError(t, err)
	require.Equal(t, Outcome{AmountIn: 1_000_000, AmountOut: 9960, Fee: 29}, out)
	require.Equal(t, fixed.FromUint64(990_040), pool.BaseReserve())
	require.Equal(t, fixed.FromUint64(101_000_000), pool.QuoteReserve())
	require.Equal(t, curve.AboveOne, pool.Multiplier())
}

func TestApplyRejectionsLeavePoolUntouched(t *testing.T) {
	tests := []struct {
		name string
		op   model.Operation
		want error
	}{
		{
			name: "slippage",
			op:   model.Operation{Kind: model.OpSwap, Direction: "sell_base", AmountIn: 100, MinAmountOut: 9971},
			want: ErrSlippage,
		},
		{
			name: "bad direction",
			op:   model.Operation{Kind: model.OpSwap, Direction: "sideways", AmountIn: 100},
			want: curve.ErrInvalidDirection,
		},
		{
			name: "zero swap",
			op:   model.Operation{Kind: model.OpSwap, Direction: "sell_base"},
			want: curve.ErrInsufficientFunds,
		},
		{
			name: "withdraw too much",
			op:   model.Operation{Kind: model.OpWithdraw, Shares: 2_000_000},
			want: curve.ErrInsufficientFunds,
		},
		{
			name: "withdraw below minimum",
			op:   model.Operation{Kind: model.OpWithdraw, Shares: 10, BaseMin: 100},
			want: curve.ErrWithdrawNotEnough,
		},
		{
			name: "one sided deposit",
			op:   model.Operation{Kind: model.OpDeposit, BaseAmount: 10},
			want: curve.ErrInsufficientFunds,
		},
		{
			name: "price jump",
			op:   model.Operation{Kind: model.OpMarketPrice, Price: "150", Slot: 3},
			want: curve.ErrUnstableMarketPrice,
		},
		{
			name: "unknown kind",
			op:   model.Operation{Kind: "mint"},
			want: ErrUnknownOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := fundedPool(t)
			before := *pool

			_, err := Apply(pool, tt.op, ApplyOptions{Fee: testFee})
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, before, *pool)
		})
	}
}

func TestApplyMarketPriceIsAtomic(t *testing.T) {
	pool := fundedPool(t)
	before := *pool

	// The slot check passes, then normalizing by 10^20 overflows.
	quoteDecimals := uint8(20)
	_, err := Apply(pool, model.Operation{Kind: model.OpMarketPrice, Price: "100", Slot: 30, QuoteDecimals: &quoteDecimals}, ApplyOptions{})
	require.ErrorIs(t, err, curve.ErrCalculationFailure)
	require.Equal(t, before, *pool)
	require.Equal(t, uint64(0), pool.LastValidMarketPriceSlot())
}

func TestApplyMarketPriceUsesDecimals(t *testing.T) {
	pool := fundedPool(t)

	_, err := Apply(pool, model.Operation{Kind: model.OpMarketPrice, Price: "100", Slot: 30}, ApplyOptions{Decimals: Decimals{Base: 9, Quote: 6}})
	require.NoError(t, err)
	require.Equal(t, "0.1", pool.MarketPrice().String())
	require.Equal(t, fixed.FromUint64(100), pool.LastMarketPrice())
	require.Equal(t, uint64(30), pool.LastValidMarketPriceSlot())
	require.Equal(t, curve.AboveOne, pool.Multiplier())

	base := uint8(6)
	_, err = Apply(pool, model.Operation{Kind: model.OpMarketPrice, Price: "100", Slot: 31, BaseDecimals: &base}, ApplyOptions{Decimals: Decimals{Base: 9, Quote: 6}})
	require.NoError(t, err)
	require.Equal(t, "100", pool.MarketPrice().String())
	require.Equal(t, curve.One, pool.Multiplier())
}

func TestApplyCollectFee(t *testing.T) {
	pool := fundedPool(t)

	out, err := Apply(pool, model.Operation{Kind: model.OpCollectFee, BaseAmount: 5, QuoteAmount: 500}, ApplyOptions{})
	require.NoError(t, err)
	require.Equal(t, Outcome{BaseAmount: 5, QuoteAmount: 500}, out)
	require.Equal(t, fixed.FromUint64(1_000_005), pool.BaseReserve())
	require.Equal(t, fixed.FromUint64(100_000_500), pool.QuoteReserve())
}
