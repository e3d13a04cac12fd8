package curve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"curvePool/internal/fixed"
)

func newEmptyPool() *PoolState {
	return NewPoolState(InitPoolStateParams{
		MarketPrice:     defaultMarketPrice,
		Slope:           defaultSlope,
		LastMarketPrice: defaultMarketPrice,
	})
}

func newFundedPool(t *testing.T, base, quote uint64) *PoolState {
	t.Helper()
	p := newEmptyPool()
	_, _, _, err := p.BuyShares(base, quote)
	require.NoError(t, err)
	return p
}

func TestCheckMintSupply(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice: defaultMarketPrice,
		Slope:       defaultSlope,
		TotalSupply: 1000,
	})

	require.NoError(t, p.CheckMintSupply(1000))
	require.NoError(t, p.CheckMintSupply(999))
	require.ErrorIs(t, p.CheckMintSupply(1001), ErrInvalidSupply)
}

func TestCheckReserveAmount(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:  defaultMarketPrice,
		Slope:        defaultSlope,
		BaseReserve:  fixed.FromUint64(100),
		QuoteReserve: fixed.FromUint64(100),
	})

	require.NoError(t, p.CheckReserveAmount(100, 100))
	require.NoError(t, p.CheckReserveAmount(100, 101))
	require.NoError(t, p.CheckReserveAmount(101, 100))
	require.ErrorIs(t, p.CheckReserveAmount(100, 99), ErrInconsistentPoolState)
	require.ErrorIs(t, p.CheckReserveAmount(99, 100), ErrInconsistentPoolState)

	p.baseReserve = fixed.Zero()
	require.ErrorIs(t, p.CheckReserveAmount(0, 100), ErrInsufficientFunds)
}

func TestNewPoolStateDoesNotAdjust(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:  defaultMarketPrice,
		Slope:        defaultSlope,
		BaseReserve:  fixed.FromUint64(1_000_000),
		QuoteReserve: fixed.FromUint64(900_000_000),
	})
	require.Equal(t, One, p.Multiplier())
	require.True(t, p.BaseTarget().IsZero())
	require.True(t, p.QuoteTarget().IsZero())

	require.NoError(t, p.AdjustTarget())
	require.Equal(t, AboveOne, p.Multiplier())
}

func TestAdjustTarget(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p := newEmptyPool()
		p.multiplier = BelowOne
		p.baseTarget = fixed.FromUint64(5)
		require.NoError(t, p.AdjustTarget())
		require.Equal(t, One, p.Multiplier())
		require.True(t, p.BaseTarget().IsZero())
		require.True(t, p.QuoteTarget().IsZero())
	})

	t.Run("balanced", func(t *testing.T) {
		p := newFundedPool(t, 1_000_000, 100_000_000)
		require.Equal(t, One, p.Multiplier())
		require.Equal(t, p.BaseReserve(), p.BaseTarget())
		require.Equal(t, p.QuoteReserve(), p.QuoteTarget())
	})

	t.Run("below one", func(t *testing.T) {
		p := newFundedPool(t, 1_000_000, 100_000_000)
		require.NoError(t, p.Swap(100, 9999, SellBase))
		require.Equal(t, BelowOne, p.Multiplier())
		require.Equal(t, scaled(t, "1000000005000000000000000"), p.BaseTarget())
		require.Equal(t, scaled(t, "100000000400001999800419900"), p.QuoteTarget())
	})

	t.Run("above one", func(t *testing.T) {
		p := newFundedPool(t, 1_000_000, 100_000_000)
		require.NoError(t, p.Swap(10_000, 100, SellQuote))
		require.Equal(t, AboveOne, p.Multiplier())
		require.Equal(t, scaled(t, "999999998999919987993000"), p.BaseTarget())
		require.Equal(t, fixed.FromUint64(100_000_000), p.QuoteTarget())
	})
}

func TestSetMarketPrice(t *testing.T) {
	tests := []struct {
		base, quote uint8
		want        string
	}{
		{base: 9, quote: 6, want: "0.1"},
		{base: 6, quote: 9, want: "100000"},
		{base: 8, quote: 8, want: "100"},
	}
	for _, tt := range tests {
		p := newEmptyPool()
		require.NoError(t, p.SetMarketPrice(tt.base, tt.quote, fixed.FromUint64(100)))
		require.Equal(t, tt.want, p.MarketPrice().String())
	}

	p := newEmptyPool()
	require.ErrorIs(t, p.SetMarketPrice(0, 20, fixed.FromUint64(100)), ErrCalculationFailure)
	require.Equal(t, defaultMarketPrice, p.MarketPrice())
}

func TestSetMarketPriceMovesRegime(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:     defaultMarketPrice,
		Slope:           fixed.MustParse("0.0001"),
		LastMarketPrice: defaultMarketPrice,
	})
	_, _, _, err := p.BuyShares(1_000_000, 10_000_000)
	require.NoError(t, err)

	require.NoError(t, p.SetMarketPrice(6, 6, fixed.FromUint64(15)))
	require.Equal(t, BelowOne, p.Multiplier())
	for _, tc := range []struct{ in, out uint64 }{
		{500_000, 7_496_072},
		{100_000, 1_499_874},
		{50_000, 749_948},
		{5_000, 74_996},
		{5, 75},
	} {
		got, err := p.GetOutAmount(tc.in, SellBase)
		require.NoError(t, err)
		require.Equal(t, tc.out, got, "sell %d base", tc.in)
	}

	require.NoError(t, p.SetMarketPrice(6, 6, fixed.FromUint64(5)))
	require.Equal(t, AboveOne, p.Multiplier())
	for _, tc := range []struct{ in, out uint64 }{
		{500_000, 2_500_124},
		{50_000, 250_028},
		{5_000, 25_003},
	} {
		got, err := p.GetOutAmount(tc.in, SellBase)
		require.NoError(t, err)
		require.Equal(t, tc.out, got, "sell %d base", tc.in)
	}

	require.NoError(t, p.SetMarketPrice(6, 6, fixed.FromUint64(10)))
	require.Equal(t, One, p.Multiplier())
	for _, tc := range []struct{ in, out uint64 }{
		{500_000, 4_999_500},
		{50_000, 499_997},
		{5_000, 49_999},
	} {
		got, err := p.GetOutAmount(tc.in, SellBase)
		require.NoError(t, err)
		require.Equal(t, tc.out, got, "sell %d base", tc.in)
	}
}

func TestSwap(t *testing.T) {
	p := newEmptyPool()
	shares, base, quote, err := p.BuyShares(1_000_000, 100_000_000)
	require.NoError(t, err)
	require.Equal(t, [3]uint64{1_000_000, 1_000_000, 100_000_000}, [3]uint64{shares, base, quote})

	floor := func(d fixed.Decimal) uint64 {
		v, err := d.FloorUint64()
		require.NoError(t, err)
		return v
	}
	require.Equal(t, uint64(1_000_000), floor(p.BaseReserve()))
	require.Equal(t, uint64(100_000_000), floor(p.QuoteReserve()))

	require.NoError(t, p.Swap(100, 200, SellBase))
	require.Equal(t, uint64(1_000_000+100), floor(p.BaseReserve()))
	require.Equal(t, uint64(100_000_000-200), floor(p.QuoteReserve()))

	require.NoError(t, p.Swap(1000, 2000, SellQuote))
	require.Equal(t, uint64(1_000_000+100-2000), floor(p.BaseReserve()))
	require.Equal(t, uint64(100_000_000-200+1000), floor(p.QuoteReserve()))

	require.ErrorIs(t, p.Swap(1, 1, SwapDirection(7)), ErrInvalidDirection)
}

func TestSwapFailureLeavesStateUntouched(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)
	require.NoError(t, p.Swap(100, 9999, SellBase))
	before := *p

	err := p.Swap(1, 100_000_000, SellBase)
	require.ErrorIs(t, err, ErrCalculationFailure)
	require.Equal(t, before, *p)

	err = p.Swap(1, 2_000_000, SellQuote)
	require.ErrorIs(t, err, ErrCalculationFailure)
	require.Equal(t, before, *p)
}

func TestBuyShares(t *testing.T) {
	p := newEmptyPool()

	shares, base, quote, err := p.BuyShares(1_000_000, 100_000_000)
	require.NoError(t, err)
	require.Equal(t, [3]uint64{1_000_000, 1_000_000, 100_000_000}, [3]uint64{shares, base, quote})
	require.Equal(t, uint64(1_000_000), p.TotalSupply())

	quoteOut, err := p.QuoteOutAmount(100)
	require.NoError(t, err)
	require.Equal(t, uint64(9999), quoteOut)
	require.NoError(t, p.Swap(100, quoteOut, SellBase))

	baseOut, err := p.BaseOutAmount(10_000)
	require.NoError(t, err)
	require.Equal(t, uint64(100), baseOut)
	require.NoError(t, p.Swap(10_000, baseOut, SellQuote))

	_, _, _, err = p.BuyShares(0, 1000)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, _, _, err = p.BuyShares(1000, 0)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	shares, base, quote, err = p.BuyShares(10_000, 10_000_000)
	require.NoError(t, err)
	require.Equal(t, [3]uint64{10_000, 10_000, 1_000_000}, [3]uint64{shares, base, quote})
	require.Equal(t, uint64(1_010_000), p.TotalSupply())
}

func TestBuySharesFirstDepositUsesBase(t *testing.T) {
	p := newEmptyPool()
	shares, base, quote, err := p.BuyShares(1_000_000_000, 100_000_000)
	require.NoError(t, err)
	require.Equal(t, [3]uint64{1_000_000_000, 1_000_000_000, 100_000_000}, [3]uint64{shares, base, quote})
}

func TestBuySharesQuoteBinding(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)

	shares, base, quote, err := p.BuyShares(50_000, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, [3]uint64{10_000, 10_000, 1_000_000}, [3]uint64{shares, base, quote})
}

func TestBuySharesPreservesRatio(t *testing.T) {
	for k := uint64(1); k <= 5; k++ {
		p := newFundedPool(t, 1_000_000, 100_000_000)
		oldSupply := p.TotalSupply()

		shares, base, quote, err := p.BuyShares(k*1_000_000, k*100_000_000)
		require.NoError(t, err)
		require.Equal(t, k*1_000_000, base)
		require.Equal(t, k*100_000_000, quote)
		require.Equal(t, oldSupply*(k+1), oldSupply+shares)
	}
}

func TestBuySharesIncorrectMint(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice: defaultMarketPrice,
		Slope:       defaultSlope,
		BaseReserve: fixed.FromUint64(10),
		TotalSupply: 10,
	})
	before := *p

	_, _, _, err := p.BuyShares(10, 10)
	require.ErrorIs(t, err, ErrIncorrectMint)
	require.Equal(t, before, *p)
}

func TestSellShares(t *testing.T) {
	p := newEmptyPool()

	_, _, err := p.SellShares(10, 1, 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, _, _, err = p.BuyShares(1_000_000, 100_000_000)
	require.NoError(t, err)

	_, _, err = p.SellShares(10, 100, 100)
	require.ErrorIs(t, err, ErrWithdrawNotEnough)
	require.Equal(t, uint64(1_000_000), p.TotalSupply())

	_, _, err = p.SellShares(1_000_001, 0, 0)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	base, quote, err := p.SellShares(10, 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(10), base)
	require.Equal(t, uint64(1_000), quote)
	require.Equal(t, uint64(999_990), p.TotalSupply())
	require.Equal(t, fixed.FromUint64(999_990), p.BaseReserve())
	require.Equal(t, fixed.FromUint64(99_999_000), p.QuoteReserve())
}

func TestSellThenBuyRestoresSupply(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)
	require.NoError(t, p.Swap(100, 9999, SellBase))
	before := p.TotalSupply()

	base, quote, err := p.SellShares(12_345, 0, 0)
	require.NoError(t, err)
	shares, _, _, err := p.BuyShares(base, quote)
	require.NoError(t, err)

	require.LessOrEqual(t, p.TotalSupply(), before)
	require.LessOrEqual(t, before-p.TotalSupply(), uint64(1))
	require.NotZero(t, shares)
}

func TestTvl(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)

	tvl, err := p.Tvl(fixed.FromUint64(10), fixed.FromUint64(100))
	require.NoError(t, err)
	require.Equal(t, fixed.FromUint64(10_010_000_000), tvl)
}

func TestCheckAndUpdateMarketPriceAndSlot(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:     defaultMarketPrice,
		Slope:           defaultSlope,
		LastMarketPrice: fixed.FromUint64(200),
	})

	require.ErrorIs(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(100), 6), ErrUnstableMarketPrice)
	require.Equal(t, fixed.FromUint64(200), p.LastMarketPrice())
	require.Equal(t, uint64(0), p.LastValidMarketPriceSlot())

	require.NoError(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(100), 26))
	require.NoError(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(1000), 51))
	require.NoError(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(1010), 60))
	require.ErrorIs(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.MustParse("1020.11"), 61), ErrUnstableMarketPrice)
	require.Equal(t, fixed.FromUint64(1010), p.LastMarketPrice())
	require.Equal(t, uint64(60), p.LastValidMarketPriceSlot())

	require.ErrorIs(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(1010), 59), ErrUnstableMarketPrice)
}

func TestCheckAndUpdateMarketPriceAcceptsAfterWindow(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:     defaultMarketPrice,
		Slope:           defaultSlope,
		LastMarketPrice: fixed.FromUint64(200),
	})

	require.Error(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(100), 6))
	require.NoError(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(1000), 26))
	require.NoError(t, p.CheckAndUpdateMarketPriceAndSlot(fixed.FromUint64(1001), 50))
}

func TestCollectTradeFee(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)

	require.NoError(t, p.CollectTradeFee(0, 500))
	require.Equal(t, fixed.FromUint64(100_000_500), p.QuoteReserve())
	require.Equal(t, AboveOne, p.Multiplier())

	require.NoError(t, p.CollectTradeFee(5, 0))
	require.Equal(t, fixed.FromUint64(1_000_005), p.BaseReserve())
	require.Equal(t, One, p.Multiplier())
}

func TestGetOutAmountBalancedPool(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)

	sellBase := []struct{ in, out uint64 }{
		{500_000, 46_065_533},
		{50_000, 4_973_964},
		{5_000, 499_748},
	}
	sellQuote := []struct{ in, out uint64 }{
		{50_000_000, 460_655},
		{5_000_000, 49_739},
		{500_000, 4_997},
	}

	for _, m := range []Multiplier{BelowOne, AboveOne, One} {
		p.multiplier = m
		for _, tc := range sellBase {
			got, err := p.GetOutAmount(tc.in, SellBase)
			require.NoError(t, err)
			require.Equal(t, tc.out, got, "%s sell base %d", m, tc.in)
		}
		for _, tc := range sellQuote {
			got, err := p.GetOutAmount(tc.in, SellQuote)
			require.NoError(t, err)
			require.Equal(t, tc.out, got, "%s sell quote %d", m, tc.in)
		}
	}
}

func TestGetOutAmountImbalancedPool(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 10_000_000)
	require.Equal(t, BelowOne, p.Multiplier())

	check := func(want []uint64, in ...uint64) {
		t.Helper()
		for i, amount := range in {
			got, err := p.GetOutAmount(amount, SellBase)
			require.NoError(t, err)
			require.Equal(t, want[i], got, "sell base %d", amount)
		}
	}

	check([]uint64{6_963_810, 1_580_019, 176_001, 355}, 500_000, 50_000, 5_000, 10)

	p.slope = fixed.MustParse("0.001")
	check([]uint64{9_952_625, 4_826_914, 490_652, 982}, 500_000, 50_000, 5_000, 10)

	p.slope = fixed.MustParse("0.00001")
	check([]uint64{9_999_523}, 500_000)
}

func TestGetOutAmountRegimeSplit(t *testing.T) {
	p := NewPoolState(InitPoolStateParams{
		MarketPrice:  defaultMarketPrice,
		Slope:        defaultSlope,
		BaseReserve:  fixed.FromUint64(1_000_000),
		QuoteReserve: fixed.FromUint64(900_000_000),
		TotalSupply:  900_000,
	})
	p.baseTarget = fixed.FromUint64(4_062_255)
	p.quoteTarget = fixed.FromUint64(500_000_000)
	inverse, err := defaultMarketPrice.Reciprocal()
	require.NoError(t, err)

	floor := func(d fixed.Decimal, err error) uint64 {
		require.NoError(t, err)
		v, err := d.FloorUint64()
		require.NoError(t, err)
		return v
	}
	out := func(amount uint64, direction SwapDirection) uint64 {
		v, err := p.GetOutAmount(amount, direction)
		require.NoError(t, err)
		return v
	}

	p.multiplier = BelowOne
	require.Equal(t, floor(GetTargetAmountReverseDirection(p.quoteTarget, p.quoteReserve, fixed.FromUint64(500_000), p.marketPrice, p.slope)), out(500_000, SellBase))
	require.Equal(t, uint64(53_600_979), out(500_000, SellBase))

	p.multiplier = AboveOne
	require.Equal(t, floor(GetTargetAmountReverseDirection(p.baseTarget, p.baseReserve, fixed.FromUint64(500_000), inverse, p.slope)), out(500_000, SellQuote))

	p.multiplier = One
	require.Equal(t, floor(GetTargetAmountReverseDirection(p.quoteTarget, p.quoteTarget, fixed.FromUint64(500_000), p.marketPrice, p.slope)), out(500_000, SellBase))
	require.Equal(t, floor(GetTargetAmountReverseDirection(p.baseTarget, p.baseTarget, fixed.FromUint64(500_000), inverse, p.slope)), out(500_000, SellQuote))

	// Above one: smaller than, equal to and larger than the back-to-one amount of 3,062,255 base.
	p.multiplier = AboveOne
	require.Equal(t, uint64(100_006_385), out(500_000, SellBase))
	require.Equal(t, uint64(400_000_000), out(3_062_255, SellBase))
	rest, err := GetTargetAmountReverseDirection(p.quoteTarget, p.quoteTarget, fixed.FromUint64(1_937_745), p.marketPrice, p.slope)
	require.NoError(t, err)
	require.Equal(t, floor(rest.Add(fixed.FromUint64(400_000_000))), out(5_000_000, SellBase))
	require.Equal(t, uint64(583_182_906), out(5_000_000, SellBase))

	// Below one: back to one costs 300,000,000 quote and returns 1,937,745 base.
	p.baseReserve = fixed.FromUint64(6_000_000)
	p.quoteReserve = fixed.FromUint64(200_000_000)
	p.multiplier = BelowOne
	require.Equal(t, uint64(7_617), out(500_000, SellQuote))
	require.Equal(t, uint64(1_937_745), out(300_000_000, SellQuote))
	rest, err = GetTargetAmountReverseDirection(p.baseTarget, p.baseTarget, fixed.FromUint64(50_000_000), inverse, p.slope)
	require.NoError(t, err)
	require.Equal(t, floor(rest.Add(fixed.FromUint64(1_937_745))), out(350_000_000, SellQuote))
	require.Equal(t, uint64(2_430_930), out(350_000_000, SellQuote))
}

func TestAboveOneAtParityReturnsReserveExcess(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)
	require.NoError(t, p.Swap(10_000_000, 95_000, SellQuote))
	require.Equal(t, AboveOne, p.Multiplier())

	excess, err := p.QuoteReserve().Sub(p.QuoteTarget())
	require.NoError(t, err)
	want, err := excess.FloorUint64()
	require.NoError(t, err)

	// Force a whole back-to-one amount so the trade lands exactly on it.
	p.baseTarget, err = p.BaseReserve().Add(fixed.FromUint64(1_234))
	require.NoError(t, err)
	got, err := p.QuoteOutAmount(1_234)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInvalidSlopeRejectsQuotes(t *testing.T) {
	p := newFundedPool(t, 1_000_000, 100_000_000)
	p.slope = fixed.MustParse("1.5")

	_, err := p.QuoteOutAmount(100)
	require.ErrorIs(t, err, ErrInvalidSlope)
	_, err = p.BaseOutAmount(100)
	require.ErrorIs(t, err, ErrInvalidSlope)
}

func TestMultiplierFromByte(t *testing.T) {
	for _, m := range []Multiplier{One, AboveOne, BelowOne} {
		got, err := MultiplierFromByte(byte(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := MultiplierFromByte(3)
	require.ErrorIs(t, err, ErrInvalidMultiplier)
}

func TestParseSwapDirection(t *testing.T) {
	d, err := ParseSwapDirection("sell_base")
	require.NoError(t, err)
	require.Equal(t, SellBase, d)

	d, err = ParseSwapDirection(" SELL_QUOTE ")
	require.NoError(t, err)
	require.Equal(t, SellQuote, d)
	require.Equal(t, "sell_quote", d.String())

	_, err = ParseSwapDirection("buy")
	require.ErrorIs(t, err, ErrInvalidDirection)
}
