package curve

import (
	"fmt"

	"curvePool/internal/fixed"
)

const (
	// PriceWindowSlots is how long after a valid price observation large moves are refused.
	PriceWindowSlots uint64 = 25
	// PriceDeviationPercent rejects moves above 1% of the last valid price inside the window.
	PriceDeviationPercent uint64 = 100
)

// InitPoolStateParams is the initial snapshot of a pool.
type InitPoolStateParams struct {
	MarketPrice              fixed.Decimal
	Slope                    fixed.Decimal
	BaseReserve              fixed.Decimal
	QuoteReserve             fixed.Decimal
	TotalSupply              uint64
	LastMarketPrice          fixed.Decimal
	LastValidMarketPriceSlot uint64
}

// PoolState tracks reserves, regression targets and the price regime of one pool.
// Every mutating method either commits a complete new state or returns an error
// and leaves the receiver untouched. A PoolState is not safe for concurrent use.
type PoolState struct {
	marketPrice              fixed.Decimal
	slope                    fixed.Decimal
	baseReserve              fixed.Decimal
	quoteReserve             fixed.Decimal
	baseTarget               fixed.Decimal
	quoteTarget              fixed.Decimal
	totalSupply              uint64
	multiplier               Multiplier
	lastMarketPrice          fixed.Decimal
	lastValidMarketPriceSlot uint64
}

// NewPoolState copies params into a pool. Targets stay zero and the multiplier
// One until the first reserve-changing operation or an explicit AdjustTarget.
func NewPoolState(params InitPoolStateParams) *PoolState {
	return &PoolState{
		marketPrice:              params.MarketPrice,
		slope:                    params.Slope,
		baseReserve:              params.BaseReserve,
		quoteReserve:             params.QuoteReserve,
		totalSupply:              params.TotalSupply,
		multiplier:               One,
		lastMarketPrice:          params.LastMarketPrice,
		lastValidMarketPriceSlot: params.LastValidMarketPriceSlot,
	}
}

// MarketPrice is the oracle price in quote per base, normalized for token decimals.
func (p *PoolState) MarketPrice() fixed.Decimal { return p.marketPrice }

// Slope is the curve parameter k in [0, 1].
func (p *PoolState) Slope() fixed.Decimal { return p.slope }

// BaseReserve is the base amount held by the pool.
func (p *PoolState) BaseReserve() fixed.Decimal { return p.baseReserve }

// QuoteReserve is the quote amount held by the pool.
func (p *PoolState) QuoteReserve() fixed.Decimal { return p.quoteReserve }

// BaseTarget is the base reserve the curve regresses toward.
func (p *PoolState) BaseTarget() fixed.Decimal { return p.baseTarget }

// QuoteTarget is the quote reserve the curve regresses toward.
func (p *PoolState) QuoteTarget() fixed.Decimal { return p.quoteTarget }

// TotalSupply is the number of outstanding LP shares.
func (p *PoolState) TotalSupply() uint64 { return p.totalSupply }

// Multiplier is the current price regime.
func (p *PoolState) Multiplier() Multiplier { return p.multiplier }

// LastMarketPrice is the last oracle price accepted by CheckAndUpdateMarketPriceAndSlot.
func (p *PoolState) LastMarketPrice() fixed.Decimal { return p.lastMarketPrice }

// LastValidMarketPriceSlot is the slot of LastMarketPrice.
func (p *PoolState) LastValidMarketPriceSlot() uint64 { return p.lastValidMarketPriceSlot }

// Clone returns an independent copy.
func (p *PoolState) Clone() *PoolState {
	next := *p
	return &next
}

// AdjustTarget recomputes the multiplier and both regression targets from the
// current reserves, market price and slope.
func (p *PoolState) AdjustTarget() error {
	multiplier, baseTarget, quoteTarget, err := p.targets()
	if err != nil {
		return err
	}
	p.multiplier = multiplier
	p.baseTarget = baseTarget
	p.quoteTarget = quoteTarget
	return nil
}

func (p *PoolState) targets() (Multiplier, fixed.Decimal, fixed.Decimal, error) {
	zero := fixed.Zero()
	if p.baseReserve.IsZero() || p.quoteReserve.IsZero() {
		return One, zero, zero, nil
	}

	ratio, err := p.quoteReserve.Div(p.baseReserve)
	if err != nil {
		return 0, zero, zero, err
	}

	switch ratio.Cmp(p.marketPrice) {
	case 1:
		quoteTarget, err := p.baseReserve.Mul(p.marketPrice)
		if err != nil {
			return 0, zero, zero, err
		}
		quoteTarget, err = quoteTarget.Add(p.quoteReserve)
		if err != nil {
			return 0, zero, zero, err
		}
		quoteTarget, err = quoteTarget.DivUint64(2)
		if err != nil {
			return 0, zero, zero, err
		}
		excess, err := p.quoteReserve.Sub(quoteTarget)
		if err != nil {
			return 0, zero, zero, err
		}
		inverse, err := p.marketPrice.Reciprocal()
		if err != nil {
			return 0, zero, zero, err
		}
		baseTarget, err := GetTargetReserve(p.baseReserve, excess, inverse, p.slope)
		if err != nil {
			return 0, zero, zero, err
		}
		return AboveOne, baseTarget, quoteTarget, nil
	case -1:
		baseTarget, err := p.quoteReserve.Div(p.marketPrice)
		if err != nil {
			return 0, zero, zero, err
		}
		baseTarget, err = baseTarget.Add(p.baseReserve)
		if err != nil {
			return 0, zero, zero, err
		}
		baseTarget, err = baseTarget.DivUint64(2)
		if err != nil {
			return 0, zero, zero, err
		}
		excess, err := p.baseReserve.Sub(baseTarget)
		if err != nil {
			return 0, zero, zero, err
		}
		quoteTarget, err := GetTargetReserve(p.quoteReserve, excess, p.marketPrice, p.slope)
		if err != nil {
			return 0, zero, zero, err
		}
		return BelowOne, baseTarget, quoteTarget, nil
	default:
		return One, p.baseReserve, p.quoteReserve, nil
	}
}

// SetMarketPrice normalizes price by the difference in token decimals and re-derives targets.
func (p *PoolState) SetMarketPrice(baseDecimals, quoteDecimals uint8, price fixed.Decimal) error {
	var (
		normalized fixed.Decimal
		err        error
	)
	switch {
	case baseDecimals > quoteDecimals:
		scale, ok := pow10(baseDecimals - quoteDecimals)
		if !ok {
			return ErrCalculationFailure
		}
		normalized, err = price.DivUint64(scale)
	case baseDecimals < quoteDecimals:
		scale, ok := pow10(quoteDecimals - baseDecimals)
		if !ok {
			return ErrCalculationFailure
		}
		normalized, err = price.MulUint64(scale)
	default:
		normalized = price
	}
	if err != nil {
		return err
	}

	next := *p
	next.marketPrice = normalized
	if err := next.AdjustTarget(); err != nil {
		return err
	}
	*p = next
	return nil
}

func pow10(exp uint8) (uint64, bool) {
	result := uint64(1)
	for i := uint8(0); i < exp; i++ {
		if result > ^uint64(0)/10 {
			return 0, false
		}
		result *= 10
	}
	return result, true
}

// Swap books a settled trade: amountIn enters the pool and amountOut leaves it.
func (p *PoolState) Swap(amountIn, amountOut uint64, direction SwapDirection) error {
	next := *p
	var err error
	switch direction {
	case SellBase:
		if next.baseReserve, err = next.baseReserve.Add(fixed.FromUint64(amountIn)); err != nil {
			return err
		}
		if next.quoteReserve, err = next.quoteReserve.Sub(fixed.FromUint64(amountOut)); err != nil {
			return err
		}
	case SellQuote:
		if next.baseReserve, err = next.baseReserve.Sub(fixed.FromUint64(amountOut)); err != nil {
			return err
		}
		if next.quoteReserve, err = next.quoteReserve.Add(fixed.FromUint64(amountIn)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}

	if err := next.AdjustTarget(); err != nil {
		return err
	}
	*p = next
	return nil
}

// GetOutAmount quotes a trade of amountIn in the given direction.
func (p *PoolState) GetOutAmount(amountIn uint64, direction SwapDirection) (uint64, error) {
	switch direction {
	case SellBase:
		return p.QuoteOutAmount(amountIn)
	case SellQuote:
		return p.BaseOutAmount(amountIn)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}
}

// QuoteOutAmount returns the quote tokens paid out for selling baseAmount.
func (p *PoolState) QuoteOutAmount(baseAmount uint64) (uint64, error) {
	amount := fixed.FromUint64(baseAmount)

	var (
		out fixed.Decimal
		err error
	)
	switch p.multiplier {
	case One, BelowOne:
		out, err = p.sellBase(amount, p.multiplier)
	case AboveOne:
		out, err = p.sellBaseAboveOne(amount)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMultiplier, p.multiplier)
	}
	if err != nil {
		return 0, err
	}
	return out.FloorUint64()
}

// sellBaseAboveOne splits the trade at the point where the pool returns to One.
func (p *PoolState) sellBaseAboveOne(amount fixed.Decimal) (fixed.Decimal, error) {
	backToOnePayBase, err := p.baseTarget.Sub(p.baseReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	backToOneReceiveQuote, err := p.quoteReserve.Sub(p.quoteTarget)
	if err != nil {
		return fixed.Decimal{}, err
	}

	switch backToOnePayBase.Cmp(amount) {
	case 1:
		out, err := p.sellBase(amount, AboveOne)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return out.Min(backToOneReceiveQuote), nil
	case 0:
		return backToOneReceiveQuote, nil
	default:
		rest, err := amount.Sub(backToOnePayBase)
		if err != nil {
			return fixed.Decimal{}, err
		}
		out, err := p.sellBase(rest, One)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return out.Add(backToOneReceiveQuote)
	}
}

func (p *PoolState) sellBase(amount fixed.Decimal, multiplier Multiplier) (fixed.Decimal, error) {
	if p.slope.Gt(fixed.One()) {
		return fixed.Decimal{}, ErrInvalidSlope
	}

	switch multiplier {
	case One:
		return GetTargetAmountReverseDirection(p.quoteTarget, p.quoteTarget, amount, p.marketPrice, p.slope)
	case AboveOne:
		future, err := p.baseReserve.Add(amount)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return GetTargetAmount(p.baseTarget, future, p.baseReserve, p.marketPrice, p.slope)
	default:
		return GetTargetAmountReverseDirection(p.quoteTarget, p.quoteReserve, amount, p.marketPrice, p.slope)
	}
}

// BaseOutAmount returns the base tokens paid out for selling quoteAmount.
func (p *PoolState) BaseOutAmount(quoteAmount uint64) (uint64, error) {
	amount := fixed.FromUint64(quoteAmount)

	var (
		out fixed.Decimal
		err error
	)
	switch p.multiplier {
	case One, AboveOne:
		out, err = p.sellQuote(amount, p.multiplier)
	case BelowOne:
		out, err = p.sellQuoteBelowOne(amount)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMultiplier, p.multiplier)
	}
	if err != nil {
		return 0, err
	}
	return out.FloorUint64()
}

func (p *PoolState) sellQuoteBelowOne(amount fixed.Decimal) (fixed.Decimal, error) {
	backToOnePayQuote, err := p.quoteTarget.Sub(p.quoteReserve)
	if err != nil {
		return fixed.Decimal{}, err
	}
	backToOneReceiveBase, err := p.baseReserve.Sub(p.baseTarget)
	if err != nil {
		return fixed.Decimal{}, err
	}

	switch backToOnePayQuote.Cmp(amount) {
	case 1:
		out, err := p.sellQuote(amount, BelowOne)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return out.Min(backToOneReceiveBase), nil
	case 0:
		return backToOneReceiveBase, nil
	default:
		rest, err := amount.Sub(backToOnePayQuote)
		if err != nil {
			return fixed.Decimal{}, err
		}
		out, err := p.sellQuote(rest, One)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return out.Add(backToOneReceiveBase)
	}
}

func (p *PoolState) sellQuote(amount fixed.Decimal, multiplier Multiplier) (fixed.Decimal, error) {
	if p.slope.Gt(fixed.One()) {
		return fixed.Decimal{}, ErrInvalidSlope
	}
	inverse, err := p.marketPrice.Reciprocal()
	if err != nil {
		return fixed.Decimal{}, err
	}

	switch multiplier {
	case One:
		return GetTargetAmountReverseDirection(p.baseTarget, p.baseTarget, amount, inverse, p.slope)
	case AboveOne:
		return GetTargetAmountReverseDirection(p.baseTarget, p.baseReserve, amount, inverse, p.slope)
	default:
		future, err := p.quoteReserve.Add(amount)
		if err != nil {
			return fixed.Decimal{}, err
		}
		return GetTargetAmount(p.quoteTarget, future, p.quoteReserve, inverse, p.slope)
	}
}

// BuyShares deposits liquidity and returns the minted shares together with the
// base and quote amounts actually taken. Unused input stays with the caller.
func (p *PoolState) BuyShares(baseInput, quoteInput uint64) (shares, baseAccepted, quoteAccepted uint64, err error) {
	if baseInput == 0 || quoteInput == 0 {
		return 0, 0, 0, ErrInsufficientFunds
	}

	switch {
	case p.totalSupply == 0:
		shares, baseAccepted, quoteAccepted = baseInput, baseInput, quoteInput
	case !p.baseReserve.IsZero() && !p.quoteReserve.IsZero():
		shares, baseAccepted, quoteAccepted, err = p.proportionalDeposit(baseInput, quoteInput)
		if err != nil {
			return 0, 0, 0, err
		}
	default:
		return 0, 0, 0, ErrIncorrectMint
	}

	if baseAccepted > baseInput || quoteAccepted > quoteInput {
		return 0, 0, 0, ErrCalculationFailure
	}

	next := *p
	if next.baseReserve, err = next.baseReserve.Add(fixed.FromUint64(baseAccepted)); err != nil {
		return 0, 0, 0, err
	}
	if next.quoteReserve, err = next.quoteReserve.Add(fixed.FromUint64(quoteAccepted)); err != nil {
		return 0, 0, 0, err
	}
	if next.totalSupply+shares < next.totalSupply {
		return 0, 0, 0, ErrCalculationFailure
	}
	next.totalSupply += shares
	if err := next.AdjustTarget(); err != nil {
		return 0, 0, 0, err
	}
	*p = next
	return shares, baseAccepted, quoteAccepted, nil
}

func (p *PoolState) proportionalDeposit(baseInput, quoteInput uint64) (uint64, uint64, uint64, error) {
	baseRatio, err := fixed.FromUint64(baseInput).Div(p.baseReserve)
	if err != nil {
		return 0, 0, 0, err
	}
	quoteRatio, err := fixed.FromUint64(quoteInput).Div(p.quoteReserve)
	if err != nil {
		return 0, 0, 0, err
	}
	mintRatio := baseRatio.Min(quoteRatio)

	minted, err := mintRatio.MulUint64(p.totalSupply)
	if err != nil {
		return 0, 0, 0, err
	}
	shares, err := minted.FloorUint64()
	if err != nil {
		return 0, 0, 0, err
	}

	if baseRatio == mintRatio {
		quote, err := mintRatio.Mul(p.quoteReserve)
		if err != nil {
			return 0, 0, 0, err
		}
		quoteAccepted, err := quote.FloorUint64()
		if err != nil {
			return 0, 0, 0, err
		}
		return shares, baseInput, quoteAccepted, nil
	}

	base, err := mintRatio.Mul(p.baseReserve)
	if err != nil {
		return 0, 0, 0, err
	}
	baseAccepted, err := base.FloorUint64()
	if err != nil {
		return 0, 0, 0, err
	}
	return shares, baseAccepted, quoteInput, nil
}

// SellShares burns shareAmount and returns the proportional reserves, floored.
func (p *PoolState) SellShares(shareAmount, baseMin, quoteMin uint64) (baseOut, quoteOut uint64, err error) {
	if p.totalSupply < shareAmount {
		return 0, 0, ErrInsufficientFunds
	}

	if baseOut, err = proportionalShare(p.baseReserve, shareAmount, p.totalSupply); err != nil {
		return 0, 0, err
	}
	if quoteOut, err = proportionalShare(p.quoteReserve, shareAmount, p.totalSupply); err != nil {
		return 0, 0, err
	}
	if baseOut < baseMin || quoteOut < quoteMin {
		return 0, 0, ErrWithdrawNotEnough
	}

	next := *p
	if next.baseReserve, err = next.baseReserve.Sub(fixed.FromUint64(baseOut)); err != nil {
		return 0, 0, err
	}
	if next.quoteReserve, err = next.quoteReserve.Sub(fixed.FromUint64(quoteOut)); err != nil {
		return 0, 0, err
	}
	next.totalSupply -= shareAmount
	if err := next.AdjustTarget(); err != nil {
		return 0, 0, err
	}
	*p = next
	return baseOut, quoteOut, nil
}

func proportionalShare(reserve fixed.Decimal, shares, supply uint64) (uint64, error) {
	scaled, err := reserve.MulUint64(shares)
	if err != nil {
		return 0, err
	}
	scaled, err = scaled.DivUint64(supply)
	if err != nil {
		return 0, err
	}
	return scaled.FloorUint64()
}

// Tvl values both reserves at the given prices.
func (p *PoolState) Tvl(basePrice, quotePrice fixed.Decimal) (fixed.Decimal, error) {
	baseValue, err := p.baseReserve.Mul(basePrice)
	if err != nil {
		return fixed.Decimal{}, err
	}
	quoteValue, err := p.quoteReserve.Mul(quotePrice)
	if err != nil {
		return fixed.Decimal{}, err
	}
	return baseValue.Add(quoteValue)
}

// CheckAndUpdateMarketPriceAndSlot records a market price observation unless it
// arrives within PriceWindowSlots of the last valid one and moved more than 1%.
// Observations older than the last valid slot are refused.
func (p *PoolState) CheckAndUpdateMarketPriceAndSlot(price fixed.Decimal, slot uint64) error {
	if slot < p.lastValidMarketPriceSlot {
		return fmt.Errorf("%w: slot %d precedes last valid slot %d", ErrUnstableMarketPrice, slot, p.lastValidMarketPriceSlot)
	}

	if slot-p.lastValidMarketPriceSlot < PriceWindowSlots {
		var (
			diff fixed.Decimal
			err  error
		)
		if price.Gt(p.lastMarketPrice) {
			diff, err = price.Sub(p.lastMarketPrice)
		} else {
			diff, err = p.lastMarketPrice.Sub(price)
		}
		if err != nil {
			return err
		}
		scaled, err := diff.MulUint64(PriceDeviationPercent)
		if err != nil {
			return err
		}
		if scaled.Gt(p.lastMarketPrice) {
			return ErrUnstableMarketPrice
		}
	}

	p.lastMarketPrice = price
	p.lastValidMarketPriceSlot = slot
	return nil
}

// CollectTradeFee credits fees retained by the pool to its reserves.
func (p *PoolState) CollectTradeFee(baseFee, quoteFee uint64) error {
	next := *p
	var err error
	if next.baseReserve, err = next.baseReserve.Add(fixed.FromUint64(baseFee)); err != nil {
		return err
	}
	if next.quoteReserve, err = next.quoteReserve.Add(fixed.FromUint64(quoteFee)); err != nil {
		return err
	}
	if err := next.AdjustTarget(); err != nil {
		return err
	}
	*p = next
	return nil
}

// CheckReserveAmount verifies the stored reserves are backed by the token
// balances actually held and that neither reserve is empty.
func (p *PoolState) CheckReserveAmount(baseBalance, quoteBalance uint64) error {
	if p.baseReserve.Gt(fixed.FromUint64(baseBalance)) || p.quoteReserve.Gt(fixed.FromUint64(quoteBalance)) {
		return ErrInconsistentPoolState
	}
	if p.baseReserve.IsZero() || p.quoteReserve.IsZero() {
		return ErrInsufficientFunds
	}
	return nil
}

// CheckMintSupply verifies the share mint has not issued more than the pool
// accounts for. The mint may report less, since holders can burn shares.
func (p *PoolState) CheckMintSupply(mintSupply uint64) error {
	if mintSupply > p.totalSupply {
		return ErrInvalidSupply
	}
	return nil
}
