package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"curvePool/internal/curve"
)

// Report is the outcome of checking a stored pool against its host chain.
type Report struct {
	Balances     Balances `json:"balances"`
	BaseReserve  string   `json:"base_reserve"`
	QuoteReserve string   `json:"quote_reserve"`
	TotalSupply  uint64   `json:"total_supply"`
	ReserveError string   `json:"reserve_error,omitempty"`
	SupplyError  string   `json:"supply_error,omitempty"`
}

// OK reports whether both checks passed.
func (r Report) OK() bool {
	return r.ReserveError == "" && r.SupplyError == ""
}

// Verifier fetches balances with retry and runs the pool consistency checks.
type Verifier struct {
	source       BalanceSource
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewVerifier(source BalanceSource, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		source:       source,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

// Verify returns a report and, when a check fails, an error joining the
// failed checks. Fetch failures are returned without a report.
func (v *Verifier) Verify(ctx context.Context, pool *curve.PoolState) (Report, error) {
	balances, err := v.fetchBalances(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetch balances: %w", err)
	}

	report := Report{
		Balances:     balances,
		BaseReserve:  pool.BaseReserve().String(),
		QuoteReserve: pool.QuoteReserve().String(),
		TotalSupply:  pool.TotalSupply(),
	}

	reserveErr := pool.CheckReserveAmount(balances.Base, balances.Quote)
	if reserveErr != nil {
		report.ReserveError = reserveErr.Error()
		reserveErr = fmt.Errorf("reserves: %w", reserveErr)
	}
	supplyErr := pool.CheckMintSupply(balances.ShareSupply)
	if supplyErr != nil {
		report.SupplyError = supplyErr.Error()
		supplyErr = fmt.Errorf("share supply: %w", supplyErr)
	}

	v.logger.Info("pool verified",
		zap.Uint64("base_balance", balances.Base),
		zap.Uint64("quote_balance", balances.Quote),
		zap.Uint64("share_supply", balances.ShareSupply),
		zap.String("base_reserve", report.BaseReserve),
		zap.String("quote_reserve", report.QuoteReserve),
		zap.Uint64("total_supply", report.TotalSupply),
		zap.Bool("ok", report.OK()),
	)

	return report, errors.Join(reserveErr, supplyErr)
}
