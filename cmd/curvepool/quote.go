package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvePool/internal/config"
	"curvePool/internal/curve"
	"curvePool/internal/fixed"
	"curvePool/internal/model"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	direction, err := curve.ParseSwapDirection(cfg.Direction)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *curve.PoolState
	if cfg.RecordFile != "" {
		pool, err = readRecordFile(cfg.RecordFile)
	} else if err = resolvePoolDecimals(ctx, &cfg.Pool, cfg.Tokens, logger); err == nil {
		pool, err = cfg.Pool.NewPool()
	}
	if err != nil {
		return err
	}

	out, err := pool.GetOutAmount(cfg.AmountIn, direction)
	if err != nil {
		return fmt.Errorf("quote %s %d: %w", direction, cfg.AmountIn, err)
	}

	quote := model.Quote{
		Direction:   direction.String(),
		AmountIn:    cfg.AmountIn,
		AmountOut:   out,
		Multiplier:  pool.Multiplier().String(),
		MarketPrice: pool.MarketPrice().String(),
		BaseTarget:  pool.BaseTarget().String(),
		QuoteTarget: pool.QuoteTarget().String(),
	}

	if cfg.HasPrices {
		tvl, err := pool.Tvl(cfg.BasePrice, cfg.QuotePrice)
		if err != nil {
			return fmt.Errorf("tvl: %w", err)
		}
		quote.Tvl = tvl.String()
	}

	if cfg.ExperimentalPowf {
		estimate, err := powfEstimate(pool, cfg.AmountIn, direction)
		if err != nil {
			logger.Warn("experimental powf failed", zap.Error(err))
		} else {
			quote.ExperimentalPowf = &estimate
		}
	}

	logger.Debug("quote complete",
		zap.String("direction", quote.Direction),
		zap.Uint64("amount_in", quote.AmountIn),
		zap.Uint64("amount_out", quote.AmountOut),
		zap.String("multiplier", quote.Multiplier),
	)

	return printJSON(quote)
}

// powfEstimate prices the trade with the weighted power curve, using the
// side being sold as A and the inverted price when selling quote.
func powfEstimate(pool *curve.PoolState, amountIn uint64, direction curve.SwapDirection) (uint64, error) {
	input := fixed.FromUint64(amountIn)
	if direction == curve.SellBase {
		return curve.SimplePowf(pool.MarketPrice(), pool.BaseTarget(), pool.QuoteTarget(),
			pool.BaseReserve(), pool.QuoteReserve(), input)
	}
	price, err := pool.MarketPrice().Reciprocal()
	if err != nil {
		return 0, err
	}
	return curve.SimplePowf(price, pool.QuoteTarget(), pool.BaseTarget(),
		pool.QuoteReserve(), pool.BaseReserve(), input)
}
