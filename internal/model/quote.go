package model

// Quote is the answer to a single trade query against a pool.
type Quote struct {
	Direction   string `json:"direction"`
	AmountIn    uint64 `json:"amount_in"`
	AmountOut   uint64 `json:"amount_out"`
	Multiplier  string `json:"multiplier"`
	MarketPrice string `json:"market_price"`
	BaseTarget  string `json:"base_target"`
	QuoteTarget string `json:"quote_target"`
	Tvl         string `json:"tvl,omitempty"`

	// ExperimentalPowf is the float64 power-curve estimate. It is not used for pricing.
	ExperimentalPowf *uint64 `json:"experimental_powf,omitempty"`
}
