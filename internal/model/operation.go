package model

// OperationKind names a pool operation in a replay log.
type OperationKind string

const (
	OpSwap        OperationKind = "swap"
	OpDeposit     OperationKind = "deposit"
	OpWithdraw    OperationKind = "withdraw"
	OpMarketPrice OperationKind = "market_price"
	OpCollectFee  OperationKind = "collect_fee"
)

// Operation is one line of a replay log. Only the fields of its kind are read.
type Operation struct {
	Seq  uint64        `json:"seq"`
	Kind OperationKind `json:"kind"`

	// swap
	Direction    string `json:"direction,omitempty"`
	AmountIn     uint64 `json:"amount_in,omitempty"`
	MinAmountOut uint64 `json:"min_amount_out,omitempty"`

	// deposit, collect_fee
	BaseAmount  uint64 `json:"base_amount,omitempty"`
	QuoteAmount uint64 `json:"quote_amount,omitempty"`

	// withdraw
	Shares   uint64 `json:"shares,omitempty"`
	BaseMin  uint64 `json:"base_min,omitempty"`
	QuoteMin uint64 `json:"quote_min,omitempty"`

	// market_price; Price is a decimal string.
	Price         string `json:"price,omitempty"`
	Slot          uint64 `json:"slot,omitempty"`
	BaseDecimals  *uint8 `json:"base_decimals,omitempty"`
	QuoteDecimals *uint8 `json:"quote_decimals,omitempty"`
}
