package model

const (
	StatusApplied  = "applied"
	StatusRejected = "rejected"
)

// OperationResult records the outcome of one replayed operation and the pool
// state right after it. Decimal values are encoded as strings.
type OperationResult struct {
	RunID  string        `json:"run_id"`
	Seq    uint64        `json:"seq"`
	Kind   OperationKind `json:"kind"`
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`

	AmountIn    uint64 `json:"amount_in,omitempty"`
	AmountOut   uint64 `json:"amount_out,omitempty"`
	Fee         uint64 `json:"fee,omitempty"`
	Shares      uint64 `json:"shares,omitempty"`
	BaseAmount  uint64 `json:"base_amount,omitempty"`
	QuoteAmount uint64 `json:"quote_amount,omitempty"`

	Multiplier   string `json:"multiplier"`
	BaseReserve  string `json:"base_reserve"`
	QuoteReserve string `json:"quote_reserve"`
	BaseTarget   string `json:"base_target"`
	QuoteTarget  string `json:"quote_target"`
	TotalSupply  uint64 `json:"total_supply"`
	AppliedAt    string `json:"applied_at"`
}
