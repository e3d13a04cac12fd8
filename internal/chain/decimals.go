package chain

import (
	"context"
	"fmt"
)

// DecimalsReader reads the decimals of a token named by its on-chain address.
type DecimalsReader interface {
	TokenDecimals(ctx context.Context, token string) (uint8, error)
}

// TokenDecimals reads decimals() of the ERC20 contract at token.
func (c *Client) TokenDecimals(ctx context.Context, token string) (uint8, error) {
	addr, err := ParseAddress(token)
	if err != nil {
		return 0, err
	}
	return Decimals(ctx, c, addr)
}

// PairDecimals reads the decimals of the base and quote tokens of a pool.
func PairDecimals(ctx context.Context, reader DecimalsReader, baseToken, quoteToken string) (uint8, uint8, error) {
	base, err := reader.TokenDecimals(ctx, baseToken)
	if err != nil {
		return 0, 0, fmt.Errorf("base token decimals: %w", err)
	}
	quote, err := reader.TokenDecimals(ctx, quoteToken)
	if err != nil {
		return 0, 0, fmt.Errorf("quote token decimals: %w", err)
	}
	return base, quote, nil
}
