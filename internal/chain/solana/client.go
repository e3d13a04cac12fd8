package solana

import (
	"context"
	"fmt"
	"io"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

type accountReader interface {
	GetAccountDataInto(ctx context.Context, account solanago.PublicKey, inVar interface{}) error
}

// Client reads SPL token accounts and mints over Solana JSON-RPC.
type Client struct {
	reader accountReader
	closer io.Closer
}

// NewClient creates a client for the RPC endpoint.
func NewClient(endpoint string) *Client {
	rpcClient := rpc.New(endpoint)
	return &Client{reader: rpcClient, closer: rpcClient}
}

// Close releases the underlying RPC transport.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ParsePublicKey decodes a base58 account address.
func ParsePublicKey(input string) (solanago.PublicKey, error) {
	key, err := solanago.PublicKeyFromBase58(strings.TrimSpace(input))
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("invalid public key %q: %w", input, err)
	}
	return key, nil
}

// TokenAccountAmount returns the raw amount held by an SPL token account.
func (c *Client) TokenAccountAmount(ctx context.Context, account solanago.PublicKey) (uint64, error) {
	var acc token.Account
	if err := c.reader.GetAccountDataInto(ctx, account, &acc); err != nil {
		return 0, fmt.Errorf("get token account %s: %w", account, err)
	}
	return acc.Amount, nil
}

// MintSupply returns the raw supply of an SPL mint.
func (c *Client) MintSupply(ctx context.Context, mint solanago.PublicKey) (uint64, error) {
	var info token.Mint
	if err := c.reader.GetAccountDataInto(ctx, mint, &info); err != nil {
		return 0, fmt.Errorf("get mint %s: %w", mint, err)
	}
	return info.Supply, nil
}

// MintDecimals returns the decimals of an SPL mint.
func (c *Client) MintDecimals(ctx context.Context, mint solanago.PublicKey) (uint8, error) {
	var info token.Mint
	if err := c.reader.GetAccountDataInto(ctx, mint, &info); err != nil {
		return 0, fmt.Errorf("get mint %s: %w", mint, err)
	}
	return info.Decimals, nil
}

// TokenDecimals reads the decimals of the SPL mint at the base58 address.
func (c *Client) TokenDecimals(ctx context.Context, mint string) (uint8, error) {
	key, err := ParsePublicKey(mint)
	if err != nil {
		return 0, err
	}
	return c.MintDecimals(ctx, key)
}
