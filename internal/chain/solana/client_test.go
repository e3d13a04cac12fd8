package solana

import (
	"context"
	"errors"
	"fmt"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"curvePool/internal/chain"
)

var _ chain.DecimalsReader = (*Client)(nil)

type fakeReader struct {
	accounts map[solanago.PublicKey]token.Account
	mints    map[solanago.PublicKey]token.Mint
}

func (f *fakeReader) GetAccountDataInto(_ context.Context, account solanago.PublicKey, inVar interface{}) error {
	switch out := inVar.(type) {
	case *token.Account:
		acc, ok := f.accounts[account]
		if !ok {
			return errors.New("not found")
		}
		*out = acc
	case *token.Mint:
		mint, ok := f.mints[account]
		if !ok {
			return errors.New("not found")
		}
		*out = mint
	default:
		return fmt.Errorf("unexpected target %T", inVar)
	}
	return nil
}

func TestClientReadsTokenState(t *testing.T) {
	vault := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	c := &Client{reader: &fakeReader{
		accounts: map[solanago.PublicKey]token.Account{vault: {Mint: mint, Amount: 1_000_000}},
		mints:    map[solanago.PublicKey]token.Mint{mint: {Supply: 900_000, Decimals: 6, IsInitialized: true}},
	}}

	ctx := context.Background()
	amount, err := c.TokenAccountAmount(ctx, vault)
	if err != nil {
		t.Fatalf("token account: %v", err)
	}
	if amount != 1_000_000 {
		t.Fatalf("amount = %d", amount)
	}

	supply, err := c.MintSupply(ctx, mint)
	if err != nil {
		t.Fatalf("mint supply: %v", err)
	}
	if supply != 900_000 {
		t.Fatalf("supply = %d", supply)
	}

	dec, err := c.MintDecimals(ctx, mint)
	if err != nil {
		t.Fatalf("mint decimals: %v", err)
	}
	if dec != 6 {
		t.Fatalf("decimals = %d", dec)
	}

	base, quote, err := chain.PairDecimals(ctx, c, mint.String(), mint.String())
	if err != nil {
		t.Fatalf("pair decimals: %v", err)
	}
	if base != 6 || quote != 6 {
		t.Fatalf("pair decimals = %d/%d", base, quote)
	}
	if _, err := c.TokenDecimals(ctx, "not-a-key"); err == nil {
		t.Fatalf("expected invalid mint error")
	}

	if _, err := c.TokenAccountAmount(ctx, mint); err == nil {
		t.Fatalf("expected missing account error")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close without transport: %v", err)
	}
}

func TestParsePublicKey(t *testing.T) {
	key := solanago.NewWallet().PublicKey()
	got, err := ParsePublicKey(" " + key.String() + " ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != key {
		t.Fatalf("got %s want %s", got, key)
	}
	if _, err := ParsePublicKey("not-base58-0OIl"); err == nil {
		t.Fatalf("expected parse error")
	}
}
