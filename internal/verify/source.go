package verify

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	solanago "github.com/gagliardetto/solana-go"

	"curvePool/internal/chain"
)

// Balances are the externally held amounts backing a pool.
type Balances struct {
	Base        uint64 `json:"base"`
	Quote       uint64 `json:"quote"`
	ShareSupply uint64 `json:"share_supply"`
}

// BalanceSource reads the current balances of a pool from its host chain.
type BalanceSource interface {
	Balances(ctx context.Context) (Balances, error)
}

// EVMSource reads ERC20 balances held by the pool address and the share token supply.
type EVMSource struct {
	caller chain.ContractCaller
	pool   common.Address
	base   common.Address
	quote  common.Address
	share  common.Address
}

func NewEVMSource(caller chain.ContractCaller, pool, base, quote, share common.Address) *EVMSource {
	return &EVMSource{caller: caller, pool: pool, base: base, quote: quote, share: share}
}

// Balances reads all three values at the same block when the caller can
// report the chain head, and at the latest state otherwise.
func (s *EVMSource) Balances(ctx context.Context) (Balances, error) {
	var block *big.Int
	if reader, ok := s.caller.(chain.BlockReader); ok {
		head, err := reader.LatestBlockNumber(ctx)
		if err != nil {
			return Balances{}, fmt.Errorf("block number: %w", err)
		}
		block = new(big.Int).SetUint64(head)
	}

	base, err := chain.BalanceOf(ctx, s.caller, s.base, s.pool, block)
	if err != nil {
		return Balances{}, fmt.Errorf("base balance: %w", err)
	}
	quote, err := chain.BalanceOf(ctx, s.caller, s.quote, s.pool, block)
	if err != nil {
		return Balances{}, fmt.Errorf("quote balance: %w", err)
	}
	supply, err := chain.TotalSupply(ctx, s.caller, s.share, block)
	if err != nil {
		return Balances{}, fmt.Errorf("share supply: %w", err)
	}

	var out Balances
	for _, item := range []struct {
		name  string
		value *big.Int
		dst   *uint64
	}{
		{"base balance", base, &out.Base},
		{"quote balance", quote, &out.Quote},
		{"share supply", supply, &out.ShareSupply},
	} {
		if !item.value.IsUint64() {
			return Balances{}, fmt.Errorf("%s %s does not fit in 64 bits", item.name, item.value)
		}
		*item.dst = item.value.Uint64()
	}
	return out, nil
}

type splReader interface {
	TokenAccountAmount(ctx context.Context, account solanago.PublicKey) (uint64, error)
	MintSupply(ctx context.Context, mint solanago.PublicKey) (uint64, error)
}

// SolanaSource reads the pool vault token accounts and the share mint supply.
type SolanaSource struct {
	client     splReader
	baseVault  solanago.PublicKey
	quoteVault solanago.PublicKey
	shareMint  solanago.PublicKey
}

func NewSolanaSource(client splReader, baseVault, quoteVault, shareMint solanago.PublicKey) *SolanaSource {
	return &SolanaSource{client: client, baseVault: baseVault, quoteVault: quoteVault, shareMint: shareMint}
}

func (s *SolanaSource) Balances(ctx context.Context) (Balances, error) {
	base, err := s.client.TokenAccountAmount(ctx, s.baseVault)
	if err != nil {
		return Balances{}, fmt.Errorf("base vault: %w", err)
	}
	quote, err := s.client.TokenAccountAmount(ctx, s.quoteVault)
	if err != nil {
		return Balances{}, fmt.Errorf("quote vault: %w", err)
	}
	supply, err := s.client.MintSupply(ctx, s.shareMint)
	if err != nil {
		return Balances{}, fmt.Errorf("share mint: %w", err)
	}
	return Balances{Base: base, Quote: quote, ShareSupply: supply}, nil
}
