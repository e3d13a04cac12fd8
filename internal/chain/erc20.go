package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

func getERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// ParseAddress validates a hex address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address %q", input)
	}
	return common.HexToAddress(input), nil
}

// BalanceOf returns the ERC20 balance of owner. A nil blockNumber reads the latest state.
func BalanceOf(ctx context.Context, caller ContractCaller, token, owner common.Address, blockNumber *big.Int) (*big.Int, error) {
	values, err := call(ctx, caller, token, blockNumber, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return bigResult("balanceOf", values)
}

// TotalSupply returns the ERC20 total supply.
func TotalSupply(ctx context.Context, caller ContractCaller, token common.Address, blockNumber *big.Int) (*big.Int, error) {
	values, err := call(ctx, caller, token, blockNumber, "totalSupply")
	if err != nil {
		return nil, err
	}
	return bigResult("totalSupply", values)
}

// Decimals returns the ERC20 decimals.
func Decimals(ctx context.Context, caller ContractCaller, token common.Address) (uint8, error) {
	values, err := call(ctx, caller, token, nil, "decimals")
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals return size %d", len(values))
	}
	dec, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return dec, nil
}

func call(ctx context.Context, caller ContractCaller, token common.Address, blockNumber *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	erc20, err := getERC20ABI()
	if err != nil {
		return nil, err
	}

	data, err := erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := erc20.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bigResult(method string, values []interface{}) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s unexpected type %T", method, values[0])
	}
	return v, nil
}
