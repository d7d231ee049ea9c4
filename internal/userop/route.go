package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// mustType is a helper to create an abi.Type from a string.
func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic("invalid abi type " + t + ": " + err.Error())
	}
	return typ
}

var (
	addressT = mustType("address")
	uint256T = mustType("uint256")
	bytesT   = mustType("bytes")

	swapExactInArgs = abi.Arguments{
		{Name: "tokenIn", Type: addressT},
		{Name: "tokenOut", Type: addressT},
		{Name: "amountIn", Type: uint256T},
		{Name: "minOut", Type: uint256T},
		{Name: "recipient", Type: addressT},
		{Name: "deadline", Type: uint256T},
	}

	swapExactInSelector = crypto.Keccak256([]byte("swapExactIn(address,address,uint256,uint256,address,uint256)"))[:4]
)

// EncodeSwapExactIn encodes the router call
// swapExactIn(tokenIn, tokenOut, amountIn, minOut, recipient, deadline).
//
// deadline is the quote's ExpiresAt, byte-for-byte: the off-chain TTL and the
// on-chain revert deadline are the same value.
func EncodeSwapExactIn(tokenIn, tokenOut common.Address, amountIn, minOut *big.Int, recipient common.Address, deadline int64) ([]byte, error) {
	encoded, err := swapExactInArgs.Pack(tokenIn, tokenOut, amountIn, minOut, recipient, big.NewInt(deadline))
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), swapExactInSelector...), encoded...), nil
}
