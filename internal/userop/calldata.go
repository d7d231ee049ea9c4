package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swap-backend/internal/swaperr"
)

var (
	// ERC-20 selectors.
	approveSelector  = crypto.Keccak256([]byte("approve(address,uint256)"))[:4]
	transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

	erc20CallArgs = abi.Arguments{
		{Name: "spender", Type: addressT},
		{Name: "amount", Type: uint256T},
	}

	// executeBatch((address,uint256,bytes)[]) on the delegated account.
	callTupleT = func() abi.Type {
		typ, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
			{Name: "target", Type: "address"},
			{Name: "value", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		})
		if err != nil {
			panic("invalid executeBatch tuple type: " + err.Error())
		}
		return typ
	}()

	executeBatchArgs     = abi.Arguments{{Name: "calls", Type: callTupleT}}
	executeBatchSelector = crypto.Keccak256([]byte("executeBatch((address,uint256,bytes)[])"))[:4]
)

// accountCall mirrors the (target,value,data) tuple of the account ABI.
type accountCall struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// BatchParams carries everything needed to assemble the three-call batch.
type BatchParams struct {
	TokenIn        *common.Address
	TokenOut       *common.Address
	Router         *common.Address
	Paymaster      *common.Address
	AmountIn       *big.Int
	FeeAmount      *big.Int
	RouterCalldata []byte
}

func encodeERC20Call(selector []byte, to common.Address, amount *big.Int) ([]byte, error) {
	encoded, err := erc20CallArgs.Pack(to, amount)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), selector...), encoded...), nil
}

// BuildExecuteBatchCallData encodes the three sequential account calls as one
// executeBatch invocation:
//
//  1. tokenIn.approve(router, amountIn)
//  2. router.<routerCalldata>              (the swap itself)
//  3. tokenOut.transfer(paymaster, feeAmount)
//
// Address arguments are checked in a fixed order so the MissingFieldError is
// deterministic: tokenIn, tokenOut, router, paymaster.
func BuildExecuteBatchCallData(p BatchParams) ([]byte, error) {
	switch {
	case p.TokenIn == nil:
		return nil, swaperr.MissingFieldErr("tokenIn")
	case p.TokenOut == nil:
		return nil, swaperr.MissingFieldErr("tokenOut")
	case p.Router == nil:
		return nil, swaperr.MissingFieldErr("router")
	case p.Paymaster == nil:
		return nil, swaperr.MissingFieldErr("paymaster")
	case p.AmountIn == nil:
		return nil, swaperr.MissingFieldErr("amountIn")
	case p.FeeAmount == nil:
		return nil, swaperr.MissingFieldErr("feeAmount")
	case len(p.RouterCalldata) == 0:
		return nil, swaperr.MissingFieldErr("routerCalldata")
	}

	approveData, err := encodeERC20Call(approveSelector, *p.Router, p.AmountIn)
	if err != nil {
		return nil, err
	}
	feeData, err := encodeERC20Call(transferSelector, *p.Paymaster, p.FeeAmount)
	if err != nil {
		return nil, err
	}

	calls := []accountCall{
		{Target: *p.TokenIn, Value: big.NewInt(0), Data: approveData},
		{Target: *p.Router, Value: big.NewInt(0), Data: append([]byte(nil), p.RouterCalldata...)},
		{Target: *p.TokenOut, Value: big.NewInt(0), Data: feeData},
	}

	encoded, err := executeBatchArgs.Pack(calls)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), executeBatchSelector...), encoded...), nil
}
