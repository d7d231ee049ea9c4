// Package userop builds and encodes ERC-4337 v0.7 user operations: the
// batched account call data, the packed wire form consumed by the EntryPoint,
// the EIP-7702 delegation authorization and the placeholder signature used
// during gas estimation.
package userop

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EIP7702Authorization is the signed delegation tuple included alongside a
// user operation. V is the yParity bit (0 or 1).
type EIP7702Authorization struct {
	ChainID uint64         `json:"chainId"`
	Address common.Address `json:"address"` // delegate target
	Nonce   uint64         `json:"nonce"`
	V       uint8          `json:"yParity"`
	R       *big.Int       `json:"r"`
	S       *big.Int       `json:"s"`
}

// UnpackedUserOperation is the v0.7 source form. Optional groups (factory,
// paymaster, eip7702Auth) are nil when absent; every other field must be set
// before packing.
type UnpackedUserOperation struct {
	Sender   *common.Address
	Nonce    *big.Int
	CallData []byte

	Factory     *common.Address
	FactoryData []byte

	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	Paymaster                     *common.Address
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int
	PaymasterData                 []byte

	Signature []byte

	EIP7702Auth *EIP7702Authorization
}

// PackedUserOperation is the compact wire form required at the EntryPoint
// boundary.
type PackedUserOperation struct {
	Sender             common.Address `json:"sender"`
	Nonce              *big.Int       `json:"nonce"`
	InitCode           []byte         `json:"initCode"`
	CallData           []byte         `json:"callData"`
	AccountGasLimits   [32]byte       `json:"accountGasLimits"`
	PreVerificationGas *big.Int       `json:"preVerificationGas"`
	GasFees            [32]byte       `json:"gasFees"`
	PaymasterAndData   []byte         `json:"paymasterAndData"`
	Signature          []byte         `json:"signature"`
}

// MarshalJSON renders the packed operation in the hex wire form bundlers
// accept.
func (op *PackedUserOperation) MarshalJSON() ([]byte, error) {
	type wire struct {
		Sender             string `json:"sender"`
		Nonce              string `json:"nonce"`
		InitCode           string `json:"initCode"`
		CallData           string `json:"callData"`
		AccountGasLimits   string `json:"accountGasLimits"`
		PreVerificationGas string `json:"preVerificationGas"`
		GasFees            string `json:"gasFees"`
		PaymasterAndData   string `json:"paymasterAndData"`
		Signature          string `json:"signature"`
	}
	w := wire{
		Sender:             op.Sender.Hex(),
		Nonce:              hexutil.EncodeBig(op.Nonce),
		InitCode:           hexutil.Encode(op.InitCode),
		CallData:           hexutil.Encode(op.CallData),
		AccountGasLimits:   hexutil.Encode(op.AccountGasLimits[:]),
		PreVerificationGas: hexutil.EncodeBig(op.PreVerificationGas),
		GasFees:            hexutil.Encode(op.GasFees[:]),
		PaymasterAndData:   hexutil.Encode(op.PaymasterAndData),
		Signature:          hexutil.Encode(op.Signature),
	}
	return json.Marshal(w)
}
