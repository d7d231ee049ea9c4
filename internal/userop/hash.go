package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	bytes32T = mustType("bytes32")

	hashArgs = abi.Arguments{
		{Name: "sender", Type: addressT},
		{Name: "nonce", Type: uint256T},
		{Name: "initCodeHash", Type: bytes32T},
		{Name: "callDataHash", Type: bytes32T},
		{Name: "accountGasLimits", Type: bytes32T},
		{Name: "preVerificationGas", Type: uint256T},
		{Name: "gasFees", Type: bytes32T},
		{Name: "paymasterAndDataHash", Type: bytes32T},
	}

	outerHashArgs = abi.Arguments{
		{Name: "opHash", Type: bytes32T},
		{Name: "entryPoint", Type: addressT},
		{Name: "chainId", Type: uint256T},
	}
)

// Hash computes the v0.7 userOpHash: the operation's inner hash bound to the
// EntryPoint address and chain id. This is what the authoritative account
// signature covers.
func Hash(op *PackedUserOperation, entryPoint common.Address, chainID uint64) (common.Hash, error) {
	inner, err := hashArgs.Pack(
		op.Sender,
		op.Nonce,
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		op.AccountGasLimits,
		op.PreVerificationGas,
		op.GasFees,
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
	if err != nil {
		return common.Hash{}, err
	}

	outer, err := outerHashArgs.Pack(
		crypto.Keccak256Hash(inner),
		entryPoint,
		new(big.Int).SetUint64(chainID),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(outer), nil
}
