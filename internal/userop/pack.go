package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/swaperr"
)

const (
	paymasterPrefixLen = 20 + 16 + 16 // paymaster address + two 16-byte gas limits
	maxGasFieldBits    = 128
)

// packUint128 writes v big-endian, zero-padded, into the 16-byte slice dst.
func packUint128(dst []byte, v *big.Int) error {
	if v.Sign() < 0 || v.BitLen() > maxGasFieldBits {
		return swaperr.Encodingf("uint128_overflow", "value %s does not fit in 16 bytes", v.String())
	}
	v.FillBytes(dst)
	return nil
}

// Pack transforms the source form into the EntryPoint wire layout:
//
//	initCode         = factory ‖ factoryData                 (empty without factory)
//	accountGasLimits = verificationGasLimit(16) ‖ callGasLimit(16)
//	gasFees          = maxPriorityFeePerGas(16) ‖ maxFeePerGas(16)
//	paymasterAndData = paymaster(20) ‖ pmVerificationGas(16) ‖ pmPostOpGas(16) ‖ pmData
//
// Required fields are checked in a fixed order so the MissingFieldError is
// deterministic: sender, nonce, callData, callGasLimit, verificationGasLimit,
// preVerificationGas, maxFeePerGas, maxPriorityFeePerGas.
func Pack(op *UnpackedUserOperation) (*PackedUserOperation, error) {
	switch {
	case op == nil || op.Sender == nil:
		return nil, swaperr.MissingFieldErr("sender")
	case op.Nonce == nil:
		return nil, swaperr.MissingFieldErr("nonce")
	case op.CallData == nil:
		return nil, swaperr.MissingFieldErr("callData")
	case op.CallGasLimit == nil:
		return nil, swaperr.MissingFieldErr("callGasLimit")
	case op.VerificationGasLimit == nil:
		return nil, swaperr.MissingFieldErr("verificationGasLimit")
	case op.PreVerificationGas == nil:
		return nil, swaperr.MissingFieldErr("preVerificationGas")
	case op.MaxFeePerGas == nil:
		return nil, swaperr.MissingFieldErr("maxFeePerGas")
	case op.MaxPriorityFeePerGas == nil:
		return nil, swaperr.MissingFieldErr("maxPriorityFeePerGas")
	}

	packed := &PackedUserOperation{
		Sender:             *op.Sender,
		Nonce:              new(big.Int).Set(op.Nonce),
		CallData:           append([]byte(nil), op.CallData...),
		PreVerificationGas: new(big.Int).Set(op.PreVerificationGas),
		Signature:          append([]byte(nil), op.Signature...),
		InitCode:           []byte{},
		PaymasterAndData:   []byte{},
	}

	if err := packUint128(packed.AccountGasLimits[:16], op.VerificationGasLimit); err != nil {
		return nil, err
	}
	if err := packUint128(packed.AccountGasLimits[16:], op.CallGasLimit); err != nil {
		return nil, err
	}
	if err := packUint128(packed.GasFees[:16], op.MaxPriorityFeePerGas); err != nil {
		return nil, err
	}
	if err := packUint128(packed.GasFees[16:], op.MaxFeePerGas); err != nil {
		return nil, err
	}

	if op.Factory != nil {
		initCode := make([]byte, 0, common.AddressLength+len(op.FactoryData))
		initCode = append(initCode, op.Factory.Bytes()...)
		initCode = append(initCode, op.FactoryData...)
		packed.InitCode = initCode
	}

	if op.Paymaster != nil {
		if op.PaymasterVerificationGasLimit == nil {
			return nil, swaperr.MissingFieldErr("paymasterVerificationGasLimit")
		}
		if op.PaymasterPostOpGasLimit == nil {
			return nil, swaperr.MissingFieldErr("paymasterPostOpGasLimit")
		}
		pmd := make([]byte, paymasterPrefixLen, paymasterPrefixLen+len(op.PaymasterData))
		copy(pmd[:20], op.Paymaster.Bytes())
		if err := packUint128(pmd[20:36], op.PaymasterVerificationGasLimit); err != nil {
			return nil, err
		}
		if err := packUint128(pmd[36:52], op.PaymasterPostOpGasLimit); err != nil {
			return nil, err
		}
		pmd = append(pmd, op.PaymasterData...)
		packed.PaymasterAndData = pmd
	}

	return packed, nil
}

// Unpack is the exact inverse of Pack. Concatenated byte fields with a length
// that cannot hold their fixed prefix yield an EncodingError.
func Unpack(packed *PackedUserOperation) (*UnpackedUserOperation, error) {
	if packed == nil {
		return nil, swaperr.MissingFieldErr("packedOp")
	}

	sender := packed.Sender
	op := &UnpackedUserOperation{
		Sender:               &sender,
		Nonce:                new(big.Int).Set(packed.Nonce),
		CallData:             append([]byte(nil), packed.CallData...),
		VerificationGasLimit: new(big.Int).SetBytes(packed.AccountGasLimits[:16]),
		CallGasLimit:         new(big.Int).SetBytes(packed.AccountGasLimits[16:]),
		PreVerificationGas:   new(big.Int).Set(packed.PreVerificationGas),
		MaxPriorityFeePerGas: new(big.Int).SetBytes(packed.GasFees[:16]),
		MaxFeePerGas:         new(big.Int).SetBytes(packed.GasFees[16:]),
		Signature:            append([]byte(nil), packed.Signature...),
	}

	if len(packed.InitCode) > 0 {
		if len(packed.InitCode) < common.AddressLength {
			return nil, swaperr.Encodingf("init_code_too_short", "initCode is %d bytes, need at least %d", len(packed.InitCode), common.AddressLength)
		}
		factory := common.BytesToAddress(packed.InitCode[:common.AddressLength])
		op.Factory = &factory
		op.FactoryData = append([]byte(nil), packed.InitCode[common.AddressLength:]...)
	}

	if len(packed.PaymasterAndData) > 0 {
		if len(packed.PaymasterAndData) < paymasterPrefixLen {
			return nil, swaperr.Encodingf("paymaster_data_too_short", "paymasterAndData is %d bytes, need at least %d", len(packed.PaymasterAndData), paymasterPrefixLen)
		}
		pm := common.BytesToAddress(packed.PaymasterAndData[:20])
		op.Paymaster = &pm
		op.PaymasterVerificationGasLimit = new(big.Int).SetBytes(packed.PaymasterAndData[20:36])
		op.PaymasterPostOpGasLimit = new(big.Int).SetBytes(packed.PaymasterAndData[36:52])
		op.PaymasterData = append([]byte(nil), packed.PaymasterAndData[52:]...)
	}

	return op, nil
}
