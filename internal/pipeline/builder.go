package pipeline

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/metrics"
	"swap-backend/internal/quotestore"
	"swap-backend/internal/userop"
)

// GasParams carries every gas and fee number of an operation. Before the
// first estimation call these are conservative guesses; the paymaster's
// acceptance check runs gas-dependent logic, so even the estimation operation
// must carry plausible numbers and a covering fee.
type GasParams struct {
	CallGasLimit                  *big.Int
	VerificationGasLimit          *big.Int
	PreVerificationGas            *big.Int
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int
	MaxFeePerGas                  *big.Int
	MaxPriorityFeePerGas          *big.Int
}

// Conservative defaults for the pre-estimation build.
func DefaultGasGuess(maxFeePerGas, maxPriorityFeePerGas *big.Int) GasParams {
	return GasParams{
		CallGasLimit:                  big.NewInt(400_000),
		VerificationGasLimit:          big.NewInt(300_000),
		PreVerificationGas:            big.NewInt(60_000),
		PaymasterVerificationGasLimit: big.NewInt(100_000),
		PaymasterPostOpGasLimit:       big.NewInt(80_000),
		MaxFeePerGas:                  maxFeePerGas,
		MaxPriorityFeePerGas:          maxPriorityFeePerGas,
	}
}

// TotalGas sums every gas limit that contributes to the worst-case cost.
func (g GasParams) TotalGas() *big.Int {
	total := new(big.Int)
	for _, limit := range []*big.Int{
		g.CallGasLimit, g.VerificationGasLimit, g.PreVerificationGas,
		g.PaymasterVerificationGasLimit, g.PaymasterPostOpGasLimit,
	} {
		if limit != nil {
			total.Add(total, limit)
		}
	}
	return total
}

// BuildAddresses names the fixed contract set an operation is built against.
type BuildAddresses struct {
	Paymaster common.Address
	Delegate  common.Address // EIP-7702 delegation target
}

// BuildUnsignedOperation assembles a placeholder-signed operation from a
// quote. The fee transferred to the paymaster is recomputed from the given
// gas numbers so that feeAmount >= requiredFee(maxCost) holds at every build,
// before and after estimation. Returns the operation and the fee it embeds.
func BuildUnsignedOperation(quote *quotestore.QuoteRecord, policy Policy, gas GasParams, addrs BuildAddresses, nonce *big.Int) (*userop.UnpackedUserOperation, *big.Int, error) {
	feeAmount := policy.RequiredFee(MaxCost(gas.TotalGas(), gas.MaxFeePerGas))

	router := quote.Route.Router
	tokenIn := quote.TokenIn
	tokenOut := quote.TokenOut
	paymaster := addrs.Paymaster

	callData, err := userop.BuildExecuteBatchCallData(userop.BatchParams{
		TokenIn:        &tokenIn,
		TokenOut:       &tokenOut,
		Router:         &router,
		Paymaster:      &paymaster,
		AmountIn:       quote.AmountIn,
		FeeAmount:      feeAmount,
		RouterCalldata: quote.Route.Calldata,
	})
	if err != nil {
		return nil, nil, err
	}

	sender := quote.Sender
	op := &userop.UnpackedUserOperation{
		Sender:                        &sender,
		Nonce:                         nonce,
		CallData:                      callData,
		CallGasLimit:                  gas.CallGasLimit,
		VerificationGasLimit:          gas.VerificationGasLimit,
		PreVerificationGas:            gas.PreVerificationGas,
		MaxFeePerGas:                  gas.MaxFeePerGas,
		MaxPriorityFeePerGas:          gas.MaxPriorityFeePerGas,
		Paymaster:                     &paymaster,
		PaymasterVerificationGasLimit: gas.PaymasterVerificationGasLimit,
		PaymasterPostOpGasLimit:       gas.PaymasterPostOpGasLimit,
		PaymasterData:                 []byte{},
		Signature:                     userop.EstimationPlaceholderSignature(),
	}

	metrics.UserOpsBuilt.Inc()
	return op, feeAmount, nil
}
