package pipeline

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequiredFeeExact(t *testing.T) {
	policy := Policy{GasBufferBps: 1000, FixedMarkupWei: big.NewInt(500)}

	// 10000 * 1.10 = 11000, plus markup.
	fee := policy.RequiredFee(big.NewInt(10_000))
	require.Equal(t, "11500", fee.String())
}

func TestRequiredFeeRoundsUp(t *testing.T) {
	policy := Policy{GasBufferBps: 1, FixedMarkupWei: big.NewInt(0)}

	// 3 * 10001 / 10000 = 3.0003; the buffered term must round up, never down.
	fee := policy.RequiredFee(big.NewInt(3))
	require.Equal(t, "4", fee.String())
}

func TestRequiredFeeZeroBuffer(t *testing.T) {
	policy := Policy{GasBufferBps: 0, FixedMarkupWei: nil}

	fee := policy.RequiredFee(big.NewInt(12_345))
	require.Equal(t, "12345", fee.String())
}

func TestRequiredFeeCoversMaxCost(t *testing.T) {
	policy := Policy{GasBufferBps: 750, FixedMarkupWei: big.NewInt(1)}

	for _, cost := range []int64{0, 1, 9_999, 10_000, 10_001, 1_000_000_007} {
		maxCost := big.NewInt(cost)
		fee := policy.RequiredFee(maxCost)
		require.GreaterOrEqual(t, fee.Cmp(maxCost), 0, "cost=%d", cost)
	}
}

func TestMaxCost(t *testing.T) {
	require.Equal(t, "30000000000000", MaxCost(big.NewInt(1_000_000), big.NewInt(30_000_000)).String())
}

func TestGasParamsTotalGas(t *testing.T) {
	gas := DefaultGasGuess(big.NewInt(30_000_000_000), big.NewInt(1_000_000_000))
	// 400k + 300k + 60k + 100k + 80k
	require.Equal(t, "940000", gas.TotalGas().String())

	gas.PaymasterPostOpGasLimit = nil
	require.Equal(t, "860000", gas.TotalGas().String())
}
