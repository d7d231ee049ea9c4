package pipeline

import (
	"math/big"
)

// Policy is the sponsor's fee policy. The paymaster accepts an operation only
// when the fee transferred to it covers requiredFee(maxCost).
type Policy struct {
	GasBufferBps   int64
	FixedMarkupWei *big.Int
}

var bps = big.NewInt(10000)

// RequiredFee computes maxCost * (1 + gasBufferBps/10000) + fixedMarkupWei,
// rounding the buffered term up so the result never undershoots the sponsor's
// own arithmetic.
func (p Policy) RequiredFee(maxCost *big.Int) *big.Int {
	buffered := new(big.Int).Mul(maxCost, big.NewInt(10000+p.GasBufferBps))
	// Ceiling division: (x + 9999) / 10000.
	buffered.Add(buffered, big.NewInt(9999))
	buffered.Quo(buffered, bps)
	if p.FixedMarkupWei != nil {
		buffered.Add(buffered, p.FixedMarkupWei)
	}
	return buffered
}

// MaxCost is the worst-case wei spend for an operation: the sum of all gas
// limits times the max fee per gas.
func MaxCost(gasTotal, maxFeePerGas *big.Int) *big.Int {
	return new(big.Int).Mul(gasTotal, maxFeePerGas)
}
