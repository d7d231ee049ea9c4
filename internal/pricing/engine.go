// Package pricing computes expected and minimum swap output amounts from a
// reference price and a slippage tolerance. All amounts are base-unit integers;
// floating point is never used for on-chain-bound quantities.
package pricing

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/swaperr"
)

// FixedSpreadBps models the router's own spread on top of the caller's
// slippage tolerance.
const FixedSpreadBps = 30

const bpsDenominator = 10000

var ten = big.NewInt(10)

// Engine holds the supported pair set. A pair is supported when tokenIn is one
// of the configured input tokens and tokenOut is the configured output token.
type Engine struct {
	inputTokens map[common.Address]bool
	outputToken common.Address
}

// NewEngine creates a pricing engine for the configured token set.
func NewEngine(inputTokens []common.Address, outputToken common.Address) *Engine {
	in := make(map[common.Address]bool, len(inputTokens))
	for _, t := range inputTokens {
		in[t] = true
	}
	return &Engine{
		inputTokens: in,
		outputToken: outputToken,
	}
}

// SupportsPair reports whether the engine quotes tokenIn -> tokenOut.
func (e *Engine) SupportsPair(tokenIn, tokenOut common.Address) bool {
	return e.inputTokens[tokenIn] && tokenOut == e.outputToken
}

// QuoteResult carries both output amounts for a priced swap.
type QuoteResult struct {
	ExpectedOut *big.Int // gross output at the reference price
	MinOut      *big.Int // floor after slippage + fixed spread
}

// Quote computes expectedOut and minOut.
//
//	expectedOut = amountIn * referencePrice / 10^decimals   (truncating)
//	minOut      = expectedOut * (10000 - (slippageBps + FixedSpreadBps)) / 10000
//
// referencePrice is output-token wei per one whole unit of tokenIn, decimals is
// tokenIn's decimal count. minOut <= expectedOut holds for any slippageBps >= 0.
func (e *Engine) Quote(tokenIn, tokenOut common.Address, referencePrice *big.Int, decimals uint8, amountIn *big.Int, slippageBps int64) (*QuoteResult, error) {
	if slippageBps < 0 || slippageBps > bpsDenominator {
		return nil, swaperr.Validationf("slippage_out_of_range", "slippageBps must be in [0, 10000], got %d", slippageBps)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, swaperr.Validationf("invalid_amount", "amountIn must be a positive integer")
	}
	if referencePrice == nil || referencePrice.Sign() < 0 {
		return nil, swaperr.Validationf("invalid_price", "reference price must be a non-negative integer")
	}
	if !e.SupportsPair(tokenIn, tokenOut) {
		return nil, swaperr.UnsupportedPairf("pair %s -> %s is not supported", strings.ToLower(tokenIn.Hex()), strings.ToLower(tokenOut.Hex()))
	}

	// expectedOut = amountIn * price / 10^decimals, truncating integer division.
	scale := new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
	expectedOut := new(big.Int).Mul(amountIn, referencePrice)
	expectedOut.Quo(expectedOut, scale)

	// Total haircut is capped at 10000 bps so minOut never goes negative even
	// when slippageBps + FixedSpreadBps would exceed the denominator.
	haircut := slippageBps + FixedSpreadBps
	if haircut > bpsDenominator {
		haircut = bpsDenominator
	}

	minOut := new(big.Int).Mul(expectedOut, big.NewInt(bpsDenominator-haircut))
	minOut.Quo(minOut, big.NewInt(bpsDenominator))

	return &QuoteResult{
		ExpectedOut: expectedOut,
		MinOut:      minOut,
	}, nil
}
