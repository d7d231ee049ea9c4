package userop

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/swaperr"
)

var (
	testTokenIn   = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	testTokenOut  = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	testRouter    = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	testPaymaster = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func validBatchParams() BatchParams {
	return BatchParams{
		TokenIn:        &testTokenIn,
		TokenOut:       &testTokenOut,
		Router:         &testRouter,
		Paymaster:      &testPaymaster,
		AmountIn:       big.NewInt(1_000_000),
		FeeAmount:      big.NewInt(5_000),
		RouterCalldata: []byte{0xca, 0xfe},
	}
}

func TestBuildExecuteBatchCallData(t *testing.T) {
	callData, err := BuildExecuteBatchCallData(validBatchParams())
	require.NoError(t, err)
	require.Equal(t, executeBatchSelector, callData[:4])

	decoded, err := executeBatchArgs.Unpack(callData[4:])
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	calls := decoded[0].([]struct {
		Target common.Address `json:"target"`
		Value  *big.Int       `json:"value"`
		Data   []byte         `json:"data"`
	})
	require.Len(t, calls, 3)

	// Call 1: tokenIn.approve(router, amountIn)
	require.Equal(t, testTokenIn, calls[0].Target)
	require.Zero(t, calls[0].Value.Sign())
	require.Equal(t, approveSelector, calls[0].Data[:4])

	// Call 2: router swap with the quote's calldata verbatim.
	require.Equal(t, testRouter, calls[1].Target)
	require.Equal(t, []byte{0xca, 0xfe}, calls[1].Data)

	// Call 3: tokenOut.transfer(paymaster, feeAmount)
	require.Equal(t, testTokenOut, calls[2].Target)
	require.Equal(t, transferSelector, calls[2].Data[:4])
}

func TestBuildExecuteBatchMissingFieldOrder(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(p *BatchParams)
	}{
		{"tokenIn", func(p *BatchParams) { p.TokenIn = nil }},
		{"tokenOut", func(p *BatchParams) { p.TokenOut = nil }},
		{"router", func(p *BatchParams) { p.Router = nil }},
		{"paymaster", func(p *BatchParams) { p.Paymaster = nil }},
		{"amountIn", func(p *BatchParams) { p.AmountIn = nil }},
		{"feeAmount", func(p *BatchParams) { p.FeeAmount = nil }},
		{"routerCalldata", func(p *BatchParams) { p.RouterCalldata = nil }},
	}

	for _, tc := range cases {
		p := validBatchParams()
		tc.mutate(&p)
		_, err := BuildExecuteBatchCallData(p)
		require.Error(t, err, "field %s", tc.field)
		require.Equal(t, "missing_field_"+tc.field, swaperr.CodeOf(err))
	}

	// The first absent field in the fixed order wins.
	p := validBatchParams()
	p.Router = nil
	p.FeeAmount = nil
	_, err := BuildExecuteBatchCallData(p)
	require.Equal(t, "missing_field_router", swaperr.CodeOf(err))
}

func TestEncodeSwapExactIn(t *testing.T) {
	callData, err := EncodeSwapExactIn(testTokenIn, testTokenOut, big.NewInt(100), big.NewInt(95), testPaymaster, 1_900_000_000)
	require.NoError(t, err)
	require.Equal(t, swapExactInSelector, callData[:4])

	decoded, err := swapExactInArgs.Unpack(callData[4:])
	require.NoError(t, err)
	require.Equal(t, testTokenIn, decoded[0].(common.Address))
	require.Equal(t, testTokenOut, decoded[1].(common.Address))
	require.Zero(t, decoded[2].(*big.Int).Cmp(big.NewInt(100)))
	require.Zero(t, decoded[3].(*big.Int).Cmp(big.NewInt(95)))
	require.Equal(t, testPaymaster, decoded[4].(common.Address))
	require.Zero(t, decoded[5].(*big.Int).Cmp(big.NewInt(1_900_000_000)))
}

func TestEncodeSwapExactInDeterministic(t *testing.T) {
	a, err := EncodeSwapExactIn(testTokenIn, testTokenOut, big.NewInt(100), big.NewInt(95), testPaymaster, 42)
	require.NoError(t, err)
	b, err := EncodeSwapExactIn(testTokenIn, testTokenOut, big.NewInt(100), big.NewInt(95), testPaymaster, 42)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := EncodeSwapExactIn(testTokenIn, testTokenOut, big.NewInt(100), big.NewInt(95), testPaymaster, 43)
	require.NoError(t, err)
	require.NotEqual(t, a, c, "deadline is part of the encoded payload")
}
