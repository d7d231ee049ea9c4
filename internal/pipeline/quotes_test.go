package pipeline

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/pricing"
	"swap-backend/internal/quotestore"
	"swap-backend/internal/swaperr"
)

var (
	tokenIn  = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	tokenOut = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	sender   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	router   = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
)

// fakeClock is a settable clock shared by the store and the service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(unix int64) *fakeClock {
	return &fakeClock{now: time.Unix(unix, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubPriceSource serves a fixed price, consuming queued errors first.
type stubPriceSource struct {
	price    *big.Int
	decimals uint8
	errs     []error
	calls    int
}

func (s *stubPriceSource) ReferencePrice(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, uint8, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, 0, err
		}
	}
	return s.price, s.decimals, nil
}

const testTTL = 60

func newTestQuoteService(clock quotestore.Clock, prices PriceSource) *QuoteService {
	engine := pricing.NewEngine([]common.Address{tokenIn}, tokenOut)
	store := quotestore.NewMemoryStore(clock)
	return NewQuoteService(engine, prices, store, clock, router, 56, testTTL)
}

func quoteRequest() *CreateQuoteRequest {
	return &CreateQuoteRequest{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Sender:      sender,
		AmountIn:    big.NewInt(1_000_000),
		SlippageBps: 50,
	}
}

func TestCreateQuote(t *testing.T) {
	clock := newFakeClock(1000)
	prices := &stubPriceSource{price: big.NewInt(1_000_000_000_000_000), decimals: 6}
	svc := newTestQuoteService(clock, prices)

	record, err := svc.CreateQuote(context.Background(), quoteRequest())
	require.NoError(t, err)

	require.NotEmpty(t, record.QuoteID)
	require.Equal(t, int64(1000), record.CreatedAt)
	require.Equal(t, int64(1000+testTTL), record.ExpiresAt)
	require.Equal(t, "1000000000000000", record.AmountOut.String())
	require.Equal(t, "992000000000000", record.MinOut.String())
	require.Equal(t, router, record.Route.Router)
	require.NotEmpty(t, record.Route.Calldata)

	got, err := svc.GetQuote(record.QuoteID)
	require.NoError(t, err)
	require.Equal(t, record.QuoteID, got.QuoteID)
}

func TestCreateQuoteRetriesRpcFailures(t *testing.T) {
	clock := newFakeClock(1000)
	prices := &stubPriceSource{
		price:    big.NewInt(1_000_000),
		decimals: 6,
		errs: []error{
			swaperr.ChainRpcf(nil, "oracle down"),
			swaperr.ChainRpcf(nil, "oracle still down"),
		},
	}
	svc := newTestQuoteService(clock, prices)

	_, err := svc.CreateQuote(context.Background(), quoteRequest())
	require.NoError(t, err)
	require.Equal(t, 3, prices.calls)
}

func TestCreateQuoteRetriesExhausted(t *testing.T) {
	clock := newFakeClock(1000)
	prices := &stubPriceSource{
		price:    big.NewInt(1),
		decimals: 6,
		errs: []error{
			swaperr.ChainRpcf(nil, "down"),
			swaperr.ChainRpcf(nil, "down"),
			swaperr.ChainRpcf(nil, "down"),
		},
	}
	svc := newTestQuoteService(clock, prices)

	_, err := svc.CreateQuote(context.Background(), quoteRequest())
	require.True(t, errors.Is(err, swaperr.ChainRpc))
	require.Equal(t, 3, prices.calls)
}

func TestCreateQuoteDoesNotRetryValidation(t *testing.T) {
	clock := newFakeClock(1000)
	prices := &stubPriceSource{price: big.NewInt(1), decimals: 6}
	svc := newTestQuoteService(clock, prices)

	req := quoteRequest()
	req.SlippageBps = 20000
	_, err := svc.CreateQuote(context.Background(), req)
	require.True(t, errors.Is(err, swaperr.Validation))
	require.Equal(t, 1, prices.calls)
}

func TestGetQuoteExpired(t *testing.T) {
	clock := newFakeClock(1000)
	prices := &stubPriceSource{price: big.NewInt(1_000_000), decimals: 6}
	svc := newTestQuoteService(clock, prices)

	record, err := svc.CreateQuote(context.Background(), quoteRequest())
	require.NoError(t, err)

	clock.Advance((testTTL + 1) * time.Second)
	_, err = svc.GetQuote(record.QuoteID)
	require.True(t, errors.Is(err, swaperr.Expired))
}

func TestQuoteDeadlineMatchesCalldata(t *testing.T) {
	clock := newFakeClock(5000)
	prices := &stubPriceSource{price: big.NewInt(1_000_000), decimals: 6}
	svc := newTestQuoteService(clock, prices)

	record, err := svc.CreateQuote(context.Background(), quoteRequest())
	require.NoError(t, err)

	// The last 32 bytes of the router calldata are the deadline argument.
	calldata := record.Route.Calldata
	deadline := new(big.Int).SetBytes(calldata[len(calldata)-32:])
	require.Equal(t, record.ExpiresAt, deadline.Int64())
}
