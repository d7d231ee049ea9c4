package pipeline

import (
	"context"
	"errors"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/metrics"
	"swap-backend/internal/pricing"
	"swap-backend/internal/quotestore"
	"swap-backend/internal/swaperr"
	"swap-backend/internal/userop"
)

// PriceSource returns a reference price for a token pair: output-token wei per
// one whole input-token unit, plus the input token's decimal count.
type PriceSource interface {
	ReferencePrice(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, uint8, error)
}

// chainRpcRetries bounds quote-build retries on RPC failures. Errors outside
// quote building are never silently retried.
const chainRpcRetries = 3

// QuoteService builds, stores and serves quotes.
type QuoteService struct {
	engine  *pricing.Engine
	prices  PriceSource
	store   quotestore.Store
	clock   quotestore.Clock
	router  common.Address
	chainID uint64
	ttlSec  int64
}

// NewQuoteService creates a new QuoteService instance.
func NewQuoteService(engine *pricing.Engine, prices PriceSource, store quotestore.Store, clock quotestore.Clock, router common.Address, chainID uint64, ttlSec int64) *QuoteService {
	if clock == nil {
		clock = quotestore.SystemClock{}
	}
	return &QuoteService{
		engine:  engine,
		prices:  prices,
		store:   store,
		clock:   clock,
		router:  router,
		chainID: chainID,
		ttlSec:  ttlSec,
	}
}

// CreateQuoteRequest is the createQuote input after address validation.
type CreateQuoteRequest struct {
	TokenIn     common.Address
	TokenOut    common.Address
	Sender      common.Address
	AmountIn    *big.Int
	SlippageBps int64
}

// CreateQuote prices the pair, encodes the router call and persists the
// record. The record's ExpiresAt is both the off-chain TTL and the on-chain
// swap deadline. RPC failures reading the reference price are retried up to
// chainRpcRetries times; every other error surfaces immediately.
func (s *QuoteService) CreateQuote(ctx context.Context, req *CreateQuoteRequest) (*quotestore.QuoteRecord, error) {
	var (
		price    *big.Int
		decimals uint8
		err      error
	)
	for attempt := 0; attempt < chainRpcRetries; attempt++ {
		price, decimals, err = s.prices.ReferencePrice(ctx, req.TokenIn, req.TokenOut)
		if err == nil {
			break
		}
		if !errors.Is(err, swaperr.ChainRpc) || ctx.Err() != nil {
			return nil, err
		}
		log.Printf("⚠️ [QuoteService] Oracle read failed (attempt %d/%d): %v", attempt+1, chainRpcRetries, err)
	}
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Quote(req.TokenIn, req.TokenOut, price, decimals, req.AmountIn, req.SlippageBps)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().Unix()
	deadline := now + s.ttlSec

	calldata, err := userop.EncodeSwapExactIn(req.TokenIn, req.TokenOut, req.AmountIn, result.MinOut, req.Sender, deadline)
	if err != nil {
		return nil, swaperr.Encodingf("route_encode_failed", "failed to encode router call: %v", err)
	}

	record := &quotestore.QuoteRecord{
		ChainID:   s.chainID,
		CreatedAt: now,
		ExpiresAt: deadline,
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		Sender:    req.Sender,
		AmountIn:  new(big.Int).Set(req.AmountIn),
		AmountOut: result.ExpectedOut,
		MinOut:    result.MinOut,
		Route: quotestore.Route{
			Router:   s.router,
			Calldata: calldata,
		},
	}

	if _, err := s.store.Create(record); err != nil {
		return nil, err
	}

	metrics.QuotesCreated.Inc()
	log.Printf("💱 [QuoteService] Quote %s created: %s -> %s, amountIn=%s, minOut=%s, deadline=%d",
		record.QuoteID, req.TokenIn.Hex(), req.TokenOut.Hex(), req.AmountIn.String(), result.MinOut.String(), deadline)
	return record, nil
}

// GetQuote returns the live record for the id. Expired and unknown quotes are
// distinct terminal outcomes; the caller must request a fresh quote either way.
func (s *QuoteService) GetQuote(quoteID string) (*quotestore.QuoteRecord, error) {
	record, err := s.store.Get(quoteID)
	if err != nil {
		if errors.Is(err, swaperr.Expired) {
			metrics.QuotesExpired.Inc()
		}
		return nil, err
	}
	return record, nil
}
