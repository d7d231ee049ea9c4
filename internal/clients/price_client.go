package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/config"
	"swap-backend/internal/swaperr"
)

// PriceClient queries the price oracle service for reference prices.
type PriceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPriceClient creates a new price oracle client.
func NewPriceClient(cfg config.OracleConfig) *PriceClient {
	timeout := 10 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &PriceClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// priceResponse is the oracle's wire format: output-token wei per one whole
// unit of the base token, plus the base token's decimal count.
type priceResponse struct {
	PriceWei string `json:"price_wei"`
	Decimals uint8  `json:"decimals"`
}

// ReferencePrice returns the reference price for tokenIn -> tokenOut and
// tokenIn's decimals. Failures map to ChainRpcError; the orchestrator decides
// whether to retry.
func (c *PriceClient) ReferencePrice(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, uint8, error) {
	endpoint := fmt.Sprintf("%s/api/v1/price?base=%s&quote=%s",
		c.baseURL, url.QueryEscape(tokenIn.Hex()), url.QueryEscape(tokenOut.Hex()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, swaperr.ChainRpcf(err, "failed to create oracle request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, swaperr.ChainRpcf(err, "oracle request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, swaperr.ChainRpcf(err, "failed to read oracle response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, swaperr.ChainRpcf(nil, "oracle returned status %d: %s", resp.StatusCode, string(body))
	}

	var priceResp priceResponse
	if err := json.Unmarshal(body, &priceResp); err != nil {
		return nil, 0, swaperr.ChainRpcf(err, "failed to parse oracle response")
	}

	price, ok := new(big.Int).SetString(priceResp.PriceWei, 10)
	if !ok || price.Sign() < 0 {
		return nil, 0, swaperr.ChainRpcf(nil, "oracle returned malformed price: %q", priceResp.PriceWei)
	}
	return price, priceResp.Decimals, nil
}
