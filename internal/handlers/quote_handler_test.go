package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/pipeline"
	"swap-backend/internal/pricing"
	"swap-backend/internal/quotestore"
)

var (
	testTokenIn  = "0x55d398326f99059fF775485246999027B3197955"
	testTokenOut = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
	testSender   = "0x1111111111111111111111111111111111111111"
)

type fixedPriceSource struct{}

func (fixedPriceSource) ReferencePrice(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, uint8, error) {
	return big.NewInt(1_000_000_000_000_000), 6, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newQuoteRouter() (*gin.Engine, *testClock) {
	gin.SetMode(gin.TestMode)

	clock := &testClock{now: time.Unix(1000, 0)}
	engine := pricing.NewEngine(
		[]common.Address{common.HexToAddress(testTokenIn)},
		common.HexToAddress(testTokenOut),
	)
	store := quotestore.NewMemoryStore(clock)
	svc := pipeline.NewQuoteService(engine, fixedPriceSource{}, store, clock,
		common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"), 56, 60)

	h := NewQuoteHandler(svc)
	r := gin.New()
	r.POST("/api/quote", h.CreateQuoteHandler)
	r.GET("/api/quote/:id", h.GetQuoteHandler)
	return r, clock
}

func postQuote(t *testing.T, r *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func validQuoteBody() map[string]interface{} {
	return map[string]interface{}{
		"tokenIn":     testTokenIn,
		"tokenOut":    testTokenOut,
		"sender":      testSender,
		"amountIn":    "1000000",
		"slippageBps": 50,
	}
}

func TestCreateQuoteEndpoint(t *testing.T) {
	r, _ := newQuoteRouter()

	w := postQuote(t, r, validQuoteBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["quoteId"])
	require.Equal(t, "1000000000000000", resp["amountOut"])
	require.Equal(t, "992000000000000", resp["minOut"])
	require.Equal(t, float64(1060), resp["expiresAt"])
}

func TestCreateQuoteRejectsBadAddress(t *testing.T) {
	r, _ := newQuoteRouter()

	body := validQuoteBody()
	body["sender"] = "not-an-address"
	w := postQuote(t, r, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateQuoteRejectsBadAmount(t *testing.T) {
	r, _ := newQuoteRouter()

	for _, amount := range []string{"0", "-5", "1.5", "abc"} {
		body := validQuoteBody()
		body["amountIn"] = amount
		w := postQuote(t, r, body)
		require.Equal(t, http.StatusBadRequest, w.Code, "amountIn=%s", amount)
	}
}

func TestCreateQuoteUnsupportedPair(t *testing.T) {
	r, _ := newQuoteRouter()

	body := validQuoteBody()
	body["tokenIn"], body["tokenOut"] = body["tokenOut"], body["tokenIn"]
	w := postQuote(t, r, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "unsupported_pair", resp["code"])
}

func TestGetQuoteNotFound(t *testing.T) {
	r, _ := newQuoteRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quote/unknown-id", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQuoteExpiredReturnsGone(t *testing.T) {
	r, clock := newQuoteRouter()

	w := postQuote(t, r, validQuoteBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	quoteID := resp["quoteId"].(string)

	// Alive right up to the deadline.
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, httptest.NewRequest(http.MethodGet, "/api/quote/"+quoteID, nil))
	require.Equal(t, http.StatusOK, getW.Code)

	clock.Advance(61 * time.Second)
	goneW := httptest.NewRecorder()
	r.ServeHTTP(goneW, httptest.NewRequest(http.MethodGet, "/api/quote/"+quoteID, nil))
	require.Equal(t, http.StatusGone, goneW.Code)

	var goneResp map[string]interface{}
	require.NoError(t, json.Unmarshal(goneW.Body.Bytes(), &goneResp))
	require.Equal(t, "quote_expired", goneResp["code"])
}
