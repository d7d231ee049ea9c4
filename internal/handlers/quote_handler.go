package handlers

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"swap-backend/internal/pipeline"
	"swap-backend/internal/quotestore"
)

// QuoteHandler handles quote API requests
type QuoteHandler struct {
	quoteService *pipeline.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler instance
func NewQuoteHandler(quoteService *pipeline.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// CreateQuoteRequest is the POST /api/quote body.
type CreateQuoteRequest struct {
	TokenIn     string `json:"tokenIn" binding:"required"`
	TokenOut    string `json:"tokenOut" binding:"required"`
	Sender      string `json:"sender" binding:"required"`
	AmountIn    string `json:"amountIn" binding:"required"` // decimal string, wei
	SlippageBps int64  `json:"slippageBps"`
}

// CreateQuoteHandler handles POST /api/quote
// Prices the pair and returns a time-bounded quote with the encoded router call
func (h *QuoteHandler) CreateQuoteHandler(c *gin.Context) {
	var req CreateQuoteRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"tokenIn", req.TokenIn},
		{"tokenOut", req.TokenOut},
		{"sender", req.Sender},
	} {
		if !common.IsHexAddress(field.value) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": field.name + " must be a 20-byte hex address",
			})
			return
		}
	}

	amountIn, ok := new(big.Int).SetString(req.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "amountIn must be a positive decimal integer",
		})
		return
	}

	record, err := h.quoteService.CreateQuote(c.Request.Context(), &pipeline.CreateQuoteRequest{
		TokenIn:     common.HexToAddress(req.TokenIn),
		TokenOut:    common.HexToAddress(req.TokenOut),
		Sender:      common.HexToAddress(req.Sender),
		AmountIn:    amountIn,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse(record))
}

// GetQuoteHandler handles GET /api/quote/:id
// An unknown id returns 404, an expired quote 410; both mean the caller must
// request a fresh quote
func (h *QuoteHandler) GetQuoteHandler(c *gin.Context) {
	quoteID := c.Param("id")
	if quoteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "quote id is required",
		})
		return
	}

	record, err := h.quoteService.GetQuote(quoteID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse(record))
}

func quoteResponse(record *quotestore.QuoteRecord) gin.H {
	return gin.H{
		"quoteId":   record.QuoteID,
		"chainId":   record.ChainID,
		"tokenIn":   record.TokenIn.Hex(),
		"tokenOut":  record.TokenOut.Hex(),
		"sender":    record.Sender.Hex(),
		"amountIn":  record.AmountIn.String(),
		"amountOut": record.AmountOut.String(),
		"minOut":    record.MinOut.String(),
		"createdAt": record.CreatedAt,
		"expiresAt": record.ExpiresAt,
		"route": gin.H{
			"router":   record.Route.Router.Hex(),
			"calldata": hexutil.Encode(record.Route.Calldata),
		},
	}
}
