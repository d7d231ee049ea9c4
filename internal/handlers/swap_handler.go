package handlers

import (
	"context"
	"log"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"swap-backend/internal/models"
	"swap-backend/internal/pipeline"
	"swap-backend/internal/repository"
	"swap-backend/internal/userop"
)

// SwapHandler handles user operation assembly and pipeline execution
type SwapHandler struct {
	quoteService *pipeline.QuoteService
	orchestrator *pipeline.Orchestrator
	policy       pipeline.Policy
	entryPoint   common.Address
	paymaster    common.Address
	delegate     common.Address
	chainID      uint64
	attempts     repository.SwapAttemptRepository
}

// NewSwapHandler creates a new SwapHandler instance
func NewSwapHandler(quoteService *pipeline.QuoteService, orchestrator *pipeline.Orchestrator, policy pipeline.Policy, entryPoint, paymaster, delegate common.Address, chainID uint64, attempts repository.SwapAttemptRepository) *SwapHandler {
	return &SwapHandler{
		quoteService: quoteService,
		orchestrator: orchestrator,
		policy:       policy,
		entryPoint:   entryPoint,
		paymaster:    paymaster,
		delegate:     delegate,
		chainID:      chainID,
		attempts:     attempts,
	}
}

// BuildSwapRequest is the POST /api/swap/build body.
type BuildSwapRequest struct {
	QuoteID              string `json:"quoteId" binding:"required"`
	Nonce                string `json:"nonce" binding:"required"`        // account nonce at the EntryPoint, decimal
	MaxFeePerGas         string `json:"maxFeePerGas" binding:"required"` // wei, decimal
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas" binding:"required"`
}

// BuildSwapHandler handles POST /api/swap/build
// Assembles a placeholder-signed packed operation from a live quote. The
// result is suitable for gas estimation; the placeholder signature is not an
// authorization of anything
func (h *SwapHandler) BuildSwapHandler(c *gin.Context) {
	var req BuildSwapRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	nonce, ok := new(big.Int).SetString(req.Nonce, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nonce must be a decimal integer"})
		return
	}
	maxFee, ok := new(big.Int).SetString(req.MaxFeePerGas, 10)
	if !ok || maxFee.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxFeePerGas must be a positive decimal integer"})
		return
	}
	maxPriority, ok := new(big.Int).SetString(req.MaxPriorityFeePerGas, 10)
	if !ok || maxPriority.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPriorityFeePerGas must be a decimal integer"})
		return
	}

	quote, err := h.quoteService.GetQuote(req.QuoteID)
	if err != nil {
		respondError(c, err)
		return
	}

	gas := pipeline.DefaultGasGuess(maxFee, maxPriority)
	addrs := pipeline.BuildAddresses{Paymaster: h.paymaster, Delegate: h.delegate}

	unsigned, feeAmount, err := pipeline.BuildUnsignedOperation(quote, h.policy, gas, addrs, nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	packed, err := userop.Pack(unsigned)
	if err != nil {
		respondError(c, err)
		return
	}

	opHash, err := userop.Hash(packed, h.entryPoint, h.chainID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quoteId":    quote.QuoteID,
		"userOp":     packed,
		"userOpHash": opHash.Hex(),
		"feeAmount":  feeAmount.String(),
		"entryPoint": h.entryPoint.Hex(),
		"chainId":    h.chainID,
	})
}

// ExecuteSwapRequest is the POST /api/swap/execute body.
type ExecuteSwapRequest struct {
	TokenIn              string `json:"tokenIn" binding:"required"`
	TokenOut             string `json:"tokenOut" binding:"required"`
	Sender               string `json:"sender" binding:"required"`
	AmountIn             string `json:"amountIn" binding:"required"`
	SlippageBps          int64  `json:"slippageBps"`
	Nonce                string `json:"nonce" binding:"required"`
	AuthNonce            uint64 `json:"authNonce"`
	MaxFeePerGas         string `json:"maxFeePerGas" binding:"required"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas" binding:"required"`
}

// ExecuteSwapHandler handles POST /api/swap/execute
// Runs the full pipeline: quote, build, estimate, sign once, submit with
// relay failover, poll for inclusion
func (h *SwapHandler) ExecuteSwapHandler(c *gin.Context) {
	if h.orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "swap execution is disabled: no signing backend configured",
			"code":  "signer_unavailable",
		})
		return
	}

	var req ExecuteSwapRequest

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
		c.JSON(http.StatusBadRequest, gin.H{"error": "amountIn must be a positive decimal integer"})
		return
	}
	nonce, ok := new(big.Int).SetString(req.Nonce, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nonce must be a decimal integer"})
		return
	}
	maxFee, ok := new(big.Int).SetString(req.MaxFeePerGas, 10)
	if !ok || maxFee.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxFeePerGas must be a positive decimal integer"})
		return
	}
	maxPriority, ok := new(big.Int).SetString(req.MaxPriorityFeePerGas, 10)
	if !ok || maxPriority.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPriorityFeePerGas must be a decimal integer"})
		return
	}

	result, execErr := h.orchestrator.Execute(c.Request.Context(), &pipeline.ExecuteRequest{
		Quote: &pipeline.CreateQuoteRequest{
			TokenIn:     common.HexToAddress(req.TokenIn),
			TokenOut:    common.HexToAddress(req.TokenOut),
			Sender:      common.HexToAddress(req.Sender),
			AmountIn:    amountIn,
			SlippageBps: req.SlippageBps,
		},
		Nonce:                nonce,
		AuthNonce:            req.AuthNonce,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: maxPriority,
	})

	h.logAttempt(result, req.Sender)

	response := gin.H{
		"attemptId": result.AttemptID,
		"state":     string(result.State),
		"quoteId":   result.QuoteID,
	}
	if result.Reason != "" {
		response["reason"] = result.Reason
	}
	if result.OpHash != (common.Hash{}) {
		response["userOpHash"] = result.OpHash.Hex()
	}
	if result.FeeAmount != nil {
		response["feeAmount"] = result.FeeAmount.String()
	}
	if result.Operation != nil {
		response["userOp"] = result.Operation
	}

	if execErr != nil {
		response["error"] = execErr.Error()
		c.JSON(statusFor(execErr), response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// logAttempt archives the terminal outcome; failures only log.
func (h *SwapHandler) logAttempt(result *pipeline.AttemptResult, sender string) {
	if h.attempts == nil || result == nil {
		return
	}

	record := models.SwapAttemptLog{
		AttemptID: result.AttemptID,
		QuoteID:   result.QuoteID,
		Sender:    sender,
		State:     string(result.State),
		Reason:    result.Reason,
	}
	if result.OpHash != (common.Hash{}) {
		record.OpHash = hexutil.Encode(result.OpHash[:])
	}
	if result.FeeAmount != nil {
		record.FeeAmount = result.FeeAmount.String()
	}
	if err := h.attempts.Create(context.Background(), &record); err != nil {
		log.Printf("⚠️ [SwapHandler] Failed to archive attempt %s: %v", result.AttemptID, err)
	}
}
