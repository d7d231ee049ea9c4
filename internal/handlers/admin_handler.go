package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"swap-backend/internal/repository"
)

// AdminHandler serves the JWT-protected admin surface over the archive tables.
type AdminHandler struct {
	quotes   repository.QuoteArchiveRepository
	attempts repository.SwapAttemptRepository
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(quotes repository.QuoteArchiveRepository, attempts repository.SwapAttemptRepository) *AdminHandler {
	return &AdminHandler{quotes: quotes, attempts: attempts}
}

func pageParam(c *gin.Context, name string, fallback, max int) int {
	value := fallback
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 && parsed <= max {
			value = parsed
		}
	}
	return value
}

// ListQuotesHandler handles GET /api/admin/quotes
// Supports ?sender=, ?limit= and ?offset= filters over the archive
func (h *AdminHandler) ListQuotesHandler(c *gin.Context) {
	limit := pageParam(c, "limit", 50, 500)
	offset := pageParam(c, "offset", 0, 1<<30)

	quotes, total, err := h.quotes.List(c.Request.Context(), c.Query("sender"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query quotes",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"quotes":  quotes,
	})
}

// ListAttemptsHandler handles GET /api/admin/attempts
func (h *AdminHandler) ListAttemptsHandler(c *gin.Context) {
	limit := pageParam(c, "limit", 50, 500)

	attempts, err := h.attempts.List(c.Request.Context(), c.Query("state"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query attempts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"attempts": attempts,
	})
}
