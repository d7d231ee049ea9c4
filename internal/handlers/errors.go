package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swap-backend/internal/swaperr"
)

// statusFor maps the pipeline error taxonomy to HTTP status codes. An expired
// quote is a distinct terminal outcome (410) so clients know a fresh quote is
// the only remediation.
func statusFor(err error) int {
	switch swaperr.KindOf(err) {
	case swaperr.KindMissingField:
		return http.StatusBadRequest
	case swaperr.KindValidation, swaperr.KindUnsupportedPair:
		return http.StatusUnprocessableEntity
	case swaperr.KindNotFound:
		return http.StatusNotFound
	case swaperr.KindExpired:
		return http.StatusGone
	case swaperr.KindChainRpc:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the uniform error body.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":   err.Error(),
		"code":    swaperr.CodeOf(err),
		"success": false,
	})
}
